// Package rewards holds the client-side reward catalog and the redemption
// flow. The catalog is defined locally; affordability is enforced before any
// request leaves the device.
package rewards

import "errors"

// Category groups rewards for the catalog tabs.
type Category string

const (
	CategoryRestaurant    Category = "restaurant"
	CategoryCafe          Category = "cafe"
	CategoryRetail        Category = "retail"
	CategoryEntertainment Category = "entertainment"
)

// Reward is a redeemable catalog entry. PointCost is always positive.
type Reward struct {
	ID          string
	Name        string
	Brand       string
	Description string
	PointCost   int
	Category    Category
	ImageRef    string
	Discount    string
	Validity    string
}

// Catalog returns the static reward catalog.
func Catalog() []Reward {
	return []Reward{
		{
			ID:          "rw-001",
			Name:        "2x1 en menú del día",
			Brand:       "La Huerta Verde",
			Description: "Dos menús del día por el precio de uno en cualquier local.",
			PointCost:   400,
			Category:    CategoryRestaurant,
			ImageRef:    "rewards/la-huerta-verde.jpg",
			Discount:    "2x1",
			Validity:    "30 días",
		},
		{
			ID:          "rw-002",
			Name:        "Café americano gratis",
			Brand:       "Café Andino",
			Description: "Un café americano de cortesía en la compra de cualquier postre.",
			PointCost:   150,
			Category:    CategoryCafe,
			ImageRef:    "rewards/cafe-andino.jpg",
			Validity:    "15 días",
		},
		{
			ID:          "rw-003",
			Name:        "20% de descuento",
			Brand:       "Tienda Verde",
			Description: "Descuento en toda la línea de productos reutilizables.",
			PointCost:   300,
			Category:    CategoryRetail,
			ImageRef:    "rewards/tienda-verde.jpg",
			Discount:    "-20%",
			Validity:    "60 días",
		},
		{
			ID:          "rw-004",
			Name:        "Entrada al cine",
			Brand:       "CineStar",
			Description: "Una entrada 2D para cualquier función de lunes a jueves.",
			PointCost:   600,
			Category:    CategoryEntertainment,
			ImageRef:    "rewards/cinestar.jpg",
			Validity:    "45 días",
		},
		{
			ID:          "rw-005",
			Name:        "Bolsa reutilizable",
			Brand:       "EcoPoints",
			Description: "Bolsa de tela del programa, recogida en cualquier estación.",
			PointCost:   100,
			Category:    CategoryRetail,
			ImageRef:    "rewards/bolsa-ecopoints.jpg",
		},
		{
			ID:          "rw-006",
			Name:        "Almuerzo saludable",
			Brand:       "Sabor Natural",
			Description: "Bowl de quinua con bebida incluida.",
			PointCost:   450,
			Category:    CategoryRestaurant,
			ImageRef:    "rewards/sabor-natural.jpg",
			Discount:    "-30%",
			Validity:    "30 días",
		},
	}
}

// ErrNotFound is returned when a reward ID is not in the catalog.
var ErrNotFound = errors.New("reward not found")

// Find looks a reward up by ID in the static catalog.
func Find(id string) (Reward, error) {
	for _, r := range Catalog() {
		if r.ID == id {
			return r, nil
		}
	}
	return Reward{}, ErrNotFound
}

// FilterByCategory returns the catalog entries in the given category; an
// empty category returns everything.
func FilterByCategory(c Category) []Reward {
	if c == "" {
		return Catalog()
	}
	var out []Reward
	for _, r := range Catalog() {
		if r.Category == c {
			out = append(out, r)
		}
	}
	return out
}
