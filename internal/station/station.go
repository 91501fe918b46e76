// Package station generates the rotating QR payloads shown on recycling
// station displays, and parses/verifies them server-side. A payload is valid
// only within its rotation window; clients treat the encoded string as
// opaque.
package station

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

// RotationInterval is how long a generated payload stays valid on screen.
const RotationInterval = 30 * time.Second

// Material is the recycling material a station accepts.
type Material string

const (
	MaterialPlastic Material = "plastic"
	MaterialGlass   Material = "glass"
	MaterialPaper   Material = "paper"
	MaterialMetal   Material = "metal"
	MaterialOrganic Material = "organic"
)

// Points returns how many ecopoints a deposit of the material earns.
func Points(m Material) int {
	switch m {
	case MaterialPlastic:
		return 25
	case MaterialGlass:
		return 20
	case MaterialMetal:
		return 30
	case MaterialPaper:
		return 15
	case MaterialOrganic:
		return 10
	default:
		return 0
	}
}

// Payload is the JSON document encoded into the station's QR code.
type Payload struct {
	StationID    string   `json:"stationId"`
	MaterialType Material `json:"materialType"`
	Timestamp    int64    `json:"timestamp"`
	Signature    string   `json:"signature"`
}

// Sign computes the signature for a station at a given issue time.
func Sign(stationID string, issuedAt time.Time) string {
	return fmt.Sprintf("ECO-%s-%d", stationID, issuedAt.UnixMilli())
}

// ErrInvalid marks a payload that is garbled, missigned, or expired.
var ErrInvalid = errors.New("invalid station payload")

// Parse decodes a scanned string into a Payload. Structure only; call Verify
// to check signature and freshness.
func Parse(raw string) (Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if p.StationID == "" || p.Signature == "" {
		return Payload{}, fmt.Errorf("%w: missing fields", ErrInvalid)
	}
	return p, nil
}

// Verify checks the payload's signature and that it was issued within the
// rotation window relative to now.
func (p Payload) Verify(now time.Time) error {
	if p.Signature != Sign(p.StationID, time.UnixMilli(p.Timestamp)) {
		return fmt.Errorf("%w: bad signature", ErrInvalid)
	}
	issued := time.UnixMilli(p.Timestamp)
	age := now.Sub(issued)
	if age < -RotationInterval || age > RotationInterval {
		return fmt.Errorf("%w: expired", ErrInvalid)
	}
	return nil
}

// Generator produces the payload currently on a station's display. The
// payload is stable within a rotation window and changes at each boundary.
type Generator struct {
	StationID string
	Material  Material
	Now       func() time.Time
}

// Current returns the payload for the active rotation window.
func (g *Generator) Current() Payload {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	issued := now().Truncate(RotationInterval)
	return Payload{
		StationID:    g.StationID,
		MaterialType: g.Material,
		Timestamp:    issued.UnixMilli(),
		Signature:    Sign(g.StationID, issued),
	}
}

// Encode returns the JSON string clients scan off the display.
func (g *Generator) Encode() (string, error) {
	data, err := json.Marshal(g.Current())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// PNG renders the current payload as a QR code image of the given pixel size.
func (g *Generator) PNG(size int) ([]byte, error) {
	s, err := g.Encode()
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(s, qrcode.Medium, size)
}
