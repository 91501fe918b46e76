package rewards

import "errors"

// ErrInsufficientPoints is returned by AttemptRedeem when the current
// balance cannot cover the reward's cost. No confirmation is shown and no
// request is made in that case.
var ErrInsufficientPoints = errors.New("insufficient points")

// MsgInsufficientPoints is the user-facing text for a failed affordability
// check.
const MsgInsufficientPoints = "No tienes suficientes ecopoints"

// Flow drives a redemption from affordability check to completion.
// Balance must report the points the user currently holds; OnRedeem runs
// once per confirmed redemption.
type Flow struct {
	Balance  func() int
	OnRedeem func(Reward)
	OnNotice func(message string)
}

// Confirmation is a pending redemption awaiting the user's decision.
type Confirmation struct {
	Reward           Reward
	ProjectedBalance int

	flow *Flow
	done bool
}

// AttemptRedeem checks affordability for the given reward. When the balance
// is short it notifies and fails fast; otherwise it returns a Confirmation
// showing the balance the user would be left with.
func (f *Flow) AttemptRedeem(r Reward) (*Confirmation, error) {
	bal := f.Balance()
	if bal < r.PointCost {
		f.notify(MsgInsufficientPoints)
		return nil, ErrInsufficientPoints
	}
	return &Confirmation{
		Reward:           r,
		ProjectedBalance: bal - r.PointCost,
		flow:             f,
	}, nil
}

// Confirm completes the redemption. Calling it more than once has no
// further effect.
func (c *Confirmation) Confirm() {
	if c.done {
		return
	}
	c.done = true
	if c.flow.OnRedeem != nil {
		c.flow.OnRedeem(c.Reward)
	}
	c.flow.notify("¡Canje exitoso! Disfruta tu recompensa.")
}

// Cancel abandons the redemption. The balance is untouched.
func (c *Confirmation) Cancel() {
	c.done = true
}

func (f *Flow) notify(msg string) {
	if f.OnNotice != nil {
		f.OnNotice(msg)
	}
}
