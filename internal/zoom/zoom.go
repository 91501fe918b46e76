// Package zoom adjusts camera magnification for an active scan. The mode is
// detected once per session from track capabilities: optical when the
// hardware advertises zoom, digital (scale the rendered surface) otherwise.
package zoom

import (
	"sync"

	"github.com/ecopoints-app/ecopoints/internal/camera"
)

// Bounds of the user-facing zoom range, identical in both modes.
const (
	MinLevel = 1.0
	MaxLevel = 4.0
	// Step is the increment used by the +/- buttons; the slider may set any
	// clamped value directly.
	Step = 0.5
)

// Mode says how zoom is realized.
type Mode string

const (
	// ModeOptical issues constraint updates to the camera track.
	ModeOptical Mode = "optical"
	// ModeDigital scales and crops the rendered video instead.
	ModeDigital Mode = "digital"
)

// Controller applies bounded zoom levels to one camera track. Not
// user-selectable: the mode is fixed at construction from capabilities.
type Controller struct {
	track camera.Track
	mode  Mode

	mu    sync.Mutex
	level float64
}

// NewController detects the mode for the given track and starts at 1.0x.
func NewController(track camera.Track) *Controller {
	mode := ModeDigital
	if track != nil && track.Capabilities().Zoom != nil {
		mode = ModeOptical
	}
	return &Controller{track: track, mode: mode, level: MinLevel}
}

// Mode returns the detected zoom mode.
func (c *Controller) Mode() Mode { return c.mode }

// Level returns the last successfully applied zoom level. On the optical
// path this never runs ahead of hardware confirmation.
func (c *Controller) Level() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

// Set applies the requested level, clipped to [MinLevel, MaxLevel]. An
// out-of-range request is clamped, never rejected. The returned level is
// what is actually in effect.
func (c *Controller) Set(level float64) (float64, error) {
	level = clamp(level)

	if c.mode == ModeOptical {
		if err := c.track.ApplyZoom(level); err != nil {
			// Hardware refused; the displayed value stays at the last
			// applied level.
			return c.Level(), err
		}
	}
	c.mu.Lock()
	c.level = level
	c.mu.Unlock()
	return level, nil
}

// Increase steps the level up by Step.
func (c *Controller) Increase() (float64, error) {
	return c.Set(c.Level() + Step)
}

// Decrease steps the level down by Step.
func (c *Controller) Decrease() (float64, error) {
	return c.Set(c.Level() - Step)
}

// Scale returns the factor a digital-mode renderer should apply to the video
// surface. Optical mode needs no surface transform, so it reports 1.0.
func (c *Controller) Scale() float64 {
	if c.mode == ModeOptical {
		return 1.0
	}
	return c.Level()
}

func clamp(level float64) float64 {
	if level < MinLevel {
		return MinLevel
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}
