// Package camera abstracts the platform camera behind a single capability
// interface so the scan engine never branches on platform at a call site.
// Two implementations exist: a one-shot capture matching the native platform
// camera UI, and a continuous frame stream matching the in-page web decoder.
package camera

import (
	"context"
	"errors"
	"image"
	"time"
)

// Facing selects which camera to open. The scan engine prefers the
// rear-facing camera and falls back to front-facing.
type Facing string

const (
	FacingBack  Facing = "environment"
	FacingFront Facing = "user"
)

var (
	// ErrNoCamera means no camera matching the requested facing exists.
	ErrNoCamera = errors.New("no camera found")
	// ErrBusy means the camera exists but could not be acquired.
	ErrBusy = errors.New("camera busy or unavailable")
	// ErrPermissionDenied means the platform refused media access at open
	// time (the web path, where permission is only knowable here).
	ErrPermissionDenied = errors.New("camera permission denied")
)

// Frame is a single sampled video frame.
type Frame struct {
	Image image.Image
	At    time.Time
}

// ZoomRange describes a track's optical zoom capability.
type ZoomRange struct {
	Min, Max, Step float64
}

// Capabilities advertises what the underlying track supports. Zoom is nil
// when the hardware has no optical zoom.
type Capabilities struct {
	Zoom *ZoomRange
}

// Track is the live media track of an open stream. Stop must be idempotent:
// every exit path of the scan engine converges on it.
type Track interface {
	Capabilities() Capabilities
	// ApplyZoom issues an optical zoom constraint. Returns an error when the
	// track has no zoom capability or the hardware rejects the value.
	ApplyZoom(level float64) error
	Stop()
}

// Stream is an acquired camera stream. Frames is closed when the stream ends
// (one-shot capture done, or Close called). Close must be idempotent.
type Stream interface {
	Frames() <-chan Frame
	Track() Track
	Close() error
}

// Device opens camera streams. Implementations are chosen once at
// initialization by Detect, never ad hoc per call.
type Device interface {
	Open(ctx context.Context, facing Facing) (Stream, error)
	// Native reports whether this device drives the platform capture UI
	// (true) or an in-process decode loop (false).
	Native() bool
}
