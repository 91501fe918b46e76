// Package scan drives the QR scan-and-redeem flow: permission negotiation,
// camera lifecycle, frame decoding, and submission of the decoded payload to
// the validation endpoint. One Engine handles one scan session at a time.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ecopoints-app/ecopoints/internal/api"
	"github.com/ecopoints-app/ecopoints/internal/camera"
	"github.com/ecopoints-app/ecopoints/internal/permission"
	"github.com/ecopoints-app/ecopoints/internal/zoom"
)

// State is the engine's lifecycle position.
type State string

const (
	StateIdle                 State = "idle"
	StateRequestingPermission State = "requesting-permission"
	StateStarting             State = "starting"
	StateScanning             State = "scanning"
	StateDecoded              State = "decoded"
	StateStopped              State = "stopped"
	StateError                State = "error"
)

// Failure classifies scan errors for the view.
type Failure string

const (
	FailurePermissionDenied   Failure = "permission-denied"
	FailureNoCamera           Failure = "no-camera-found"
	FailureCameraBusy         Failure = "camera-busy-or-unknown"
	FailureBackendUnreachable Failure = "decode-backend-unreachable"
)

// Error is a classified scan failure.
type Error struct {
	Failure Failure
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("scan: %s: %v", e.Failure, e.cause)
	}
	return fmt.Sprintf("scan: %s", e.Failure)
}

func (e *Error) Unwrap() error { return e.cause }

// SuccessOverlayDuration is how long the view shows the earned-points
// overlay before the engine is ready again.
const SuccessOverlayDuration = 3 * time.Second

// NoticeKind tells the view how to render a transient notification.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
	NoticeInfo    NoticeKind = "info"
)

// Notice is a transient user-facing notification. Every failure becomes one
// of these; none crash the view and none retry automatically.
type Notice struct {
	Kind     NoticeKind
	Message  string
	Points   int
	Duration time.Duration
}

// EarnedEvent reports a validated scan upward exactly once per capture.
type EarnedEvent struct {
	Points      int
	Description string
	Location    string
}

// Validator submits a decoded payload for server-side validation.
// *api.Client satisfies it.
type Validator interface {
	ValidateQR(ctx context.Context, payload string) (*api.ScanResult, error)
}

// Engine is the scan state machine. Construct with New, wire the callbacks,
// then drive it with Start and Stop. All callbacks fire from the scan
// goroutine.
type Engine struct {
	perms     permission.Negotiator
	device    camera.Device
	decoder   Decoder
	validator Validator
	logger    *slog.Logger

	// OnEarned fires once per validated capture.
	OnEarned func(EarnedEvent)
	// OnNotice surfaces transient notifications.
	OnNotice func(Notice)
	// OnState observes transitions, mainly for the view and tests.
	OnState func(State)

	mu       sync.Mutex
	state    State
	stream   camera.Stream
	zoomCtrl *zoom.Controller
	stopping bool
}

// New creates an idle engine.
func New(perms permission.Negotiator, device camera.Device, decoder Decoder, validator Validator, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		perms:     perms,
		device:    device,
		decoder:   decoder,
		validator: validator,
		logger:    logger,
		state:     StateIdle,
	}
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Zoom returns the controller for the active stream, or nil when no stream
// is held.
func (e *Engine) Zoom() *zoom.Controller {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.zoomCtrl
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	cb := e.OnState
	e.mu.Unlock()
	if cb != nil {
		cb(s)
	}
}

func (e *Engine) notify(n Notice) {
	if e.OnNotice != nil {
		e.OnNotice(n)
	}
}

// Start begins a scan session. It is only ever invoked on explicit user
// action. Permission negotiation and camera acquisition run synchronously so
// their failures are returned classified; scanning then continues in the
// background until a decode, a Stop, or an error.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateIdle {
		e.mu.Unlock()
		return fmt.Errorf("scan: session already active (state %s)", e.state)
	}
	e.state = StateRequestingPermission
	e.stopping = false
	e.mu.Unlock()
	if e.OnState != nil {
		e.OnState(StateRequestingPermission)
	}

	st, err := e.perms.Request(ctx)
	if err != nil || st != permission.StatusGranted {
		e.setState(StateIdle)
		msg := "Permiso de cámara denegado. Por favor, habilita los permisos en configuración."
		e.notify(Notice{Kind: NoticeError, Message: msg})
		return &Error{Failure: FailurePermissionDenied, Message: msg, cause: err}
	}

	e.setState(StateStarting)
	stream, err := e.openStream(ctx)
	if err != nil {
		e.setState(StateIdle)
		serr := classifyCameraError(err)
		e.notify(Notice{Kind: NoticeError, Message: serr.Message})
		return serr
	}

	e.mu.Lock()
	if e.stopping {
		// Stop landed while the camera was being acquired. The session is
		// already cancelled; release the stream and do not start scanning.
		e.mu.Unlock()
		if cerr := stream.Close(); cerr != nil {
			e.logger.Warn("closing camera stream", "err", cerr)
		}
		return nil
	}
	e.stream = stream
	e.zoomCtrl = zoom.NewController(stream.Track())
	e.state = StateScanning
	e.mu.Unlock()
	if e.OnState != nil {
		e.OnState(StateScanning)
	}

	go e.scanLoop(ctx, stream)
	return nil
}

// openStream tries the rear-facing camera first, falling back to
// front-facing on the continuous path. The native capture UI picks its own
// camera, so no fallback applies there.
func (e *Engine) openStream(ctx context.Context) (camera.Stream, error) {
	stream, err := e.device.Open(ctx, camera.FacingBack)
	if err == nil {
		return stream, nil
	}
	if e.device.Native() || errors.Is(err, camera.ErrPermissionDenied) {
		return nil, err
	}
	e.logger.Debug("rear camera unavailable, trying front", "err", err)
	return e.device.Open(ctx, camera.FacingFront)
}

// scanLoop samples frames until the first decodable payload. The first hit
// tears the camera down before anything else happens, which is what bounds
// the flow to at most one submission per scan session.
func (e *Engine) scanLoop(ctx context.Context, stream camera.Stream) {
	for frame := range stream.Frames() {
		payload, ok := e.decoder.Decode(frame.Image)
		if !ok {
			continue
		}
		e.setState(StateDecoded)
		e.teardown()
		e.submit(ctx, payload)
		return
	}

	// Frame channel ended without a decode: either the user stopped the
	// session (Stop already handled state), or a one-shot capture produced
	// no readable code.
	e.mu.Lock()
	stopped := e.stopping
	e.mu.Unlock()
	e.teardown()
	if !stopped {
		e.notify(Notice{Kind: NoticeError, Message: "Error al procesar el código QR. Intenta nuevamente."})
		e.setState(StateIdle)
	}
}

// submit sends the opaque payload to the validation endpoint and converts
// every outcome into a notice. Nothing is retried; a new attempt requires
// the user to start another session.
func (e *Engine) submit(ctx context.Context, payload string) {
	res, err := e.validator.ValidateQR(ctx, payload)
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		e.logger.Info("scan rejected, session expired")
		e.notify(Notice{Kind: NoticeError, Message: "Sesión expirada. Inicia sesión nuevamente."})
		e.setState(StateIdle)
	case err != nil:
		e.logger.Error("qr validation failed", "err", err)
		e.notify(Notice{Kind: NoticeError, Message: "Error al procesar el código QR. Intenta nuevamente."})
		e.setState(StateIdle)
	default:
		desc := res.Message
		if desc == "" {
			desc = "Escaneo QR"
		}
		if e.OnEarned != nil {
			e.OnEarned(EarnedEvent{Points: res.Points, Description: desc, Location: res.Location})
		}
		e.notify(Notice{
			Kind:     NoticeSuccess,
			Message:  fmt.Sprintf("¡%s! Ganaste %d ecopoints", desc, res.Points),
			Points:   res.Points,
			Duration: SuccessOverlayDuration,
		})
		e.setState(StateIdle)
	}
}

// Stop is the user-initiated cancellation. Like teardown it is safe from any
// state, including after an error or when nothing is running.
func (e *Engine) Stop() {
	e.mu.Lock()
	running := e.state == StateStarting || e.state == StateScanning
	e.stopping = true
	e.mu.Unlock()

	e.teardown()
	if running {
		e.setState(StateStopped)
		e.setState(StateIdle)
	}
}

// teardown releases the camera stream and zoom controller. Every exit path
// from Scanning converges here: decode, user stop, error, and view unmount.
// It is idempotent so no path can leak a dangling media track.
func (e *Engine) teardown() {
	e.mu.Lock()
	stream := e.stream
	e.stream = nil
	e.zoomCtrl = nil
	e.mu.Unlock()

	if stream != nil {
		if err := stream.Close(); err != nil {
			e.logger.Warn("closing camera stream", "err", err)
		}
	}
}

func classifyCameraError(err error) *Error {
	switch {
	case errors.Is(err, camera.ErrPermissionDenied):
		return &Error{
			Failure: FailurePermissionDenied,
			Message: "Permiso de cámara denegado. Por favor, permite el acceso a la cámara.",
			cause:   err,
		}
	case errors.Is(err, camera.ErrNoCamera):
		return &Error{
			Failure: FailureNoCamera,
			Message: "No se encontró ninguna cámara disponible.",
			cause:   err,
		}
	default:
		return &Error{
			Failure: FailureCameraBusy,
			Message: "No se pudo acceder a la cámara.",
			cause:   err,
		}
	}
}
