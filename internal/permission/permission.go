// Package permission negotiates camera-use authorization with the host
// platform. The state is owned by the platform; this package mirrors it and
// gates the scan engine.
package permission

import (
	"context"
	"sync"
)

// Status is the platform's camera authorization state.
type Status string

const (
	// StatusPrompt means the user was never asked.
	StatusPrompt Status = "prompt"
	// StatusGranted means camera use is authorized.
	StatusGranted Status = "granted"
	// StatusDenied means the user refused. On native platforms this is
	// terminal for the session: only an OS-level settings change clears it.
	StatusDenied Status = "denied"
	// StatusPromptWithRationale means the user refused once and the platform
	// wants an explanation shown before asking again.
	StatusPromptWithRationale Status = "prompt-with-rationale"
)

// Negotiator queries and requests camera authorization.
type Negotiator interface {
	// Check returns the current status without prompting.
	Check(ctx context.Context) (Status, error)
	// Request prompts the user if the status is undetermined, otherwise
	// returns the cached status immediately.
	Request(ctx context.Context) (Status, error)
}

// Web is the browser-platform negotiator. Browsers expose no queryable
// camera permission ahead of time; the media-access prompt fires at
// camera-open. Request therefore reports an optimistic grant and lets the
// downstream camera open surface the real denial.
type Web struct{}

func (Web) Check(ctx context.Context) (Status, error)   { return StatusPrompt, nil }
func (Web) Request(ctx context.Context) (Status, error) { return StatusGranted, nil }

// Authorizer is the native platform hook that actually shows the system
// permission dialog.
type Authorizer interface {
	// Current returns the platform's recorded status without prompting.
	Current(ctx context.Context) (Status, error)
	// Prompt shows the system dialog and returns the user's answer.
	Prompt(ctx context.Context) (Status, error)
}

// Native negotiates with a real platform authorizer and caches the answer.
type Native struct {
	auth Authorizer

	mu     sync.Mutex
	status Status
}

// NewNative creates a native negotiator over the given platform hook.
func NewNative(auth Authorizer) *Native {
	return &Native{auth: auth, status: StatusPrompt}
}

// Check re-queries the platform without prompting and caches the result.
func (n *Native) Check(ctx context.Context) (Status, error) {
	st, err := n.auth.Current(ctx)
	if err != nil {
		return StatusDenied, err
	}
	n.mu.Lock()
	n.status = st
	n.mu.Unlock()
	return st, nil
}

// Request prompts only when the status is still undetermined. A cached grant
// or denial is returned as-is; denial requires a manual OS settings change,
// never an automatic retry.
func (n *Native) Request(ctx context.Context) (Status, error) {
	n.mu.Lock()
	cached := n.status
	n.mu.Unlock()

	if cached == StatusGranted || cached == StatusDenied {
		return cached, nil
	}

	st, err := n.auth.Prompt(ctx)
	if err != nil {
		return StatusDenied, err
	}
	n.mu.Lock()
	n.status = st
	n.mu.Unlock()
	return st, nil
}
