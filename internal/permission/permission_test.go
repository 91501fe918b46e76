package permission

import (
	"context"
	"testing"
)

// fakeAuthorizer scripts the platform's answers and counts prompts.
type fakeAuthorizer struct {
	current Status
	answer  Status
	prompts int
}

func (f *fakeAuthorizer) Current(ctx context.Context) (Status, error) {
	return f.current, nil
}

func (f *fakeAuthorizer) Prompt(ctx context.Context) (Status, error) {
	f.prompts++
	return f.answer, nil
}

func TestWebIsOptimistic(t *testing.T) {
	ctx := context.Background()
	w := Web{}

	if st, _ := w.Check(ctx); st != StatusPrompt {
		t.Errorf("Check = %q, want prompt", st)
	}
	// The browser cannot be queried ahead of time; the real denial surfaces
	// at camera open.
	if st, _ := w.Request(ctx); st != StatusGranted {
		t.Errorf("Request = %q, want granted", st)
	}
}

func TestNativePromptsOnlyWhenUndetermined(t *testing.T) {
	ctx := context.Background()
	auth := &fakeAuthorizer{current: StatusPrompt, answer: StatusGranted}
	n := NewNative(auth)

	st, err := n.Request(ctx)
	if err != nil || st != StatusGranted {
		t.Fatalf("Request = %q, %v", st, err)
	}
	if auth.prompts != 1 {
		t.Errorf("expected 1 prompt, got %d", auth.prompts)
	}

	// Cached grant: no second prompt.
	if st, _ := n.Request(ctx); st != StatusGranted {
		t.Errorf("second Request = %q, want granted", st)
	}
	if auth.prompts != 1 {
		t.Errorf("cached grant must not re-prompt, got %d prompts", auth.prompts)
	}
}

func TestNativeDenialIsTerminal(t *testing.T) {
	ctx := context.Background()
	auth := &fakeAuthorizer{current: StatusPrompt, answer: StatusDenied}
	n := NewNative(auth)

	if st, _ := n.Request(ctx); st != StatusDenied {
		t.Fatalf("Request = %q, want denied", st)
	}
	// Denial never triggers an automatic re-prompt.
	if st, _ := n.Request(ctx); st != StatusDenied {
		t.Errorf("Request after denial = %q, want denied", st)
	}
	if auth.prompts != 1 {
		t.Errorf("expected exactly 1 prompt, got %d", auth.prompts)
	}
}

func TestNativeRationaleAllowsReprompt(t *testing.T) {
	ctx := context.Background()
	auth := &fakeAuthorizer{current: StatusPromptWithRationale, answer: StatusGranted}
	n := NewNative(auth)

	if st, _ := n.Check(ctx); st != StatusPromptWithRationale {
		t.Fatalf("Check = %q, want prompt-with-rationale", st)
	}
	// After showing the rationale, a new request may prompt again.
	if st, _ := n.Request(ctx); st != StatusGranted {
		t.Errorf("Request = %q, want granted", st)
	}
	if auth.prompts != 1 {
		t.Errorf("expected 1 prompt, got %d", auth.prompts)
	}
}
