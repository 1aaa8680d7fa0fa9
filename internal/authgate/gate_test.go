package authgate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/iceiceblakey1/atelier/internal/gemini"
)

// fakeSource is a scriptable credential source.
type fakeSource struct {
	has        bool
	hasErr     error
	pickerErr  error
	pickerRuns int
	// pickerSelects makes the picker flip has to true when it runs.
	pickerSelects bool
}

func (f *fakeSource) HasSelectedCredential(ctx context.Context) (bool, error) {
	return f.has, f.hasErr
}

func (f *fakeSource) OpenCredentialPicker(ctx context.Context) error {
	f.pickerRuns++
	if f.pickerErr != nil {
		return f.pickerErr
	}
	if f.pickerSelects {
		f.has = true
	}
	return nil
}

func authErr() error {
	return &gemini.APIError{Kind: gemini.KindUnauthorized, Status: http.StatusForbidden, Message: "denied"}
}

func TestInitialState(t *testing.T) {
	ctx := context.Background()

	if g := New(ctx, &fakeSource{has: true}); g.State() != Authenticated {
		t.Error("gate with credential should start authenticated")
	}
	if g := New(ctx, &fakeSource{has: false}); g.State() != Unauthenticated {
		t.Error("gate without credential should start unauthenticated")
	}
	if g := New(ctx, &fakeSource{has: true, hasErr: errors.New("probe down")}); g.State() != Authenticated {
		// has=true still wins; the error is only logged.
		t.Error("probe error should not discard a positive answer")
	}
}

func TestEnsureAuthenticatedNoopWhenAuthenticated(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{has: true}
	g := New(ctx, src)

	if err := g.EnsureAuthenticated(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.pickerRuns != 0 {
		t.Errorf("picker ran %d times, want 0", src.pickerRuns)
	}
}

func TestEnsureAuthenticatedRunsPickerOnce(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{has: false, pickerSelects: true}
	g := New(ctx, src)

	if err := g.EnsureAuthenticated(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.State() != Authenticated {
		t.Error("gate should be authenticated after successful selection")
	}
	if src.pickerRuns != 1 {
		t.Errorf("picker ran %d times, want exactly 1", src.pickerRuns)
	}
}

func TestEnsureAuthenticatedPickerDeclined(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{has: false} // picker runs but selects nothing
	g := New(ctx, src)

	if err := g.EnsureAuthenticated(ctx); err == nil {
		t.Fatal("expected error when no credential gets selected")
	}
	if g.State() != Unauthenticated {
		t.Error("gate must stay unauthenticated")
	}
}

func TestEnsureAuthenticatedPickerFailure(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{has: false, pickerErr: errors.New("user closed dialog")}
	g := New(ctx, src)

	err := g.EnsureAuthenticated(ctx)
	if err == nil {
		t.Fatal("expected picker failure to propagate")
	}
	if src.pickerRuns != 1 {
		t.Errorf("picker ran %d times, want 1 (no auto-retry)", src.pickerRuns)
	}
}

func TestHandleFailure(t *testing.T) {
	ctx := context.Background()
	g := New(ctx, &fakeSource{has: true})

	if g.HandleFailure(fmt.Errorf("wrapped: %w", authErr())) != true {
		t.Error("wrapped authorization error should be recognized")
	}
	if g.State() != Unauthenticated {
		t.Error("authorization failure must reset the gate")
	}

	g2 := New(ctx, &fakeSource{has: true})
	notFound := &gemini.APIError{Kind: gemini.KindNotFound, Status: 404, Message: "no such model"}
	if g2.HandleFailure(notFound) {
		t.Error("404 must not count as an authorization failure")
	}
	if g2.HandleFailure(errors.New("connection refused")) {
		t.Error("plain transport errors must not reset the gate")
	}
	if g2.State() != Authenticated {
		t.Error("gate state must survive non-auth failures")
	}
}
