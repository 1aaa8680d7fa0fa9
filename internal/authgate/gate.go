// Package authgate tracks whether a usable credential is selected and runs
// the host's credential-selection flow when cloud calls fail authorization.
package authgate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/iceiceblakey1/atelier/internal/gemini"
)

// RecoveryChunk is the single chunk emitted into a text stream that aborted
// on an authorization failure the gate could repair.
const RecoveryChunk = "Engine re-authenticating. Please try sending that again."

// CredentialSource is the host-provided credential integration.
type CredentialSource interface {
	// HasSelectedCredential reports whether a usable credential is selected.
	HasSelectedCredential(ctx context.Context) (bool, error)

	// OpenCredentialPicker runs the interactive selection flow, returning
	// once the user has acted.
	OpenCredentialPicker(ctx context.Context) error
}

// State is the gate's position in its two-state machine.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Gate guards cloud dispatch with the credential state machine.
type Gate struct {
	source CredentialSource

	mu    sync.Mutex
	state State
}

// New creates a gate and probes the source for its initial state.
func New(ctx context.Context, source CredentialSource) *Gate {
	g := &Gate{source: source}
	has, err := source.HasSelectedCredential(ctx)
	if err != nil {
		slog.Warn("credential probe failed, starting unauthenticated", "error", err)
	}
	if has {
		g.state = Authenticated
	}
	return g
}

// State returns the current gate state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// EnsureAuthenticated opens the credential picker when the gate is
// unauthenticated, awaiting the user before the caller dispatches. It is the
// one-shot retry path: a picker failure is returned, never looped.
func (g *Gate) EnsureAuthenticated(ctx context.Context) error {
	g.mu.Lock()
	if g.state == Authenticated {
		g.mu.Unlock()
		return nil
	}
	g.mu.Unlock()

	if err := g.source.OpenCredentialPicker(ctx); err != nil {
		return fmt.Errorf("credential selection: %w", err)
	}

	has, err := g.source.HasSelectedCredential(ctx)
	if err != nil {
		return fmt.Errorf("credential check: %w", err)
	}
	if !has {
		return fmt.Errorf("no credential selected")
	}

	g.mu.Lock()
	g.state = Authenticated
	g.mu.Unlock()
	return nil
}

// HandleFailure inspects a call failure. Authorization-class errors drop the
// gate back to Unauthenticated and return true; everything else is left to
// the caller. Classification is typed, never substring matching.
func (g *Gate) HandleFailure(err error) bool {
	if !gemini.IsUnauthorized(err) {
		return false
	}
	g.mu.Lock()
	g.state = Unauthenticated
	g.mu.Unlock()
	slog.Info("authorization failure, gate reset", "error", err)
	return true
}
