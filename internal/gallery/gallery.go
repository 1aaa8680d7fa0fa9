// Package gallery keeps the session's generated artifacts in memory,
// most-recent-first. Nothing here is durable: a restart empties it, which
// is the contract.
package gallery

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Artifact is one successful image synthesis.
type Artifact struct {
	ID        string    `json:"id"`
	Data      string    `json:"data"` // data URL
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Gallery is a bounded, newest-first artifact list safe for concurrent use.
type Gallery struct {
	mu    sync.Mutex
	items []Artifact
	limit int
}

// New creates a gallery retaining at most limit artifacts; limit <= 0 means
// unbounded.
func New(limit int) *Gallery {
	return &Gallery{limit: limit}
}

// Add prepends a new artifact and returns it.
func (g *Gallery) Add(data, prompt string) Artifact {
	a := Artifact{
		ID:        uuid.New().String(),
		Data:      data,
		Prompt:    prompt,
		CreatedAt: time.Now().UTC(),
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.items = append([]Artifact{a}, g.items...)
	if g.limit > 0 && len(g.items) > g.limit {
		g.items = g.items[:g.limit]
	}
	return a
}

// List returns a copy of the artifacts, newest first.
func (g *Gallery) List() []Artifact {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Artifact, len(g.items))
	copy(out, g.items)
	return out
}

// Get returns the artifact with the given id.
func (g *Gallery) Get(id string) (Artifact, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, a := range g.items {
		if a.ID == id {
			return a, true
		}
	}
	return Artifact{}, false
}

// Len returns the current artifact count.
func (g *Gallery) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.items)
}
