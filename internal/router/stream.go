package router

import (
	"context"
	"sync"
)

// Stream is a lazy, single-pass, forward-only sequence of text chunks.
// Chunks arrive in production order; the channel closes when the stream
// terminates. Close cancels the producer, making abandonment explicit
// rather than a side effect of walking away.
type Stream struct {
	ch     chan string
	cancel context.CancelFunc

	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

func newStream(cancel context.CancelFunc) *Stream {
	return &Stream{
		ch:     make(chan string, 16),
		cancel: cancel,
	}
}

// Chunks returns the chunk channel. It is closed on terminal outcome.
func (s *Stream) Chunks() <-chan string {
	return s.ch
}

// Err reports how the stream ended. Valid once Chunks is closed; nil means
// the stream completed normally (including the recovered-auth ending).
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close cancels the producer. Safe to call multiple times and after the
// stream has already finished.
func (s *Stream) Close() {
	s.closeOnce.Do(s.cancel)
}

func (s *Stream) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// push delivers one chunk unless the stream was canceled.
func (s *Stream) push(ctx context.Context) func(string) error {
	return func(text string) error {
		select {
		case s.ch <- text:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
