// Package poll implements the client side of the chat synchronisation
// protocol: re-fetch the full thread history on a fixed interval and
// replace the local view wholesale. There are no deltas, sequence numbers
// or gap detection; consistency comes from the server's stable total order
// at the cost of O(thread length) bandwidth per poll.
package poll

import (
	"context"
	"sync"
	"time"

	"uk.co.dudmesh.nevermore/internal/model"
)

// Fetch returns the full ordered history for the thread being watched.
type Fetch func(ctx context.Context) ([]model.Message, error)

type Synchroniser struct {
	interval time.Duration
	fetch    Fetch
	onUpdate func([]model.Message)

	mu        sync.Mutex
	confirmed []model.Message
	pending   []model.Message
}

// New builds a synchroniser for one thread view. onUpdate is called with
// the combined view whenever it changes and may be nil.
func New(interval time.Duration, fetch Fetch, onUpdate func([]model.Message)) *Synchroniser {
	if onUpdate == nil {
		onUpdate = func([]model.Message) {}
	}
	return &Synchroniser{interval: interval, fetch: fetch, onUpdate: onUpdate}
}

// Run fetches once immediately, then on every tick until the context is
// cancelled. A failed poll is retried on the next tick; abandoning a
// thread is simply cancelling the context, no server-side cleanup exists.
func (s *Synchroniser) Run(ctx context.Context) error {
	_ = s.Refresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_ = s.Refresh(ctx)
		}
	}
}

// Refresh performs one poll: the fetched history replaces the confirmed
// view, and any optimistic entry the server now knows about is dropped.
func (s *Synchroniser) Refresh(ctx context.Context) error {
	history, err := s.fetch(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.confirmed = history
	remaining := s.pending[:0]
	for _, message := range s.pending {
		if !containsLocal(history, message) {
			remaining = append(remaining, message)
		}
	}
	s.pending = remaining
	view := s.viewLocked()
	s.mu.Unlock()

	s.onUpdate(view)
	return nil
}

// AppendLocal adds a just-sent message to the view before the next poll
// confirms it. The entry carries no ID until reconciled.
func (s *Synchroniser) AppendLocal(message model.Message) {
	s.mu.Lock()
	message.ID = 0
	s.pending = append(s.pending, message)
	view := s.viewLocked()
	s.mu.Unlock()

	s.onUpdate(view)
}

// Confirm reconciles an optimistic entry against the canonical record
// returned by the send call.
func (s *Synchroniser) Confirm(canonical model.Message) {
	s.mu.Lock()
	for i, message := range s.pending {
		if message.Sender == canonical.Sender && message.Content == canonical.Content {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			break
		}
	}
	s.confirmed = append(s.confirmed, canonical)
	view := s.viewLocked()
	s.mu.Unlock()

	s.onUpdate(view)
}

// View returns a copy of the current combined view: confirmed history in
// server order followed by unconfirmed optimistic entries.
func (s *Synchroniser) View() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Synchroniser) viewLocked() []model.Message {
	view := make([]model.Message, 0, len(s.confirmed)+len(s.pending))
	view = append(view, s.confirmed...)
	view = append(view, s.pending...)
	return view
}

func containsLocal(history []model.Message, local model.Message) bool {
	for _, message := range history {
		if message.Sender == local.Sender && message.Content == local.Content {
			return true
		}
	}
	return false
}
