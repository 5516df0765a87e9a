package chat

import (
	"strings"
	"time"

	"uk.co.dudmesh.nevermore/internal/model"
	"uk.co.dudmesh.nevermore/internal/store"
)

// Service is the message store behind the polling sync protocol: an
// append-only log per user pair with a full-history read model. History is
// a pure read and safe to poll arbitrarily often; the only ordering that
// matters is append order within a pair.
type service struct {
	store *store.Store
}

func New(store *store.Store) *service {
	return &service{store: store}
}

// Send appends a message to the pair's log and returns the canonical
// record (store-assigned ID, server timestamp) the client reconciles its
// optimistic append against.
//
// The pair must hold an unlocked connection in at least one direction;
// the riddle gate is not re-run here.
func (s *service) Send(senderUsername, recipientUsername, content string) (*model.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, model.ErrorEmptyMessage
	}

	sender, err := s.store.FetchUserByUsername(senderUsername)
	if err != nil {
		return nil, err
	}
	recipient, err := s.store.FetchUserByUsername(recipientUsername)
	if err != nil {
		return nil, err
	}

	unlocked, err := s.store.PairUnlocked(sender.ID, recipient.ID)
	if err != nil {
		return nil, err
	}
	if !unlocked {
		return nil, model.ErrorNotConnected
	}

	message := &model.Message{
		Sender:    sender.Username,
		Recipient: recipient.Username,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	if err := s.store.AppendMessage(message); err != nil {
		return nil, err
	}
	return message, nil
}

// History returns the full ordered thread between two users. Each poll
// returns the complete log rather than a delta; the client replaces its
// view wholesale, which keeps the protocol consistent without sequence
// bookkeeping.
func (s *service) History(usernameA, usernameB string) ([]model.Message, error) {
	if _, err := s.store.FetchUserByUsername(usernameA); err != nil {
		return nil, err
	}
	if _, err := s.store.FetchUserByUsername(usernameB); err != nil {
		return nil, err
	}
	return s.store.History(usernameA, usernameB)
}

// Partners lists the users the given user holds an unlocked connection
// with.
func (s *service) Partners(id model.UserID) ([]model.PublicUser, error) {
	users, err := s.store.Partners(id)
	if err != nil {
		return nil, err
	}
	public := make([]model.PublicUser, 0, len(users))
	for i := range users {
		public = append(public, users[i].Public())
	}
	return public, nil
}
