package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/xxxsen/ragserve/internal/model"
)

// Session is one conversational thread. It owns the continuation state the
// generation backend hands back after every turn; nothing else reads or writes
// that state.
//
// Sessions carry no lock. The intended usage is one human issuing turns
// serially; two concurrent Ask calls on the same session race on the
// continuation state with last-writer-wins semantics. Serializing per-session
// calls would need a per-session mutex or queue in front of Ask.
type Session struct {
	id           uuid.UUID
	svc          *ChatService
	contextState []int64
}

// NewSession creates a fresh session with empty continuation state. The caller
// is responsible for putting it into a Store.
func (s *ChatService) NewSession() *Session {
	return &Session{
		id:  uuid.New(),
		svc: s,
	}
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

// Ask runs one full pipeline pass for prompt and threads the session's
// continuation state through the generation call. Retrieval runs fresh on
// every turn; nothing from prior turns is reused except the continuation
// state. Every turn returns the top-K results regardless of score. On any
// failure the continuation state is left exactly as it was.
func (s *Session) Ask(ctx context.Context, prompt string) (*model.ChatResponse, error) {
	resp, contextState, err := s.svc.answer(ctx, prompt, nil, s.contextState)
	if err != nil {
		return nil, err
	}
	s.contextState = contextState
	return resp, nil
}
