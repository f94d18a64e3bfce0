package service

import (
	"errors"

	"ai-learning-coach-be/internal/pkg/serverutils"
	"ai-learning-coach-be/pkg/store"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository is where sessions live; the go-cache repository in
// internal/repository/memory implements it.
type SessionRepository interface {
	Save(session *store.Session)
	Get(sessionID string) (*store.Session, bool)
	Delete(sessionID string)
	All() []*store.Session
	Count() int
}

// SessionPusher sends websocket frames; the hub implements it.
type SessionPusher interface {
	SendToSession(sessionID string, data []byte)
	Broadcast(data []byte)
}

func findSession(repo SessionRepository, sessionID string) (*store.Session, error) {
	session, ok := repo.Get(sessionID)
	if !ok {
		return nil, serverutils.NewNotFoundError("Session not found", ErrSessionNotFound)
	}
	return session, nil
}
