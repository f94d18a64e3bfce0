package memory

import (
	"time"

	"ai-learning-coach-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

const (
	DefaultSessionTTL      = time.Hour
	defaultCleanupInterval = 10 * time.Minute
)

type SessionRepository struct {
	cache *cache.Cache
}

// NewSessionRepository keeps sessions for ttl after their last touch; a
// non-positive ttl uses DefaultSessionTTL.
func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionRepository{
		cache: cache.New(ttl, defaultCleanupInterval),
	}
}

func (r *SessionRepository) Save(session *store.Session) {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

// Get returns the session and extends its lifetime.
func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, false
	}
	session := x.(*store.Session)
	r.cache.Set(sessionID, session, cache.DefaultExpiration)
	return session, true
}

// Exists checks for the session without touching its lifetime.
func (r *SessionRepository) Exists(sessionID string) bool {
	_, found := r.cache.Get(sessionID)
	return found
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

// All returns every live session.
func (r *SessionRepository) All() []*store.Session {
	items := r.cache.Items()
	sessions := make([]*store.Session, 0, len(items))
	for _, item := range items {
		if s, ok := item.Object.(*store.Session); ok {
			sessions = append(sessions, s)
		}
	}
	return sessions
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}

// OnEvicted registers a callback run when a session expires or is deleted.
func (r *SessionRepository) OnEvicted(fn func(sessionID string)) {
	r.cache.OnEvicted(func(key string, _ interface{}) { fn(key) })
}
