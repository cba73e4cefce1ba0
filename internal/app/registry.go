package app

import (
	"context"
	"sync"

	"github.com/dkeye/samerow/internal/core"
	"github.com/dkeye/samerow/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	Session core.MemberSession
	Cancel  context.CancelFunc
}

// Registry tracks every connected session, joined or not.
// It is the lookup table for point-to-point relay.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[domain.SessionID]*sessionEntry),
	}
}

func (r *Registry) Bind(sess core.MemberSession, cancel context.CancelFunc) {
	sid := sess.ID()
	r.mu.Lock()
	r.sessions[sid] = &sessionEntry{Session: sess, Cancel: cancel}
	n := len(r.sessions)
	r.mu.Unlock()
	metricSessions.Set(float64(n))
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Int("sessions", n).Msg("bound session")
}

func (r *Registry) GetSession(sid domain.SessionID) (core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Session, true
	}
	return nil, false
}

// Unbind removes the session and returns it. The second call for the
// same sid reports false, which makes disconnect handling idempotent.
func (r *Registry) Unbind(sid domain.SessionID) (core.MemberSession, bool) {
	r.mu.Lock()
	e, ok := r.sessions[sid]
	if ok {
		delete(r.sessions, sid)
	}
	n := len(r.sessions)
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	metricSessions.Set(float64(n))
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Int("sessions", n).Msg("unbind session")
	return e.Session, true
}

func (r *Registry) RoomOf(sid domain.SessionID) (domain.RoomID, bool) {
	sess, ok := r.GetSession(sid)
	if !ok {
		return "", false
	}
	meta := sess.Meta()
	return meta.Room, meta.InRoom()
}

// Others returns every connected session except sid.
func (r *Registry) Others(sid domain.SessionID) []core.MemberSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.MemberSession, 0, len(r.sessions))
	for id, e := range r.sessions {
		if id != sid {
			out = append(out, e.Session)
		}
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Cancel stops the session's pumps; cleanup follows through the read loop.
func (r *Registry) Cancel(sid domain.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}
