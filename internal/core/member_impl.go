package core

import (
	"sync"

	"github.com/dkeye/samerow/internal/domain"
)

// memberSession implements MemberSession by pairing meta + transport.
type memberSession struct {
	mu     sync.RWMutex
	meta   domain.Session
	signal SignalConnection
}

func NewMemberSession(id domain.SessionID, signal SignalConnection) MemberSession {
	return &memberSession{meta: domain.NewSession(id), signal: signal}
}

func (m *memberSession) ID() domain.SessionID     { return m.meta.ID }
func (m *memberSession) Signal() SignalConnection { return m.signal }

func (m *memberSession) Meta() domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.meta
}

func (m *memberSession) BindRoom(room domain.RoomID, displayName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.meta.InRoom() {
		return false
	}
	m.meta.Room = room
	m.meta.DisplayName = displayName
	return true
}

func (m *memberSession) SetMedia(kind domain.MediaKind, enabled bool) domain.MediaState {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta.Media = m.meta.Media.With(kind, enabled)
	return m.meta.Media
}
