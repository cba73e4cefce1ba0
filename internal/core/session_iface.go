package core

import "github.com/dkeye/samerow/internal/domain"

// MemberSession binds domain.Session and its transport endpoint.
// This is what a room stores and fans out to.
type MemberSession interface {
	ID() domain.SessionID
	Meta() domain.Session
	Signal() SignalConnection
	// BindRoom succeeds only once per session lifetime.
	BindRoom(room domain.RoomID, displayName string) bool
	SetMedia(kind domain.MediaKind, enabled bool) domain.MediaState
}
