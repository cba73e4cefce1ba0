package core

import (
	"errors"

	"github.com/dkeye/samerow/internal/domain"
)

// ErrRoomClosed is returned by a room that was evicted from its manager.
// Callers fetch the room again and retry.
var ErrRoomClosed = errors.New("room closed")

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []MemberSession
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	ID           domain.SessionID `json:"sessionId"`
	DisplayName  string           `json:"displayName"`
	AudioEnabled bool             `json:"audioEnabled"`
	VideoEnabled bool             `json:"videoEnabled"`
}

// RoomService is the core-facing API of a room.
// It owns the membership set and the playback state behind one lock
// but never touches transport resources beyond TrySend.
// Fan-out happens while the lock is held, so every recipient set
// matches membership at call time.
type RoomService interface {
	ID() domain.RoomID
	MemberCount() int
	MembersSnapshot() []MemberDTO
	MembersExcept(sid domain.SessionID) []domain.SessionID
	Has(sid domain.SessionID) bool

	// Join adds ms and sends announce to the members that were present before it.
	Join(ms MemberSession, announce Frame) (PublishResult, error)
	// Leave removes sid and sends announce to the remaining members.
	Leave(sid domain.SessionID, announce Frame) (PublishResult, bool)
	// Broadcast sends data to every member except the given one; an empty except reaches everyone.
	Broadcast(except domain.SessionID, data Frame) PublishResult

	Playback() domain.PlaybackState
	SetMediaRef(ref string, announce Frame) (domain.PlaybackState, PublishResult, error)
	SetTransport(isPlaying bool, positionSeconds float64, except domain.SessionID, announce Frame) (domain.PlaybackState, PublishResult, error)

	// CloseIfEmpty closes the room when it has no members.
	CloseIfEmpty() bool
}

type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"memberCount"`
	Playing     bool          `json:"playing"`
}

// RoomManager is the room registry: rooms appear on first reference.
type RoomManager interface {
	GetOrCreate(id domain.RoomID) RoomService
	Get(id domain.RoomID) (RoomService, bool)
	List() []RoomInfo
	Count() int
	// EvictIfEmpty drops the room when it has no members left.
	EvictIfEmpty(id domain.RoomID) bool
}
