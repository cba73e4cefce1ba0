// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"

	"github.com/google/uuid"
)

var ErrUnknownMediaKind = errors.New("unknown media kind")

// SessionID is scoped to one connection and never reused.
type SessionID string

func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

type MediaKind string

const (
	MediaAudio MediaKind = "audio"
	MediaVideo MediaKind = "video"
)

func ParseMediaKind(s string) (MediaKind, error) {
	switch MediaKind(s) {
	case MediaAudio, MediaVideo:
		return MediaKind(s), nil
	}
	return "", ErrUnknownMediaKind
}

// MediaState is advisory: it never gates the peer-to-peer transport.
type MediaState struct {
	AudioEnabled bool `json:"audioEnabled"`
	VideoEnabled bool `json:"videoEnabled"`
}

func DefaultMediaState() MediaState {
	return MediaState{AudioEnabled: true, VideoEnabled: true}
}

func (m MediaState) With(kind MediaKind, enabled bool) MediaState {
	switch kind {
	case MediaAudio:
		m.AudioEnabled = enabled
	case MediaVideo:
		m.VideoEnabled = enabled
	}
	return m
}

// Session represents one participant for the lifetime of one connection.
// Room is empty until the first join and never changes afterwards.
type Session struct {
	ID          SessionID
	DisplayName string
	Room        RoomID
	Media       MediaState
}

// NewSession avoids raw literals in adapters and keeps construction obvious.
func NewSession(id SessionID) Session {
	return Session{ID: id, Media: DefaultMediaState()}
}

func (s Session) InRoom() bool { return s.Room != "" }
