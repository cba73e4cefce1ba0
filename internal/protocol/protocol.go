// Package protocol describes the JSON events exchanged over the signaling socket.
// Every message is an object with a "type" field naming the event.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkeye/samerow/internal/domain"
)

// Client -> server events.
const (
	TypeJoinRoom      = "join-room"
	TypeSignal        = "signal"
	TypeMediaState    = "media-state"
	TypeSyncRequest   = "sync-request"
	TypeMediaRef      = "media-ref-changed"
	TypePlaybackState = "playback-state-changed"
	TypePing          = "ping"
)

// Server -> client events.
const (
	TypeWelcome           = "welcome"
	TypeRoomState         = "room-state"
	TypeMemberJoined      = "member-joined"
	TypeMemberLeft        = "member-left"
	TypeMediaStateChanged = "media-state-changed"
	TypePong              = "pong"
)

// Envelope is decoded first to pick a handler.
type Envelope struct {
	Type string `json:"type"`
}

type JoinRoom struct {
	RoomID      string `json:"roomId"`
	DisplayName string `json:"displayName"`
}

// SignalIn carries an opaque negotiation payload; it is relayed byte for byte.
type SignalIn struct {
	Payload     json.RawMessage `json:"payload"`
	To          string          `json:"to"`
	DisplayName string          `json:"displayName"`
}

type MediaStateIn struct {
	RoomID  string `json:"roomId"`
	Kind    string `json:"kind"`
	Enabled *bool  `json:"enabled"`
}

type SyncRequest struct {
	RoomID string `json:"roomId"`
}

type MediaRefIn struct {
	RoomID   string `json:"roomId"`
	MediaRef string `json:"mediaRef"`
}

type PlaybackStateIn struct {
	RoomID          string   `json:"roomId"`
	IsPlaying       *bool    `json:"isPlaying"`
	PositionSeconds *float64 `json:"positionSeconds"`
}

type Welcome struct {
	Type   string           `json:"type"`
	SelfID domain.SessionID `json:"selfId"`
}

type Member struct {
	SessionID    domain.SessionID `json:"sessionId"`
	DisplayName  string           `json:"displayName"`
	AudioEnabled bool             `json:"audioEnabled"`
	VideoEnabled bool             `json:"videoEnabled"`
}

type RoomState struct {
	Type    string        `json:"type"`
	RoomID  domain.RoomID `json:"roomId"`
	Members []Member      `json:"members"`
}

type MemberJoined struct {
	Type        string           `json:"type"`
	SessionID   domain.SessionID `json:"sessionId"`
	DisplayName string           `json:"displayName"`
}

type MemberLeft struct {
	Type      string           `json:"type"`
	SessionID domain.SessionID `json:"sessionId"`
}

type signalHead struct {
	Type        string           `json:"type"`
	From        domain.SessionID `json:"from"`
	DisplayName string           `json:"displayName"`
}

type MediaStateChanged struct {
	Type      string           `json:"type"`
	SessionID domain.SessionID `json:"sessionId"`
	Kind      domain.MediaKind `json:"kind"`
	Enabled   bool             `json:"enabled"`
}

// MediaRefChanged has a null mediaRef when no shared playback is active.
type MediaRefChanged struct {
	Type     string  `json:"type"`
	MediaRef *string `json:"mediaRef"`
}

// PlaybackStateChanged is sent live (without lastUpdate) and as a snapshot.
// Receivers reconcile drift against their own clock.
type PlaybackStateChanged struct {
	Type            string  `json:"type"`
	IsPlaying       bool    `json:"isPlaying"`
	PositionSeconds float64 `json:"positionSeconds"`
	MediaRef        *string `json:"mediaRef,omitempty"`
	LastUpdate      int64   `json:"lastUpdate,omitempty"`
}

type Pong struct {
	Type string `json:"type"`
	Time int64  `json:"time"`
}

func NewMediaRefChanged(ref string) MediaRefChanged {
	msg := MediaRefChanged{Type: TypeMediaRef}
	if ref != "" {
		msg.MediaRef = &ref
	}
	return msg
}

// NewPlaybackSnapshot renders a stored state for a late joiner.
func NewPlaybackSnapshot(p domain.PlaybackState) PlaybackStateChanged {
	msg := PlaybackStateChanged{
		Type:            TypePlaybackState,
		IsPlaying:       p.IsPlaying,
		PositionSeconds: p.PositionSeconds,
		LastUpdate:      p.LastUpdate.UnixMilli(),
	}
	if p.Active() {
		ref := p.MediaRef
		msg.MediaRef = &ref
	}
	return msg
}

func NewPong(now time.Time) Pong {
	return Pong{Type: TypePong, Time: now.UnixMilli()}
}

// Encode marshals an outbound event.
func Encode(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return b, nil
}

// EncodeSignal builds the relayed signal event. The payload bytes are spliced
// in untouched; json.Marshal would compact and HTML-escape them.
func EncodeSignal(from domain.SessionID, displayName string, payload json.RawMessage) ([]byte, error) {
	head, err := Encode(signalHead{Type: TypeSignal, From: from, DisplayName: displayName})
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	out := make([]byte, 0, len(head)+len(payload)+12)
	out = append(out, head[:len(head)-1]...)
	out = append(out, `,"payload":`...)
	out = append(out, payload...)
	out = append(out, '}')
	return out, nil
}

// Decode unmarshals an inbound event body into v.
func Decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}
