package domain

import "time"

// RoomID is supplied by clients; a room exists once somebody references it.
type RoomID string

// PlaybackState is the shared player position of a room.
// An empty MediaRef means no shared playback is active.
type PlaybackState struct {
	MediaRef        string
	IsPlaying       bool
	PositionSeconds float64
	LastUpdate      time.Time
}

func IdlePlayback(now time.Time) PlaybackState {
	return PlaybackState{LastUpdate: now}
}

func (p PlaybackState) Active() bool { return p.MediaRef != "" }
