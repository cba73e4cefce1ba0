package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseMediaKind(t *testing.T) {
	for _, s := range []string{"audio", "video"} {
		if k, err := ParseMediaKind(s); err != nil || string(k) != s {
			t.Fatalf("%s: %v %v", s, k, err)
		}
	}
	if _, err := ParseMediaKind("screen"); !errors.Is(err, ErrUnknownMediaKind) {
		t.Fatalf("err = %v", err)
	}
}

func TestMediaStateWith(t *testing.T) {
	m := DefaultMediaState()
	if !m.AudioEnabled || !m.VideoEnabled {
		t.Fatal("new sessions start with audio and video on")
	}
	m = m.With(MediaAudio, false)
	if m.AudioEnabled || !m.VideoEnabled {
		t.Fatalf("audio off: %+v", m)
	}
	m = m.With(MediaVideo, false).With(MediaAudio, true)
	if !m.AudioEnabled || m.VideoEnabled {
		t.Fatalf("video off: %+v", m)
	}
}

func TestNewSessionIDUnique(t *testing.T) {
	seen := map[SessionID]bool{}
	for i := 0; i < 100; i++ {
		id := NewSessionID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestIdlePlayback(t *testing.T) {
	now := time.Unix(10, 0)
	p := IdlePlayback(now)
	if p.Active() || p.IsPlaying || p.PositionSeconds != 0 || !p.LastUpdate.Equal(now) {
		t.Fatalf("idle = %+v", p)
	}
	if s := NewSession("x"); s.InRoom() {
		t.Fatal("new session is not in a room")
	}
}
