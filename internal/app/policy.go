package app

import (
	"fmt"

	"github.com/dkeye/samerow/internal/core"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickMember
)

// Policy decides what happens to a session whose outbound queue is full.
type Policy interface {
	OnBackPressure(member core.MemberSession) BackpressureAction
}

// DropPolicy loses the frame and keeps the session: signaling is best effort.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(core.MemberSession) BackpressureAction { return DropFrame }

// KickPolicy disconnects sessions that cannot keep up.
type KickPolicy struct{}

func (KickPolicy) OnBackPressure(core.MemberSession) BackpressureAction { return KickMember }

func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", "drop":
		return DropPolicy{}, nil
	case "kick":
		return KickPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown backpressure policy %q", name)
}
