// Package orch wires sessions, rooms and the relay together. Every exported
// method is called from the owning session's read loop, so calls for one
// session never overlap; calls for different sessions run in parallel.
package orch

import (
	"errors"
	"time"

	"github.com/dkeye/samerow/internal/app"
	"github.com/dkeye/samerow/internal/core"
	"github.com/dkeye/samerow/internal/domain"
	"github.com/dkeye/samerow/internal/protocol"
	"github.com/rs/zerolog/log"
)

type LeaveScope string

const (
	// LeaveScopeRoom tells only the departed member's room.
	LeaveScopeRoom LeaveScope = "room"
	// LeaveScopeGlobal tells every connected session.
	LeaveScopeGlobal LeaveScope = "global"
)

type Options struct {
	LeaveScope      LeaveScope
	EvictEmptyRooms bool
}

type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Policy   app.Policy
	Options  Options
	Now      func() time.Time
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Connect registers a fresh session and tells it its identity.
// It has no effect on any room.
func (o *Orchestrator) Connect(sess core.MemberSession, cancel func()) {
	o.Registry.Bind(sess, cancel)
	o.sendTo(sess, protocol.Welcome{Type: protocol.TypeWelcome, SelfID: sess.ID()})
}

// withRoom retries fn when it raced with the eviction of an empty room.
func (o *Orchestrator) withRoom(id domain.RoomID, fn func(core.RoomService) error) error {
	for {
		err := fn(o.Rooms.GetOrCreate(id))
		if !errors.Is(err, core.ErrRoomClosed) {
			return err
		}
		log.Debug().Str("module", "orch").Str("room", string(id)).Msg("room evicted mid-operation, retrying")
	}
}

// resolveRoom prefers the room named by the client and falls back to the session's own.
func resolveRoom(sess core.MemberSession, raw string) domain.RoomID {
	if raw != "" {
		return domain.RoomID(raw)
	}
	return sess.Meta().Room
}

func (o *Orchestrator) encode(v any) (core.Frame, bool) {
	b, err := protocol.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode event")
		return nil, false
	}
	return b, true
}

// sendTo enqueues one event for a single session.
func (o *Orchestrator) sendTo(sess core.MemberSession, v any) bool {
	frame, ok := o.encode(v)
	if !ok {
		return false
	}
	return o.deliver(sess, frame)
}

func (o *Orchestrator) deliver(sess core.MemberSession, frame core.Frame) bool {
	if err := sess.Signal().TrySend(frame); err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(sess.ID())).Msg("send dropped")
		if errors.Is(err, core.ErrBackpressure) {
			o.onBackpressure(sess)
		}
		return false
	}
	return true
}

// handleResult records fan-out stats and applies the backpressure policy.
// It runs after the room lock is released.
func (o *Orchestrator) handleResult(event string, res core.PublishResult) {
	app.MetricFanout.WithLabelValues(event, "sent").Add(float64(res.SendTo))
	if len(res.Dropped) == 0 {
		return
	}
	app.MetricFanout.WithLabelValues(event, "dropped").Add(float64(len(res.Dropped)))
	for _, slow := range res.Dropped {
		o.onBackpressure(slow)
	}
}

func (o *Orchestrator) onBackpressure(member core.MemberSession) {
	if o.Policy == nil {
		return
	}
	switch o.Policy.OnBackPressure(member) {
	case app.KickMember:
		log.Warn().Str("module", "orch").Str("sid", string(member.ID())).Msg("kicking slow session")
		o.Registry.Cancel(member.ID())
	case app.DropFrame, app.NoAction:
	}
}
