package orch

import (
	"github.com/dkeye/samerow/internal/core"
	"github.com/dkeye/samerow/internal/domain"
	"github.com/dkeye/samerow/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Join binds the session to roomID, creating the room if needed, and
// announces it to the members already present. A session joins at most once;
// later joins are ignored.
func (o *Orchestrator) Join(sid domain.SessionID, roomID domain.RoomID, displayName string) bool {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return false
	}
	if roomID == "" {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Msg("join without room id dropped")
		return false
	}
	if !sess.BindRoom(roomID, displayName) {
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomID)).
			Str("current", string(sess.Meta().Room)).Msg("duplicate join ignored")
		return false
	}

	announce, ok := o.encode(protocol.MemberJoined{
		Type:        protocol.TypeMemberJoined,
		SessionID:   sid,
		DisplayName: displayName,
	})
	if !ok {
		return false
	}

	var (
		room core.RoomService
		res  core.PublishResult
	)
	_ = o.withRoom(roomID, func(r core.RoomService) error {
		var err error
		room = r
		res, err = r.Join(sess, announce)
		return err
	})
	o.handleResult(protocol.TypeMemberJoined, res)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomID)).Int("announced", res.SendTo).Msg("joined room")

	state := protocol.RoomState{Type: protocol.TypeRoomState, RoomID: roomID, Members: []protocol.Member{}}
	for _, m := range room.MembersSnapshot() {
		if m.ID == sid {
			continue
		}
		state.Members = append(state.Members, protocol.Member{
			SessionID:    m.ID,
			DisplayName:  m.DisplayName,
			AudioEnabled: m.AudioEnabled,
			VideoEnabled: m.VideoEnabled,
		})
	}
	o.sendTo(sess, state)
	return true
}

// Disconnect removes the session everywhere and announces the departure.
// Calling it again for the same session does nothing.
func (o *Orchestrator) Disconnect(sid domain.SessionID) {
	sess, ok := o.Registry.Unbind(sid)
	if !ok {
		return
	}
	meta := sess.Meta()
	announce, ok := o.encode(protocol.MemberLeft{Type: protocol.TypeMemberLeft, SessionID: sid})
	if !ok {
		return
	}

	if meta.InRoom() {
		if room, found := o.Rooms.Get(meta.Room); found {
			var roomAnnounce core.Frame
			if o.Options.LeaveScope != LeaveScopeGlobal {
				roomAnnounce = announce
			}
			res, _ := room.Leave(sid, roomAnnounce)
			o.handleResult(protocol.TypeMemberLeft, res)
			if o.Options.EvictEmptyRooms {
				o.Rooms.EvictIfEmpty(meta.Room)
			}
		}
	}

	if o.Options.LeaveScope == LeaveScopeGlobal {
		res := core.PublishResult{}
		for _, other := range o.Registry.Others(sid) {
			if err := other.Signal().TrySend(announce); err != nil {
				res.Dropped = append(res.Dropped, other)
				continue
			}
			res.SendTo++
		}
		o.handleResult(protocol.TypeMemberLeft, res)
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(meta.Room)).Msg("session disconnected")
}
