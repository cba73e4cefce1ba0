package orch

import (
	"math"

	"github.com/dkeye/samerow/internal/core"
	"github.com/dkeye/samerow/internal/domain"
	"github.com/dkeye/samerow/internal/protocol"
	"github.com/rs/zerolog/log"
)

// SetMedia starts shared playback of ref from the beginning. Every member,
// the sender included, receives the new reference.
func (o *Orchestrator) SetMedia(sid domain.SessionID, rawRoom string, ref string) bool {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return false
	}
	roomID := resolveRoom(sess, rawRoom)
	if roomID == "" || ref == "" {
		return false
	}
	frame, ok := o.encode(protocol.NewMediaRefChanged(ref))
	if !ok {
		return false
	}

	var res core.PublishResult
	if !o.playbackRoom(roomID, func(r core.RoomService) error {
		var err error
		_, res, err = r.SetMediaRef(ref, frame)
		return err
	}) {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomID)).Msg("media ref for unknown room dropped")
		return false
	}
	o.handleResult(protocol.TypeMediaRef, res)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomID)).Str("media_ref", ref).Msg("media ref changed")
	return true
}

// SetTransportState overwrites play/pause and position (last writer wins)
// and tells every member except excludeSID, so the originator's player
// never reacts to its own change.
func (o *Orchestrator) SetTransportState(roomID domain.RoomID, isPlaying bool, positionSeconds float64, excludeSID domain.SessionID) bool {
	if roomID == "" || positionSeconds < 0 || math.IsNaN(positionSeconds) || math.IsInf(positionSeconds, 0) {
		return false
	}
	frame, ok := o.encode(protocol.PlaybackStateChanged{
		Type:            protocol.TypePlaybackState,
		IsPlaying:       isPlaying,
		PositionSeconds: positionSeconds,
	})
	if !ok {
		return false
	}

	var res core.PublishResult
	if !o.playbackRoom(roomID, func(r core.RoomService) error {
		var err error
		_, res, err = r.SetTransport(isPlaying, positionSeconds, excludeSID, frame)
		return err
	}) {
		log.Debug().Str("module", "orch").Str("room", string(roomID)).Msg("playback state for unknown room dropped")
		return false
	}
	o.handleResult(protocol.TypePlaybackState, res)
	return true
}

// playbackRoom applies fn to the room. With eviction on, playback events
// never create rooms: an unknown or just-evicted room drops the event, so
// only Join brings a room into existence and Disconnect takes it away.
func (o *Orchestrator) playbackRoom(id domain.RoomID, fn func(core.RoomService) error) bool {
	if !o.Options.EvictEmptyRooms {
		return o.withRoom(id, fn) == nil
	}
	room, ok := o.Rooms.Get(id)
	if !ok {
		return false
	}
	return fn(room) == nil
}

// Snapshot sends the room's playback state, or the Idle default, to the
// requesting session only. No elapsed time is added; clients reconcile
// drift against lastUpdate themselves.
func (o *Orchestrator) Snapshot(sid domain.SessionID, rawRoom string) (domain.PlaybackState, bool) {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return domain.PlaybackState{}, false
	}
	roomID := resolveRoom(sess, rawRoom)
	if roomID == "" {
		return domain.PlaybackState{}, false
	}
	state := domain.IdlePlayback(o.now())
	if room, found := o.Rooms.Get(roomID); found {
		state = room.Playback()
	}
	o.sendTo(sess, protocol.NewMediaRefChanged(state.MediaRef))
	o.sendTo(sess, protocol.NewPlaybackSnapshot(state))
	return state, true
}
