package orch

import (
	"github.com/dkeye/samerow/internal/domain"
	"github.com/dkeye/samerow/internal/protocol"
	"github.com/rs/zerolog/log"
)

// UpdateMediaState records the session's mute/camera flag and tells the
// rest of the room. The flag is advisory only.
func (o *Orchestrator) UpdateMediaState(sid domain.SessionID, rawRoom string, kind domain.MediaKind, enabled bool) bool {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return false
	}
	roomID := resolveRoom(sess, rawRoom)
	if roomID == "" {
		return false
	}
	sess.SetMedia(kind, enabled)

	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return true
	}
	frame, ok := o.encode(protocol.MediaStateChanged{
		Type:      protocol.TypeMediaStateChanged,
		SessionID: sid,
		Kind:      kind,
		Enabled:   enabled,
	})
	if !ok {
		return false
	}
	res := room.Broadcast(sid, frame)
	o.handleResult(protocol.TypeMediaStateChanged, res)
	log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("kind", string(kind)).Bool("enabled", enabled).Msg("media state")
	return true
}
