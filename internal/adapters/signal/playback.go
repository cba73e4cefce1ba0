package signal

import (
	"github.com/dkeye/samerow/internal/domain"
	"github.com/dkeye/samerow/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleMediaRef(sid domain.SessionID, data []byte) bool {
	var p protocol.MediaRefIn
	if !decode(sid, data, &p) {
		return false
	}
	return ctl.Orch.SetMedia(sid, p.RoomID, p.MediaRef)
}

func (ctl *SignalWSController) handlePlaybackState(sid domain.SessionID, data []byte) bool {
	var p protocol.PlaybackStateIn
	if !decode(sid, data, &p) {
		return false
	}
	if p.IsPlaying == nil || p.PositionSeconds == nil {
		log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("playback-state missing fields")
		return false
	}
	roomID := domain.RoomID(p.RoomID)
	if roomID == "" {
		roomID, _ = ctl.Orch.Registry.RoomOf(sid)
	}
	return ctl.Orch.SetTransportState(roomID, *p.IsPlaying, *p.PositionSeconds, sid)
}

func (ctl *SignalWSController) handleSyncRequest(sid domain.SessionID, data []byte) bool {
	var p protocol.SyncRequest
	if !decode(sid, data, &p) {
		return false
	}
	_, ok := ctl.Orch.Snapshot(sid, p.RoomID)
	return ok
}
