package signal

import (
	"github.com/dkeye/samerow/internal/domain"
	"github.com/dkeye/samerow/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleJoin(sid domain.SessionID, data []byte) bool {
	var p protocol.JoinRoom
	if !decode(sid, data, &p) {
		return false
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomID).Msg("join")
	return ctl.Orch.Join(sid, domain.RoomID(p.RoomID), p.DisplayName)
}
