package signal

import (
	"github.com/dkeye/samerow/internal/domain"
	"github.com/dkeye/samerow/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleMediaState(sid domain.SessionID, data []byte) bool {
	var p protocol.MediaStateIn
	if !decode(sid, data, &p) {
		return false
	}
	kind, err := domain.ParseMediaKind(p.Kind)
	if err != nil || p.Enabled == nil {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("kind", p.Kind).Msg("bad media-state")
		return false
	}
	return ctl.Orch.UpdateMediaState(sid, p.RoomID, kind, *p.Enabled)
}
