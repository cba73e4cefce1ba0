package signal

import (
	"time"

	"github.com/dkeye/samerow/internal/domain"
	"github.com/dkeye/samerow/internal/protocol"
)

func (ctl *SignalWSController) handlePing(sid domain.SessionID) bool {
	return ctl.sendJSON(sid, protocol.NewPong(time.Now()))
}
