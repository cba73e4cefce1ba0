package signal

import (
	"github.com/dkeye/samerow/internal/domain"
	"github.com/dkeye/samerow/internal/protocol"
)

// handleRelay forwards SDP offers, answers and ICE candidates untouched.
func (ctl *SignalWSController) handleRelay(sid domain.SessionID, data []byte) bool {
	var p protocol.SignalIn
	if !decode(sid, data, &p) {
		return false
	}
	name := p.DisplayName
	if name == "" {
		if sess, ok := ctl.Orch.Registry.GetSession(sid); ok {
			name = sess.Meta().DisplayName
		}
	}
	return ctl.Orch.Relay(sid, domain.SessionID(p.To), name, p.Payload)
}
