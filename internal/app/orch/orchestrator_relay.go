package orch

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/samerow/internal/app"
	"github.com/dkeye/samerow/internal/core"
	"github.com/dkeye/samerow/internal/domain"
	"github.com/dkeye/samerow/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Relay forwards an opaque negotiation payload to exactly one session.
// Delivery is best effort: an unknown or saturated recipient drops it.
// Room membership is not checked.
func (o *Orchestrator) Relay(from, to domain.SessionID, displayName string, payload json.RawMessage) bool {
	if to == "" {
		app.MetricSignals.WithLabelValues("malformed").Inc()
		return false
	}
	target, ok := o.Registry.GetSession(to)
	if !ok {
		app.MetricSignals.WithLabelValues("unknown_recipient").Inc()
		log.Debug().Str("module", "orch").Str("from", string(from)).Str("to", string(to)).Msg("relay target gone")
		return false
	}
	frame, err := protocol.EncodeSignal(from, displayName, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode signal")
		return false
	}
	if err := target.Signal().TrySend(frame); err != nil {
		if errors.Is(err, core.ErrBackpressure) {
			app.MetricSignals.WithLabelValues("backpressure").Inc()
			o.onBackpressure(target)
		} else {
			app.MetricSignals.WithLabelValues("unknown_recipient").Inc()
		}
		return false
	}
	app.MetricSignals.WithLabelValues("delivered").Inc()
	return true
}
