package signal

import (
	"context"
	"time"

	"github.com/dkeye/samerow/internal/app"
	"github.com/dkeye/samerow/internal/domain"
	"github.com/dkeye/samerow/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, sid domain.SessionID, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Cfg.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Cfg.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("ping failed")
				return
			}
		}
	}
}

// readPump owns the session: when it returns the session is disconnected.
func (ctl *SignalWSController) readPump(ctx context.Context, sid domain.SessionID, c *WsSignalConn, kill func()) {
	defer func() {
		ctl.Orch.Disconnect(sid)
		if ctl.Limiter != nil {
			ctl.Limiter.Forget(sid)
		}
		kill()
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
	}()

	pongWait := ctl.Cfg.PongWait()
	c.conn.SetReadLimit(ctl.Cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if ctx.Err() != nil {
			return
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		if ctl.Limiter != nil && !ctl.Limiter.Allow(sid) {
			app.MetricRejected.WithLabelValues("rate_limited").Inc()
			log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("rate limited")
			continue
		}
		ctl.handleSignal(sid, data)
	}
}

// handleSignal dispatches one inbound message. Malformed input is dropped;
// a panic in a handler loses only that message. Only events a handler
// accepted are counted as handled.
func (ctl *SignalWSController) handleSignal(sid domain.SessionID, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("module", "signal").Str("sid", string(sid)).Msg("handler panic")
		}
	}()

	var env protocol.Envelope
	if err := protocol.Decode(data, &env); err != nil {
		app.MetricRejected.WithLabelValues("malformed").Inc()
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad json")
		return
	}

	var handled bool
	switch env.Type {
	case protocol.TypeJoinRoom:
		handled = ctl.handleJoin(sid, data)
	case protocol.TypeSignal:
		handled = ctl.handleRelay(sid, data)
	case protocol.TypeMediaState:
		handled = ctl.handleMediaState(sid, data)
	case protocol.TypeSyncRequest:
		handled = ctl.handleSyncRequest(sid, data)
	case protocol.TypeMediaRef:
		handled = ctl.handleMediaRef(sid, data)
	case protocol.TypePlaybackState:
		handled = ctl.handlePlaybackState(sid, data)
	case protocol.TypePing:
		handled = ctl.handlePing(sid)
	default:
		app.MetricRejected.WithLabelValues("unknown_type").Inc()
		log.Debug().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		return
	}
	if !handled {
		return
	}
	app.MetricEvents.WithLabelValues(env.Type).Inc()
}

// decode unmarshals a typed payload, counting failures as malformed.
func decode(sid domain.SessionID, data []byte, v any) bool {
	if err := protocol.Decode(data, v); err != nil {
		app.MetricRejected.WithLabelValues("malformed").Inc()
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad payload")
		return false
	}
	return true
}

func (ctl *SignalWSController) sendJSON(sid domain.SessionID, v any) bool {
	sess, ok := ctl.Orch.Registry.GetSession(sid)
	if !ok {
		return false
	}
	b, err := protocol.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return false
	}
	return sess.Signal().TrySend(b) == nil
}
