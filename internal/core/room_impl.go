package core

import (
	"slices"
	"sync"
	"time"

	"github.com/dkeye/samerow/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	id       domain.RoomID
	mu       sync.RWMutex
	bySID    map[domain.SessionID]MemberSession
	order    []domain.SessionID
	playback domain.PlaybackState
	closed   bool
	now      func() time.Time
}

// NewRoomService creates an empty room in the Idle playback state.
// now stamps playback updates while the room lock is held, so the
// stored state always carries the latest timestamp.
func NewRoomService(id domain.RoomID, now func() time.Time) RoomService {
	if now == nil {
		now = time.Now
	}
	return &roomImpl{
		id:       id,
		bySID:    make(map[domain.SessionID]MemberSession),
		playback: domain.IdlePlayback(now()),
		now:      now,
	}
}

func (r *roomImpl) ID() domain.RoomID { return r.id }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySID)
}

func (r *roomImpl) Has(sid domain.SessionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bySID[sid]
	return ok
}

func (r *roomImpl) Join(ms MemberSession, announce Frame) (PublishResult, error) {
	sid := ms.ID()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return PublishResult{}, ErrRoomClosed
	}
	res := PublishResult{}
	if announce != nil {
		res = r.publishLocked(sid, announce)
	}
	if _, ok := r.bySID[sid]; !ok {
		r.order = append(r.order, sid)
	}
	r.bySID[sid] = ms
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("sid", string(sid)).Int("members", len(r.bySID)).Msg("member added")
	return res, nil
}

func (r *roomImpl) Leave(sid domain.SessionID, announce Frame) (PublishResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySID[sid]; !ok {
		return PublishResult{}, false
	}
	delete(r.bySID, sid)
	r.order = slices.DeleteFunc(r.order, func(s domain.SessionID) bool { return s == sid })
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("sid", string(sid)).Int("members", len(r.bySID)).Msg("member removed")
	if announce == nil {
		return PublishResult{}, true
	}
	return r.publishLocked(sid, announce), true
}

func (r *roomImpl) Broadcast(except domain.SessionID, data Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.publishLocked(except, data)
}

// publishLocked must be called with r.mu held.
func (r *roomImpl) publishLocked(except domain.SessionID, data Frame) PublishResult {
	res := PublishResult{}
	for _, sid := range r.order {
		if sid == except {
			continue
		}
		m := r.bySID[sid]
		if err := m.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, m)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.id)).Str("except", string(except)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (r *roomImpl) MembersExcept(sid domain.SessionID) []domain.SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.SessionID, 0, len(r.order))
	for _, s := range r.order {
		if s != sid {
			out = append(out, s)
		}
	}
	return out
}

func (r *roomImpl) MembersSnapshot() []MemberDTO {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MemberDTO, 0, len(r.order))
	for _, sid := range r.order {
		meta := r.bySID[sid].Meta()
		out = append(out, MemberDTO{
			ID:           meta.ID,
			DisplayName:  meta.DisplayName,
			AudioEnabled: meta.Media.AudioEnabled,
			VideoEnabled: meta.Media.VideoEnabled,
		})
	}
	return out
}

func (r *roomImpl) Playback() domain.PlaybackState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.playback
}

func (r *roomImpl) SetMediaRef(ref string, announce Frame) (domain.PlaybackState, PublishResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return domain.PlaybackState{}, PublishResult{}, ErrRoomClosed
	}
	r.playback = domain.PlaybackState{
		MediaRef:   ref,
		IsPlaying:  true,
		LastUpdate: r.now(),
	}
	return r.playback, r.publishLocked("", announce), nil
}

func (r *roomImpl) SetTransport(
	isPlaying bool,
	positionSeconds float64,
	except domain.SessionID,
	announce Frame,
) (domain.PlaybackState, PublishResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return domain.PlaybackState{}, PublishResult{}, ErrRoomClosed
	}
	r.playback.IsPlaying = isPlaying
	r.playback.PositionSeconds = positionSeconds
	r.playback.LastUpdate = r.now()
	return r.playback, r.publishLocked(except, announce), nil
}

func (r *roomImpl) CloseIfEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.bySID) > 0 {
		return false
	}
	r.closed = true
	return true
}
