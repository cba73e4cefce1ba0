package core

import (
	"sync"
	"testing"
	"time"

	"github.com/dkeye/samerow/internal/domain"
)

type recordingConn struct {
	mu     sync.Mutex
	frames []Frame
	full   bool
	closed bool
}

func (c *recordingConn) TrySend(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	if c.full {
		return ErrBackpressure
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *recordingConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *recordingConn) received() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		out = append(out, string(f))
	}
	return out
}

func newMember(id string) (MemberSession, *recordingConn) {
	conn := &recordingConn{}
	return NewMemberSession(domain.SessionID(id), conn), conn
}

func TestJoinAnnouncesOnlyToEarlierMembers(t *testing.T) {
	room := NewRoomService("abc", nil)
	a, connA := newMember("a")
	b, connB := newMember("b")

	if _, err := room.Join(a, Frame("a-joined")); err != nil {
		t.Fatalf("join a: %v", err)
	}
	res, err := room.Join(b, Frame("b-joined"))
	if err != nil {
		t.Fatalf("join b: %v", err)
	}
	if res.SendTo != 1 {
		t.Fatalf("expected announce to 1 member, got %d", res.SendTo)
	}
	if got := connA.received(); len(got) != 1 || got[0] != "b-joined" {
		t.Fatalf("a should see b join only, got %v", got)
	}
	if got := connB.received(); len(got) != 0 {
		t.Fatalf("b must not receive its own join, got %v", got)
	}
}

func TestLeaveRemovesFromMembersExcept(t *testing.T) {
	room := NewRoomService("abc", nil)
	a, _ := newMember("a")
	b, connB := newMember("b")
	_, _ = room.Join(a, nil)
	_, _ = room.Join(b, nil)

	if got := room.MembersExcept("b"); len(got) != 1 || got[0] != "a" {
		t.Fatalf("expected [a], got %v", got)
	}
	if _, ok := room.Leave("a", Frame("a-left")); !ok {
		t.Fatalf("leave should report removal")
	}
	if got := room.MembersExcept("b"); len(got) != 0 {
		t.Fatalf("a still listed after leave: %v", got)
	}
	if got := connB.received(); len(got) != 1 || got[0] != "a-left" {
		t.Fatalf("b should see a leave, got %v", got)
	}
	if _, ok := room.Leave("a", Frame("again")); ok {
		t.Fatalf("second leave must be a no-op")
	}
}

func TestMembersExceptKeepsJoinOrder(t *testing.T) {
	room := NewRoomService("abc", nil)
	for _, id := range []string{"c", "a", "b"} {
		m, _ := newMember(id)
		_, _ = room.Join(m, nil)
	}
	got := room.MembersExcept("")
	want := []domain.SessionID{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestBroadcastReportsDropped(t *testing.T) {
	room := NewRoomService("abc", nil)
	a, _ := newMember("a")
	b, connB := newMember("b")
	connB.full = true
	_, _ = room.Join(a, nil)
	_, _ = room.Join(b, nil)

	res := room.Broadcast("", Frame("x"))
	if res.SendTo != 1 || len(res.Dropped) != 1 || res.Dropped[0].ID() != "b" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestSetMediaRefEchoesToEveryone(t *testing.T) {
	room := NewRoomService("abc", nil)
	a, connA := newMember("a")
	b, connB := newMember("b")
	_, _ = room.Join(a, nil)
	_, _ = room.Join(b, nil)

	state, res, err := room.SetMediaRef("video:42", Frame("ref"))
	if err != nil {
		t.Fatalf("set media: %v", err)
	}
	if !state.IsPlaying || state.MediaRef != "video:42" || state.PositionSeconds != 0 {
		t.Fatalf("unexpected state %+v", state)
	}
	if res.SendTo != 2 || len(connA.received()) != 1 || len(connB.received()) != 1 {
		t.Fatalf("expected echo to both members, got %+v", res)
	}
}

func TestSetTransportExcludesOriginator(t *testing.T) {
	room := NewRoomService("abc", nil)
	a, connA := newMember("a")
	b, connB := newMember("b")
	_, _ = room.Join(a, nil)
	_, _ = room.Join(b, nil)

	state, _, err := room.SetTransport(false, 12.5, "a", Frame("pause"))
	if err != nil {
		t.Fatalf("set transport: %v", err)
	}
	if state.IsPlaying || state.PositionSeconds != 12.5 {
		t.Fatalf("unexpected state %+v", state)
	}
	if got := connA.received(); len(got) != 0 {
		t.Fatalf("originator got its own update: %v", got)
	}
	if got := connB.received(); len(got) != 1 {
		t.Fatalf("peer missed update: %v", got)
	}
}

func TestPlaybackLastWriterWinsByArrival(t *testing.T) {
	var tick int64
	clock := func() time.Time {
		tick++
		return time.Unix(tick, 0)
	}
	room := NewRoomService("abc", clock)
	_, _, _ = room.SetTransport(true, 10, "", Frame("t1"))
	_, _, _ = room.SetTransport(false, 20, "", Frame("t2"))

	got := room.Playback()
	if got.IsPlaying || got.PositionSeconds != 20 {
		t.Fatalf("expected second write to win, got %+v", got)
	}
	if got.LastUpdate.Unix() != 3 {
		t.Fatalf("expected latest stamp, got %v", got.LastUpdate)
	}
}

func TestClosedRoomRejectsMutations(t *testing.T) {
	room := NewRoomService("abc", nil)
	if !room.CloseIfEmpty() {
		t.Fatalf("empty room should close")
	}
	a, _ := newMember("a")
	if _, err := room.Join(a, nil); err != ErrRoomClosed {
		t.Fatalf("expected ErrRoomClosed, got %v", err)
	}
	if _, _, err := room.SetMediaRef("x", Frame("x")); err != ErrRoomClosed {
		t.Fatalf("expected ErrRoomClosed, got %v", err)
	}
}

func TestCloseIfEmptyKeepsOccupiedRoom(t *testing.T) {
	room := NewRoomService("abc", nil)
	a, _ := newMember("a")
	_, _ = room.Join(a, nil)
	if room.CloseIfEmpty() {
		t.Fatalf("occupied room must not close")
	}
}

func TestBindRoomOnlyOnce(t *testing.T) {
	m, _ := newMember("a")
	if !m.BindRoom("r1", "Alice") {
		t.Fatalf("first bind should succeed")
	}
	if m.BindRoom("r2", "Bob") {
		t.Fatalf("second bind must be rejected")
	}
	if meta := m.Meta(); meta.Room != "r1" || meta.DisplayName != "Alice" {
		t.Fatalf("first join should win, got %+v", meta)
	}
}
