package bridge

import (
	"sync"
	"testing"

	"github.com/gonewx/feedcat/pkg/protocol"
	"github.com/gonewx/feedcat/pkg/store"
)

// fakeCore 记录投递给猫的消息
type fakeCore struct {
	mu   sync.Mutex
	msgs []protocol.Message
}

func (c *fakeCore) Deliver(msg protocol.Message) {
	c.mu.Lock()
	c.msgs = append(c.msgs, msg)
	c.mu.Unlock()
}

func (c *fakeCore) last() protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.msgs) == 0 {
		return protocol.Message{}
	}
	return c.msgs[len(c.msgs)-1]
}

func (c *fakeCore) count(typ string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.msgs {
		if m.Type == typ {
			n++
		}
	}
	return n
}

func newTestBridge(threshold int) (*Bridge, *fakeCore, *store.CounterStore) {
	st := store.NewCounterStore(nil)
	b := New(st, Options{Threshold: threshold, SaveEvery: 50, MaxCharsPerOp: 10})
	core := &fakeCore{}
	b.Attach(core)
	return b, core, st
}

func TestThresholdSpawnsFish(t *testing.T) {
	b, core, _ := newTestBridge(3)

	want := []bool{false, false, true, false, false, true}
	for i, spawn := range want {
		res := b.OnKeystroke()
		if res.Total != i+1 || res.SpawnFish != spawn {
			t.Errorf("keystroke %d: got %+v, want total=%d spawn=%v", i+1, res, i+1, spawn)
		}
		msg := core.last()
		if msg.Type != protocol.TypeKeystroke || msg.Count != i+1 || msg.SpawnFish != spawn {
			t.Errorf("keystroke %d: core got %+v", i+1, msg)
		}
	}
	if s := b.Stats(); s.KeystrokeCount != 0 || s.TotalKeystrokes != 6 {
		t.Errorf("stats: %+v", s)
	}
}

func TestDefaultThreshold(t *testing.T) {
	b := New(nil, Options{})
	_, spawned := b.OnKeystrokes(999)
	if spawned != 0 {
		t.Fatalf("spawned before 1000: %d", spawned)
	}
	if res := b.OnKeystroke(); !res.SpawnFish {
		t.Error("1000th keystroke should spawn a fish")
	}
}

func TestOnTextChange(t *testing.T) {
	tests := []struct {
		name           string
		added, removed int
		want           int
	}{
		{"single char", 1, 0, 1},
		{"paste capped", 500, 0, 10},
		{"replace counts insert", 3, 7, 3},
		{"pure delete", 0, 42, 1},
		{"no-op", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _, _ := newTestBridge(1000)
			if got := b.OnTextChange(tt.added, tt.removed); got != tt.want {
				t.Errorf("counted: got %d, want %d", got, tt.want)
			}
			if total := b.Stats().TotalKeystrokes; total != tt.want {
				t.Errorf("total: got %d, want %d", total, tt.want)
			}
		})
	}
}

func TestSaveCadence(t *testing.T) {
	b, _, st := newTestBridge(1000)

	b.OnKeystrokes(49)
	if got := st.LoadOrZero().TotalKeystrokes; got != 0 {
		t.Fatalf("saved before 50 keystrokes: %d", got)
	}
	b.OnKeystroke()
	if got := st.LoadOrZero().TotalKeystrokes; got != 50 {
		t.Fatalf("after 50 keystrokes saved %d", got)
	}

	b.OnKeystrokes(3)
	b.Close()
	if got := st.LoadOrZero().TotalKeystrokes; got != 53 {
		t.Errorf("Close should save: got %d", got)
	}
}

func TestRestoresFromStore(t *testing.T) {
	st := store.NewCounterStore(nil)
	_ = st.Save(store.Counters{TotalKeystrokes: 1998, KeystrokeCount: 998, FishEaten: 1})

	b := New(st, Options{Threshold: 1000})
	core := &fakeCore{}
	b.Attach(core)

	b.HandleCoreMessage(protocol.Message{Type: protocol.TypeReady})
	initMsg := core.last()
	if initMsg.Type != protocol.TypeInit || initMsg.Count != 1998 || initMsg.FishEaten != 1 {
		t.Fatalf("init: %+v", initMsg)
	}

	b.OnKeystroke()
	if res := b.OnKeystroke(); !res.SpawnFish || res.Total != 2000 {
		t.Errorf("pending count not restored: %+v", res)
	}
}

func TestFishEatenPersistsAndNotifies(t *testing.T) {
	b, _, st := newTestBridge(1000)

	var events []protocol.Event
	b.Subscribe(func(ev protocol.Event) { events = append(events, ev) })

	b.HandleCoreMessage(protocol.Message{Type: protocol.TypeFishEaten, Count: 1})
	b.HandleCoreMessage(protocol.Message{Type: protocol.TypeFishEaten, Count: 2})

	if got := st.LoadOrZero().FishEaten; got != 2 {
		t.Errorf("persisted fishEaten: got %d, want 2", got)
	}
	if len(events) != 2 || events[1].Type != protocol.TypeFishEaten || events[1].Count != 2 {
		t.Errorf("events: %+v", events)
	}
}

func TestReset(t *testing.T) {
	b, core, st := newTestBridge(10)
	b.OnKeystrokes(25)
	b.FishEaten(3)

	var got protocol.Event
	b.Subscribe(func(ev protocol.Event) { got = ev })
	b.Reset()

	if s := b.Stats(); s != (store.Counters{}) {
		t.Errorf("stats after reset: %+v", s)
	}
	if s := st.LoadOrZero(); s != (store.Counters{}) {
		t.Errorf("stored after reset: %+v", s)
	}
	if core.count(protocol.TypeReset) != 1 {
		t.Error("reset not delivered to core")
	}
	if got.Type != protocol.TypeReset {
		t.Errorf("reset event: %+v", got)
	}
}

func TestRequestSpawnFishKeepsCounters(t *testing.T) {
	b, core, _ := newTestBridge(1000)
	b.OnKeystrokes(5)
	b.RequestSpawnFish()

	if core.last().Type != protocol.TypeSpawnFish {
		t.Errorf("last message: %+v", core.last())
	}
	if s := b.Stats(); s.TotalKeystrokes != 5 || s.KeystrokeCount != 5 {
		t.Errorf("counters changed: %+v", s)
	}
}

func TestConcurrentKeystrokes(t *testing.T) {
	b, _, _ := newTestBridge(100)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 250; j++ {
				b.OnKeystroke()
			}
		}()
	}
	wg.Wait()

	if s := b.Stats(); s.TotalKeystrokes != 2000 || s.KeystrokeCount != 0 {
		t.Errorf("stats: %+v", s)
	}
}

func TestSetThreshold(t *testing.T) {
	b, _, _ := newTestBridge(1000)
	b.SetThreshold(0)
	if b.Threshold() != 1000 {
		t.Error("threshold < 1 must be ignored")
	}
	b.SetThreshold(2)
	b.OnKeystroke()
	if res := b.OnKeystroke(); !res.SpawnFish {
		t.Error("new threshold not applied")
	}
}

// TestFishEatenBeforeResetAckDropped 猫确认 reset 之前上报的 fishEaten 属于清零前吃的鱼
func TestFishEatenBeforeResetAckDropped(t *testing.T) {
	b, _, st := newTestBridge(1000)
	b.FishEaten(4)

	var events []protocol.Event
	b.Subscribe(func(ev protocol.Event) { events = append(events, ev) })

	b.Reset()
	// 猫在处理 reset 之前吃完了手上的鱼
	b.HandleCoreMessage(protocol.Message{Type: protocol.TypeFishEaten, Count: 5})
	if got := b.Stats().FishEaten; got != 0 {
		t.Fatalf("stale fishEaten overwrote reset: got %d", got)
	}
	if got := st.LoadOrZero().FishEaten; got != 0 {
		t.Errorf("stale fishEaten persisted: got %d", got)
	}

	b.HandleCoreMessage(protocol.Message{Type: protocol.TypeResetDone})
	b.HandleCoreMessage(protocol.Message{Type: protocol.TypeFishEaten, Count: 1})
	if got := b.Stats().FishEaten; got != 1 {
		t.Errorf("fishEaten after ack: got %d, want 1", got)
	}

	// reset + 一次 fishEaten 广播，丢弃的那条不通知
	if len(events) != 2 || events[0].Type != protocol.TypeReset || events[1].Count != 1 {
		t.Errorf("events: %+v", events)
	}
}

func TestResetWithoutCoreNeedsNoAck(t *testing.T) {
	b := New(store.NewCounterStore(nil), Options{})
	b.Reset()
	b.FishEaten(1)
	if got := b.Stats().FishEaten; got != 1 {
		t.Errorf("fishEaten without core: got %d, want 1", got)
	}
}
