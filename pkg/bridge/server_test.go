package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gonewx/feedcat/pkg/protocol"
)

func startTestServer(t *testing.T, threshold int) (*Bridge, *fakeCore, string) {
	t.Helper()
	b, core, _ := newTestBridge(threshold)
	srv := httptest.NewServer(NewServer(b).Handler())
	t.Cleanup(srv.Close)
	return b, core, strings.TrimPrefix(srv.URL, "http://")
}

func dialTest(t *testing.T, addr string) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Dial(ctx, addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestServerKeystrokes(t *testing.T) {
	b, core, addr := startTestServer(t, 5)
	c := dialTest(t, addr)

	ev, err := c.Keystrokes(12)
	if err != nil {
		t.Fatalf("Keystrokes: %v", err)
	}
	if ev.Count != 2 || ev.TotalKeystrokes != 12 || ev.KeystrokeCount != 2 {
		t.Errorf("reply: %+v", ev)
	}
	if got := core.count(protocol.TypeKeystroke); got != 12 {
		t.Errorf("core keystrokes: got %d, want 12", got)
	}
	if b.Stats().TotalKeystrokes != 12 {
		t.Errorf("bridge total: %d", b.Stats().TotalKeystrokes)
	}
}

func TestServerTextChangeAndStats(t *testing.T) {
	_, _, addr := startTestServer(t, 1000)
	c := dialTest(t, addr)

	if ev, err := c.TextChange(300, 0); err != nil || ev.Count != 10 {
		t.Fatalf("TextChange paste: ev=%+v err=%v", ev, err)
	}
	if ev, err := c.TextChange(0, 5); err != nil || ev.Count != 1 {
		t.Fatalf("TextChange delete: ev=%+v err=%v", ev, err)
	}

	ev, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if ev.TotalKeystrokes != 11 || ev.KeystrokeCount != 11 || ev.FishEaten != 0 {
		t.Errorf("stats: %+v", ev)
	}
}

func TestServerSpawnAndReset(t *testing.T) {
	b, core, addr := startTestServer(t, 1000)
	c := dialTest(t, addr)

	if _, err := c.SpawnFish(); err != nil {
		t.Fatalf("SpawnFish: %v", err)
	}
	if core.count(protocol.TypeSpawnFish) != 1 {
		t.Error("spawnFish not delivered")
	}

	b.OnKeystrokes(7)
	ev, err := c.Reset()
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if ev.TotalKeystrokes != 0 || core.count(protocol.TypeReset) != 1 {
		t.Errorf("reset: ev=%+v resets=%d", ev, core.count(protocol.TypeReset))
	}
}

func TestServerInvalidRequestKeepsConnection(t *testing.T) {
	_, _, addr := startTestServer(t, 1000)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	for _, bad := range []string{`not json`, `{"type":"dance"}`, `{"type":"textChange","added":1}`} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(bad)); err != nil {
			t.Fatalf("write: %v", err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var ev protocol.Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read after %q: %v", bad, err)
		}
		if ev.Type != protocol.TypeError || ev.Message == "" {
			t.Errorf("reply to %q: %+v", bad, ev)
		}
	}

	// 连接仍然可用
	if err := conn.WriteJSON(map[string]any{"type": "stats"}); err != nil {
		t.Fatalf("write stats: %v", err)
	}
	var ev protocol.Event
	if err := conn.ReadJSON(&ev); err != nil || ev.Type != protocol.TypeStats {
		t.Errorf("stats after errors: ev=%+v err=%v", ev, err)
	}
}

func TestServerBroadcastsFishEaten(t *testing.T) {
	b, _, addr := startTestServer(t, 1000)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	// 先完成一次往返，确保客户端已注册
	if err := conn.WriteJSON(map[string]any{"type": "stats"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var ev protocol.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read stats: %v", err)
	}

	b.HandleCoreMessage(protocol.Message{Type: protocol.TypeFishEaten, Count: 1})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["type"] != protocol.TypeFishEaten || got["count"] != float64(1) || got["fishEaten"] != float64(1) {
		t.Errorf("broadcast: %s", data)
	}
}

func TestDialNotRunning(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := Dial(ctx, "127.0.0.1:1"); err == nil {
		t.Error("expected error dialing closed port")
	}
}

func TestIsLocalOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:3000", true},
		{"vscode-webview://127.0.0.1", true},
		{"http://[::1]:8080", true},
		{"https://evil.example.com", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := isLocalOrigin(r); got != tt.want {
			t.Errorf("isLocalOrigin(%q): got %v, want %v", tt.origin, got, tt.want)
		}
	}
}

// TestResetReplyWithFullQueue 发起者队列已满时仍能收到 reset 回复，且不会再收到重复的广播
func TestResetReplyWithFullQueue(t *testing.T) {
	b, _, _ := newTestBridge(1000)
	b.OnKeystrokes(7)
	s := NewServer(b)

	requester := &client{out: make(chan []byte, clientQueueSize)}
	other := &client{out: make(chan []byte, clientQueueSize)}
	s.addClient(requester)
	s.addClient(other)
	for i := 0; i < clientQueueSize; i++ {
		requester.out <- []byte(`{}`)
	}

	ev := s.handle(requester, []byte(`{"type":"reset"}`))
	if ev.Type != protocol.TypeReset || ev.TotalKeystrokes != 0 {
		t.Fatalf("reset reply: %+v", ev)
	}
	if n := requester.skipResets.Load(); n != 0 {
		t.Errorf("skipResets not consumed: %d", n)
	}
	if len(other.out) != 1 {
		t.Errorf("other client should get the reset broadcast, queued %d", len(other.out))
	}

	// 写协程取走一条后，阻塞发送的回复进入队列
	<-requester.out
	s.send(requester, ev, true)
	var last []byte
	for len(requester.out) > 0 {
		last = <-requester.out
	}
	var got protocol.Event
	if err := json.Unmarshal(last, &got); err != nil || got.Type != protocol.TypeReset {
		t.Errorf("queued reply: %s err=%v", last, err)
	}
}
