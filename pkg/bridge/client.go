package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gonewx/feedcat/pkg/protocol"
)

// ErrNotRunning 没有正在运行的实例
var ErrNotRunning = errors.New("feedcat is not running")

// Client 命令行使用的桥接客户端
type Client struct {
	conn    *websocket.Conn
	timeout time.Duration
}

// Dial 连接 addr 上的桥接
func Dial(ctx context.Context, addr string) (*Client, error) {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws"}
	d := websocket.Dialer{HandshakeTimeout: 2 * time.Second}

	conn, resp, err := d.DialContext(ctx, u.String(), http.Header{})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotRunning, err)
	}
	return &Client{conn: conn, timeout: 5 * time.Second}, nil
}

// Close 关闭连接
func (c *Client) Close() error {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return c.conn.Close()
}

// Stats 查询计数
func (c *Client) Stats() (protocol.Event, error) {
	return c.roundTrip(map[string]any{"type": protocol.TypeStats}, protocol.TypeStats)
}

// Keystrokes 发送 n 次按键，返回事件的 Count 为触发的掉鱼次数
func (c *Client) Keystrokes(n int) (protocol.Event, error) {
	return c.roundTrip(map[string]any{"type": protocol.TypeKeystroke, "n": n}, protocol.TypeKeystroke)
}

// TextChange 发送一次文本变更
func (c *Client) TextChange(added, removed int) (protocol.Event, error) {
	req := map[string]any{"type": protocol.TypeTextChange, "added": added, "removed": removed}
	return c.roundTrip(req, protocol.TypeKeystroke)
}

// Reset 清零计数
func (c *Client) Reset() (protocol.Event, error) {
	return c.roundTrip(map[string]any{"type": protocol.TypeReset}, protocol.TypeReset)
}

// SpawnFish 立即掉一条鱼
func (c *Client) SpawnFish() (protocol.Event, error) {
	return c.roundTrip(map[string]any{"type": protocol.TypeSpawnFish}, protocol.TypeStats)
}

// roundTrip 发送请求并等待指定类型的回复，期间收到的其他广播被跳过
func (c *Client) roundTrip(req any, want string) (protocol.Event, error) {
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	if err := c.conn.WriteJSON(req); err != nil {
		return protocol.Event{}, fmt.Errorf("send request: %w", err)
	}

	deadline := time.Now().Add(c.timeout)
	for {
		_ = c.conn.SetReadDeadline(deadline)
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return protocol.Event{}, fmt.Errorf("read reply: %w", err)
		}
		var ev protocol.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			return protocol.Event{}, fmt.Errorf("decode reply: %w", err)
		}
		switch ev.Type {
		case want:
			return ev, nil
		case protocol.TypeError:
			return ev, fmt.Errorf("bridge error: %s", ev.Message)
		}
	}
}
