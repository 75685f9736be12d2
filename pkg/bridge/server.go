package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gonewx/feedcat/pkg/protocol"
)

const (
	clientQueueSize = 16
	writeTimeout    = 5 * time.Second
	readTimeout     = 120 * time.Second
)

// Server 通过 WebSocket 把桥接暴露给编辑器插件和命令行
type Server struct {
	bridge   *Bridge
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}

	httpServer *http.Server
}

type client struct {
	out chan []byte

	// skipResets 该客户端自己发起、已直接回复的 reset 数，广播时跳过
	skipResets atomic.Int32
}

// NewServer 创建服务并订阅桥接事件用于广播
func NewServer(b *Bridge) *Server {
	s := &Server{
		bridge: b,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 4 * 1024,
			CheckOrigin:     isLocalOrigin,
		},
		clients: make(map[*client]struct{}),
	}
	b.Subscribe(s.broadcast)
	return s
}

// isLocalOrigin 只接受没有 Origin（非浏览器）或来自本机的连接
func isLocalOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	req, err := http.NewRequest(http.MethodGet, origin, nil)
	if err != nil {
		return false
	}
	host := req.URL.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Handler 返回 /ws 路由
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	return mux
}

// ListenAndServe 监听 addr，ctx 取消时关闭
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve 在已有的 listener 上提供服务
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("[Server] 监听 ws://%s/ws", ln.Addr())
	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) serveWS(rw http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	c := &client{out: make(chan []byte, clientQueueSize)}
	s.addClient(c)
	defer s.removeClient(c)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// 写协程
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case b := <-c.out:
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	// 读循环
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		ev := s.handle(c, msg)
		s.send(c, ev, true)
	}
}

// handle 处理 c 的一个请求并返回回复事件
func (s *Server) handle(c *client, data []byte) protocol.Event {
	req, err := protocol.DecodeRequest(data)
	if err != nil {
		return protocol.Event{Type: protocol.TypeError, Message: err.Error()}
	}

	switch req.Type {
	case protocol.TypeKeystroke:
		_, spawned := s.bridge.OnKeystrokes(req.N)
		ev := s.bridge.StatsEvent()
		ev.Type = protocol.TypeKeystroke
		ev.Count = spawned
		return ev
	case protocol.TypeTextChange:
		n := s.bridge.OnTextChange(req.Added, req.Removed)
		ev := s.bridge.StatsEvent()
		ev.Type = protocol.TypeKeystroke
		ev.Count = n
		return ev
	case protocol.TypeReset:
		// 发起者收到阻塞发送的直接回复，广播只发给其他客户端
		c.skipResets.Add(1)
		return s.bridge.Reset()
	case protocol.TypeSpawnFish:
		s.bridge.RequestSpawnFish()
		return s.bridge.StatsEvent()
	default:
		return s.bridge.StatsEvent()
	}
}

// send 排队一个事件；队列已满时丢弃（blocking 为 true 时等待）
func (s *Server) send(c *client, ev protocol.Event, blocking bool) {
	if ev.Type == "" {
		return
	}
	if err := protocol.ValidateEvent(ev); err != nil {
		log.Printf("[Server] 事件不合法: %v", err)
		return
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if blocking {
		select {
		case c.out <- b:
		case <-time.After(writeTimeout):
		}
		return
	}
	select {
	case c.out <- b:
	default:
		log.Printf("[Server] 客户端队列已满，丢弃 %s", ev.Type)
	}
}

func (s *Server) broadcast(ev protocol.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		if ev.Type == protocol.TypeReset && c.skipResets.Load() > 0 {
			c.skipResets.Add(-1)
			continue
		}
		s.send(c, ev, false)
	}
}

func (s *Server) addClient(c *client) {
	s.mu.Lock()
	s.clients[c] = struct{}{}
	n := len(s.clients)
	s.mu.Unlock()
	log.Printf("[Server] 客户端连接，当前 %d 个", n)
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
}

// ClientCount 当前连接数
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
