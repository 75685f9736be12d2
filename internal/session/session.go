// Package session 组装一次运行所需的全部部件：配置、存储、桥接、GameState 和 WebSocket 服务
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"net"
	"syscall"
	"time"

	"github.com/quasilyte/gdata/v2"

	"github.com/gonewx/feedcat/pkg/bridge"
	"github.com/gonewx/feedcat/pkg/config"
	"github.com/gonewx/feedcat/pkg/embedded"
	"github.com/gonewx/feedcat/pkg/game"
	"github.com/gonewx/feedcat/pkg/store"
	"github.com/gonewx/feedcat/pkg/utils"
)

// DefaultConfigPath 内置配置在嵌入文件系统中的路径
const DefaultConfigPath = "data/feedcat.yaml"

// Options 启动参数
type Options struct {
	ConfigPath string // 为空时使用内置配置
	Threshold  int    // > 0 时覆盖并保存用户设置
	Addr       string // 为空时使用配置中的地址
	Seed       uint64 // 0 表示按时间取种子
	AppName    string // gdata 应用名，为空时为 utils.AppName
	Memory     bool   // 不打开持久化存储（测试用）
}

// Session 一次运行
type Session struct {
	Config   *config.GameConfig
	Settings *game.SettingsManager
	Store    *store.CounterStore
	Bridge   *bridge.Bridge
	State    *game.GameState
	Server   *bridge.Server
}

// LoadConfig 读取配置：显式路径优先，其次是内置文件，最后是代码默认值
func LoadConfig(path string) (*config.GameConfig, error) {
	if path != "" {
		return config.LoadGameConfig(path)
	}
	if embedded.Exists(DefaultConfigPath) {
		data, err := embedded.ReadFile(DefaultConfigPath)
		if err != nil {
			return nil, err
		}
		return config.ParseGameConfig(data)
	}
	return config.Default(), nil
}

// OpenStorage 只打开存储层（用于没有运行实例时读取或清零计数）
func OpenStorage(opts Options) (*game.SettingsManager, *store.CounterStore) {
	storage := openStorage(opts)
	return game.NewSettingsManager(storage), store.NewCounterStore(storage)
}

func openStorage(opts Options) *gdata.Manager {
	if opts.Memory {
		return nil
	}
	name := opts.AppName
	if name == "" {
		name = utils.AppName
	}
	return utils.OpenStorage(name)
}

// Open 创建会话
func Open(opts Options) (*Session, error) {
	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Addr != "" {
		cfg.Bridge.Addr = opts.Addr
	}

	storage := openStorage(opts)
	settings := game.NewSettingsManager(storage)
	if opts.Threshold > 0 {
		if err := settings.SetFishThreshold(opts.Threshold); err != nil {
			return nil, err
		}
		if err := settings.Save(); err != nil {
			log.Printf("[Session] 保存设置失败: %v", err)
		}
	}

	counters := store.NewCounterStore(storage)
	b := bridge.New(counters, bridge.Options{
		Threshold:     settings.GetSettings().FishThreshold,
		SaveEvery:     cfg.Bridge.SaveEvery,
		MaxCharsPerOp: cfg.Bridge.MaxCharsPerOp,
	})

	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	state := game.NewGameState(cfg, rng, b.HandleCoreMessage)
	b.Attach(state)

	log.Printf("[Session] 阈值=%d 地址=%s 种子=%d", b.Threshold(), cfg.Bridge.Addr, seed)
	return &Session{
		Config:   cfg,
		Settings: settings,
		Store:    counters,
		Bridge:   b,
		State:    state,
		Server:   bridge.NewServer(b),
	}, nil
}

// Listen 绑定桥接地址；地址被占用时返回的错误满足 errors.Is(err, ErrAddrInUse)
func (s *Session) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.Config.Bridge.Addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("%w: %s", ErrAddrInUse, s.Config.Bridge.Addr)
		}
		return nil, err
	}
	return ln, nil
}

// ErrAddrInUse 已有实例在监听
var ErrAddrInUse = errors.New("bridge address already in use")

// Serve 在后台提供 WebSocket 服务，直到 ctx 取消
//
// 地址被占用时只记录日志，猫照常运行
func (s *Session) Serve(ctx context.Context) {
	ln, err := s.Listen()
	if err != nil {
		log.Printf("[Session] 桥接服务未启动: %v", err)
		return
	}
	go func() {
		if err := s.Server.Serve(ctx, ln); err != nil {
			log.Printf("[Session] 桥接服务退出: %v", err)
		}
	}()
}

// Close 保存计数
func (s *Session) Close() {
	s.Bridge.Close()
}
