package game

import (
	"log"
	"sync"

	"github.com/gonewx/feedcat/pkg/components"
	"github.com/gonewx/feedcat/pkg/config"
	"github.com/gonewx/feedcat/pkg/ecs"
	"github.com/gonewx/feedcat/pkg/protocol"
	"github.com/gonewx/feedcat/pkg/systems"
)

// Sink 接收猫发往宿主桥接的消息（ready / fishEaten）
type Sink func(msg protocol.Message)

// GameState 一只猫的完整运行状态
//
// 每个窗口（或终端界面）持有一个独立实例，没有全局单例。
// 所有状态修改都发生在 Update 中；其他 goroutine 只能通过 Deliver 投递消息，
// 消息在下一次 Update 开始时按到达顺序处理。
type GameState struct {
	cfg *config.GameConfig

	entityManager *ecs.EntityManager
	arena         *systems.Arena
	scheduler     *systems.Scheduler
	animation     *systems.AnimationSystem
	fish          *systems.FishSystem
	behavior      *systems.BehaviorSystem
	lifetime      *systems.LifetimeSystem

	sink      Sink
	readySent bool

	keystrokes int // 显示用的按键总数
	fishEaten  int

	inboxMu sync.Mutex
	inbox   []protocol.Message
}

// NewGameState 创建猫和空的鱼池
//
// 参数:
//   - cfg: 已校验的配置
//   - rng: 随机数来源
//   - sink: 发往桥接的消息回调，可为 nil
func NewGameState(cfg *config.GameConfig, rng systems.RandomSource, sink Sink) *GameState {
	em := ecs.NewEntityManager()
	arena := &systems.Arena{
		Width:    float64(cfg.Window.Width),
		Height:   float64(cfg.Window.Height),
		Margin:   cfg.Cat.EdgeMargin,
		MinRoam:  cfg.Cat.MinRoamWidth,
		CatWidth: cfg.Sprite.DisplayWidth(),
	}

	gs := &GameState{
		cfg:           cfg,
		entityManager: em,
		arena:         arena,
		scheduler:     systems.NewScheduler(),
		animation:     systems.NewAnimationSystem(em, cfg.Clips),
		lifetime:      systems.NewLifetimeSystem(em),
		sink:          sink,
	}
	gs.fish = systems.NewFishSystem(em, cfg.Fish, arena, rng)
	gs.behavior = systems.NewBehaviorSystem(em, cfg.Cat, cfg.Behaviors, arena, gs.fish, gs.animation, gs.scheduler, rng)
	gs.behavior.OnFishEaten = gs.onFishEaten
	gs.lifetime.OnExpired = func(id ecs.EntityID) {
		log.Printf("[GameState] 鱼 %d 淡出完毕", id)
	}
	gs.behavior.SpawnCat()

	return gs
}

// SetSink 替换消息回调
func (gs *GameState) SetSink(sink Sink) {
	gs.sink = sink
}

// Deliver 投递一条来自桥接的消息，可在任意 goroutine 调用
func (gs *GameState) Deliver(msg protocol.Message) {
	gs.inboxMu.Lock()
	gs.inbox = append(gs.inbox, msg)
	gs.inboxMu.Unlock()
}

// drainInbox 取出全部待处理消息
func (gs *GameState) drainInbox() []protocol.Message {
	gs.inboxMu.Lock()
	defer gs.inboxMu.Unlock()
	msgs := gs.inbox
	gs.inbox = nil
	return msgs
}

// Update 推进一帧
//
// 参数:
//   - deltaTime: 距上一帧的真实时间（秒），负值按 0 处理
func (gs *GameState) Update(deltaTime float64) {
	if deltaTime < 0 {
		deltaTime = 0
	}

	if !gs.readySent {
		gs.readySent = true
		gs.emit(protocol.Message{Type: protocol.TypeReady})
	}

	for _, msg := range gs.drainInbox() {
		gs.HandleMessage(msg)
	}

	gs.scheduler.Update(deltaTime)
	gs.fish.Update(deltaTime)
	gs.behavior.Update(deltaTime)
	gs.animation.Update(deltaTime)
	gs.lifetime.Update(deltaTime)
	gs.entityManager.RemoveMarkedEntities()
}

// HandleMessage 处理一条桥接消息（必须在游戏循环内调用）
// 未知类型被忽略
func (gs *GameState) HandleMessage(msg protocol.Message) {
	switch msg.Type {
	case protocol.TypeInit:
		gs.keystrokes = msg.Count
		gs.fishEaten = msg.FishEaten
	case protocol.TypeKeystroke:
		gs.keystrokes = msg.Count
		if msg.SpawnFish {
			gs.SpawnFish()
		}
	case protocol.TypeReset:
		gs.Reset()
		gs.emit(protocol.Message{Type: protocol.TypeResetDone})
	case protocol.TypeSpawnFish:
		gs.SpawnFish()
	default:
		log.Printf("[GameState] 忽略未知消息: %q", msg.Type)
	}
}

// SpawnFish 在随机位置生成一条鱼
func (gs *GameState) SpawnFish() ecs.EntityID {
	id := gs.fish.SpawnRandom()
	gs.behavior.OnFishSpawned()
	return id
}

// SpawnFishAt 在指定位置生成一条鱼
func (gs *GameState) SpawnFishAt(x, vx float64) ecs.EntityID {
	id := gs.fish.SpawnAt(x, vx)
	gs.behavior.OnFishSpawned()
	return id
}

// Reset 清空鱼和计数
func (gs *GameState) Reset() {
	gs.scheduler.Clear()
	gs.fish.Clear()
	gs.behavior.Reset()
	gs.keystrokes = 0
	gs.fishEaten = 0
	log.Printf("[GameState] 已重置")
}

// Resize 容器尺寸变化
func (gs *GameState) Resize(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	gs.arena.Width = width
	gs.arena.Height = height
	if _, pos, ok := gs.behavior.Cat(); ok {
		pos.X = gs.arena.Clamp(pos.X)
	}
	gs.fish.ClampToArena()
}

// onFishEaten 吃掉一条鱼：计数并通知桥接持久化
func (gs *GameState) onFishEaten(ecs.EntityID) {
	gs.fishEaten++
	gs.emit(protocol.Message{Type: protocol.TypeFishEaten, Count: gs.fishEaten})
}

func (gs *GameState) emit(msg protocol.Message) {
	if gs.sink != nil {
		gs.sink(msg)
	}
}

// Keystrokes 显示用的按键总数
func (gs *GameState) Keystrokes() int {
	return gs.keystrokes
}

// FishEaten 已吃掉的鱼
func (gs *GameState) FishEaten() int {
	return gs.fishEaten
}

// Arena 返回活动容器
func (gs *GameState) Arena() *systems.Arena {
	return gs.arena
}

// Config 返回配置
func (gs *GameState) Config() *config.GameConfig {
	return gs.cfg
}

// CatView 渲染用的猫状态
type CatView struct {
	X      float64
	Facing components.Facing
	State  components.CatState
	Row    int // 精灵表行
	Col    int // 精灵表列
}

// FishView 渲染用的鱼状态
type FishView struct {
	ID       ecs.EntityID
	X        float64
	Y        float64
	Consumed bool
	Fade     float64 // 0~1，被吃后的淡出进度
}

// Snapshot 某一帧的只读快照
type Snapshot struct {
	Cat        CatView
	Fish       []FishView
	Keystrokes int
	FishEaten  int
	Width      float64
	Height     float64
}

// Snapshot 生成当前帧的快照（必须在游戏循环内调用）
func (gs *GameState) Snapshot() Snapshot {
	snap := Snapshot{
		Keystrokes: gs.keystrokes,
		FishEaten:  gs.fishEaten,
		Width:      gs.arena.Width,
		Height:     gs.arena.Height,
	}

	if cat, pos, ok := gs.behavior.Cat(); ok {
		snap.Cat = CatView{X: pos.X, Facing: cat.Facing, State: cat.State}
		if anim, ok := ecs.GetComponent[*components.AnimationComponent](gs.entityManager, gs.behavior.CatID()); ok {
			snap.Cat.Row, snap.Cat.Col = anim.Row, anim.Col
		}
	}

	for _, id := range ecs.GetEntitiesWith2[*components.FishComponent, *components.PositionComponent](gs.entityManager) {
		fish, _ := ecs.GetComponent[*components.FishComponent](gs.entityManager, id)
		pos, _ := ecs.GetComponent[*components.PositionComponent](gs.entityManager, id)
		view := FishView{ID: id, X: pos.X, Y: pos.Y, Consumed: fish.Consumed}
		if lifetime, ok := ecs.GetComponent[*components.LifetimeComponent](gs.entityManager, id); ok {
			view.Fade = lifetime.Progress()
		}
		snap.Fish = append(snap.Fish, view)
	}
	return snap
}

// LiveFishCount 未被吃掉的鱼数量
func (gs *GameState) LiveFishCount() int {
	return len(gs.fish.LiveFish())
}

// Cat 返回猫的行为组件和位置（测试与调试用）
func (gs *GameState) Cat() (*components.CatComponent, *components.PositionComponent, bool) {
	return gs.behavior.Cat()
}
