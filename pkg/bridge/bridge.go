// Package bridge 宿主桥接：统计按键、决定何时掉鱼、持久化计数，并把消息转发给猫
package bridge

import (
	"log"
	"sync"

	"github.com/gonewx/feedcat/pkg/protocol"
	"github.com/gonewx/feedcat/pkg/store"
)

// Core 接收桥接消息的一方（game.GameState）
type Core interface {
	Deliver(msg protocol.Message)
}

// KeystrokeResult 一次按键的结果
type KeystrokeResult struct {
	Total     int  // 累计按键总数
	SpawnFish bool // 本次按键是否触发掉鱼
}

// Options 桥接参数
type Options struct {
	Threshold     int // 每多少次按键掉一条鱼
	SaveEvery     int // 每多少次按键保存一次
	MaxCharsPerOp int // 单次文本变更最多计入的按键数
}

// Bridge 宿主桥接
//
// 窗口输入、终端输入和 WebSocket 客户端会并发调用，所有方法都持锁
type Bridge struct {
	mu        sync.Mutex
	store     *store.CounterStore
	counters  store.Counters
	opts      Options
	sinceSave int
	core      Core
	listeners []func(protocol.Event)

	// pendingResets 已投递给猫但猫还没确认的 reset 数；
	// 期间到达的 fishEaten 是 reset 之前吃的鱼，不能覆盖清零后的计数
	pendingResets int
}

// New 创建桥接并从存储中恢复计数
func New(st *store.CounterStore, opts Options) *Bridge {
	if opts.Threshold < 1 {
		opts.Threshold = 1000
	}
	if opts.SaveEvery < 1 {
		opts.SaveEvery = 50
	}
	if opts.MaxCharsPerOp < 1 {
		opts.MaxCharsPerOp = 10
	}

	b := &Bridge{store: st, opts: opts}
	if st != nil {
		b.counters = st.LoadOrZero()
	}
	log.Printf("[Bridge] 恢复计数: total=%d pending=%d fish=%d",
		b.counters.TotalKeystrokes, b.counters.KeystrokeCount, b.counters.FishEaten)
	return b
}

// Attach 绑定猫，之后的消息都投递给它
func (b *Bridge) Attach(core Core) {
	b.mu.Lock()
	b.core = core
	b.mu.Unlock()
}

// Subscribe 注册事件监听（fishEaten / reset 等），回调在锁外执行
func (b *Bridge) Subscribe(fn func(protocol.Event)) {
	b.mu.Lock()
	b.listeners = append(b.listeners, fn)
	b.mu.Unlock()
}

// SetThreshold 修改掉鱼阈值
func (b *Bridge) SetThreshold(n int) {
	if n < 1 {
		return
	}
	b.mu.Lock()
	b.opts.Threshold = n
	b.mu.Unlock()
}

// Threshold 当前掉鱼阈值
func (b *Bridge) Threshold() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opts.Threshold
}

// OnKeystroke 记录一次按键
func (b *Bridge) OnKeystroke() KeystrokeResult {
	b.mu.Lock()
	res := b.keystrokeLocked()
	b.mu.Unlock()
	return res
}

// OnKeystrokes 记录 n 次按键，返回最后一次的结果和期间触发的掉鱼次数
func (b *Bridge) OnKeystrokes(n int) (KeystrokeResult, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var res KeystrokeResult
	spawned := 0
	for i := 0; i < n; i++ {
		res = b.keystrokeLocked()
		if res.SpawnFish {
			spawned++
		}
	}
	return res, spawned
}

func (b *Bridge) keystrokeLocked() KeystrokeResult {
	b.counters.TotalKeystrokes++
	b.counters.KeystrokeCount++

	spawn := false
	if b.counters.KeystrokeCount >= b.opts.Threshold {
		b.counters.KeystrokeCount = 0
		spawn = true
	}

	b.deliverLocked(protocol.Message{
		Type:      protocol.TypeKeystroke,
		Count:     b.counters.TotalKeystrokes,
		SpawnFish: spawn,
	})

	b.sinceSave++
	if b.sinceSave >= b.opts.SaveEvery {
		b.saveLocked()
	}
	return KeystrokeResult{Total: b.counters.TotalKeystrokes, SpawnFish: spawn}
}

// OnTextChange 编辑器文本变更：插入按字符计（有上限），纯删除计一次
//
// 返回计入的按键数
func (b *Bridge) OnTextChange(added, removed int) int {
	n := 0
	switch {
	case added > 0:
		n = min(added, b.maxChars())
	case removed > 0:
		n = 1
	}
	if n > 0 {
		b.OnKeystrokes(n)
	}
	return n
}

func (b *Bridge) maxChars() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opts.MaxCharsPerOp
}

// Reset 清零所有计数并通知猫，返回清零后的 reset 事件
func (b *Bridge) Reset() protocol.Event {
	b.mu.Lock()
	b.counters = store.Counters{}
	if b.core != nil {
		b.pendingResets++
	}
	b.deliverLocked(protocol.Message{Type: protocol.TypeReset})
	b.saveLocked()
	ev := b.eventLocked(protocol.TypeReset)
	listeners := b.listeners
	b.mu.Unlock()

	log.Printf("[Bridge] 计数已清零")
	notify(listeners, ev)
	return ev
}

// RequestSpawnFish 立即掉一条鱼，不影响计数
func (b *Bridge) RequestSpawnFish() {
	b.mu.Lock()
	b.deliverLocked(protocol.Message{Type: protocol.TypeSpawnFish})
	b.mu.Unlock()
}

// Ready 猫已就绪：下发 init
func (b *Bridge) Ready() {
	b.mu.Lock()
	b.deliverLocked(protocol.Message{
		Type:      protocol.TypeInit,
		Count:     b.counters.TotalKeystrokes,
		FishEaten: b.counters.FishEaten,
	})
	b.mu.Unlock()
}

// FishEaten 猫吃掉了一条鱼，count 为猫侧的累计数
//
// reset 尚未被猫确认时到达的消息被丢弃
func (b *Bridge) FishEaten(count int) {
	b.mu.Lock()
	if b.pendingResets > 0 {
		b.mu.Unlock()
		log.Printf("[Bridge] 丢弃 reset 之前的 fishEaten(%d)", count)
		return
	}
	b.counters.FishEaten = count
	b.saveLocked()
	ev := b.eventLocked(protocol.TypeFishEaten)
	ev.Count = count
	listeners := b.listeners
	b.mu.Unlock()

	notify(listeners, ev)
}

// HandleCoreMessage 处理猫发来的消息，可直接作为 game.Sink 使用
func (b *Bridge) HandleCoreMessage(msg protocol.Message) {
	switch msg.Type {
	case protocol.TypeReady:
		b.Ready()
	case protocol.TypeFishEaten:
		b.FishEaten(msg.Count)
	case protocol.TypeResetDone:
		b.mu.Lock()
		if b.pendingResets > 0 {
			b.pendingResets--
		}
		b.mu.Unlock()
	default:
		log.Printf("[Bridge] 忽略猫发来的未知消息: %q", msg.Type)
	}
}

// Stats 当前计数
func (b *Bridge) Stats() store.Counters {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counters
}

// StatsEvent 当前计数的 stats 事件
func (b *Bridge) StatsEvent() protocol.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.eventLocked(protocol.TypeStats)
}

// Save 立即持久化
func (b *Bridge) Save() {
	b.mu.Lock()
	b.saveLocked()
	b.mu.Unlock()
}

// Close 关闭前保存
func (b *Bridge) Close() {
	b.Save()
	log.Printf("[Bridge] 已保存并关闭")
}

func (b *Bridge) deliverLocked(msg protocol.Message) {
	if b.core != nil {
		b.core.Deliver(msg)
	}
}

// saveLocked 保存失败只记录日志
func (b *Bridge) saveLocked() {
	b.sinceSave = 0
	if b.store == nil {
		return
	}
	if err := b.store.Save(b.counters); err != nil {
		log.Printf("[Bridge] 保存计数失败: %v", err)
	}
}

func (b *Bridge) eventLocked(typ string) protocol.Event {
	return protocol.Event{
		Type:            typ,
		TotalKeystrokes: b.counters.TotalKeystrokes,
		KeystrokeCount:  b.counters.KeystrokeCount,
		FishEaten:       b.counters.FishEaten,
	}
}

func notify(listeners []func(protocol.Event), ev protocol.Event) {
	for _, fn := range listeners {
		fn(ev)
	}
}
