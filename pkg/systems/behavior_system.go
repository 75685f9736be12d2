package systems

import (
	"log"
	"math"

	"github.com/gonewx/feedcat/pkg/components"
	"github.com/gonewx/feedcat/pkg/config"
	"github.com/gonewx/feedcat/pkg/ecs"
)

// behaviorBand 归一化后的随机行为区间，r < upper 即选中
type behaviorBand struct {
	state    components.CatState
	upper    float64
	duration config.DurationRange
}

// BehaviorSystem 猫的行为状态机
//
// 状态：idle / clean / walk / run / sleep / eat。
//   - 有活鱼且不在吃：选水平距离最近的鱼，进入 run 追过去
//   - 状态计时到期且没有鱼：按权重表随机选择下一个行为
//   - walk/run 向 TargetX 移动，速度乘以 deltaTime，位置限制在活动范围内
//   - 追到可捕获的鱼后进入 eat，EatDelay 之后由 Scheduler 回调真正吃掉
type BehaviorSystem struct {
	entityManager *ecs.EntityManager
	cfg           config.CatConfig
	bands         []behaviorBand
	arena         *Arena
	fish          *FishSystem
	anim          *AnimationSystem
	scheduler     *Scheduler
	rng           RandomSource

	catID ecs.EntityID

	// OnFishEaten 每吃掉一条鱼调用一次
	OnFishEaten func(fishID ecs.EntityID)
}

// NewBehaviorSystem 创建行为系统，权重表在这里归一化
func NewBehaviorSystem(
	em *ecs.EntityManager,
	cfg config.CatConfig,
	table []config.BehaviorWeight,
	arena *Arena,
	fish *FishSystem,
	anim *AnimationSystem,
	scheduler *Scheduler,
	rng RandomSource,
) *BehaviorSystem {
	return &BehaviorSystem{
		entityManager: em,
		cfg:           cfg,
		bands:         normalizeBehaviors(table),
		arena:         arena,
		fish:          fish,
		anim:          anim,
		scheduler:     scheduler,
		rng:           rng,
	}
}

// normalizeBehaviors 把权重表转换为 [0,1) 上的累积区间
func normalizeBehaviors(table []config.BehaviorWeight) []behaviorBand {
	total := 0.0
	for _, b := range table {
		if b.Weight > 0 {
			total += b.Weight
		}
	}
	if total <= 0 {
		return []behaviorBand{{state: components.CatIdle, upper: 1, duration: config.DurationRange{Min: 2, Max: 4}}}
	}

	bands := make([]behaviorBand, 0, len(table))
	acc := 0.0
	for _, b := range table {
		if b.Weight <= 0 {
			continue
		}
		acc += b.Weight / total
		bands = append(bands, behaviorBand{
			state:    components.CatState(b.State),
			upper:    acc,
			duration: b.Duration,
		})
	}
	bands[len(bands)-1].upper = 1 // 消除浮点累积误差
	return bands
}

// SpawnCat 创建猫实体，初始为 idle，FirstDecision 秒后第一次决策
func (s *BehaviorSystem) SpawnCat() ecs.EntityID {
	id := s.entityManager.CreateEntity()
	s.entityManager.AddComponent(id, &components.PositionComponent{X: s.arena.Clamp(s.cfg.StartX)})
	s.entityManager.AddComponent(id, &components.CatComponent{
		Facing:            components.FacingRight,
		State:             components.CatIdle,
		NextStateDeadline: s.cfg.FirstDecision,
		TargetX:           s.cfg.StartX,
		Width:             s.arena.CatWidth,
	})
	s.entityManager.AddComponent(id, &components.AnimationComponent{})
	s.anim.Play(id, string(components.CatIdle))

	s.catID = id
	return id
}

// CatID 返回猫实体 ID
func (s *BehaviorSystem) CatID() ecs.EntityID {
	return s.catID
}

// Cat 返回猫的状态和位置组件
func (s *BehaviorSystem) Cat() (*components.CatComponent, *components.PositionComponent, bool) {
	cat, ok := ecs.GetComponent[*components.CatComponent](s.entityManager, s.catID)
	if !ok {
		return nil, nil, false
	}
	pos, ok := ecs.GetComponent[*components.PositionComponent](s.entityManager, s.catID)
	if !ok {
		return nil, nil, false
	}
	return cat, pos, true
}

// OnFishSpawned 新鱼出现：不在吃鱼时立即重新决策（会选中最近的鱼）
func (s *BehaviorSystem) OnFishSpawned() {
	cat, pos, ok := s.Cat()
	if !ok || cat.IsEating {
		return
	}
	s.decide(cat, pos)
}

// Reset 鱼被清空后调用：丢弃目标，结束吃鱼，下一帧重新决策
func (s *BehaviorSystem) Reset() {
	cat, _, ok := s.Cat()
	if !ok {
		return
	}
	cat.TargetFish = 0
	if cat.IsEating || cat.State.IsMoving() {
		cat.IsEating = false
		cat.TargetX = s.positionX()
		s.setState(cat, components.CatIdle)
		cat.StateElapsed = cat.NextStateDeadline
	}
}

func (s *BehaviorSystem) positionX() float64 {
	if _, pos, ok := s.Cat(); ok {
		return pos.X
	}
	return s.cfg.StartX
}

// Update 推进状态机
func (s *BehaviorSystem) Update(deltaTime float64) {
	cat, pos, ok := s.Cat()
	if !ok {
		return
	}
	if deltaTime < 0 {
		deltaTime = 0
	}

	cat.StateElapsed += deltaTime

	// 目标鱼已消失（被重置或被吃掉）
	if cat.TargetFish != 0 && !cat.IsEating && !s.fish.IsLive(cat.TargetFish) {
		cat.TargetFish = 0
	}

	if cat.State.IsMoving() {
		s.move(cat, pos, deltaTime)
	}

	// 状态计时到期：每次越过截止时间只决策一次
	if !cat.IsEating && cat.StateElapsed >= cat.NextStateDeadline {
		cat.StateElapsed = 0
		s.decide(cat, pos)
	}

	// 静止状态被鱼打断
	if cat.State.IsRestState() && !cat.IsEating && len(s.fish.LiveFish()) > 0 {
		cat.StateElapsed = 0
		s.decide(cat, pos)
	}

	pos.X = s.arena.Clamp(pos.X)
}

// move walk/run 状态下向目标移动
func (s *BehaviorSystem) move(cat *components.CatComponent, pos *components.PositionComponent, dt float64) {
	chasing := cat.TargetFish != 0
	if chasing {
		if fishPos, ok := s.fish.Position(cat.TargetFish); ok {
			cat.TargetX = s.arena.Clamp(fishPos.X)
		}
		if s.fish.Catchable(cat.TargetFish, pos.X) {
			s.startEating(cat)
			return
		}
	}

	dx := cat.TargetX - pos.X
	if math.Abs(dx) > s.cfg.ArriveEpsilon {
		if dx < 0 {
			cat.Facing = components.FacingLeft
		} else {
			cat.Facing = components.FacingRight
		}
		step := s.speed(cat.State) * dt
		if step >= math.Abs(dx) {
			pos.X = cat.TargetX
		} else {
			pos.X += math.Copysign(step, dx)
		}
		pos.X = s.arena.Clamp(pos.X)
		return
	}

	if chasing {
		// 鱼还在弹跳，原地等它落地
		return
	}
	// 到达随机目标：强制下一次决策
	cat.StateElapsed = cat.NextStateDeadline
}

func (s *BehaviorSystem) speed(state components.CatState) float64 {
	if state == components.CatRun {
		return s.cfg.RunSpeed
	}
	return s.cfg.WalkSpeed
}

// startEating 进入吃鱼状态，EatDelay 秒后结算
func (s *BehaviorSystem) startEating(cat *components.CatComponent) {
	target := cat.TargetFish
	cat.IsEating = true
	s.setState(cat, components.CatEat)
	log.Printf("[BehaviorSystem] 开始吃鱼 %d", target)

	s.scheduler.After(s.cfg.EatDelay, "finish_eating", func() {
		s.finishEating(target)
	})
}

// finishEating 吃鱼结算回调
// 回调可能晚于重置触发，所以先确认猫仍在吃同一条鱼
func (s *BehaviorSystem) finishEating(target ecs.EntityID) {
	cat, pos, ok := s.Cat()
	if !ok || !cat.IsEating || cat.TargetFish != target {
		return
	}

	if s.fish.Consume(target) && s.OnFishEaten != nil {
		s.OnFishEaten(target)
	}

	cat.TargetFish = 0
	cat.IsEating = false
	cat.StateElapsed = 0
	s.decide(cat, pos)
}

// decide 选择下一个行为：优先追最近的鱼，否则按权重表随机
func (s *BehaviorSystem) decide(cat *components.CatComponent, pos *components.PositionComponent) {
	if !cat.IsEating {
		if id, ok := s.fish.Nearest(pos.X); ok {
			fishPos, _ := s.fish.Position(id)
			cat.TargetFish = id
			cat.TargetX = s.arena.Clamp(fishPos.X)
			s.setState(cat, components.CatRun)
			return
		}
	}

	cat.TargetFish = 0
	band := s.pick(s.rng.Float64())

	switch band.state {
	case components.CatWalk, components.CatRun:
		cat.TargetX = s.arena.RandomX(s.rng)
	}
	s.setState(cat, band.state)
	cat.NextStateDeadline = band.duration.Min + s.rng.Float64()*(band.duration.Max-band.duration.Min)
}

// pick 按累积区间选中行为
func (s *BehaviorSystem) pick(r float64) behaviorBand {
	for _, b := range s.bands {
		if r < b.upper {
			return b
		}
	}
	return s.bands[len(s.bands)-1]
}

func (s *BehaviorSystem) setState(cat *components.CatComponent, state components.CatState) {
	if cat.State != state {
		log.Printf("[BehaviorSystem] 状态切换: %s -> %s", cat.State, state)
	}
	cat.State = state
	s.anim.Play(s.catID, string(state))
}
