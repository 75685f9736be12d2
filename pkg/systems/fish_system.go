package systems

import (
	"log"
	"math"

	"github.com/gonewx/feedcat/pkg/components"
	"github.com/gonewx/feedcat/pkg/config"
	"github.com/gonewx/feedcat/pkg/ecs"
)

// FishSystem 负责鱼的生成、下落弹跳物理和被吃掉
//
// 物理版本：鱼从 SpawnHeight（默认容器高度）落下，受重力加速，
// 落地时若速度超过 MinBounceSpeed 则按 Restitution 反弹，否则静止。
// 左右碰壁时水平速度反向并按 WallDamping 衰减。
// 简单版本（Physics=false）：鱼直接放在地面上，不再运动。
type FishSystem struct {
	entityManager *ecs.EntityManager
	cfg           config.FishConfig
	arena         *Arena
	rng           RandomSource
}

// NewFishSystem 创建鱼系统
func NewFishSystem(em *ecs.EntityManager, cfg config.FishConfig, arena *Arena, rng RandomSource) *FishSystem {
	return &FishSystem{
		entityManager: em,
		cfg:           cfg,
		arena:         arena,
		rng:           rng,
	}
}

// SpawnRandom 在活动范围内随机位置生成一条鱼，水平初速度随机
func (s *FishSystem) SpawnRandom() ecs.EntityID {
	x := s.arena.RandomX(s.rng)
	vx := 0.0
	if s.cfg.MaxSpeedX > 0 {
		vx = (s.rng.Float64()*2 - 1) * s.cfg.MaxSpeedX
	}
	return s.SpawnAt(x, vx)
}

// SpawnAt 在指定 X 生成一条鱼
//
// 参数:
//   - x: 水平位置（会被限制在活动范围内）
//   - vx: 水平初速度（仅物理版本使用）
func (s *FishSystem) SpawnAt(x, vx float64) ecs.EntityID {
	id := s.entityManager.CreateEntity()

	pos := &components.PositionComponent{X: s.arena.Clamp(x)}
	vel := &components.VelocityComponent{}
	fish := &components.FishComponent{}

	if s.cfg.Physics {
		pos.Y = s.spawnHeight()
		vel.VX = vx
	} else {
		fish.Settled = true
	}

	s.entityManager.AddComponent(id, pos)
	s.entityManager.AddComponent(id, vel)
	s.entityManager.AddComponent(id, fish)

	log.Printf("[FishSystem] 生成鱼 %d: x=%.1f y=%.1f vx=%.1f", id, pos.X, pos.Y, vel.VX)
	return id
}

func (s *FishSystem) spawnHeight() float64 {
	if s.cfg.SpawnHeight > 0 {
		return s.cfg.SpawnHeight
	}
	return s.arena.Height
}

// Update 积分所有未静止的鱼
func (s *FishSystem) Update(deltaTime float64) {
	if !s.cfg.Physics || deltaTime <= 0 {
		return
	}

	entities := ecs.GetEntitiesWith3[
		*components.FishComponent,
		*components.PositionComponent,
		*components.VelocityComponent,
	](s.entityManager)

	for _, id := range entities {
		fish, _ := ecs.GetComponent[*components.FishComponent](s.entityManager, id)
		pos, _ := ecs.GetComponent[*components.PositionComponent](s.entityManager, id)
		vel, _ := ecs.GetComponent[*components.VelocityComponent](s.entityManager, id)
		if fish.Settled || fish.Consumed {
			continue
		}
		s.step(fish, pos, vel, deltaTime)
	}
}

// step 单条鱼的一步积分
func (s *FishSystem) step(fish *components.FishComponent, pos *components.PositionComponent, vel *components.VelocityComponent, dt float64) {
	vel.VY -= s.cfg.Gravity * dt
	pos.X += vel.VX * dt
	pos.Y += vel.VY * dt

	// 左右墙反弹
	if pos.X < s.arena.MinX() {
		pos.X = s.arena.MinX()
		vel.VX = math.Abs(vel.VX) * s.cfg.WallDamping
	} else if pos.X > s.arena.MaxX() {
		pos.X = s.arena.MaxX()
		vel.VX = -math.Abs(vel.VX) * s.cfg.WallDamping
	}

	// 落地
	if pos.Y <= 0 {
		pos.Y = 0
		if math.Abs(vel.VY) > s.cfg.MinBounceSpeed {
			vel.VY = -vel.VY * s.cfg.Restitution
			fish.Bounces++
		} else {
			vel.VX = 0
			vel.VY = 0
			fish.Settled = true
		}
	}
}

// LiveFish 返回所有未被吃掉的鱼（按生成顺序）
func (s *FishSystem) LiveFish() []ecs.EntityID {
	entities := ecs.GetEntitiesWith2[*components.FishComponent, *components.PositionComponent](s.entityManager)
	live := entities[:0]
	for _, id := range entities {
		if s.IsLive(id) {
			live = append(live, id)
		}
	}
	return live
}

// IsLive 判断 id 是否为一条未被吃掉的鱼
func (s *FishSystem) IsLive(id ecs.EntityID) bool {
	if id == 0 {
		return false
	}
	fish, ok := ecs.GetComponent[*components.FishComponent](s.entityManager, id)
	return ok && !fish.Consumed
}

// Position 返回鱼的位置
func (s *FishSystem) Position(id ecs.EntityID) (*components.PositionComponent, bool) {
	return ecs.GetComponent[*components.PositionComponent](s.entityManager, id)
}

// Nearest 返回与 x 水平距离最近的活鱼；距离相同时取先生成的那条
func (s *FishSystem) Nearest(x float64) (ecs.EntityID, bool) {
	var nearest ecs.EntityID
	minDist := math.Inf(1)
	for _, id := range s.LiveFish() {
		pos, _ := s.Position(id)
		if d := math.Abs(pos.X - x); d < minDist {
			minDist = d
			nearest = id
		}
	}
	return nearest, nearest != 0
}

// Catchable 判断猫在 catX 处能否吃到这条鱼
// 需要水平距离在捕获半径内，并且鱼已接近地面（弹跳中的鱼抓不到）
func (s *FishSystem) Catchable(id ecs.EntityID, catX float64) bool {
	if !s.IsLive(id) {
		return false
	}
	pos, _ := s.Position(id)
	return math.Abs(pos.X-catX) <= s.cfg.CatchRadius && pos.Y <= s.cfg.CatchHeight
}

// Consume 吃掉一条鱼
//
// 鱼立即离开活跃集合，挂上淡出寿命，到期后被删除。
// 对已被吃掉或不存在的鱼返回 false，保证每条鱼只被吃一次。
func (s *FishSystem) Consume(id ecs.EntityID) bool {
	if !s.IsLive(id) {
		return false
	}
	fish, _ := ecs.GetComponent[*components.FishComponent](s.entityManager, id)
	fish.Consumed = true
	if vel, ok := ecs.GetComponent[*components.VelocityComponent](s.entityManager, id); ok {
		vel.VX, vel.VY = 0, 0
	}

	if s.cfg.RemoveDelay > 0 {
		s.entityManager.AddComponent(id, &components.LifetimeComponent{MaxLifetime: s.cfg.RemoveDelay})
	} else {
		s.entityManager.DestroyEntity(id)
	}
	log.Printf("[FishSystem] 鱼 %d 被吃掉", id)
	return true
}

// ClampToArena 容器缩小后把所有鱼拉回活动范围内
//
// 超出 MaxX 的鱼既画不出来也抓不到，猫会一直原地追赶
func (s *FishSystem) ClampToArena() {
	for _, id := range ecs.GetEntitiesWith2[*components.FishComponent, *components.PositionComponent](s.entityManager) {
		pos, _ := s.Position(id)
		if x := s.arena.Clamp(pos.X); x != pos.X {
			log.Printf("[FishSystem] 鱼 %d 移回范围内: x=%.1f -> %.1f", id, pos.X, x)
			pos.X = x
		}
	}
}

// Clear 立即移除所有鱼（包括淡出中的）
func (s *FishSystem) Clear() {
	for _, id := range ecs.GetEntitiesWith1[*components.FishComponent](s.entityManager) {
		s.entityManager.DestroyEntity(id)
	}
	s.entityManager.RemoveMarkedEntities()
}
