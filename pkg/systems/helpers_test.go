package systems

import (
	"github.com/gonewx/feedcat/pkg/config"
	"github.com/gonewx/feedcat/pkg/ecs"
)

// seqRand 按固定序列循环返回随机数
type seqRand struct {
	vals []float64
	i    int
}

func (r *seqRand) Float64() float64 {
	if len(r.vals) == 0 {
		return 0
	}
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v
}

// testRig 组装一套完整的模拟系统
type testRig struct {
	cfg       *config.GameConfig
	em        *ecs.EntityManager
	arena     *Arena
	scheduler *Scheduler
	anim      *AnimationSystem
	fish      *FishSystem
	behavior  *BehaviorSystem
	lifetime  *LifetimeSystem
	eaten     []ecs.EntityID
}

func newTestRig(cfg *config.GameConfig, rng RandomSource) *testRig {
	em := ecs.NewEntityManager()
	arena := &Arena{
		Width:    200,
		Height:   120,
		Margin:   cfg.Cat.EdgeMargin,
		MinRoam:  cfg.Cat.MinRoamWidth,
		CatWidth: cfg.Sprite.DisplayWidth(),
	}
	r := &testRig{cfg: cfg, em: em, arena: arena}
	r.scheduler = NewScheduler()
	r.anim = NewAnimationSystem(em, cfg.Clips)
	r.fish = NewFishSystem(em, cfg.Fish, arena, rng)
	r.behavior = NewBehaviorSystem(em, cfg.Cat, cfg.Behaviors, arena, r.fish, r.anim, r.scheduler, rng)
	r.lifetime = NewLifetimeSystem(em)
	r.behavior.OnFishEaten = func(id ecs.EntityID) { r.eaten = append(r.eaten, id) }
	r.behavior.SpawnCat()
	return r
}

// tick 按游戏循环的顺序推进一帧
func (r *testRig) tick(dt float64) {
	r.scheduler.Update(dt)
	r.fish.Update(dt)
	r.behavior.Update(dt)
	r.anim.Update(dt)
	r.lifetime.Update(dt)
	r.em.RemoveMarkedEntities()
}

// run 以固定步长推进 seconds 秒
func (r *testRig) run(seconds, dt float64) {
	for t := 0.0; t < seconds; t += dt {
		r.tick(dt)
	}
}
