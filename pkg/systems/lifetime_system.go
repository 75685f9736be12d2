package systems

import (
	"github.com/gonewx/feedcat/pkg/components"
	"github.com/gonewx/feedcat/pkg/ecs"
)

// LifetimeSystem 推进淡出计时
//
// 到期的实体只标记一次删除，真正移除发生在本帧的 RemoveMarkedEntities。
type LifetimeSystem struct {
	entityManager *ecs.EntityManager

	// OnExpired 实体到期并被标记删除时调用，可为 nil
	OnExpired func(id ecs.EntityID)
}

func NewLifetimeSystem(em *ecs.EntityManager) *LifetimeSystem {
	return &LifetimeSystem{entityManager: em}
}

// Update 累加寿命，CurrentLifetime 不会超过 MaxLifetime
func (s *LifetimeSystem) Update(deltaTime float64) {
	deltaTime = max(deltaTime, 0)

	for _, id := range ecs.GetEntitiesWith1[*components.LifetimeComponent](s.entityManager) {
		lifetime, ok := ecs.GetComponent[*components.LifetimeComponent](s.entityManager, id)
		if !ok || lifetime.IsExpired {
			continue
		}

		lifetime.CurrentLifetime = min(lifetime.CurrentLifetime+deltaTime, lifetime.MaxLifetime)
		if lifetime.CurrentLifetime < lifetime.MaxLifetime {
			continue
		}

		lifetime.IsExpired = true
		s.entityManager.DestroyEntity(id)
		if s.OnExpired != nil {
			s.OnExpired(id)
		}
	}
}
