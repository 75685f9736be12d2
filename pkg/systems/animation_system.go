package systems

import (
	"log"

	"github.com/gonewx/feedcat/pkg/components"
	"github.com/gonewx/feedcat/pkg/config"
	"github.com/gonewx/feedcat/pkg/ecs"
)

// AnimationSystem 精灵表翻页动画
//
// 帧推进由经过的真实时间驱动：FrameTimer 累计到片段帧时长后前进一帧并清零，
// 因此在帧率波动时播放速度保持不变。
type AnimationSystem struct {
	entityManager *ecs.EntityManager
	clips         map[string]config.ClipConfig
}

// NewAnimationSystem 创建一个新的动画系统
func NewAnimationSystem(em *ecs.EntityManager, clips map[string]config.ClipConfig) *AnimationSystem {
	return &AnimationSystem{
		entityManager: em,
		clips:         clips,
	}
}

// Play 切换实体的动画片段
//
// 与当前片段相同时不做任何事；切换时帧索引和计时器归零。
// 未知片段名被忽略，返回 false。
func (s *AnimationSystem) Play(id ecs.EntityID, clipName string) bool {
	anim, ok := ecs.GetComponent[*components.AnimationComponent](s.entityManager, id)
	if !ok {
		return false
	}
	clip, ok := s.clips[clipName]
	if !ok {
		log.Printf("[AnimationSystem] 忽略未知动画片段: %s", clipName)
		return false
	}
	if anim.Clip == clipName {
		return true
	}

	anim.Clip = clipName
	anim.FrameIndex = 0
	anim.FrameTimer = 0
	anim.Row, anim.Col = clip.Cell(0)
	return true
}

// Clip 查询片段定义
func (s *AnimationSystem) Clip(name string) (config.ClipConfig, bool) {
	clip, ok := s.clips[name]
	return clip, ok
}

// Update 更新所有动画实体的帧
func (s *AnimationSystem) Update(deltaTime float64) {
	entities := ecs.GetEntitiesWith1[*components.AnimationComponent](s.entityManager)

	for _, id := range entities {
		anim, ok := ecs.GetComponent[*components.AnimationComponent](s.entityManager, id)
		if !ok {
			continue
		}

		// 未知片段：不更新帧
		clip, ok := s.clips[anim.Clip]
		if !ok || clip.Len() == 0 {
			continue
		}

		anim.FrameTimer += deltaTime
		if anim.FrameTimer >= clip.FrameDuration() {
			anim.FrameTimer = 0
			anim.FrameIndex = (anim.FrameIndex + 1) % clip.Len()
			anim.Row, anim.Col = clip.Cell(anim.FrameIndex)
		}
	}
}
