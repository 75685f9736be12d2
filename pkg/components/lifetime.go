package components

// LifetimeComponent 管理实体的剩余寿命
// 被吃掉的鱼挂上它，淡出一段时间后由 LifetimeSystem 删除
type LifetimeComponent struct {
	MaxLifetime     float64 // 最大生命周期(秒)
	CurrentLifetime float64 // 当前已存在时间(秒)
	IsExpired       bool    // 是否已过期
}

// Progress 返回 0~1 的寿命进度，渲染淡出时使用
func (l *LifetimeComponent) Progress() float64 {
	if l.MaxLifetime <= 0 {
		return 1
	}
	p := l.CurrentLifetime / l.MaxLifetime
	if p > 1 {
		return 1
	}
	return p
}
