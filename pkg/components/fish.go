package components

// FishComponent 鱼的状态
//
// 物理版本中鱼从容器顶部落下并在地面弹跳，直到 Settled。
// Consumed 的鱼不再属于活跃集合，只等待淡出后被删除。
type FishComponent struct {
	Settled  bool
	Consumed bool
	Bounces  int // 已发生的弹跳次数
}
