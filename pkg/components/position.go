package components

// PositionComponent 实体在容器中的位置
//
// 坐标约定：
//   - X: 精灵左边缘到容器左边缘的距离（像素）
//   - Y: 距地面线的高度（像素），0 表示落在地面上，向上为正
type PositionComponent struct {
	X float64
	Y float64
}

// VelocityComponent 实体速度（像素/秒），VY 向上为正
type VelocityComponent struct {
	VX float64
	VY float64
}
