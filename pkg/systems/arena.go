package systems

import "math"

// RandomSource 随机数来源，Float64 返回 [0,1) 内的均匀分布值
// *rand.Rand（math/rand/v2）满足该接口；测试中可注入固定序列
type RandomSource interface {
	Float64() float64
}

// Arena 猫和鱼活动的容器
//
// 坐标系：X 为精灵左边缘，Y 为离地高度。
// 活动范围 [MinX, MaxX] 与原网页版一致：左侧留白 Margin，
// 右侧留出一个猫身宽度加留白，但不小于 MinRoam。
type Arena struct {
	Width    float64
	Height   float64
	Margin   float64
	MinRoam  float64
	CatWidth float64
}

// MinX 活动范围左边界
func (a *Arena) MinX() float64 {
	return a.Margin
}

// MaxX 活动范围右边界
func (a *Arena) MaxX() float64 {
	return math.Max(a.Width-a.CatWidth-a.Margin, a.MinRoam)
}

// Clamp 把 x 限制在活动范围内
func (a *Arena) Clamp(x float64) float64 {
	return math.Max(a.MinX(), math.Min(a.MaxX(), x))
}

// RandomX 在活动范围内均匀取一个位置
func (a *Arena) RandomX(rng RandomSource) float64 {
	return a.MinX() + rng.Float64()*(a.MaxX()-a.MinX())
}
