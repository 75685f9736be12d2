package utils

import "math"

// 缓动函数接受进度 t ∈ [0, 1]，返回缓动后的值 ∈ [0, 1]。
// 超出范围的输入先被夹紧，调用方可以直接传入寿命进度。

// Clamp01 把 t 限制在 [0, 1]
func Clamp01(t float64) float64 {
	return math.Max(0, math.Min(1, t))
}

// EaseOutQuad 二次方缓出：开始快，结束慢
func EaseOutQuad(t float64) float64 {
	t = Clamp01(t)
	return 1 - (1-t)*(1-t)
}

// EaseInQuad 二次方缓入：开始慢，结束快
func EaseInQuad(t float64) float64 {
	t = Clamp01(t)
	return t * t
}

// Lerp 在 a 和 b 之间线性插值
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// FadeOut 被吃掉的鱼的外观：不透明度按缓出下降，尺寸按缓入收缩到 minScale
func FadeOut(progress, minScale float64) (alpha, scale float64) {
	alpha = 1 - EaseOutQuad(progress)
	scale = Lerp(1, minScale, EaseInQuad(progress))
	return alpha, scale
}
