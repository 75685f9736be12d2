package scenes

import "github.com/gonewx/feedcat/pkg/game"

// groundOffset 地面线距离窗口底边的像素
const groundOffset = 5.0

// rect 屏幕矩形（像素）
type rect struct {
	X, Y, W, H float64
}

// sceneLayout 把模拟坐标（X 为左边缘，Y 为离地高度）换算成屏幕坐标
type sceneLayout struct {
	screenH float64
	catW    float64
	catH    float64
	fishW   float64
	fishH   float64
}

// groundY 地面线在屏幕上的 y
func (l sceneLayout) groundY() float64 {
	return l.screenH - groundOffset
}

// catRect 猫的绘制区域
func (l sceneLayout) catRect(cat game.CatView) rect {
	return rect{X: cat.X, Y: l.groundY() - l.catH, W: l.catW, H: l.catH}
}

// fishRect 鱼的绘制区域，Fade 越大缩得越小（以中心缩放）
func (l sceneLayout) fishRect(f game.FishView) rect {
	scale := 1 - f.Fade
	if scale < 0 {
		scale = 0
	}
	w, h := l.fishW*scale, l.fishH*scale
	cx := f.X + l.fishW/2
	cy := l.groundY() - f.Y - l.fishH/2
	return rect{X: cx - w/2, Y: cy - h/2, W: w, H: h}
}

// counterAnchor 猫头顶计数气泡的中心
func (l sceneLayout) counterAnchor(cat game.CatView) (x, y float64) {
	r := l.catRect(cat)
	return r.X + r.W/2, r.Y - 8
}
