// Package sprites 提供猫的精灵表和鱼的图像
//
// 没有配置精灵表 PNG 时按固定布局（8 列 x 10 行，每帧 32x32）程序化生成，
// 行号与动画片段一致：0-1 idle，2-3 clean，4 walk，5 run，6 sleep，7 eat，8 jump，9 scared。
package sprites

import (
	"fmt"
	"image"
	"image/color"
	_ "image/png" // 注册 PNG 解码器
	"math"
	"os"

	"github.com/gonewx/feedcat/pkg/config"
)

// Sheet 精灵表
type Sheet struct {
	Image       image.Image
	FrameWidth  int
	FrameHeight int
	Columns     int
	Rows        int
}

// Frame 返回 (row, col) 处的帧，超出范围时返回 nil
func (s *Sheet) Frame(row, col int) image.Image {
	if row < 0 || row >= s.Rows || col < 0 || col >= s.Columns {
		return nil
	}
	r := image.Rect(col*s.FrameWidth, row*s.FrameHeight, (col+1)*s.FrameWidth, (row+1)*s.FrameHeight)
	r = r.Add(s.Image.Bounds().Min)
	if sub, ok := s.Image.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(r)
	}
	return nil
}

// LoadSheet 加载精灵表
//
// path 为空时生成内置精灵表；PNG 尺寸必须至少覆盖 Columns x Rows 帧
func LoadSheet(cfg config.SpriteConfig) (*Sheet, error) {
	sheet := &Sheet{
		FrameWidth:  cfg.FrameWidth,
		FrameHeight: cfg.FrameHeight,
		Columns:     cfg.Columns,
		Rows:        cfg.Rows,
	}
	if cfg.SheetPath == "" {
		sheet.Image = GenerateCatSheet(cfg.FrameWidth, cfg.FrameHeight, cfg.Columns, cfg.Rows)
		return sheet, nil
	}

	file, err := os.Open(cfg.SheetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sprite sheet %s: %w", cfg.SheetPath, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode sprite sheet %s: %w", cfg.SheetPath, err)
	}
	b := img.Bounds()
	if b.Dx() < cfg.FrameWidth*cfg.Columns || b.Dy() < cfg.FrameHeight*cfg.Rows {
		return nil, fmt.Errorf("sprite sheet %s is %dx%d, need at least %dx%d",
			cfg.SheetPath, b.Dx(), b.Dy(), cfg.FrameWidth*cfg.Columns, cfg.FrameHeight*cfg.Rows)
	}
	sheet.Image = img
	return sheet, nil
}

var (
	furColor    = color.RGBA{0xF0, 0x9A, 0x3E, 0xFF}
	stripeColor = color.RGBA{0xC4, 0x6A, 0x1E, 0xFF}
	bellyColor  = color.RGBA{0xFF, 0xE0, 0xB5, 0xFF}
	eyeColor    = color.RGBA{0x20, 0x20, 0x20, 0xFF}
	noseColor   = color.RGBA{0xFF, 0x7F, 0x9F, 0xFF}
	fishColor   = color.RGBA{0x4F, 0xA3, 0xE0, 0xFF}
	finColor    = color.RGBA{0x2B, 0x6C, 0xB0, 0xFF}
)

// pose 一帧猫的姿势参数（相对 32x32 网格）
type pose struct {
	bodyY      float64 // 身体中心高度
	bodyRX     float64
	bodyRY     float64
	headDX     float64 // 头相对身体中心的偏移
	headDY     float64
	legPhase   float64 // 腿的摆动相位，NaN 表示收起
	eyesClosed bool
	tailUp     float64
	pawUp      bool
}

// poseFor 根据行（动作）和列（帧）计算姿势
func poseFor(row, col, cols int) pose {
	t := float64(col) / float64(max(cols, 1)) * 2 * math.Pi
	p := pose{bodyY: 20, bodyRX: 9, bodyRY: 5.5, headDX: 8, headDY: -5, legPhase: 0, tailUp: 4}

	switch row {
	case 0, 1: // idle：呼吸
		p.bodyRY += 0.5 * math.Sin(t)
		p.tailUp = 4 + 2*math.Sin(t)
		p.eyesClosed = row == 1 && col == cols-1
	case 2, 3: // clean：低头舔爪
		p.headDY = -2 + math.Sin(t)
		p.headDX = 7
		p.pawUp = true
		p.eyesClosed = true
	case 4: // walk
		p.legPhase = t
		p.bodyY = 20 + 0.5*math.Sin(2*t)
	case 5: // run：身体拉长
		p.legPhase = t
		p.bodyRX = 10
		p.bodyY = 19 + math.Sin(2*t)
		p.tailUp = 1
	case 6: // sleep：趴下闭眼
		p.bodyY = 24
		p.bodyRY = 4 + 0.4*math.Sin(t)
		p.headDY = -1
		p.legPhase = math.NaN()
		p.eyesClosed = true
		p.tailUp = -1
	case 7: // eat：低头
		p.headDY = 1 + math.Sin(2*t)
		p.headDX = 9
	case 8: // jump
		p.bodyY = 20 - 6*math.Abs(math.Sin(t/2))
		p.legPhase = math.NaN()
	case 9: // scared：炸毛
		p.bodyRY = 7
		p.bodyY = 18 + 0.5*math.Sin(4*t)
		p.tailUp = 8
	}
	return p
}

// GenerateCatSheet 生成程序化的猫精灵表，所有帧朝右
func GenerateCatSheet(frameW, frameH, cols, rows int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, frameW*cols, frameH*rows))
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			drawCat(img, col*frameW, row*frameH, frameW, frameH, poseFor(row, col, cols))
		}
	}
	return img
}

func drawCat(img *image.RGBA, ox, oy, w, h int, p pose) {
	sx := float64(w) / 32
	sy := float64(h) / 32
	at := func(x, y float64) (float64, float64) { return float64(ox) + x*sx, float64(oy) + y*sy }

	cx, cy := 14.0, p.bodyY

	// 尾巴
	for i := 0.0; i < 6; i++ {
		x, y := at(cx-p.bodyRX-i*0.8, cy-i*p.tailUp/6)
		fillEllipse(img, x, y, 1.3*sx, 1.3*sy, stripeColor)
	}

	// 腿
	if !math.IsNaN(p.legPhase) {
		for i, lx := range []float64{cx - 6, cx - 3, cx + 3, cx + 6} {
			swing := 1.5 * math.Sin(p.legPhase+float64(i)*math.Pi/2)
			x, y := at(lx+swing, cy+p.bodyRY-1)
			fillRect(img, x-sx, y, 2*sx, 5*sy, furColor)
		}
	}

	// 身体和肚子
	x, y := at(cx, cy)
	fillEllipse(img, x, y, p.bodyRX*sx, p.bodyRY*sy, furColor)
	fillEllipse(img, x, y+1.5*sy, (p.bodyRX-3)*sx, (p.bodyRY-2.5)*sy, bellyColor)
	for i := -1.0; i <= 1; i++ {
		sxp, syp := at(cx+i*3, cy-p.bodyRY+1)
		fillRect(img, sxp, syp, sx, 2*sy, stripeColor)
	}

	// 头
	hx, hy := at(cx+p.headDX, cy+p.headDY)
	fillEllipse(img, hx, hy, 5*sx, 4.5*sy, furColor)
	fillTriangle(img, hx-4*sx, hy-2*sy, hx-1*sx, hy-3.5*sy, hx-3*sx, hy-7*sy, furColor)
	fillTriangle(img, hx+1*sx, hy-3.5*sy, hx+4*sx, hy-2*sy, hx+3*sx, hy-7*sy, furColor)

	// 眼睛和鼻子
	if p.eyesClosed {
		fillRect(img, hx-0.5*sx, hy-1*sy, 2*sx, 0.7*sy, eyeColor)
		fillRect(img, hx+2.5*sx, hy-1*sy, 1.5*sx, 0.7*sy, eyeColor)
	} else {
		fillRect(img, hx, hy-1.5*sy, 1.2*sx, 1.6*sy, eyeColor)
		fillRect(img, hx+2.8*sx, hy-1.5*sy, 1.2*sx, 1.6*sy, eyeColor)
	}
	fillRect(img, hx+4*sx, hy+0.5*sy, 1.2*sx, 1*sy, noseColor)

	// 舔爪
	if p.pawUp {
		fillEllipse(img, hx+3*sx, hy+4*sy, 1.5*sx, 1.5*sy, bellyColor)
	}
}

// GenerateFish 生成一条朝右的鱼
func GenerateFish(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fw, fh := float64(w), float64(h)

	fillTriangle(img, 0, 0, fw*0.3, fh/2, 0, fh, finColor)
	fillEllipse(img, fw*0.6, fh/2, fw*0.38, fh*0.42, fishColor)
	fillRect(img, fw*0.75, fh*0.3, math.Max(1, fw/16), math.Max(1, fh/10), eyeColor)
	return img
}

func fillRect(img *image.RGBA, x, y, w, h float64, c color.RGBA) {
	r := image.Rect(int(math.Round(x)), int(math.Round(y)), int(math.Round(x+w)), int(math.Round(y+h)))
	r = r.Intersect(img.Bounds())
	for py := r.Min.Y; py < r.Max.Y; py++ {
		for px := r.Min.X; px < r.Max.X; px++ {
			img.SetRGBA(px, py, c)
		}
	}
}

func fillEllipse(img *image.RGBA, cx, cy, rx, ry float64, c color.RGBA) {
	if rx <= 0 || ry <= 0 {
		return
	}
	r := image.Rect(int(cx-rx), int(cy-ry), int(cx+rx)+1, int(cy+ry)+1).Intersect(img.Bounds())
	for py := r.Min.Y; py < r.Max.Y; py++ {
		for px := r.Min.X; px < r.Max.X; px++ {
			dx := (float64(px) + 0.5 - cx) / rx
			dy := (float64(py) + 0.5 - cy) / ry
			if dx*dx+dy*dy <= 1 {
				img.SetRGBA(px, py, c)
			}
		}
	}
}

func fillTriangle(img *image.RGBA, x1, y1, x2, y2, x3, y3 float64, c color.RGBA) {
	minX := int(math.Floor(math.Min(x1, math.Min(x2, x3))))
	maxX := int(math.Ceil(math.Max(x1, math.Max(x2, x3))))
	minY := int(math.Floor(math.Min(y1, math.Min(y2, y3))))
	maxY := int(math.Ceil(math.Max(y1, math.Max(y2, y3))))
	r := image.Rect(minX, minY, maxX+1, maxY+1).Intersect(img.Bounds())

	edge := func(ax, ay, bx, by, px, py float64) float64 {
		return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
	}
	for py := r.Min.Y; py < r.Max.Y; py++ {
		for px := r.Min.X; px < r.Max.X; px++ {
			fx, fy := float64(px)+0.5, float64(py)+0.5
			e1 := edge(x1, y1, x2, y2, fx, fy)
			e2 := edge(x2, y2, x3, y3, fx, fy)
			e3 := edge(x3, y3, x1, y1, fx, fy)
			if (e1 >= 0 && e2 >= 0 && e3 >= 0) || (e1 <= 0 && e2 <= 0 && e3 <= 0) {
				img.SetRGBA(px, py, c)
			}
		}
	}
}
