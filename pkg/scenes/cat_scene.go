// Package scenes 实现 Ebitengine 场景
package scenes

import (
	"fmt"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/gonewx/feedcat/pkg/bridge"
	"github.com/gonewx/feedcat/pkg/components"
	"github.com/gonewx/feedcat/pkg/game"
	"github.com/gonewx/feedcat/pkg/sprites"
	"github.com/gonewx/feedcat/pkg/utils"
)

const eatenMinScale = 0.6

var (
	skyColor     = color.RGBA{0x87, 0xCE, 0xEB, 0xFF}
	grassColor   = color.RGBA{0x7C, 0xB3, 0x42, 0xFF}
	soilColor    = color.RGBA{0x55, 0x8B, 0x2F, 0xFF}
	sunColor     = color.RGBA{0xFF, 0xD5, 0x4F, 0xFF}
	cloudColor   = color.RGBA{0xFF, 0xFF, 0xFF, 0xE6}
	bubbleColor  = color.RGBA{0x00, 0x00, 0x00, 0xCC}
	goldColor    = color.RGBA{0xFF, 0xD7, 0x00, 0xFF}
	statsBGColor = color.RGBA{0x00, 0x00, 0x00, 0x4D}
)

// CatScene 猫窗口
//
// 窗口内的按键也算作按键，经桥接统计后投递给 GameState
type CatScene struct {
	state  *game.GameState
	bridge *bridge.Bridge

	sheet  *ebiten.Image
	frames map[[2]int]*ebiten.Image
	fish   *ebiten.Image
	face   *text.GoXFace

	layout   sceneLayout
	catScale float64
	frameW   int
	frameH   int

	keys []ebiten.Key
}

// NewCatScene 创建猫场景
func NewCatScene(state *game.GameState, b *bridge.Bridge, sheet *sprites.Sheet) *CatScene {
	cfg := state.Config()
	s := &CatScene{
		state:    state,
		bridge:   b,
		sheet:    ebiten.NewImageFromImage(sheet.Image),
		frames:   make(map[[2]int]*ebiten.Image),
		fish:     ebiten.NewImageFromImage(sprites.GenerateFish(int(cfg.Fish.Width), int(cfg.Fish.Height))),
		face:     text.NewGoXFace(basicfont.Face7x13),
		catScale: cfg.Sprite.Scale,
		frameW:   sheet.FrameWidth,
		frameH:   sheet.FrameHeight,
		layout: sceneLayout{
			screenH: float64(cfg.Window.Height),
			catW:    cfg.Sprite.DisplayWidth(),
			catH:    cfg.Sprite.DisplayHeight(),
			fishW:   cfg.Fish.Width,
			fishH:   cfg.Fish.Height,
		},
	}
	return s
}

// Update 处理窗口按键并推进 GameState
func (s *CatScene) Update(deltaTime float64) {
	s.keys = inpututil.AppendJustPressedKeys(s.keys[:0])
	for _, k := range s.keys {
		if k == ebiten.KeyEscape {
			continue
		}
		s.bridge.OnKeystroke()
	}

	s.state.Update(deltaTime)
}

// Resize 窗口尺寸变化
func (s *CatScene) Resize(width, height int) {
	s.layout.screenH = float64(height)
	s.state.Resize(float64(width), float64(height))
}

// SaveOnExit 关闭前保存计数
func (s *CatScene) SaveOnExit() bool {
	s.bridge.Close()
	return true
}

// Draw 绘制背景、鱼、猫和计数
func (s *CatScene) Draw(screen *ebiten.Image) {
	snap := s.state.Snapshot()

	s.drawBackground(screen)
	for _, f := range snap.Fish {
		s.drawFish(screen, f)
	}
	s.drawCat(screen, snap.Cat)
	s.drawCounter(screen, snap)
	s.drawStats(screen, snap)
}

func (s *CatScene) drawBackground(screen *ebiten.Image) {
	b := screen.Bounds()
	w, h := float32(b.Dx()), float32(b.Dy())

	screen.Fill(skyColor)
	groundTop := h * 0.6
	vector.DrawFilledRect(screen, 0, groundTop, w, h-groundTop, grassColor, false)
	vector.DrawFilledRect(screen, 0, h-float32(groundOffset), w, float32(groundOffset), soilColor, false)

	vector.DrawFilledCircle(screen, w-20, 15, 10, sunColor, true)
	vector.DrawFilledRect(screen, 10, 10, 25, 8, cloudColor, true)
	vector.DrawFilledCircle(screen, 21, 10, 6, cloudColor, true)
}

// frame 取精灵表中的一帧（缓存子图）
func (s *CatScene) frame(row, col int) *ebiten.Image {
	key := [2]int{row, col}
	if img, ok := s.frames[key]; ok {
		return img
	}
	x, y := col*s.frameW, row*s.frameH
	img := s.sheet.SubImage(image.Rect(x, y, x+s.frameW, y+s.frameH)).(*ebiten.Image)
	s.frames[key] = img
	return img
}

func (s *CatScene) drawCat(screen *ebiten.Image, cat game.CatView) {
	r := s.layout.catRect(cat)

	op := &ebiten.DrawImageOptions{}
	if cat.Facing == components.FacingLeft {
		// 水平镜像
		op.GeoM.Scale(-1, 1)
		op.GeoM.Translate(float64(s.frameW), 0)
	}
	op.GeoM.Scale(s.catScale, s.catScale)
	op.GeoM.Translate(r.X, r.Y)
	op.Filter = ebiten.FilterNearest
	screen.DrawImage(s.frame(cat.Row, cat.Col), op)
}

func (s *CatScene) drawFish(screen *ebiten.Image, f game.FishView) {
	r := s.layout.fishRect(f)
	if r.W <= 0 || r.H <= 0 {
		return
	}
	b := s.fish.Bounds()

	// 被吃掉的鱼以底边中点为基准收缩淡出
	alpha, k := utils.FadeOut(f.Fade, eatenMinScale)
	w, h := r.W*k, r.H*k

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(w/float64(b.Dx()), h/float64(b.Dy()))
	op.GeoM.Translate(r.X+(r.W-w)/2, r.Y+(r.H-h))
	op.ColorScale.ScaleAlpha(float32(alpha))
	screen.DrawImage(s.fish, op)
}

// drawCounter 猫头顶的按键计数气泡
func (s *CatScene) drawCounter(screen *ebiten.Image, snap game.Snapshot) {
	label := fmt.Sprintf("%d", snap.Keystrokes)
	tw, th := text.Measure(label, s.face, 0)
	cx, cy := s.layout.counterAnchor(snap.Cat)

	pad := 3.0
	x := cx - tw/2 - pad
	y := cy - th/2 - pad
	vector.DrawFilledRect(screen, float32(x), float32(y), float32(tw+2*pad), float32(th+2*pad), bubbleColor, true)
	vector.StrokeRect(screen, float32(x), float32(y), float32(tw+2*pad), float32(th+2*pad), 1, goldColor, true)

	op := &text.DrawOptions{}
	op.GeoM.Translate(cx-tw/2, cy-th/2)
	op.ColorScale.ScaleWithColor(goldColor)
	text.Draw(screen, label, s.face, op)
}

// drawStats 顶部的统计行
func (s *CatScene) drawStats(screen *ebiten.Image, snap game.Snapshot) {
	label := fmt.Sprintf("keys %d | fish %d", snap.Keystrokes, snap.FishEaten)
	tw, th := text.Measure(label, s.face, 0)
	x := (float64(screen.Bounds().Dx()) - tw) / 2

	vector.DrawFilledRect(screen, float32(x-4), 2, float32(tw+8), float32(th+2), statsBGColor, true)
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, 3)
	op.ColorScale.ScaleWithColor(color.White)
	text.Draw(screen, label, s.face, op)
}
