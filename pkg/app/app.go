// Package app 提供桌宠窗口的 ebiten.Game 包装器
//
// 无边框、置顶、透明背景，可以用鼠标拖动；Esc 或关闭窗口时保存后退出。
package app

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/gonewx/feedcat/pkg/config"
	"github.com/gonewx/feedcat/pkg/game"
)

// MaxDeltaTime 单帧最大时间步长（秒），窗口被挂起后恢复时不会让鱼穿过地面
const MaxDeltaTime = 0.1

// Config 应用启动配置
type Config struct {
	Window       config.WindowConfig
	SceneManager *game.SceneManager
	Settings     *game.SettingsManager // 可为 nil，为 nil 时不记录窗口位置
}

// App 实现 ebiten.Game
type App struct {
	sceneManager *game.SceneManager
	settings     *game.SettingsManager
	window       config.WindowConfig

	clock    func() time.Time
	lastTick time.Time

	dragging   bool
	dragStartX int
	dragStartY int

	closed        bool
	stopRequested atomic.Bool
}

// NewApp 创建应用
func NewApp(cfg Config) *App {
	return &App{
		sceneManager: cfg.SceneManager,
		settings:     cfg.Settings,
		window:       cfg.Window,
		clock:        time.Now,
	}
}

// Run 设置窗口属性并启动游戏循环，阻塞直到窗口关闭
func (a *App) Run() error {
	ebiten.SetWindowDecorated(false)
	ebiten.SetScreenClearedEveryFrame(true)
	ebiten.SetWindowFloating(true)
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowTitle(a.window.Title)
	ebiten.SetWindowSize(a.window.Width, a.window.Height)
	ebiten.SetTPS(a.window.TPS)
	if a.settings != nil {
		if x, y, ok := a.settings.WindowPosition(); ok {
			ebiten.SetWindowPosition(x, y)
		}
	}

	return ebiten.RunGameWithOptions(a, &ebiten.RunGameOptions{ScreenTransparent: true})
}

// deltaTime 距上一帧的真实时间，首帧为 0，上限 MaxDeltaTime
func (a *App) deltaTime() float64 {
	now := a.clock()
	if a.lastTick.IsZero() {
		a.lastTick = now
		return 0
	}
	dt := now.Sub(a.lastTick).Seconds()
	a.lastTick = now
	if dt < 0 {
		return 0
	}
	return min(dt, MaxDeltaTime)
}

// Update 每个 tick 调用一次
func (a *App) Update() error {
	if a.stopRequested.Load() || ebiten.IsWindowBeingClosed() || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		a.Shutdown()
		return ebiten.Termination
	}

	a.handleDrag()
	a.sceneManager.Update(a.deltaTime())
	return nil
}

// handleDrag 按住左键拖动窗口
func (a *App) handleDrag() {
	mx, my := ebiten.CursorPosition()
	if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		a.dragging = false
		return
	}
	if !a.dragging {
		a.dragging = true
		a.dragStartX, a.dragStartY = mx, my
		return
	}
	// 保持鼠标相对窗口的偏移不变
	wx, wy := ebiten.WindowPosition()
	ebiten.SetWindowPosition(wx+mx-a.dragStartX, wy+my-a.dragStartY)
}

// RequestStop 请求在下一个 tick 保存并退出，可在任意 goroutine 调用
func (a *App) RequestStop() {
	a.stopRequested.Store(true)
}

// Shutdown 保存场景状态和窗口位置，可重复调用（只在游戏循环内调用）
func (a *App) Shutdown() {
	if a.closed {
		return
	}
	a.closed = true

	if !a.sceneManager.SaveOnExit() {
		log.Printf("[App] 场景保存失败")
	}
	if a.settings != nil {
		x, y := ebiten.WindowPosition()
		a.settings.SetWindowPosition(x, y)
		if err := a.settings.Save(); err != nil {
			log.Printf("[App] 保存设置失败: %v", err)
		}
	}
	log.Printf("[App] 已退出")
}

// Draw 绘制当前场景
func (a *App) Draw(screen *ebiten.Image) {
	a.sceneManager.Draw(screen)
}

// Layout 逻辑尺寸与窗口尺寸一致，窗口缩放时猫的活动范围随之变化
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth <= 0 || outsideHeight <= 0 {
		return a.window.Width, a.window.Height
	}
	a.sceneManager.Resize(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

// GetSceneManager 返回场景管理器
func (a *App) GetSceneManager() *game.SceneManager {
	return a.sceneManager
}
