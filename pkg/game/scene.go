package game

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Scene 一个可显示的场景（猫窗口等）
type Scene interface {
	// Update 推进场景，deltaTime 为距上一帧的秒数
	Update(deltaTime float64)

	// Draw 绘制到 screen
	Draw(screen *ebiten.Image)
}

// Saveable 可选接口：窗口关闭或进程退出时持久化状态
//
// 返回 false 表示保存失败，程序仍会正常退出
type Saveable interface {
	SaveOnExit() bool
}

// Resizable 可选接口：窗口尺寸变化时通知场景
type Resizable interface {
	Resize(width, height int)
}
