package components

// AnimationComponent 精灵表翻页动画的播放状态
//
// 动画片段（Clip）定义在配置中，这里只保存播放进度。
// 帧推进由真实经过的时间驱动，与帧率无关。
type AnimationComponent struct {
	Clip       string  // 当前片段名，如 "walk"
	FrameIndex int     // 当前帧索引(0-based)
	FrameTimer float64 // 距上次换帧经过的时间(秒)
	Row        int     // 当前帧在精灵表中的行
	Col        int     // 当前帧在精灵表中的列
}
