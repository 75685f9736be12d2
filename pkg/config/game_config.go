package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// GameConfig 桌面猫的全部可调参数
//
// 配置文件位置: data/feedcat.yaml（可选）
// 文件中出现的字段覆盖 Default() 的默认值，未出现的保持默认。
// 所有时间单位为秒，速度单位为像素/秒。
type GameConfig struct {
	Window    WindowConfig          `yaml:"window"`
	Sprite    SpriteConfig          `yaml:"sprite"`
	Cat       CatConfig             `yaml:"cat"`
	Behaviors []BehaviorWeight      `yaml:"behaviors"`
	Clips     map[string]ClipConfig `yaml:"clips"`
	Fish      FishConfig            `yaml:"fish"`
	Bridge    BridgeConfig          `yaml:"bridge"`
}

// WindowConfig 窗口配置
type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
	TPS    int    `yaml:"tps"`
}

// SpriteConfig 精灵表配置
//
// SheetPath 为空或文件不存在时使用程序生成的像素猫精灵表。
type SpriteConfig struct {
	SheetPath   string  `yaml:"sheetPath"`
	FrameWidth  int     `yaml:"frameWidth"`
	FrameHeight int     `yaml:"frameHeight"`
	Columns     int     `yaml:"columns"`
	Rows        int     `yaml:"rows"`
	Scale       float64 `yaml:"scale"`
}

// DisplayWidth 单帧显示宽度（像素）
func (s SpriteConfig) DisplayWidth() float64 {
	return float64(s.FrameWidth) * s.Scale
}

// DisplayHeight 单帧显示高度（像素）
func (s SpriteConfig) DisplayHeight() float64 {
	return float64(s.FrameHeight) * s.Scale
}

// CatConfig 猫的运动参数
type CatConfig struct {
	WalkSpeed     float64 `yaml:"walkSpeed"`     // 散步速度
	RunSpeed      float64 `yaml:"runSpeed"`      // 奔跑速度
	ArriveEpsilon float64 `yaml:"arriveEpsilon"` // 到达判定距离
	EdgeMargin    float64 `yaml:"edgeMargin"`    // 距容器边缘的留白
	MinRoamWidth  float64 `yaml:"minRoamWidth"`  // 活动范围右边界的下限
	StartX        float64 `yaml:"startX"`        // 初始位置
	FirstDecision float64 `yaml:"firstDecision"` // 启动后首次决策的延迟
	EatDelay      float64 `yaml:"eatDelay"`      // 吃鱼动作持续时间
}

// DurationRange 随机时长区间（秒）
type DurationRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// BehaviorWeight 随机行为表中的一项
type BehaviorWeight struct {
	State    string        `yaml:"state"`
	Weight   float64       `yaml:"weight"`
	Duration DurationRange `yaml:"duration"`
}

// ClipConfig 动画片段：从 Row 开始连续 Rows 行，每行 Frames 帧
type ClipConfig struct {
	Row     int `yaml:"row"`
	Rows    int `yaml:"rows"`
	Frames  int `yaml:"frames"`
	FrameMs int `yaml:"frameMs"`
}

// Len 片段总帧数
func (c ClipConfig) Len() int {
	return c.Rows * c.Frames
}

// FrameDuration 每帧显示时长（秒）
func (c ClipConfig) FrameDuration() float64 {
	return float64(c.FrameMs) / 1000.0
}

// Cell 将帧索引映射到精灵表中的 (行, 列)
// 索引按片段长度取模
func (c ClipConfig) Cell(index int) (row, col int) {
	n := c.Len()
	if n <= 0 {
		return c.Row, 0
	}
	local := ((index % n) + n) % n
	return c.Row + local/c.Frames, local % c.Frames
}

// FishConfig 鱼的生成与物理参数
type FishConfig struct {
	Physics        bool    `yaml:"physics"`        // false 时鱼直接放在地面上，不运动
	Gravity        float64 `yaml:"gravity"`        // 重力加速度（像素/秒²）
	Restitution    float64 `yaml:"restitution"`    // 落地反弹系数
	MinBounceSpeed float64 `yaml:"minBounceSpeed"` // 低于此落地速度即静止
	WallDamping    float64 `yaml:"wallDamping"`    // 撞墙水平速度衰减
	MaxSpeedX      float64 `yaml:"maxSpeedX"`      // 初始水平速度上限
	SpawnHeight    float64 `yaml:"spawnHeight"`    // 生成高度，0 表示容器高度
	CatchRadius    float64 `yaml:"catchRadius"`    // 水平捕获半径
	CatchHeight    float64 `yaml:"catchHeight"`    // 可被捕获的最大离地高度
	RemoveDelay    float64 `yaml:"removeDelay"`    // 被吃后淡出时长
	Width          float64 `yaml:"width"`
	Height         float64 `yaml:"height"`
}

// BridgeConfig 宿主桥接配置
type BridgeConfig struct {
	Addr          string `yaml:"addr"`          // WebSocket 监听地址
	SaveEvery     int    `yaml:"saveEvery"`     // 每多少次按键持久化一次
	MaxCharsPerOp int    `yaml:"maxCharsPerOp"` // 单次文本变更最多计入的按键数
}

// Default 返回默认配置
func Default() *GameConfig {
	return &GameConfig{
		Window: WindowConfig{
			Width:  220,
			Height: 120,
			Title:  "Feed Cat",
			TPS:    60,
		},
		Sprite: SpriteConfig{
			FrameWidth:  32,
			FrameHeight: 32,
			Columns:     8,
			Rows:        10,
			Scale:       1.5,
		},
		Cat: CatConfig{
			WalkSpeed:     40,
			RunSpeed:      100,
			ArriveEpsilon: 2,
			EdgeMargin:    5,
			MinRoamWidth:  60,
			StartX:        10,
			FirstDecision: 1.0,
			EatDelay:      0.6,
		},
		Behaviors: []BehaviorWeight{
			{State: "walk", Weight: 0.20, Duration: DurationRange{Min: 4, Max: 7}},
			{State: "run", Weight: 0.15, Duration: DurationRange{Min: 2, Max: 4}},
			{State: "clean", Weight: 0.15, Duration: DurationRange{Min: 3, Max: 6}},
			{State: "sleep", Weight: 0.15, Duration: DurationRange{Min: 4, Max: 8}},
			{State: "idle", Weight: 0.35, Duration: DurationRange{Min: 2, Max: 4}},
		},
		Clips: map[string]ClipConfig{
			"idle":   {Row: 0, Rows: 2, Frames: 8, FrameMs: 150},
			"clean":  {Row: 2, Rows: 2, Frames: 8, FrameMs: 120},
			"walk":   {Row: 4, Rows: 1, Frames: 8, FrameMs: 100},
			"run":    {Row: 5, Rows: 1, Frames: 8, FrameMs: 60},
			"sleep":  {Row: 6, Rows: 1, Frames: 8, FrameMs: 250},
			"eat":    {Row: 7, Rows: 1, Frames: 8, FrameMs: 100},
			"jump":   {Row: 8, Rows: 1, Frames: 8, FrameMs: 80},
			"scared": {Row: 9, Rows: 1, Frames: 8, FrameMs: 60},
		},
		Fish: FishConfig{
			Physics:        true,
			Gravity:        900,
			Restitution:    0.6,
			MinBounceSpeed: 60,
			WallDamping:    0.8,
			MaxSpeedX:      60,
			CatchRadius:    12,
			CatchHeight:    4,
			RemoveDelay:    0.3,
			Width:          16,
			Height:         10,
		},
		Bridge: BridgeConfig{
			Addr:          "127.0.0.1:47615",
			SaveEvery:     50,
			MaxCharsPerOp: 10,
		},
	}
}

// LoadGameConfig 从 YAML 文件加载配置
//
// 参数:
//   - path: 配置文件路径；为空时直接返回默认配置
//
// 返回:
//   - *GameConfig: 默认值叠加文件内容后的配置
//   - error: 读取、解析或校验失败
func LoadGameConfig(path string) (*GameConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read game config: %w", err)
	}
	return ParseGameConfig(data)
}

// ParseGameConfig 解析 YAML 内容，叠加在默认配置之上
func ParseGameConfig(data []byte) (*GameConfig, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse game config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game config: %w", err)
	}
	return cfg, nil
}

// Validate 验证配置有效性
func (c *GameConfig) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Sprite.FrameWidth <= 0 || c.Sprite.FrameHeight <= 0 || c.Sprite.Scale <= 0 {
		return fmt.Errorf("sprite frame size and scale must be positive")
	}
	if c.Cat.WalkSpeed <= 0 || c.Cat.RunSpeed <= 0 {
		return fmt.Errorf("cat speeds must be positive (walk=%.1f, run=%.1f)", c.Cat.WalkSpeed, c.Cat.RunSpeed)
	}
	if c.Cat.ArriveEpsilon <= 0 {
		return fmt.Errorf("arriveEpsilon must be positive, got %.2f", c.Cat.ArriveEpsilon)
	}
	if c.Cat.EatDelay < 0 || c.Cat.FirstDecision < 0 {
		return fmt.Errorf("cat delays must not be negative")
	}

	total := 0.0
	for _, b := range c.Behaviors {
		if !isBehaviorState(b.State) {
			return fmt.Errorf("behavior %q is not a random behavior", b.State)
		}
		if b.Weight < 0 {
			return fmt.Errorf("behavior %q has negative weight %.2f", b.State, b.Weight)
		}
		if b.Duration.Min < 0 || b.Duration.Min > b.Duration.Max {
			return fmt.Errorf("behavior %q duration invalid: min(%.1f) max(%.1f)", b.State, b.Duration.Min, b.Duration.Max)
		}
		total += b.Weight
	}
	if total <= 0 {
		return fmt.Errorf("behavior table needs at least one positive weight")
	}

	for name, clip := range c.Clips {
		if clip.Rows <= 0 || clip.Frames <= 0 || clip.FrameMs <= 0 {
			return fmt.Errorf("clip %q must have positive rows, frames and frameMs", name)
		}
		if clip.Row < 0 || clip.Row+clip.Rows > c.Sprite.Rows || clip.Frames > c.Sprite.Columns {
			return fmt.Errorf("clip %q is outside the %dx%d sprite sheet", name, c.Sprite.Columns, c.Sprite.Rows)
		}
	}

	if c.Fish.Physics {
		if c.Fish.Gravity <= 0 {
			return fmt.Errorf("fish gravity must be positive, got %.1f", c.Fish.Gravity)
		}
		if c.Fish.Restitution < 0 || c.Fish.Restitution >= 1 {
			return fmt.Errorf("fish restitution must be in [0,1), got %.2f", c.Fish.Restitution)
		}
		if c.Fish.MinBounceSpeed <= 0 {
			return fmt.Errorf("fish minBounceSpeed must be positive, got %.1f", c.Fish.MinBounceSpeed)
		}
	}
	if c.Fish.CatchRadius < 0 || c.Fish.CatchHeight < 0 || c.Fish.RemoveDelay < 0 {
		return fmt.Errorf("fish catch radius, catch height and remove delay must not be negative")
	}

	if c.Bridge.SaveEvery <= 0 {
		return fmt.Errorf("bridge saveEvery must be positive, got %d", c.Bridge.SaveEvery)
	}
	if c.Bridge.MaxCharsPerOp <= 0 {
		return fmt.Errorf("bridge maxCharsPerOp must be positive, got %d", c.Bridge.MaxCharsPerOp)
	}
	return nil
}

// isBehaviorState 随机行为表只允许这些状态（eat 只能由鱼触发）
func isBehaviorState(s string) bool {
	switch s {
	case "idle", "clean", "walk", "run", "sleep":
		return true
	}
	return false
}
