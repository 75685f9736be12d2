package components

import "github.com/gonewx/feedcat/pkg/ecs"

// CatState 猫的行为状态
type CatState string

const (
	CatIdle  CatState = "idle"  // 发呆
	CatClean CatState = "clean" // 舔毛
	CatWalk  CatState = "walk"  // 散步
	CatRun   CatState = "run"   // 奔跑（随机奔跑或追鱼）
	CatSleep CatState = "sleep" // 睡觉
	CatEat   CatState = "eat"   // 吃鱼（短暂状态）
)

// IsRestState 判断是否为可被鱼打断的静止状态
func (s CatState) IsRestState() bool {
	return s == CatIdle || s == CatClean || s == CatSleep
}

// IsMoving 判断是否为移动状态
func (s CatState) IsMoving() bool {
	return s == CatWalk || s == CatRun
}

// Facing 朝向
type Facing int

const (
	FacingRight Facing = iota
	FacingLeft
)

// CatComponent 猫的行为状态机数据
//
// 不变量：
//   - TargetFish 为 0 或指向一条未被吃掉的鱼
//   - IsEating 为 true 时 State 必为 CatEat
type CatComponent struct {
	Facing Facing
	State  CatState

	// 状态计时（秒）：StateElapsed 达到 NextStateDeadline 时重新决策
	StateElapsed      float64
	NextStateDeadline float64

	TargetX    float64
	TargetFish ecs.EntityID // 0 表示没有目标鱼
	IsEating   bool

	// Width 猫精灵显示宽度（像素），用于计算活动边界
	Width float64
}
