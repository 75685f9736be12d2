// Package protocol 定义宿主桥接与猫之间、以及桥接与外部客户端之间的消息格式
//
// 两层消息：
//   - Message: 桥接 <-> 猫（进程内），即 init / keystroke / reset / spawnFish / ready / fishEaten / resetDone
//   - Request / Event: 外部客户端（编辑器插件、命令行）<-> 桥接（WebSocket JSON）
package protocol

// 桥接 -> 猫
const (
	TypeInit      = "init"
	TypeKeystroke = "keystroke"
	TypeReset     = "reset"
	TypeSpawnFish = "spawnFish"
)

// 猫 -> 桥接
const (
	TypeReady     = "ready"
	TypeFishEaten = "fishEaten"
	TypeResetDone = "resetDone" // 猫已处理完 reset
)

// 客户端 -> 桥接（除上面的 keystroke / reset / spawnFish 外）
const (
	TypeTextChange = "textChange"
	TypeStats      = "stats"
)

// 桥接 -> 客户端
const (
	TypeError = "error"
)

// Message 桥接与猫之间的消息
//
//	{type:'init', count, fishEaten}
//	{type:'keystroke', count, spawnFish}
//	{type:'reset'} / {type:'spawnFish'} / {type:'ready'}
//	{type:'fishEaten', count} / {type:'resetDone'}
type Message struct {
	Type      string `json:"type"`
	Count     int    `json:"count,omitempty"`
	FishEaten int    `json:"fishEaten,omitempty"`
	SpawnFish bool   `json:"spawnFish,omitempty"`
}

// Request 外部客户端发给桥接的请求
type Request struct {
	Type    string `json:"type"`
	N       int    `json:"n,omitempty"`       // keystroke: 按键次数，默认 1
	Added   int    `json:"added,omitempty"`   // textChange: 插入的字符数
	Removed int    `json:"removed,omitempty"` // textChange: 删除的字符数
}

// Event 桥接发给外部客户端的事件
type Event struct {
	Type            string `json:"type"`
	Count           int    `json:"count"`
	TotalKeystrokes int    `json:"totalKeystrokes"`
	KeystrokeCount  int    `json:"keystrokeCount"`
	FishEaten       int    `json:"fishEaten"`
	Message         string `json:"message,omitempty"`
}
