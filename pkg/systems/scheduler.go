package systems

import (
	"log"
	"sort"
)

// Scheduler 单实例的一次性延时事件队列
//
// 事件在游戏循环内按到期顺序触发（剩余时间相同则按登记顺序），
// 不存在并发回调。回调触发时自行检查目标是否仍然有效。
type Scheduler struct {
	events []*scheduledEvent
	seq    uint64
}

type scheduledEvent struct {
	name      string
	remaining float64 // 剩余时间(秒)
	seq       uint64
	fn        func()
}

// NewScheduler 创建空的事件队列
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// After 登记一个 delay 秒后触发的事件
func (s *Scheduler) After(delay float64, name string, fn func()) {
	if delay < 0 {
		delay = 0
	}
	s.seq++
	s.events = append(s.events, &scheduledEvent{
		name:      name,
		remaining: delay,
		seq:       s.seq,
		fn:        fn,
	})
}

// Update 推进所有事件的倒计时，并触发到期事件
// 回调中新登记的事件最早在下一次 Update 触发
func (s *Scheduler) Update(deltaTime float64) {
	if len(s.events) == 0 {
		return
	}

	due := make([]*scheduledEvent, 0)
	pending := s.events[:0]
	for _, ev := range s.events {
		ev.remaining -= deltaTime
		if ev.remaining <= 0 {
			due = append(due, ev)
		} else {
			pending = append(pending, ev)
		}
	}
	s.events = pending

	sort.SliceStable(due, func(i, j int) bool {
		if due[i].remaining != due[j].remaining {
			return due[i].remaining < due[j].remaining
		}
		return due[i].seq < due[j].seq
	})

	for _, ev := range due {
		log.Printf("[Scheduler] 触发事件: %s", ev.name)
		ev.fn()
	}
}

// Pending 返回尚未触发的事件数量
func (s *Scheduler) Pending() int {
	return len(s.events)
}

// Clear 丢弃所有未触发事件（重置时使用）
func (s *Scheduler) Clear() {
	s.events = s.events[:0]
}
