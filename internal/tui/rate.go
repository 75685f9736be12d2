package tui

import "time"

// rateHistory 每秒按键数的滑动窗口
type rateHistory struct {
	capacity    int
	samples     []float64
	current     int
	bucketStart time.Time
}

func newRateHistory(capacity int) *rateHistory {
	return &rateHistory{capacity: capacity}
}

// Add 记录一次按键
func (h *rateHistory) Add(now time.Time) {
	h.Roll(now)
	h.current++
}

// Roll 关闭已经结束的秒桶，空闲的秒记为 0
func (h *rateHistory) Roll(now time.Time) {
	if h.bucketStart.IsZero() {
		h.bucketStart = now
		return
	}
	for now.Sub(h.bucketStart) >= time.Second {
		h.push(float64(h.current))
		h.current = 0
		h.bucketStart = h.bucketStart.Add(time.Second)

		// 长时间空闲时直接跳到当前
		if now.Sub(h.bucketStart) > time.Duration(h.capacity)*time.Second {
			for range h.capacity {
				h.push(0)
			}
			h.bucketStart = now
		}
	}
}

func (h *rateHistory) push(v float64) {
	h.samples = append(h.samples, v)
	if len(h.samples) > h.capacity {
		h.samples = h.samples[len(h.samples)-h.capacity:]
	}
}

// Samples 已完成的秒桶，最旧的在前
func (h *rateHistory) Samples() []float64 {
	return h.samples
}

// Last 最近一个完整秒的按键数
func (h *rateHistory) Last() float64 {
	if len(h.samples) == 0 {
		return 0
	}
	return h.samples[len(h.samples)-1]
}
