// Package store 持久化按键与吃鱼计数
package store

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/quasilyte/gdata/v2"
)

// Counters 持久化的计数，JSON 格式与编辑器插件共用
type Counters struct {
	TotalKeystrokes int `json:"totalKeystrokes"`
	KeystrokeCount  int `json:"keystrokeCount"` // 距下一条鱼已累计的按键
	FishEaten       int `json:"fishEaten"`
}

const (
	countersObject   = "counters"
	countersProperty = "state"
)

// CounterStore 基于 gdata 的计数存储
//
// gdataManager 为 nil 时只保存在内存中
type CounterStore struct {
	gdataManager *gdata.Manager
	memory       Counters
}

// NewCounterStore 创建计数存储
func NewCounterStore(gdataManager *gdata.Manager) *CounterStore {
	return &CounterStore{gdataManager: gdataManager}
}

// Load 读取计数
//
// 没有存档或存档损坏时返回全零；损坏时同时返回错误供调用方记录
func (s *CounterStore) Load() (Counters, error) {
	if s.gdataManager == nil {
		return s.memory, nil
	}
	if !s.gdataManager.ObjectPropExists(countersObject, countersProperty) {
		return Counters{}, nil
	}

	data, err := s.gdataManager.LoadObjectProp(countersObject, countersProperty)
	if err != nil {
		return Counters{}, fmt.Errorf("failed to load counters: %w", err)
	}

	var c Counters
	if err := json.Unmarshal(data, &c); err != nil {
		return Counters{}, fmt.Errorf("failed to unmarshal counters: %w", err)
	}
	if c.TotalKeystrokes < 0 || c.KeystrokeCount < 0 || c.FishEaten < 0 {
		return Counters{}, fmt.Errorf("negative counters in store: %+v", c)
	}
	return c, nil
}

// Save 写入计数
func (s *CounterStore) Save(c Counters) error {
	if s.gdataManager == nil {
		s.memory = c
		return nil
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal counters: %w", err)
	}
	if err := s.gdataManager.SaveObjectProp(countersObject, countersProperty, data); err != nil {
		return fmt.Errorf("failed to save counters: %w", err)
	}
	return nil
}

// LoadOrZero 读取计数，失败时记录日志并返回全零
func (s *CounterStore) LoadOrZero() Counters {
	c, err := s.Load()
	if err != nil {
		log.Printf("[CounterStore] %v（从零开始）", err)
		return Counters{}
	}
	return c
}
