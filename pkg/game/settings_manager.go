package game

import (
	"fmt"
	"log"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// DefaultFishThreshold 默认每 1000 次按键掉一条鱼
const DefaultFishThreshold = 1000

// FeedSettings 用户设置
type FeedSettings struct {
	FishThreshold int `yaml:"fishThreshold"` // 多少次按键掉一条鱼，>= 1

	// 窗口位置，WindowPlaced 为 false 时交给系统决定
	WindowX      int  `yaml:"windowX"`
	WindowY      int  `yaml:"windowY"`
	WindowPlaced bool `yaml:"windowPlaced"`
}

// DefaultSettings 返回默认设置
func DefaultSettings() *FeedSettings {
	return &FeedSettings{
		FishThreshold: DefaultFishThreshold,
	}
}

// SettingsManager 设置管理器
// 负责用户设置的加载、保存和内存管理
type SettingsManager struct {
	gdataManager *gdata.Manager // 可为 nil（降级模式）
	settings     *FeedSettings
}

const (
	settingsObject   = "settings"
	settingsProperty = "user"
)

// NewSettingsManager 创建设置管理器并尝试加载已保存的设置
//
// 参数：
//   - gdataManager: gdata 存储管理器，可为 nil（降级模式，仅内存设置）
func NewSettingsManager(gdataManager *gdata.Manager) *SettingsManager {
	sm := &SettingsManager{
		gdataManager: gdataManager,
		settings:     DefaultSettings(),
	}

	if err := sm.Load(); err != nil {
		log.Printf("[SettingsManager] 加载设置失败: %v（使用默认值）", err)
	}
	return sm
}

// Load 从 gdata 加载设置
//
// 文件不存在或无法解析时回落到默认设置
func (sm *SettingsManager) Load() error {
	if sm.gdataManager == nil {
		sm.settings = DefaultSettings()
		return nil
	}

	if !sm.gdataManager.ObjectPropExists(settingsObject, settingsProperty) {
		sm.settings = DefaultSettings()
		return nil
	}

	data, err := sm.gdataManager.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to load settings: %w", err)
	}

	loaded := DefaultSettings()
	if err := yaml.Unmarshal(data, loaded); err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if loaded.FishThreshold < 1 {
		log.Printf("[SettingsManager] 无效的 fishThreshold=%d，改用 %d", loaded.FishThreshold, DefaultFishThreshold)
		loaded.FishThreshold = DefaultFishThreshold
	}

	sm.settings = loaded
	return nil
}

// Save 保存设置到 gdata
//
// gdataManager 为 nil 时直接返回 nil
func (sm *SettingsManager) Save() error {
	if sm.gdataManager == nil {
		return nil
	}

	data, err := yaml.Marshal(sm.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := sm.gdataManager.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	log.Printf("[SettingsManager] 设置已保存")
	return nil
}

// GetSettings 获取当前设置
func (sm *SettingsManager) GetSettings() *FeedSettings {
	return sm.settings
}

// SetFishThreshold 设置掉鱼阈值
//
// 注意：仅修改内存中的设置，需调用 Save() 持久化
func (sm *SettingsManager) SetFishThreshold(n int) error {
	if n < 1 {
		return fmt.Errorf("fish threshold must be >= 1, got %d", n)
	}
	sm.settings.FishThreshold = n
	return nil
}

// SetWindowPosition 记录窗口位置
func (sm *SettingsManager) SetWindowPosition(x, y int) {
	sm.settings.WindowX = x
	sm.settings.WindowY = y
	sm.settings.WindowPlaced = true
}

// WindowPosition 返回上次记录的窗口位置
func (sm *SettingsManager) WindowPosition() (x, y int, ok bool) {
	return sm.settings.WindowX, sm.settings.WindowY, sm.settings.WindowPlaced
}
