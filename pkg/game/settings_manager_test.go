package game

import (
	"testing"

	"github.com/quasilyte/gdata/v2"
)

// openTestStorage 在临时 HOME 下打开 gdata
func openTestStorage(t *testing.T, app string) *gdata.Manager {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("XDG_CONFIG_HOME", "")

	m, err := gdata.Open(gdata.Config{AppName: app})
	if err != nil {
		t.Fatalf("Failed to create gdata manager: %v", err)
	}
	return m
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.FishThreshold != 1000 {
		t.Errorf("FishThreshold: got %d, want 1000", s.FishThreshold)
	}
	if s.WindowPlaced {
		t.Error("WindowPlaced: got true, want false")
	}
}

func TestNewSettingsManagerNilGdata(t *testing.T) {
	sm := NewSettingsManager(nil)
	if sm.GetSettings().FishThreshold != DefaultFishThreshold {
		t.Errorf("FishThreshold: got %d", sm.GetSettings().FishThreshold)
	}
	if err := sm.Save(); err != nil {
		t.Errorf("Save() in degraded mode: %v", err)
	}
}

func TestSettingsSaveAndLoad(t *testing.T) {
	m := openTestStorage(t, "feedcat_settings_test")

	sm := NewSettingsManager(m)
	if err := sm.SetFishThreshold(25); err != nil {
		t.Fatalf("SetFishThreshold: %v", err)
	}
	sm.SetWindowPosition(300, 40)
	if err := sm.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded := NewSettingsManager(m)
	s := reloaded.GetSettings()
	if s.FishThreshold != 25 {
		t.Errorf("FishThreshold: got %d, want 25", s.FishThreshold)
	}
	x, y, ok := reloaded.WindowPosition()
	if !ok || x != 300 || y != 40 {
		t.Errorf("WindowPosition: got %d,%d,%v", x, y, ok)
	}
}

func TestSetFishThresholdRejectsZero(t *testing.T) {
	sm := NewSettingsManager(nil)
	for _, n := range []int{0, -5} {
		if err := sm.SetFishThreshold(n); err == nil {
			t.Errorf("SetFishThreshold(%d): expected error", n)
		}
	}
	if sm.GetSettings().FishThreshold != DefaultFishThreshold {
		t.Error("invalid threshold must not be applied")
	}
}

func TestLoadInvalidThresholdFallsBack(t *testing.T) {
	m := openTestStorage(t, "feedcat_settings_bad")
	if err := m.SaveObjectProp(settingsObject, settingsProperty, []byte("fishThreshold: 0\n")); err != nil {
		t.Fatalf("SaveObjectProp: %v", err)
	}
	sm := NewSettingsManager(m)
	if sm.GetSettings().FishThreshold != DefaultFishThreshold {
		t.Errorf("FishThreshold: got %d, want default", sm.GetSettings().FishThreshold)
	}
}

func TestLoadCorruptSettings(t *testing.T) {
	m := openTestStorage(t, "feedcat_settings_corrupt")
	if err := m.SaveObjectProp(settingsObject, settingsProperty, []byte("{{not yaml")); err != nil {
		t.Fatalf("SaveObjectProp: %v", err)
	}
	sm := &SettingsManager{gdataManager: m, settings: DefaultSettings()}
	if err := sm.Load(); err == nil {
		t.Error("Load: expected error for corrupt data")
	}
	if sm.GetSettings().FishThreshold != DefaultFishThreshold {
		t.Error("corrupt settings must fall back to defaults")
	}
}
