package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
)

func TestDefaultConfig_Pomodoro(t *testing.T) {
	cfg := DefaultConfig().ToPomodoroDomainConfig()
	if cfg.FocusDuration != 25*time.Minute {
		t.Errorf("FocusDuration = %v, want 25m", cfg.FocusDuration)
	}
	if cfg.ShortBreakDuration != 5*time.Minute {
		t.Errorf("ShortBreakDuration = %v, want 5m", cfg.ShortBreakDuration)
	}
	if cfg.LongBreakDuration != 15*time.Minute {
		t.Errorf("LongBreakDuration = %v, want 15m", cfg.LongBreakDuration)
	}
	if cfg.SessionsBeforeLong != 4 {
		t.Errorf("SessionsBeforeLong = %d, want 4", cfg.SessionsBeforeLong)
	}
}

func TestLoadFrom_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file was not created: %v", err)
	}
	if time.Duration(cfg.Pomodoro.FocusDuration) != 25*time.Minute {
		t.Errorf("FocusDuration = %v, want 25m", cfg.Pomodoro.FocusDuration)
	}
	if cfg.Session.DefaultName != "Study Session" {
		t.Errorf("DefaultName = %q, want Study Session", cfg.Session.DefaultName)
	}
	if cfg.Storage.DataDir == dataDirTag || cfg.Storage.DataDir == "" {
		t.Errorf("DataDir = %q, want expanded home path", cfg.Storage.DataDir)
	}
	if cfg.Theme.ColorFocus != DefaultThemeConfig().ColorFocus {
		t.Errorf("ColorFocus = %q, want default", cfg.Theme.ColorFocus)
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := DefaultConfig()
	cfg.Pomodoro.FocusDuration = Duration(50 * time.Minute)
	cfg.Pomodoro.LongBreak = Duration(30 * time.Minute)
	cfg.Stats.Timezone = "Europe/Madrid"
	cfg.Storage.DataDir = "/tmp/studyflow-data"
	cfg.Log.Level = "debug"

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if time.Duration(loaded.Pomodoro.FocusDuration) != 50*time.Minute {
		t.Errorf("FocusDuration = %v, want 50m", loaded.Pomodoro.FocusDuration)
	}
	if time.Duration(loaded.Pomodoro.LongBreak) != 30*time.Minute {
		t.Errorf("LongBreak = %v, want 30m", loaded.Pomodoro.LongBreak)
	}
	if loaded.Stats.Timezone != "Europe/Madrid" {
		t.Errorf("Timezone = %q, want Europe/Madrid", loaded.Stats.Timezone)
	}
	if loaded.Storage.DataDir != "/tmp/studyflow-data" {
		t.Errorf("DataDir = %q", loaded.Storage.DataDir)
	}
	if loaded.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", loaded.Log.Level)
	}
}

func TestLoadFrom_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	t.Setenv("STUDYFLOW_LOG_LEVEL", "trace")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Log.Level != "trace" {
		t.Errorf("Log.Level = %q, want trace", cfg.Log.Level)
	}
}

func TestDuration_Text(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1h30m")); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	if time.Duration(d) != 90*time.Minute {
		t.Errorf("Duration = %v, want 1h30m", d)
	}
	if err := d.UnmarshalText([]byte("soon")); err == nil {
		t.Error("UnmarshalText() should reject invalid durations")
	}
	text, _ := Duration(5 * time.Minute).MarshalText()
	if string(text) != "5m0s" {
		t.Errorf("MarshalText() = %q, want 5m0s", text)
	}
}

func TestConfig_Location(t *testing.T) {
	cfg := DefaultConfig()
	loc, err := cfg.Location()
	if err != nil || loc != time.Local {
		t.Errorf("Location() = %v, %v, want time.Local", loc, err)
	}

	cfg.Stats.Timezone = "UTC"
	loc, err = cfg.Location()
	if err != nil || loc.String() != "UTC" {
		t.Errorf("Location() = %v, %v, want UTC", loc, err)
	}

	cfg.Stats.Timezone = "Not/AZone"
	if _, err := cfg.Location(); err == nil {
		t.Error("Location() should reject unknown zones")
	}
}

func TestConfig_NewLogger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.Level = "debug"
	if !cfg.NewLogger("test").IsDebug() {
		t.Error("logger should be at debug level")
	}

	cfg.Log.Level = "bogus"
	if got := cfg.NewLogger("test").GetLevel(); got != hclog.Warn {
		t.Errorf("GetLevel() = %v, want warn", got)
	}
}
