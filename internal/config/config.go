// Package config provides configuration management for studyflow.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/viper"
	"github.com/xvierd/studyflow/internal/domain"
)

const (
	appDir     = ".studyflow"
	envPrefix  = "STUDYFLOW"
	dataDirTag = "~/" + appDir
)

// Config holds all configuration for the studyflow application.
type Config struct {
	Pomodoro      PomodoroConfig     `mapstructure:"pomodoro"`
	Session       SessionConfig      `mapstructure:"session"`
	Stats         StatsConfig        `mapstructure:"stats"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Log           LogConfig          `mapstructure:"log"`
	Theme         ThemeConfig        `mapstructure:"theme"`
}

// PomodoroConfig holds the phase durations.
type PomodoroConfig struct {
	FocusDuration      Duration `mapstructure:"focus_duration"`
	ShortBreak         Duration `mapstructure:"short_break"`
	LongBreak          Duration `mapstructure:"long_break"`
	SessionsBeforeLong int      `mapstructure:"sessions_before_long"`
	AutoStartBreak     bool     `mapstructure:"auto_start_break"`
}

// SessionConfig holds defaults offered when starting a session.
type SessionConfig struct {
	DefaultName        string  `mapstructure:"default_name"`
	DefaultTargetHours float64 `mapstructure:"default_target_hours"`
}

// StatsConfig controls how sessions are bucketed into calendar days.
type StatsConfig struct {
	// Timezone is an IANA name; empty means the system zone.
	Timezone string `mapstructure:"timezone"`
}

// NotificationConfig holds notification settings.
type NotificationConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Sound   bool `mapstructure:"sound"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ThemeConfig holds theme colors for the timer and dashboards.
type ThemeConfig struct {
	ColorFocus         string `mapstructure:"color_focus"`
	ColorBreak         string `mapstructure:"color_break"`
	ColorPaused        string `mapstructure:"color_paused"`
	ColorTitle         string `mapstructure:"color_title"`
	ColorHelp          string `mapstructure:"color_help"`
	FocusGradientStart string `mapstructure:"focus_gradient_start"`
	FocusGradientEnd   string `mapstructure:"focus_gradient_end"`
	BreakGradientStart string `mapstructure:"break_gradient_start"`
	BreakGradientEnd   string `mapstructure:"break_gradient_end"`
}

// DefaultThemeConfig returns the default theme configuration.
func DefaultThemeConfig() ThemeConfig {
	return ThemeConfig{
		ColorFocus:         "#e74c3c",
		ColorBreak:         "#27ae60",
		ColorPaused:        "#6B7280",
		ColorTitle:         "#6B7280",
		ColorHelp:          "#95A5A6",
		FocusGradientStart: "#e74c3c",
		FocusGradientEnd:   "#F39C12",
		BreakGradientStart: "#4ECDC4",
		BreakGradientEnd:   "#2ECC71",
	}
}

// Duration is a wrapper around time.Duration for TOML parsing.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// String returns the string representation of the duration.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Pomodoro: PomodoroConfig{
			FocusDuration:      Duration(25 * time.Minute),
			ShortBreak:         Duration(5 * time.Minute),
			LongBreak:          Duration(15 * time.Minute),
			SessionsBeforeLong: 4,
			AutoStartBreak:     true,
		},
		Session: SessionConfig{
			DefaultName:        domain.DefaultSessionName,
			DefaultTargetHours: 2,
		},
		Notifications: NotificationConfig{
			Enabled: true,
			Sound:   true,
		},
		Storage: StorageConfig{
			DataDir: dataDirTag,
		},
		Log: LogConfig{
			Level: "warn",
		},
		Theme: DefaultThemeConfig(),
	}
}

// Load loads the configuration from ~/.studyflow/config.toml, creating it
// with defaults on first run.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from configPath. Environment variables
// prefixed with STUDYFLOW_ override file values (STUDYFLOW_LOG_LEVEL etc).
func LoadFrom(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := SaveTo(DefaultConfig(), configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	v := newViper(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Expand ~ in data directory
	if cfg.Storage.DataDir == dataDirTag || cfg.Storage.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.Storage.DataDir = filepath.Join(homeDir, appDir)
	}

	return &cfg, nil
}

// Save saves the configuration to the default config file.
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return SaveTo(cfg, configPath)
}

// SaveTo writes cfg as TOML to configPath.
func SaveTo(cfg *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	v.Set("pomodoro.focus_duration", cfg.Pomodoro.FocusDuration.String())
	v.Set("pomodoro.short_break", cfg.Pomodoro.ShortBreak.String())
	v.Set("pomodoro.long_break", cfg.Pomodoro.LongBreak.String())
	v.Set("pomodoro.sessions_before_long", cfg.Pomodoro.SessionsBeforeLong)
	v.Set("pomodoro.auto_start_break", cfg.Pomodoro.AutoStartBreak)
	v.Set("session.default_name", cfg.Session.DefaultName)
	v.Set("session.default_target_hours", cfg.Session.DefaultTargetHours)
	v.Set("stats.timezone", cfg.Stats.Timezone)
	v.Set("notifications.enabled", cfg.Notifications.Enabled)
	v.Set("notifications.sound", cfg.Notifications.Sound)
	v.Set("storage.data_dir", cfg.Storage.DataDir)
	v.Set("log.level", cfg.Log.Level)
	v.Set("theme.color_focus", cfg.Theme.ColorFocus)
	v.Set("theme.color_break", cfg.Theme.ColorBreak)
	v.Set("theme.color_paused", cfg.Theme.ColorPaused)
	v.Set("theme.color_title", cfg.Theme.ColorTitle)
	v.Set("theme.color_help", cfg.Theme.ColorHelp)
	v.Set("theme.focus_gradient_start", cfg.Theme.FocusGradientStart)
	v.Set("theme.focus_gradient_end", cfg.Theme.FocusGradientEnd)
	v.Set("theme.break_gradient_start", cfg.Theme.BreakGradientStart)
	v.Set("theme.break_gradient_end", cfg.Theme.BreakGradientEnd)

	return v.WriteConfigAs(configPath)
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, appDir, "config.toml"), nil
}

// GetDBPath returns the path to the database file.
func GetDBPath(cfg *Config) string {
	return filepath.Join(cfg.Storage.DataDir, "studyflow.db")
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults sets default values for viper.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("pomodoro.focus_duration", d.Pomodoro.FocusDuration.String())
	v.SetDefault("pomodoro.short_break", d.Pomodoro.ShortBreak.String())
	v.SetDefault("pomodoro.long_break", d.Pomodoro.LongBreak.String())
	v.SetDefault("pomodoro.sessions_before_long", d.Pomodoro.SessionsBeforeLong)
	v.SetDefault("pomodoro.auto_start_break", d.Pomodoro.AutoStartBreak)
	v.SetDefault("session.default_name", d.Session.DefaultName)
	v.SetDefault("session.default_target_hours", d.Session.DefaultTargetHours)
	v.SetDefault("stats.timezone", "")
	v.SetDefault("notifications.enabled", d.Notifications.Enabled)
	v.SetDefault("notifications.sound", d.Notifications.Sound)
	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("log.level", d.Log.Level)

	// Theme defaults
	v.SetDefault("theme.color_focus", d.Theme.ColorFocus)
	v.SetDefault("theme.color_break", d.Theme.ColorBreak)
	v.SetDefault("theme.color_paused", d.Theme.ColorPaused)
	v.SetDefault("theme.color_title", d.Theme.ColorTitle)
	v.SetDefault("theme.color_help", d.Theme.ColorHelp)
	v.SetDefault("theme.focus_gradient_start", d.Theme.FocusGradientStart)
	v.SetDefault("theme.focus_gradient_end", d.Theme.FocusGradientEnd)
	v.SetDefault("theme.break_gradient_start", d.Theme.BreakGradientStart)
	v.SetDefault("theme.break_gradient_end", d.Theme.BreakGradientEnd)
}

// ToPomodoroDomainConfig converts the config to the domain PomodoroConfig.
func (c *Config) ToPomodoroDomainConfig() domain.PomodoroConfig {
	return domain.PomodoroConfig{
		FocusDuration:      time.Duration(c.Pomodoro.FocusDuration),
		ShortBreakDuration: time.Duration(c.Pomodoro.ShortBreak),
		LongBreakDuration:  time.Duration(c.Pomodoro.LongBreak),
		SessionsBeforeLong: c.Pomodoro.SessionsBeforeLong,
	}
}

// Location resolves the stats timezone, falling back to the system zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Stats.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Stats.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid stats timezone %q: %w", c.Stats.Timezone, err)
	}
	return loc, nil
}

// NewLogger builds the application logger at the configured level.
func (c *Config) NewLogger(name string) hclog.Logger {
	level := hclog.LevelFromString(c.Log.Level)
	if level == hclog.NoLevel {
		level = hclog.Warn
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  level,
		Output: os.Stderr,
	})
}
