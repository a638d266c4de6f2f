package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"focusflow/pkg/keymaps"
)

// AppName is used for the config directory and the env prefix
const AppName = "focusflow"

// Config holds the application configuration
type Config struct {
	Database   DatabaseConfig    `mapstructure:"database"`
	Settings   SettingsConfig    `mapstructure:"settings"`
	Timer      TimerConfig       `mapstructure:"timer"`
	Ledger     LedgerConfig      `mapstructure:"ledger"`
	Log        LogConfig         `mapstructure:"log"`
	KeyMap     map[string]string `mapstructure:"keymap"`
	StylesFile string            `mapstructure:"styles_file"`

	// Path is the config file that was read
	Path string `mapstructure:"-"`
}

// DatabaseConfig selects the driver and the retry policy of the connector
type DatabaseConfig struct {
	Driver         string        `mapstructure:"driver"`
	DSN            string        `mapstructure:"dsn"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// SettingsConfig selects where user preferences live
type SettingsConfig struct {
	Backend string `mapstructure:"backend"`
	File    string `mapstructure:"file"`
}

// TimerConfig tunes the timer clock
type TimerConfig struct {
	TickInterval    time.Duration `mapstructure:"tick_interval"`
	TransitionDelay int           `mapstructure:"transition_delay"`
}

// LedgerConfig tunes the progress ledger
type LedgerConfig struct {
	StreakPolicy string `mapstructure:"streak_policy"`
}

// LogConfig controls the debug log
type LogConfig struct {
	Verbose bool   `mapstructure:"verbose"`
	File    string `mapstructure:"file"`
}

const (
	SettingsBackendDatabase = "database"
	SettingsBackendFile     = "file"
)

// Styles holds the application colors and styling information
type Styles struct {
	// UI element colors
	BorderColor string `json:"border_color"`
	AccentColor string `json:"accent_color"`

	// Text colors
	NormalTextColor   string `json:"normal_text_color"`
	SelectedTextColor string `json:"selected_text_color"`
	SelectedBgColor   string `json:"selected_bg_color"`
	ErrorColor        string `json:"error_color"`

	// Timer colors
	FocusColor string `json:"focus_color"`
	BreakColor string `json:"break_color"`

	// Priority colors
	HighColor   string `json:"high_color"`
	MediumColor string `json:"medium_color"`
	LowColor    string `json:"low_color"`
}

// DefaultStyles returns the built-in color scheme
func DefaultStyles() Styles {
	return Styles{
		BorderColor:       "240",
		AccentColor:       "205",
		NormalTextColor:   "86",
		SelectedTextColor: "229",
		SelectedBgColor:   "57",
		ErrorColor:        "9",
		FocusColor:        "203",
		BreakColor:        "42",
		HighColor:         "196",
		MediumColor:       "214",
		LowColor:          "244",
	}
}

// Dir returns ~/.config/focusflow
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", AppName), nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", filepath.Join(configDir, "focusflow.db"))
	v.SetDefault("database.max_attempts", 5)
	v.SetDefault("database.initial_backoff", "200ms")
	v.SetDefault("database.max_backoff", "5s")
	v.SetDefault("settings.backend", SettingsBackendDatabase)
	v.SetDefault("settings.file", filepath.Join(configDir, "settings.yaml"))
	v.SetDefault("timer.tick_interval", "1s")
	v.SetDefault("timer.transition_delay", 1)
	v.SetDefault("ledger.streak_policy", "per_task")
	v.SetDefault("log.verbose", false)
	v.SetDefault("log.file", "")
	v.SetDefault("keymap", keymaps.GetDefaultKeyMappings())
	v.SetDefault("styles_file", filepath.Join(configDir, "styles.json"))
}

// Load loads the application configuration from the specified path.
// A missing file is created with the defaults. Values from a .env file
// and FOCUSFLOW_* variables override the file.
func Load(configPath string) (Config, Styles, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, Styles{}, fmt.Errorf("load .env: %w", err)
	}

	configDir, err := Dir()
	if err != nil {
		return Config{}, Styles{}, err
	}
	if configPath == "" {
		configPath = filepath.Join(configDir, "config.json")
	}

	v := viper.New()
	setDefaults(v, configDir)
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, Styles{}, fmt.Errorf("read config %s: %w", configPath, err)
		}
		// Config file not found, create default config
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return Config{}, Styles{}, err
		}
		if err := v.WriteConfigAs(configPath); err != nil {
			return Config{}, Styles{}, fmt.Errorf("write default config: %w", err)
		}
	}

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, Styles{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Path = configPath
	cfg.Settings.Backend = strings.ToLower(strings.TrimSpace(cfg.Settings.Backend))
	if cfg.Settings.Backend != SettingsBackendDatabase && cfg.Settings.Backend != SettingsBackendFile {
		return cfg, Styles{}, fmt.Errorf("unknown settings backend %q", cfg.Settings.Backend)
	}

	// Now load the styles file
	styles, err := loadStyles(cfg.StylesFile)
	if err != nil {
		return cfg, styles, fmt.Errorf("error loading styles: %w", err)
	}

	return cfg, styles, nil
}

// loadStyles loads the application styles from the specified path.
// Colors missing from the file keep their default.
func loadStyles(stylesPath string) (Styles, error) {
	defaultStyles := DefaultStyles()

	stylesData, err := os.ReadFile(stylesPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return defaultStyles, err
		}
		// If the file doesn't exist, create it with default values
		if err := os.MkdirAll(filepath.Dir(stylesPath), 0755); err != nil {
			return defaultStyles, err
		}
		stylesData, err = json.MarshalIndent(defaultStyles, "", "  ")
		if err != nil {
			return defaultStyles, err
		}
		if err := os.WriteFile(stylesPath, stylesData, 0644); err != nil {
			return defaultStyles, err
		}
		return defaultStyles, nil
	}

	loadedStyles := defaultStyles
	if err := json.Unmarshal(stylesData, &loadedStyles); err != nil {
		return defaultStyles, err
	}
	return loadedStyles, nil
}
