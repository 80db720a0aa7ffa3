package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rebeliceyang/lazycrm/internal/logging"
	"github.com/rebeliceyang/lazycrm/internal/models"
)

// AppName names the config directory and the env prefix
const AppName = "lazycrm"

// Config holds all application configuration
type Config struct {
	Tenant   TenantConfig   `mapstructure:"tenant"`
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	UI       UIConfig       `mapstructure:"ui"`
	History  HistoryConfig  `mapstructure:"history"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Demo     DemoConfig     `mapstructure:"demo"`
}

type TenantConfig struct {
	ID string `mapstructure:"id"`
}

type DatabaseConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Database   string `mapstructure:"database"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	SSLMode    string `mapstructure:"ssl_mode"`
	MaxConns   int32  `mapstructure:"max_conns"`
	UseKeyring bool   `mapstructure:"use_keyring"`
}

type EngineConfig struct {
	QueryTimeout           time.Duration `mapstructure:"query_timeout"`
	Concurrency            int           `mapstructure:"concurrency"`
	CandidateWarnThreshold int           `mapstructure:"candidate_warn_threshold"`
	MaxCandidates          int           `mapstructure:"max_candidates"`
	DefaultLimit           int           `mapstructure:"default_limit"`
	RecentWindow           time.Duration `mapstructure:"recent_window"`
}

type UIConfig struct {
	Theme           string `mapstructure:"theme"`
	MouseEnabled    bool   `mapstructure:"mouse_enabled"`
	PanelWidthRatio int    `mapstructure:"panel_width_ratio"`
}

type HistoryConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxEntries int    `mapstructure:"max_entries"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

type DemoConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// GetDefaults returns a Config with all default values
func GetDefaults() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "postgres",
			SSLMode:  "prefer",
			MaxConns: 10,
		},
		Engine: EngineConfig{
			QueryTimeout:           5 * time.Second,
			Concurrency:            8,
			CandidateWarnThreshold: 25,
			MaxCandidates:          200,
			DefaultLimit:           50,
			RecentWindow:           24 * time.Hour,
		},
		UI: UIConfig{
			Theme:           "default",
			MouseEnabled:    false,
			PanelWidthRatio: 30,
		},
		History: HistoryConfig{
			Enabled:    true,
			MaxEntries: 1000,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   false,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := GetDefaults()
	v.SetDefault("tenant.id", d.Tenant.ID)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.database", d.Database.Database)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.ssl_mode", d.Database.SSLMode)
	v.SetDefault("database.max_conns", d.Database.MaxConns)
	v.SetDefault("database.use_keyring", d.Database.UseKeyring)
	v.SetDefault("engine.query_timeout", d.Engine.QueryTimeout)
	v.SetDefault("engine.concurrency", d.Engine.Concurrency)
	v.SetDefault("engine.candidate_warn_threshold", d.Engine.CandidateWarnThreshold)
	v.SetDefault("engine.max_candidates", d.Engine.MaxCandidates)
	v.SetDefault("engine.default_limit", d.Engine.DefaultLimit)
	v.SetDefault("engine.recent_window", d.Engine.RecentWindow)
	v.SetDefault("ui.theme", d.UI.Theme)
	v.SetDefault("ui.mouse_enabled", d.UI.MouseEnabled)
	v.SetDefault("ui.panel_width_ratio", d.UI.PanelWidthRatio)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("history.max_entries", d.History.MaxEntries)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.max_size", d.Logging.MaxSize)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age", d.Logging.MaxAge)
	v.SetDefault("logging.compress", d.Logging.Compress)
	v.SetDefault("demo.enabled", d.Demo.Enabled)
}

// Load loads configuration. An explicit path must exist; otherwise the
// usual locations are searched and a missing file means defaults.
// LAZYCRM_* environment variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Add config paths in priority order
		// 1. User config directory
		if configDir, err := GetConfigPath(); err == nil {
			v.AddConfigPath(configDir)
		}

		// 2. Current directory
		v.AddConfigPath(".")

		// 3. Default config directory
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config (it's okay if file doesn't exist, we have defaults)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot run with
func (c *Config) Validate() error {
	if c.Engine.QueryTimeout <= 0 {
		return fmt.Errorf("engine.query_timeout must be positive")
	}
	if c.Engine.Concurrency <= 0 {
		return fmt.Errorf("engine.concurrency must be positive")
	}
	if c.Engine.MaxCandidates < c.Engine.CandidateWarnThreshold {
		return fmt.Errorf("engine.max_candidates (%d) is below engine.candidate_warn_threshold (%d)",
			c.Engine.MaxCandidates, c.Engine.CandidateWarnThreshold)
	}
	if c.UI.PanelWidthRatio < 10 || c.UI.PanelWidthRatio > 60 {
		return fmt.Errorf("ui.panel_width_ratio must be between 10 and 60")
	}
	return nil
}

// Connection returns the database settings as a connection config
func (c *Config) Connection() models.ConnectionConfig {
	return models.ConnectionConfig{
		Name:     AppName,
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		Database: c.Database.Database,
		User:     c.Database.User,
		Password: c.Database.Password,
		SSLMode:  c.Database.SSLMode,
		MaxConns: c.Database.MaxConns,
	}
}

// LoggerConfig maps the logging section; interactive runs default to a
// file under the config directory
func (c *Config) LoggerConfig(interactive bool) logging.Config {
	file := c.Logging.File
	if file == "" && interactive {
		if dir, err := GetConfigPath(); err == nil {
			file = filepath.Join(dir, AppName+".log")
		}
	}
	return logging.Config{
		Level:      c.Logging.Level,
		Format:     c.Logging.Format,
		File:       file,
		MaxSizeMB:  c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
		MaxAgeDays: c.Logging.MaxAge,
		Compress:   c.Logging.Compress,
	}
}

// HistoryPath returns the history database location
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := GetConfigPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return filepath.Join(dir, "history.db"), nil
}

// GetConfigPath returns the user config directory path
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}
