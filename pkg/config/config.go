package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var GlobalConfig *Config

// Config global configuration
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Queue        QueueConfig        `yaml:"queue"`
	Lock         LockConfig         `yaml:"lock"`
	Intervals    IntervalsConfig    `yaml:"intervals"`
	Logger       LoggerConfig       `yaml:"logger"`
	Notification NotificationConfig `yaml:"notification"`
	Jobs         JobsConfig         `yaml:"jobs"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Port     int    `yaml:"port"`
	Mode     string `yaml:"mode"`     // debug, release
	APIKey   string `yaml:"api_key"`  // gateway key (optional, if empty, key check is disabled)
	Timezone string `yaml:"timezone"` // IANA name used for "today" and "now"
}

// DatabaseConfig database configuration
type DatabaseConfig struct {
	Driver      string      `yaml:"driver"` // mysql, sqlite
	MySQL       MySQLConfig `yaml:"mysql"`
	SQLitePath  string      `yaml:"sqlite_path"`
	AutoMigrate bool        `yaml:"auto_migrate"`
}

// MySQLConfig MySQL configuration
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// RedisConfig Redis configuration
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// QueueConfig queue configuration
type QueueConfig struct {
	Enabled        bool `yaml:"enabled"`          // run the asynq server inside the application
	Concurrency    int  `yaml:"concurrency"`      // queue processing concurrency
	MaxRetry       int  `yaml:"max_retry"`        // maximum retry count
	BaseRetryDelay int  `yaml:"base_retry_delay"` // first retry delay (seconds), doubled on every attempt
	TaskTimeout    int  `yaml:"task_timeout"`     // task timeout (seconds)
}

// LockConfig owner lock configuration
type LockConfig struct {
	TTL            time.Duration `yaml:"ttl"`
	AcquireTimeout time.Duration `yaml:"acquire_timeout"`
}

// IntervalsConfig interval rules
type IntervalsConfig struct {
	OvernightPolicy string `yaml:"overnight_policy"` // reject, wrap
	HistoryPageSize int    `yaml:"history_page_size"`
}

// LoggerConfig logger configuration
type LoggerConfig struct {
	Level  string           `yaml:"level"`  // debug, info, warn, error
	Output string           `yaml:"output"` // console, file, both
	File   LoggerFileConfig `yaml:"file"`
}

// LoggerFileConfig logger file configuration
type LoggerFileConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// NotificationConfig outgoing notification channels
type NotificationConfig struct {
	SMTP             SMTPConfig `yaml:"smtp"`
	FeishuWebhookURL string     `yaml:"feishu_webhook_url"`
}

// SMTPConfig SMTP configuration for feedback emails
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// JobsConfig background job configuration
type JobsConfig struct {
	FeedbackCleanupDays int `yaml:"feedback_cleanup_days"`
	ReconcileDays       int `yaml:"reconcile_days"`
	ReconcileInterval   int `yaml:"reconcile_interval"` // seconds
}

// Init initializes configuration
func Init() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := Load(configPath)
	if err != nil {
		return err
	}

	GlobalConfig = cfg
	return nil
}

// Load reads a YAML file and applies defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML bytes and applies defaults
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Server.Timezone == "" {
		cfg.Server.Timezone = "UTC"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "mysql"
	}
	if cfg.Database.MySQL.Port <= 0 {
		cfg.Database.MySQL.Port = 3306
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/timetrack.db"
	}

	if cfg.Queue.Concurrency <= 0 {
		cfg.Queue.Concurrency = 5
	}
	if cfg.Queue.MaxRetry <= 0 {
		cfg.Queue.MaxRetry = 3
	}
	if cfg.Queue.BaseRetryDelay <= 0 {
		cfg.Queue.BaseRetryDelay = 60
	}
	if cfg.Queue.TaskTimeout <= 0 {
		cfg.Queue.TaskTimeout = 60
	}

	if cfg.Lock.TTL <= 0 {
		cfg.Lock.TTL = 30 * time.Second
	}
	if cfg.Lock.AcquireTimeout <= 0 {
		cfg.Lock.AcquireTimeout = 5 * time.Second
	}

	switch cfg.Intervals.OvernightPolicy {
	case "reject", "wrap":
	default:
		cfg.Intervals.OvernightPolicy = "reject"
	}
	if cfg.Intervals.HistoryPageSize <= 0 {
		cfg.Intervals.HistoryPageSize = 10
	}

	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Logger.Output == "" {
		cfg.Logger.Output = "console"
	}
	if cfg.Logger.File.Path == "" {
		cfg.Logger.File.Path = "logs/timetrack.log"
	}
	if cfg.Logger.File.MaxSizeMB <= 0 {
		cfg.Logger.File.MaxSizeMB = 10
	}
	if cfg.Logger.File.MaxBackups <= 0 {
		cfg.Logger.File.MaxBackups = 3
	}
	if cfg.Logger.File.MaxAgeDays <= 0 {
		cfg.Logger.File.MaxAgeDays = 28
	}

	if cfg.Notification.SMTP.Port <= 0 {
		cfg.Notification.SMTP.Port = 587
	}

	if cfg.Jobs.FeedbackCleanupDays <= 0 {
		cfg.Jobs.FeedbackCleanupDays = 30
	}
	if cfg.Jobs.ReconcileDays <= 0 {
		cfg.Jobs.ReconcileDays = 7
	}
	if cfg.Jobs.ReconcileInterval <= 0 {
		cfg.Jobs.ReconcileInterval = 3600
	}
}
