package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"projectsmanager/pkg/config"
	"projectsmanager/pkg/util"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	DB     config.DBConfig     `yaml:"db"`
	Redis  config.RedisConfig  `yaml:"redis"`
	MQ     config.MQConfig     `yaml:"mq"`
	JWT    config.JWTConfig    `yaml:"jwt"`
	Server config.ServerConfig `yaml:"server"`

	Storage struct {
		// postgres | memory
		Driver string `yaml:"driver"`
	} `yaml:"storage"`

	Auth struct {
		// 0 关闭登录限流
		MaxLoginAttempts int           `yaml:"max_login_attempts"`
		LockoutWindow    time.Duration `yaml:"lockout_window"`
	} `yaml:"auth"`

	Outbox struct {
		// 在 API 进程内运行 dispatcher（单进程部署时使用）
		InProcess  bool          `yaml:"in_process"`
		Interval   time.Duration `yaml:"interval"`
		BatchSize  int           `yaml:"batch_size"`
		MaxRetries int           `yaml:"max_retries"`
	} `yaml:"outbox"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

var defaultCORSOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

// Load 使用统一配置中心加载配置，环境变量优先级最高
func Load() (*Config, error) {
	env := config.GetConfigEnv()
	configDir := config.GetEnv("CONFIG_DIR", "config")

	var cfg Config
	if err := config.Decode(env, configDir, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideServerFromEnv(&cfg.Server)
	overrideFromEnv(&cfg)

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func overrideFromEnv(cfg *Config) {
	if driver := os.Getenv("STORAGE_DRIVER"); driver != "" {
		cfg.Storage.Driver = driver
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if v := os.Getenv("OUTBOX_IN_PROCESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Outbox.InProcess = b
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageDriverPostgres
	}
	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = defaultCORSOrigins
	}
	if c.JWT.TTL <= 0 {
		c.JWT.TTL = util.DefaultSessionTTL
	}
	if c.Auth.LockoutWindow <= 0 {
		c.Auth.LockoutWindow = 15 * time.Minute
	}
	if c.Outbox.Interval <= 0 {
		c.Outbox.Interval = time.Second
	}
	if c.Outbox.BatchSize <= 0 {
		c.Outbox.BatchSize = 100
	}
	if c.Outbox.MaxRetries <= 0 {
		c.Outbox.MaxRetries = 5
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required (set JWT_SECRET)")
	}
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Auth.MaxLoginAttempts < 0 {
		return errors.New("auth.max_login_attempts must not be negative")
	}
	return nil
}
