package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Writer  WriterConfig  `mapstructure:"writer"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Log     LogConfig     `mapstructure:"log"`
	Trace   TraceConfig   `mapstructure:"trace"`
}

// StorageConfig 存储介质配置
type StorageConfig struct {
	Driver     string `mapstructure:"driver" validate:"oneof=memory sqlite postgres mysql redis"`
	DSN        string `mapstructure:"dsn"`
	Prefix     string `mapstructure:"prefix" validate:"required"`
	QuotaBytes int    `mapstructure:"quota_bytes" validate:"gte=0"`
	// CompatMode 关闭版本校验，整集合盲写（复现 lost update）
	CompatMode bool `mapstructure:"compat_mode"`
	MaxRetries int  `mapstructure:"max_retries" validate:"gte=0,lte=5"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type WriterConfig struct {
	QueueSize int `mapstructure:"queue_size" validate:"gt=0"`
}

// AuthConfig 默认不校验密码，与原有行为一致
type AuthConfig struct {
	VerifyPassword bool `mapstructure:"verify_password"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

type TraceConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load 读取 config.yaml（可选）与 TECHOH_ 前缀环境变量
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("TECHOH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return decode(v)
}

// Default 返回仅包含默认值的配置（测试与工具使用）
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.dsn", "techoh.db")
	v.SetDefault("storage.prefix", "techoh-")
	v.SetDefault("storage.quota_bytes", 5<<20)
	v.SetDefault("storage.compat_mode", false)
	v.SetDefault("storage.max_retries", 1)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("writer.queue_size", 1024)
	v.SetDefault("auth.verify_password", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("trace.enabled", false)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置项
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
