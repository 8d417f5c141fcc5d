package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl"`
}

type SMSConfig struct {
	SecretID      string `yaml:"secret_id"`
	SecretKey     string `yaml:"secret_key"`
	SDKAppID      string `yaml:"sdk_app_id"`
	SignName      string `yaml:"sign_name"`
	TemplateID    string `yaml:"template_id"`
	Region        string `yaml:"region"`
	CodeTTLMin    int    `yaml:"code_ttl_minutes"`
	Sandbox       bool   `yaml:"sandbox"` // return plaintext code instead of dispatching
	SendPerWindow int    `yaml:"send_per_window"`
	WindowMin     int    `yaml:"window_minutes"`
}

type ActivationConfig struct {
	SessionTTLMin int `yaml:"session_ttl_minutes"`
}

type VODConfig struct {
	AppID                 int64  `yaml:"app_id"`
	PlayKey               string `yaml:"play_key"`
	PSignExpireSeconds    int64  `yaml:"psign_expire_seconds"`
	AudioVideoType        string `yaml:"audio_video_type"` // Original|RawAdaptive|Transcode
	RawAdaptiveDefinition string `yaml:"raw_adaptive_definition"`
	TranscodeDefinition   string `yaml:"transcode_definition"`
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Auth       AuthConfig       `yaml:"auth"`
	SMS        SMSConfig        `yaml:"sms"`
	Activation ActivationConfig `yaml:"activation"`
	VOD        VODConfig        `yaml:"vod"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file, applies defaults, lets a few secrets come
// from the environment, and validates the minimum required surface.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// env overrides for secrets
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("VOD_PLAY_KEY"); v != "" {
		cfg.VOD.PlayKey = v
	}

	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Auth.AccessTokenTTL <= 0 {
		cfg.Auth.AccessTokenTTL = 7 * 24 * time.Hour
	}
	if cfg.SMS.CodeTTLMin <= 0 {
		cfg.SMS.CodeTTLMin = 10
	}
	if cfg.SMS.SendPerWindow <= 0 {
		cfg.SMS.SendPerWindow = 3
	}
	if cfg.SMS.WindowMin <= 0 {
		cfg.SMS.WindowMin = 10
	}
	if cfg.SMS.Region == "" {
		cfg.SMS.Region = "ap-guangzhou"
	}
	if cfg.Activation.SessionTTLMin <= 0 {
		cfg.Activation.SessionTTLMin = 30
	}
	if cfg.VOD.PSignExpireSeconds <= 0 {
		cfg.VOD.PSignExpireSeconds = 3600
	}
	if cfg.VOD.AudioVideoType == "" {
		cfg.VOD.AudioVideoType = "Original"
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// CodeTTL converts the configured SMS code lifetime to a duration.
func (c SMSConfig) CodeTTL() time.Duration { return time.Duration(c.CodeTTLMin) * time.Minute }

// SendWindow is the rate-limit window for outbound sends.
func (c SMSConfig) SendWindow() time.Duration { return time.Duration(c.WindowMin) * time.Minute }

// SessionTTL converts the configured activation session lifetime.
func (c ActivationConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMin) * time.Minute
}
