package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL      string
	JWTSecret        string
	JWTExpiration    time.Duration
	ServerPort       string
	InviteExpiration time.Duration
	AdminEmail       string
	SiteURL          string

	LogLevel string
	LogFile  string

	Redis RedisConfig
	Kafka KafkaConfig
	SMTP  SMTPConfig
	S3    S3Config

	InviteSweepSchedule string
	StaleInvitationAge  time.Duration
	LoginRateLimit      float64
	LoginRateBurst      int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	GigTTL   time.Duration
}

func (c RedisConfig) Enabled() bool { return c.Addr != "" }

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 && c.Topic != "" }

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (c SMTPConfig) Enabled() bool { return c.Host != "" }

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	PublicURL string
	AccessKey string
	SecretKey string
}

func (c S3Config) Enabled() bool { return c.Bucket != "" }

func setDefaults(v *viper.Viper) {
	v.SetDefault("DATABASE_URL", "postgresql://postgres@localhost:5432/b0ase")
	v.SetDefault("JWT_SECRET", "your-super-secret-key-change-in-production")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("INVITE_EXPIRATION", "168h")
	v.SetDefault("ADMIN_EMAIL", "admin@localhost")
	v.SetDefault("SITE_URL", "http://localhost:8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("GIG_CACHE_TTL", "60s")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "b0ase.events")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "B0ASE <noreply@localhost>")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_PUBLIC_URL", "")
	v.SetDefault("S3_ACCESS_KEY", "")
	v.SetDefault("S3_SECRET_KEY", "")
	v.SetDefault("INVITE_SWEEP_SCHEDULE", "@every 1h")
	v.SetDefault("STALE_INVITATION_AGE", "720h")
	v.SetDefault("LOGIN_RATE_LIMIT", 1.0)
	v.SetDefault("LOGIN_RATE_BURST", 5)
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:      v.GetString("DATABASE_URL"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTExpiration:    v.GetDuration("JWT_EXPIRATION"),
		ServerPort:       v.GetString("SERVER_PORT"),
		InviteExpiration: v.GetDuration("INVITE_EXPIRATION"),
		AdminEmail:       strings.ToLower(strings.TrimSpace(v.GetString("ADMIN_EMAIL"))),
		SiteURL:          strings.TrimRight(v.GetString("SITE_URL"), "/"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogFile:          v.GetString("LOG_FILE"),
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			GigTTL:   v.GetDuration("GIG_CACHE_TTL"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		S3: S3Config{
			Bucket:    v.GetString("S3_BUCKET"),
			Region:    v.GetString("S3_REGION"),
			Endpoint:  v.GetString("S3_ENDPOINT"),
			PublicURL: strings.TrimRight(v.GetString("S3_PUBLIC_URL"), "/"),
			AccessKey: v.GetString("S3_ACCESS_KEY"),
			SecretKey: v.GetString("S3_SECRET_KEY"),
		},
		InviteSweepSchedule: v.GetString("INVITE_SWEEP_SCHEDULE"),
		StaleInvitationAge:  v.GetDuration("STALE_INVITATION_AGE"),
		LoginRateLimit:      v.GetFloat64("LOGIN_RATE_LIMIT"),
		LoginRateBurst:      v.GetInt("LOGIN_RATE_BURST"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.JWTExpiration <= 0 {
		return errors.New("JWT_EXPIRATION must be positive")
	}
	if c.InviteExpiration <= 0 {
		return errors.New("INVITE_EXPIRATION must be positive")
	}
	port, err := strconv.Atoi(c.ServerPort)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT %q", c.ServerPort)
	}
	if c.StaleInvitationAge <= 0 {
		return errors.New("STALE_INVITATION_AGE must be positive")
	}
	if c.Redis.GigTTL <= 0 {
		return errors.New("GIG_CACHE_TTL must be positive")
	}
	if c.LoginRateLimit <= 0 || c.LoginRateBurst < 1 {
		return errors.New("LOGIN_RATE_LIMIT and LOGIN_RATE_BURST must be positive")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
