package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env      string          `yaml:"env"`
	HTTP     HTTPConfig      `yaml:"http"`
	Log      LogConfig       `yaml:"log"`
	Redis    RedisConfig     `yaml:"redis"`
	S3       S3Config        `yaml:"s3"`
	Stripe   StripeConfig    `yaml:"stripe"`
	Download DownloadConfig  `yaml:"download"`
	Notify   NotifyConfig    `yaml:"notify"`
	Server   ServerConfig    `yaml:"server"`
	Catalog  []ProductConfig `yaml:"catalog"`
}

type HTTPConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type StripeConfig struct {
	SecretKey     string `yaml:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret"`
	APIBase       string `yaml:"api_base"`
}

// DownloadConfig controls where product files live and how download
// tokens are minted. Storage is either "local" (Dir) or "s3" (S3 block).
type DownloadConfig struct {
	Storage     string        `yaml:"storage"`
	Dir         string        `yaml:"dir"`
	TokenSecret string        `yaml:"token_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
}

type NotifyConfig struct {
	APIKey  string `yaml:"api_key"`
	From    string `yaml:"from"`
	APIBase string `yaml:"api_base"`
}

type ServerConfig struct {
	BaseURL        string   `yaml:"base_url"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type ProductConfig struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	PriceMinor int64  `yaml:"price_minor"`
	FileName   string `yaml:"file_name"`
}

func Default() Config {
	return Config{
		Env: "dev",
		HTTP: HTTPConfig{
			Addr:         ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  30 * time.Second,
		},
		Log: LogConfig{Level: "debug"},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			DB:   0,
		},
		S3: S3Config{
			Endpoint:  "localhost:9000",
			AccessKey: "minio",
			SecretKey: "minio123",
			Bucket:    "planner-downloads",
			UseSSL:    false,
		},
		Stripe: StripeConfig{
			APIBase: "https://api.stripe.com",
		},
		Download: DownloadConfig{
			Storage:     "local",
			Dir:         "downloads",
			TokenSecret: "change-me",
			TokenTTL:    48 * time.Hour,
		},
		Notify: NotifyConfig{
			From:    "Clarté <noreply@clarte.shop>",
			APIBase: "https://api.resend.com",
		},
		Server: ServerConfig{
			BaseURL:        "http://localhost:8080",
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		Catalog: []ProductConfig{
			{ID: "ebook-clarte", Name: "E-book Clarté", PriceMinor: 1490, FileName: "ebook-clarte.pdf"},
			{ID: "planner-sport", Name: "Planner Sport", PriceMinor: 990, FileName: "planner-sport.pdf"},
			{ID: "planner-nutrition", Name: "Planner Nutrition", PriceMinor: 990, FileName: "planner-nutrition.pdf"},
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadFromYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("unmarshal config yaml: %w", err)
	}

	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}

	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if err := overrideDuration("HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return err
	}
	if err := overrideDuration("HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return err
	}
	if err := overrideDuration("HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout); err != nil {
		return err
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if err := overrideInt("REDIS_DB", &cfg.Redis.DB); err != nil {
		return err
	}

	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		cfg.S3.Endpoint = v
	}
	if v := os.Getenv("S3_ACCESS_KEY"); v != "" {
		cfg.S3.AccessKey = v
	}
	if v := os.Getenv("S3_SECRET_KEY"); v != "" {
		cfg.S3.SecretKey = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.S3.Bucket = v
	}
	if err := overrideBool("S3_USE_SSL", &cfg.S3.UseSSL); err != nil {
		return err
	}

	if v := os.Getenv("STRIPE_SECRET_KEY"); v != "" {
		cfg.Stripe.SecretKey = v
	}
	if v := os.Getenv("STRIPE_WEBHOOK_SECRET"); v != "" {
		cfg.Stripe.WebhookSecret = v
	}
	if v := os.Getenv("STRIPE_API_BASE"); v != "" {
		cfg.Stripe.APIBase = v
	}

	if v := os.Getenv("DOWNLOAD_STORAGE"); v != "" {
		cfg.Download.Storage = v
	}
	if v := os.Getenv("DOWNLOADS_DIR"); v != "" {
		cfg.Download.Dir = v
	}
	if v := os.Getenv("DOWNLOAD_TOKEN_SECRET"); v != "" {
		cfg.Download.TokenSecret = v
	}
	if err := overrideDuration("DOWNLOAD_TOKEN_TTL", &cfg.Download.TokenTTL); err != nil {
		return err
	}

	if v := os.Getenv("RESEND_API_KEY"); v != "" {
		cfg.Notify.APIKey = v
	}
	if v := os.Getenv("NOTIFY_FROM"); v != "" {
		cfg.Notify.From = v
	}
	if v := os.Getenv("NOTIFY_API_BASE"); v != "" {
		cfg.Notify.APIBase = v
	}

	if v := os.Getenv("BASE_URL"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		parts := strings.Split(v, ",")
		origins := make([]string, 0, len(parts))
		for _, origin := range parts {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		cfg.Server.AllowedOrigins = origins
	}

	return nil
}

func overrideDuration(key string, target *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s duration: %w", key, err)
	}
	*target = d
	return nil
}

func overrideInt(key string, target *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parse %s int: %w", key, err)
	}
	*target = n
	return nil
}

func overrideBool(key string, target *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("parse %s bool: %w", key, err)
	}
	*target = b
	return nil
}
