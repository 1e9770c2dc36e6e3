package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
stripe:
  secret_key: sk_test_yaml
  webhook_secret: whsec_yaml
download:
  dir: /srv/files
  token_ttl: 24h
server:
  base_url: https://clarte.shop
  allowed_origins:
    - https://clarte.shop
catalog:
  - id: ebook-clarte
    name: E-book Clarté
    price_minor: 1990
    file_name: ebook.pdf
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Stripe.SecretKey != "sk_test_yaml" {
		t.Fatalf("unexpected stripe secret key: %s", cfg.Stripe.SecretKey)
	}
	if cfg.Stripe.WebhookSecret != "whsec_yaml" {
		t.Fatalf("unexpected stripe webhook secret: %s", cfg.Stripe.WebhookSecret)
	}
	if cfg.Download.Dir != "/srv/files" {
		t.Fatalf("unexpected downloads dir: %s", cfg.Download.Dir)
	}
	if cfg.Download.TokenTTL.String() != "24h0m0s" {
		t.Fatalf("unexpected token ttl: %s", cfg.Download.TokenTTL)
	}
	if cfg.Server.BaseURL != "https://clarte.shop" {
		t.Fatalf("unexpected base url: %s", cfg.Server.BaseURL)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "https://clarte.shop" {
		t.Fatalf("unexpected allowed origins: %v", cfg.Server.AllowedOrigins)
	}
	if len(cfg.Catalog) != 1 || cfg.Catalog[0].PriceMinor != 1990 {
		t.Fatalf("unexpected catalog override: %+v", cfg.Catalog)
	}

	if cfg.Stripe.APIBase != "https://api.stripe.com" {
		t.Fatalf("stripe api base default should stay: %s", cfg.Stripe.APIBase)
	}
	if cfg.Download.Storage != "local" {
		t.Fatalf("download storage default should stay local: %s", cfg.Download.Storage)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("http addr default should stay :8080: %s", cfg.HTTP.Addr)
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config with missing file: %v", err)
	}

	if cfg.Download.TokenTTL.String() != "48h0m0s" {
		t.Fatalf("unexpected default token ttl: %s", cfg.Download.TokenTTL)
	}
	if len(cfg.Catalog) != 3 {
		t.Fatalf("unexpected default catalog length: %d", len(cfg.Catalog))
	}
	if cfg.Catalog[0].ID != "ebook-clarte" {
		t.Fatalf("unexpected first catalog entry: %s", cfg.Catalog[0].ID)
	}
	if cfg.Notify.APIBase != "https://api.resend.com" {
		t.Fatalf("unexpected notify api base: %s", cfg.Notify.APIBase)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_env")
	t.Setenv("DOWNLOAD_TOKEN_SECRET", "super-secret")
	t.Setenv("DOWNLOAD_TOKEN_TTL", "12h")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Stripe.SecretKey != "sk_test_env" {
		t.Fatalf("unexpected stripe secret key: %s", cfg.Stripe.SecretKey)
	}
	if cfg.Download.TokenSecret != "super-secret" {
		t.Fatalf("unexpected token secret: %s", cfg.Download.TokenSecret)
	}
	if cfg.Download.TokenTTL.String() != "12h0m0s" {
		t.Fatalf("unexpected token ttl: %s", cfg.Download.TokenTTL)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected allowed origins: %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoadRejectsBadDurationEnv(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DOWNLOAD_TOKEN_TTL", "not-a-duration")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for invalid DOWNLOAD_TOKEN_TTL")
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV",
		"HTTP_ADDR",
		"HTTP_READ_TIMEOUT",
		"HTTP_WRITE_TIMEOUT",
		"HTTP_IDLE_TIMEOUT",
		"LOG_LEVEL",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"S3_ENDPOINT",
		"S3_ACCESS_KEY",
		"S3_SECRET_KEY",
		"S3_BUCKET",
		"S3_USE_SSL",
		"STRIPE_SECRET_KEY",
		"STRIPE_WEBHOOK_SECRET",
		"STRIPE_API_BASE",
		"DOWNLOAD_STORAGE",
		"DOWNLOADS_DIR",
		"DOWNLOAD_TOKEN_SECRET",
		"DOWNLOAD_TOKEN_TTL",
		"RESEND_API_KEY",
		"NOTIFY_FROM",
		"NOTIFY_API_BASE",
		"BASE_URL",
		"ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}
