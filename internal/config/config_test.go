package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func loadFrom(t *testing.T, dir string) Config {
	t.Helper()
	v, err := load(viper.New(), dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return fromViper(v)
}

func TestDefaults(t *testing.T) {
	cfg := loadFrom(t, t.TempDir())

	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("ShutdownTimeout = %v", cfg.ShutdownTimeout)
	}
	if cfg.CartStore != CartStoreMemory || cfg.CartTTL != 24*time.Hour {
		t.Fatalf("cart store = %q ttl = %v", cfg.CartStore, cfg.CartTTL)
	}
	if !slices.Equal(cfg.CORSOrigins, []string{"*"}) {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.BookingRatePerMin != 6 {
		t.Fatalf("BookingRatePerMin = %d", cfg.BookingRatePerMin)
	}
	if cfg.Production() {
		t.Fatal("default environment must not be production")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CART_STORE", "Redis")
	t.Setenv("CART_TTL_HOURS", "2")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("TELEGRAM_BOT_USERNAME", "@minishop_bot")
	t.Setenv("UPSTREAM_BASE_URL", "https://api.example/")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "-5")

	cfg := loadFrom(t, t.TempDir())

	if cfg.CartStore != CartStoreRedis || cfg.CartTTL != 2*time.Hour {
		t.Fatalf("cart store = %q ttl = %v", cfg.CartStore, cfg.CartTTL)
	}
	if !slices.Equal(cfg.CORSOrigins, []string{"https://a.example", "https://b.example"}) {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.TelegramBotUsername != "minishop_bot" {
		t.Fatalf("TelegramBotUsername = %q", cfg.TelegramBotUsername)
	}
	if cfg.UpstreamBaseURL != "https://api.example" {
		t.Fatalf("UpstreamBaseURL = %q", cfg.UpstreamBaseURL)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("ShutdownTimeout = %v", cfg.ShutdownTimeout)
	}
	if !cfg.Production() {
		t.Fatal("expected production")
	}
}

func TestDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CART_STORE=postgres\nBOOKING_RATE_PER_MINUTE=30\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg := loadFrom(t, dir)
	if cfg.CartStore != CartStorePostgres || cfg.BookingRatePerMin != 30 {
		t.Fatalf("cart store = %q rate = %d", cfg.CartStore, cfg.BookingRatePerMin)
	}
}

func TestUnknownCartStoreFallsBackToMemory(t *testing.T) {
	if got := cartStore("etcd"); got != CartStoreMemory {
		t.Fatalf("cartStore = %q", got)
	}
}
