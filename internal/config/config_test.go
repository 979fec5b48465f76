package config

import (
	"testing"
	"time"
)

func TestLoadRateLimitConfigDefaults(t *testing.T) {
	cfg := LoadRateLimitConfig()
	if !cfg.Enabled {
		t.Error("rate limit should default to enabled")
	}
	if cfg.Capacity < 1 {
		t.Errorf("capacity = %d, want >= 1", cfg.Capacity)
	}
	if cfg.RefillInterval <= 0 {
		t.Errorf("refill interval = %s, want > 0", cfg.RefillInterval)
	}
	if cfg.TTL < 5*cfg.RefillInterval {
		t.Errorf("ttl = %s, want at least 5x refill interval", cfg.TTL)
	}
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-3")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")

	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 {
		t.Errorf("capacity = %d, want clamped to 1", cfg.Capacity)
	}
	if cfg.RefillTokens != 1 {
		t.Errorf("refill tokens = %d, want clamped to 1", cfg.RefillTokens)
	}
	if want := 10 * time.Second; cfg.TTL != want {
		t.Errorf("ttl = %s, want %s", cfg.TTL, want)
	}
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_TTL", "45s")

	cfg := LoadCacheConfig()
	if !cfg.Methods["GET"] || !cfg.Methods["HEAD"] {
		t.Errorf("methods = %v, want GET and HEAD", cfg.Methods)
	}
	if cfg.Methods["POST"] {
		t.Error("POST should not be cached")
	}
	if cfg.TTL != 45*time.Second {
		t.Errorf("ttl = %s, want 45s", cfg.TTL)
	}
}

func TestTaxRateDefault(t *testing.T) {
	t.Setenv("TAX_RATE", "")
	if got := taxRate(); got != DefaultTaxRate {
		t.Errorf("taxRate() = %v, want %v", got, DefaultTaxRate)
	}
}

func TestTaxRateOverride(t *testing.T) {
	t.Setenv("TAX_RATE", "0.08")
	if got := taxRate(); got != 0.08 {
		t.Errorf("taxRate() = %v, want 0.08", got)
	}
}
