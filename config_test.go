package authcore

import (
	"testing"
	"time"
)

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.JWT.AccessTTLMinutes != 15 {
		t.Fatalf("AccessTTLMinutes = %d, want 15", cfg.JWT.AccessTTLMinutes)
	}
	if cfg.Refresh.TTLDays != 7 {
		t.Fatalf("TTLDays = %d, want 7", cfg.Refresh.TTLDays)
	}
	if cfg.Cache.Namespace != "authcore" {
		t.Fatalf("Namespace = %q, want authcore", cfg.Cache.Namespace)
	}
	if cfg.Cache.DefaultTTL != 15*time.Minute {
		t.Fatalf("DefaultTTL = %v, want 15m", cfg.Cache.DefaultTTL)
	}
	if cfg.AccessTTL() != 15*time.Minute {
		t.Fatalf("AccessTTL() = %v, want 15m", cfg.AccessTTL())
	}
	if cfg.RefreshTTL() != 7*24*time.Hour {
		t.Fatalf("RefreshTTL() = %v, want 168h", cfg.RefreshTTL())
	}
}

func TestValidateRejectsMissingSecret(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty secret accepted")
	}

	cfg.JWT.Secret = []byte("too short")
	if err := cfg.Validate(); err == nil {
		t.Fatal("short secret accepted")
	}

	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidateRejectsExcessiveLeeway(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")

	cfg.JWT.Leeway = 5 * time.Minute
	if err := cfg.Validate(); err == nil {
		t.Fatal("five minute leeway accepted")
	}
	cfg.JWT.Leeway = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative leeway accepted")
	}
	cfg.JWT.Leeway = 30 * time.Second
	if err := cfg.Validate(); err != nil {
		t.Fatalf("reasonable leeway rejected: %v", err)
	}
}

func TestNormalizeFillsAuditBuffer(t *testing.T) {
	cfg := Config{}
	cfg.Audit.Enabled = true
	cfg.normalize()
	if cfg.Audit.BufferSize != 256 {
		t.Fatalf("BufferSize = %d, want 256", cfg.Audit.BufferSize)
	}
}
