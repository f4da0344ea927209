package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Defaults()
	cfg.Server.Port = 9100
	cfg.WhatsApp.VerifyToken = "tok"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Server.Port != 9100 {
		t.Fatalf("port = %d", loaded.Server.Port)
	}
	if loaded.WhatsApp.VerifyToken != "tok" {
		t.Fatalf("verify token = %q", loaded.WhatsApp.VerifyToken)
	}
	// Unset fields keep their defaults.
	if loaded.General.MaxConcurrentDeliveries != Defaults().General.MaxConcurrentDeliveries {
		t.Fatalf("concurrency default lost: %d", loaded.General.MaxConcurrentDeliveries)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("EDOBOT_TEST_SECRET", "s3cret")
	defer os.Unsetenv("EDOBOT_TEST_SECRET")

	tests := []struct {
		in   string
		want string
	}{
		{"${EDOBOT_TEST_SECRET}", "s3cret"},
		{"${EDOBOT_TEST_UNSET:-fallback}", "fallback"},
		{"${EDOBOT_TEST_UNSET}", "${EDOBOT_TEST_UNSET}"},
		{"prefix-${EDOBOT_TEST_SECRET}-suffix", "prefix-s3cret-suffix"},
		{"no vars here", "no vars here"},
	}
	for _, tt := range tests {
		if got := ExpandEnvVars(tt.in); got != tt.want {
			t.Fatalf("ExpandEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoad_ExpandsEnvInFile(t *testing.T) {
	os.Setenv("EDOBOT_TEST_TOKEN", "live-token")
	defer os.Unsetenv("EDOBOT_TEST_TOKEN")

	path := filepath.Join(t.TempDir(), "config.json")
	raw := `{"whatsapp": {"accessToken": "${EDOBOT_TEST_TOKEN}", "verifyToken": "${EDOBOT_TEST_MISSING:-dev-token}"}}`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.WhatsApp.AccessToken != "live-token" {
		t.Fatalf("access token = %q", cfg.WhatsApp.AccessToken)
	}
	if cfg.WhatsApp.VerifyToken != "dev-token" {
		t.Fatalf("verify token = %q", cfg.WhatsApp.VerifyToken)
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	if err := Validate(cfg); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}

	bad := Defaults()
	bad.Server.Port = 99999
	if err := Validate(bad); err == nil {
		t.Fatal("out-of-range port accepted")
	}

	bad = Defaults()
	bad.WhatsApp.WebhookPath = "webhook"
	if err := Validate(bad); err == nil {
		t.Fatal("webhook path without leading / accepted")
	}

	bad = Defaults()
	bad.Telegram.Enabled = true
	if err := Validate(bad); err == nil {
		t.Fatal("telegram enabled without token accepted")
	}
}

func TestFlexStringList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	raw := `{"telegram": {"enabled": true, "token": "t", "allowFrom": ["123", 456]}}`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	got := []string(cfg.Telegram.AllowFrom)
	if len(got) != 2 || got[0] != "123" || got[1] != "456" {
		t.Fatalf("allowFrom = %v", got)
	}
}

func TestGetSetByPath(t *testing.T) {
	cfg := Defaults()

	if err := SetByPath(cfg, "server.port", "9200"); err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9200 {
		t.Fatalf("port = %d", cfg.Server.Port)
	}

	val, err := GetByPath(cfg, "server.port")
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := val.(float64); !ok || got != 9200 {
		t.Fatalf("GetByPath = %v (%T)", val, val)
	}

	if _, err := GetByPath(cfg, "no.such.path"); err == nil {
		t.Fatal("expected error for unknown path")
	}
}

func TestSanitize_MasksSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.WhatsApp.AppSecret = "super-secret-value"
	cfg.WhatsApp.AccessToken = "super-secret-token"
	cfg.Telegram.Token = "bot-token-value"

	masked := Sanitize(cfg)
	for _, v := range []string{masked.WhatsApp.AppSecret, masked.WhatsApp.AccessToken, masked.Telegram.Token} {
		if strings.Contains(v, "secret-value") || strings.Contains(v, "secret-token") || strings.Contains(v, "token-value") {
			t.Fatalf("secret leaked through sanitize: %q", v)
		}
	}
	// The original must stay untouched.
	if cfg.WhatsApp.AppSecret != "super-secret-value" {
		t.Fatal("sanitize mutated the source config")
	}
}
