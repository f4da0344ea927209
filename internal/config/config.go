package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for edobot.
type Config struct {
	General  GeneralConfig  `json:"general"`
	Server   ServerConfig   `json:"server"`
	WhatsApp WhatsAppConfig `json:"whatsapp"`
	Twilio   TwilioConfig   `json:"twilio"`
	Telegram TelegramConfig `json:"telegram"`
	Store    StoreConfig    `json:"store"`
	Replies  RepliesConfig  `json:"replies"`
	Metrics  MetricsConfig  `json:"metrics"`
}

type GeneralConfig struct {
	LogLevel                string `json:"logLevel"`
	MaxConcurrentDeliveries int    `json:"maxConcurrentDeliveries"` // parallel webhook deliveries in flight
	CallTimeoutSeconds      int    `json:"callTimeoutSeconds"`      // per store/messenger call
	BusBufferSize           int    `json:"busBufferSize"`
}

type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// WhatsAppConfig holds the Cloud API credentials and webhook settings.
// An empty AppSecret means inbound signatures are not checked (permissive
// mode for local development).
type WhatsAppConfig struct {
	AppSecret     string `json:"appSecret,omitempty"`
	AccessToken   string `json:"accessToken,omitempty"`
	VerifyToken   string `json:"verifyToken,omitempty"`
	PhoneNumberID string `json:"phoneNumberId,omitempty"`
	WebhookPath   string `json:"webhookPath,omitempty"`
	APIBase       string `json:"apiBase,omitempty"` // override for tests and proxies
}

// TwilioConfig enables the adapter endpoint that translates Twilio's
// form-encoded webhook into the normalized delivery shape.
type TwilioConfig struct {
	Enabled     bool   `json:"enabled"`
	WebhookPath string `json:"webhookPath,omitempty"`
}

type TelegramConfig struct {
	Enabled   bool           `json:"enabled"`
	Token     string         `json:"token,omitempty"`
	AllowFrom FlexStringList `json:"allowFrom,omitempty"` // chat IDs; empty = allow all
}

type StoreConfig struct {
	DBPath string `json:"dbPath"`
}

// RepliesConfig points at an optional YAML pack overriding the built-in
// reply texts.
type RepliesConfig struct {
	Path string `json:"path,omitempty"`
}

type MetricsConfig struct {
	Enabled  bool   `json:"enabled"`
	Endpoint string `json:"endpoint,omitempty"`
}

// FlexStringList is a []string that can unmarshal from JSON arrays containing
// both strings and numbers (e.g. ["123", 456] both become "123", "456").
type FlexStringList []string

func (f *FlexStringList) UnmarshalJSON(data []byte) error {
	// Try []string first
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}

	// Fall back to mixed array
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		switch t := v.(type) {
		case string:
			out = append(out, t)
		case float64:
			out = append(out, strings.TrimSuffix(fmt.Sprintf("%.0f", t), ".0"))
		default:
			out = append(out, fmt.Sprintf("%v", t))
		}
	}
	*f = out
	return nil
}

func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".edobot"
	}
	return filepath.Join(home, ".edobot")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.Store.DBPath = ExpandPath(cfg.Store.DBPath)
	cfg.Replies.Path = ExpandPath(cfg.Replies.Path)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset
// or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 0 and 65535")
	}
	if cfg.General.MaxConcurrentDeliveries < 1 || cfg.General.MaxConcurrentDeliveries > 1000 {
		errs = append(errs, "general.maxConcurrentDeliveries must be between 1 and 1000")
	}
	if cfg.General.CallTimeoutSeconds < 1 {
		errs = append(errs, "general.callTimeoutSeconds must be >= 1")
	}
	if cfg.General.BusBufferSize < 1 {
		errs = append(errs, "general.busBufferSize must be >= 1")
	}
	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}

	if cfg.Store.DBPath == "" {
		errs = append(errs, "store.dbPath is required")
	}
	if cfg.WhatsApp.WebhookPath != "" && !strings.HasPrefix(cfg.WhatsApp.WebhookPath, "/") {
		errs = append(errs, "whatsapp.webhookPath must start with /")
	}
	if cfg.Twilio.Enabled && cfg.Twilio.WebhookPath != "" && !strings.HasPrefix(cfg.Twilio.WebhookPath, "/") {
		errs = append(errs, "twilio.webhookPath must start with /")
	}
	if cfg.Telegram.Enabled && cfg.Telegram.Token == "" {
		errs = append(errs, "telegram.token is required when telegram.enabled is true")
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Endpoint != "" && !strings.HasPrefix(cfg.Metrics.Endpoint, "/") {
		errs = append(errs, "metrics.endpoint must start with /")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
