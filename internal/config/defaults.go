package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel:                "info",
			MaxConcurrentDeliveries: 8,
			CallTimeoutSeconds:      10,
			BusBufferSize:           100,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		WhatsApp: WhatsAppConfig{
			VerifyToken: "edo_verify_token",
			WebhookPath: "/webhook",
		},
		Twilio: TwilioConfig{
			Enabled:     false,
			WebhookPath: "/webhook/twilio",
		},
		Telegram: TelegramConfig{
			Enabled: false,
		},
		Store: StoreConfig{
			DBPath: "~/.edobot/edobot.db",
		},
		Metrics: MetricsConfig{
			Enabled:  true,
			Endpoint: "/metrics",
		},
	}
}
