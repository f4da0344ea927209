package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"edobot/internal/bus"
	"edobot/internal/channel"
	"edobot/internal/config"
	"edobot/internal/domain"
	"edobot/internal/router"
	"edobot/internal/store"
	"edobot/internal/webhook"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:     "edobot",
		Short:   "edobot: WhatsApp-to-marketplace chat relay",
		Long:    "edobot relays chat messages between messaging platforms and a seller/buyer marketplace, turning short commands into listings and orders.",
		Version: version,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.edobot/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(simulateCmd())
	root.AddCommand(seedCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(configCmd())
	root.AddCommand(installDaemonCmd())
	root.AddCommand(uninstallDaemonCmd())
	root.AddCommand(backupCmd())
	root.AddCommand(restoreCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func loadConfig() (*config.Config, error) {
	// Credentials usually live in a .env next to the process; missing is fine.
	godotenv.Load()

	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
		cfg = config.Defaults()
		cfg.Store.DBPath = config.ExpandPath(cfg.Store.DBPath)
	}
	return cfg, nil
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize config and data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir := config.DefaultConfigDir()
			cfgPath := config.DefaultConfigPath()
			if err := os.MkdirAll(cfgDir, 0o755); err != nil {
				return err
			}
			cfg := config.Defaults()
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server and message router",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger = newLogger(cfg.General.LogLevel)

	// Graceful shutdown on signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	marketStore, err := store.NewSQLiteStore(cfg.Store.DBPath, logger)
	if err != nil {
		return err
	}
	defer marketStore.Close()

	deliveryBus := bus.New(cfg.General.BusBufferSize, logger)
	defer deliveryBus.Close()

	whatsapp := channel.NewWhatsApp(cfg.WhatsApp, logger)
	messengers := channel.NewMux(whatsapp)

	if cfg.Telegram.Enabled {
		telegram := channel.NewTelegram(channel.TelegramConfig{
			Token:     cfg.Telegram.Token,
			AllowFrom: cfg.Telegram.AllowFrom,
			Logger:    logger,
		})
		messengers.Register(domain.TransportTelegram, telegram)
		go func() {
			if err := telegram.Run(ctx, deliveryBus); err != nil {
				logger.Error("telegram adapter stopped", "err", err)
			}
		}()
	}

	replies := router.LoadReplies(cfg.Replies.Path, logger)
	rt := router.New(router.Config{
		Store:       marketStore,
		Messengers:  messengers,
		Replies:     replies,
		Logger:      logger,
		CallTimeout: time.Duration(cfg.General.CallTimeoutSeconds) * time.Second,
		Concurrency: cfg.General.MaxConcurrentDeliveries,
	})
	go rt.Run(ctx, deliveryBus)

	server := webhook.NewServer(*cfg, deliveryBus, logger)
	return server.Start(ctx)
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo shop, users, and items for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			s, err := store.NewSQLiteStore(cfg.Store.DBPath, logger)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.Seed(ctx); err != nil {
				return err
			}
			fmt.Println("Seeded demo shop (channel 12345), seller, buyer, and 3 items.")
			return nil
		},
	}
}

func simulateCmd() *cobra.Command {
	var (
		url  string
		from string
		text string
		ch   string
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Send a mock webhook payload to a running edobot",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := fmt.Sprintf(`{
  "entry": [
    {
      "id": "test",
      "changes": [
        {
          "value": {
            "metadata": {"phone_number_id": %s},
            "messages": [
              {
                "from": %s,
                "id": "wamid.TEST-%d",
                "timestamp": %s,
                "text": {"body": %s},
                "type": "text"
              }
            ]
          }
        }
      ]
    }
  ]
}`, strconv.Quote(ch), strconv.Quote(from), time.Now().UnixNano(),
				strconv.Quote(strconv.FormatInt(time.Now().Unix(), 10)), strconv.Quote(text))

			resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(payload)))
			if err != nil {
				return fmt.Errorf("post payload: %w", err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			fmt.Printf("Status: %d %s\n", resp.StatusCode, string(body))
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "http://localhost:8000/webhook", "webhook URL to post to")
	cmd.Flags().StringVar(&from, "from", "+919812345678", "sender phone number")
	cmd.Flags().StringVar(&text, "text", "hi", "message text")
	cmd.Flags().StringVar(&ch, "channel", "12345", "receiving phone number id")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Get or set configuration values",
	}

	getCmd := &cobra.Command{
		Use:   "get [path]",
		Short: "Print a config value (or the whole sanitized config)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return err
			}
			if len(args) == 0 {
				data, err := json.MarshalIndent(config.Sanitize(cfg), "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}
			val, err := config.GetByPath(config.Sanitize(cfg), args[0])
			if err != nil {
				return err
			}
			fmt.Println(val)
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <path> <value>",
		Short: "Set a config value and save",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if err := config.SetByPath(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			fmt.Printf("Set %s = %s\n", args[0], args[1])
			return nil
		},
	}

	cmd.AddCommand(getCmd)
	cmd.AddCommand(setCmd)
	return cmd
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
