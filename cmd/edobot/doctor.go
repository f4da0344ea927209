package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"edobot/internal/config"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and environment health",
		RunE:  runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Println("edobot doctor")
	fmt.Println()

	failures := 0

	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		printFail("config", fmt.Sprintf("cannot load %s: %v", cfgPath, err))
		fmt.Println("\nRun 'edobot init' to create a default config.")
		return fmt.Errorf("doctor found fatal problems")
	}
	printPass("config", cfgPath)

	if err := config.Validate(cfg); err != nil {
		printFail("config values", err.Error())
		failures++
	} else {
		printPass("config values", "valid")
	}

	if err := checkDatabase(cfg.Store.DBPath); err != nil {
		printFail("database", err.Error())
		failures++
	} else {
		printPass("database", cfg.Store.DBPath)
	}

	if cfg.WhatsApp.AccessToken == "" {
		printWarn("whatsapp token", "no access token set; outbound sends will fail")
	} else {
		printPass("whatsapp token", "set")
	}
	if cfg.WhatsApp.VerifyToken == "" {
		printWarn("verify token", "empty; webhook verification handshake will be rejected")
	} else {
		printPass("verify token", "set")
	}
	if cfg.WhatsApp.AppSecret == "" {
		printWarn("app secret", "empty; signature verification is DISABLED (permissive mode)")
	} else {
		printPass("app secret", "set, signatures enforced")
	}

	if cfg.Telegram.Enabled {
		if cfg.Telegram.Token == "" {
			printFail("telegram", "enabled but no bot token set")
			failures++
		} else {
			printPass("telegram", "enabled, token set")
		}
	}

	addr := net.JoinHostPort(cfg.Server.Host, fmt.Sprintf("%d", cfg.Server.Port))
	if err := checkPort(addr); err != nil {
		printWarn("listen address", fmt.Sprintf("%s: %v (already running?)", addr, err))
	} else {
		printPass("listen address", addr)
	}

	fmt.Println()
	if failures > 0 {
		fmt.Printf("%d check(s) failed.\n", failures)
		return fmt.Errorf("doctor found %d problem(s)", failures)
	}
	fmt.Println("All checks passed.")
	return nil
}

// checkDatabase opens the SQLite file and verifies it is writable.
func checkDatabase(path string) error {
	if path == "" {
		return fmt.Errorf("store.dbPath is empty")
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS _doctor_test (id INTEGER)"); err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	if _, err := db.ExecContext(ctx, "DROP TABLE _doctor_test"); err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	return nil
}

// checkPort verifies the address is free to bind.
func checkPort(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return ln.Close()
}

func printPass(name, detail string) {
	fmt.Printf("  [PASS] %-20s %s\n", name, detail)
}

func printFail(name, detail string) {
	fmt.Printf("  [FAIL] %-20s %s\n", name, detail)
}

func printWarn(name, detail string) {
	fmt.Printf("  [WARN] %-20s %s\n", name, detail)
}
