package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nextshorts/nextshorts/internal/app"
	"github.com/nextshorts/nextshorts/internal/config"
	log "github.com/sirupsen/logrus"
)

// main runs the CLI entrypoint and exits on unrecoverable command errors.
func main() {
	if errRun := run(context.Background(), os.Args[1:]); errRun != nil {
		log.WithError(errRun).Error("command failed")
		os.Exit(1)
	}
}

// run parses flags, loads config, and starts the server or a subcommand.
func run(ctx context.Context, args []string) error {
	// Missing .env is fine; the environment may be set by the host.
	_ = godotenv.Load()

	fs := flag.NewFlagSet("nextshorts", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "config file path (or env CONFIG_PATH)")
	port := fs.Int("port", 8318, "server port")
	migrateOnly := fs.Bool("migrate", false, "run database migrations and exit")
	createAdmin := fs.String("create-admin", "", "create a dashboard admin with the given username and exit")
	adminPassword := fs.String("admin-password", "", "password for --create-admin (or env ADMIN_PASSWORD)")
	if errParse := fs.Parse(args); errParse != nil {
		return errParse
	}

	if errValidate := validatePort(*port); errValidate != nil {
		return errValidate
	}

	appCfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	if strings.TrimSpace(*cfgPath) != "" {
		appCfg.ConfigPath = config.ResolveConfigPath(*cfgPath)
	}

	if *migrateOnly {
		return app.Migrate(ctx, appCfg)
	}

	if username := strings.TrimSpace(*createAdmin); username != "" {
		password := *adminPassword
		if password == "" {
			password = os.Getenv("ADMIN_PASSWORD")
		}
		if errCreate := app.CreateAdminUser(ctx, appCfg, username, password); errCreate != nil {
			return errCreate
		}
		log.Infof("created admin %q", username)
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.RunServer(ctx, appCfg, *port)
}

func validatePort(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port: %d", port)
	}
	return nil
}
