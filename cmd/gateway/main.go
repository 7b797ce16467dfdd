// Package main is the entrypoint for the bridge-gateway binary.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/morezero/bridge-gateway/internal/config"
	"github.com/morezero/bridge-gateway/internal/server"
	"github.com/morezero/bridge-gateway/pkg/memory"
)

const usage = `Usage: gateway [command]
       gateway serve            Start the gateway (NATS, HTTP, dispatch core).
       gateway migrate up       Run document-store migrations.
       gateway migrate status   Show migration status.
       gateway clear            Truncate stored interactions; schema is preserved.

Commands:
  serve           (default) Start the bridge gateway.
  migrate up      Run document-store migrations only.
  migrate status  Show current migration status.
  clear           Truncate interaction data; schema preserved.

Environment: COMMS_URL, DB_PATH, USE_DOCSTORE, DATABASE_URL, MIGRATION_PATH,
INTEGRATOR_USE_NOOPUR, NOOPUR_BASE_URL, GATEWAY_HTTP_ADDR.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "migrate":
		if len(args) < 2 {
			log.Fatalf("gateway migrate: require subcommand (up, status)")
		}
		switch sub := args[1]; sub {
		case "up":
			if err := runMigrateUp(); err != nil {
				log.Fatalf("gateway migrate up: %v", err)
			}
		case "status":
			if err := runMigrateStatus(); err != nil {
				log.Fatalf("gateway migrate status: %v", err)
			}
		default:
			log.Fatalf("gateway migrate: unknown subcommand %q (use up, status)", sub)
		}
		return
	case "clear":
		if err := runClear(); err != nil {
			log.Fatalf("gateway clear: %v", err)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
		// serve (explicit or default)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("gateway: %v", err)
	}
}

func runMigrateUp() error {
	cfg, pool, err := connectDocStore()
	if err != nil {
		return err
	}
	defer pool.Close()

	ctx := context.Background()
	migrationSQL, err := memory.LoadMigrationFiles(cfg.MigrationPath)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	return memory.RunMigrations(ctx, pool.Pool(), migrationSQL)
}

func runMigrateStatus() error {
	cfg, pool, err := connectDocStore()
	if err != nil {
		return err
	}
	defer pool.Close()
	return memory.MigrationStatus(context.Background(), pool.Pool(), cfg.MigrationPath)
}

func runClear() error {
	_, pool, err := connectDocStore()
	if err != nil {
		return err
	}
	defer pool.Close()
	return memory.ClearInteractions(context.Background(), pool.Pool())
}

func connectDocStore() (*config.Config, *memory.DocStore, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return nil, nil, err
	}
	store, err := memory.NewDocStore(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect document store: %w", err)
	}
	return cfg, store, nil
}
