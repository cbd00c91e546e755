package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/stwalsh4118/deedchain/internal/config"
	"github.com/stwalsh4118/deedchain/internal/database"
	"github.com/stwalsh4118/deedchain/internal/logger"
)

func main() {
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|status|version")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env).WithComponent("migrate").With(map[string]interface{}{
		"cmd": *cmd,
	})

	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	switch *cmd {
	case "up", "down", "status":
		err = database.Migrate(ctx, db, *cmd)
	case "version":
		if *version == "" {
			current, verr := database.Version(ctx, db)
			if verr != nil {
				log.Fatal("Failed to read migration version", verr, nil)
			}
			fmt.Println(current)
			return
		}
		err = database.MigrateToVersion(ctx, db, *version)
	default:
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(1)
	}
	if err != nil {
		// Fatal exits, so the deferred Close would not run.
		db.Close()
		log.Fatal("Migration failed", err, map[string]interface{}{"version": *version})
	}

	log.Info("Migration complete", nil)
}
