package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/aaronds650/MovieMeV2/internal/config"
	"github.com/aaronds650/MovieMeV2/internal/database"
	"github.com/aaronds650/MovieMeV2/internal/logging"
)

func main() {
	status := flag.Bool("status", false, "Show migration status only")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: "console"})

	db, err := database.NewDB(database.Config{
		Type:       cfg.Database.Type,
		Host:       cfg.Database.Host,
		Port:       cfg.Database.Port,
		User:       cfg.Database.User,
		Password:   cfg.Database.Password,
		Name:       cfg.Database.Name,
		SQLitePath: cfg.Database.SQLitePath,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx := context.Background()
	migrator := database.NewMigrator(db.Conn(), db.Type())

	if db.Type() != "postgres" {
		fmt.Println("SQLite tables are created on connect; nothing to migrate.")
		return
	}

	if *status {
		statuses, err := migrator.Status(ctx)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to read migration status")
		}

		fmt.Println("Migration Status:")
		fmt.Println("=================")
		for _, s := range statuses {
			state := "pending"
			if s.Applied {
				state = "applied"
			}
			fmt.Printf("%s - %s [%s]\n", s.Version, s.Name, state)
		}
		return
	}

	applied, err := migrator.Run(ctx)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to run migrations")
	}
	fmt.Printf("Migrations completed successfully (%d applied).\n", applied)
}
