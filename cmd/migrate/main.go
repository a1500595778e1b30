package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const (
	directionUp   = "up"
	directionDown = "down"
)

func main() {
	var migrationsPath, direction string
	flag.StringVar(&migrationsPath, "migrations-path", "migrations", "path to migration files")
	flag.StringVar(&direction, "direction", directionUp, "up or down")
	flag.Parse()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "POSTGRES_DSN is required")
		os.Exit(1)
	}

	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize migrator:", err)
		os.Exit(1)
	}
	defer m.Close()

	switch direction {
	case directionUp:
		err = m.Up()
	case directionDown:
		err = m.Down()
	default:
		fmt.Fprintln(os.Stderr, "unknown direction:", direction)
		os.Exit(1)
	}

	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("no migrations to apply")
			return
		}
		fmt.Fprintln(os.Stderr, "migration failed:", err)
		os.Exit(1)
	}

	fmt.Println("migrations applied successfully")
}
