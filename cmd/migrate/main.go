package main

import (
	"errors"
	"flag"
	"log"
	"seafood_shop/internal/pkg/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	dir := flag.String("path", "migrations", "migrations directory")
	steps := flag.Int("steps", 0, "number of steps for down, 0 means all")
	force := flag.Int("force", -1, "force a version before migrating, clears the dirty flag")
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	config.LoadConfig()

	m, err := migrate.New("file://"+*dir, config.GlobalConfig.Database.URL())
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	if *force >= 0 {
		log.Printf("Forcing version %d", *force)
		if err := m.Force(*force); err != nil {
			log.Fatal("Failed to force version:", err)
		}
	}

	switch command {
	case "up":
		err = m.Up()
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil {
			log.Fatal(verr)
		}
		log.Printf("version=%d dirty=%v", version, dirty)
		return
	default:
		log.Fatalf("unknown command %q, expected up, down or version", command)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		var dirty migrate.ErrDirty
		if errors.As(err, &dirty) {
			log.Fatalf("database is dirty at version %d, rerun with -force %d after fixing it", dirty.Version, dirty.Version-1)
		}
		log.Fatal(err)
	}

	log.Printf("Migration %s successful", command)
}
