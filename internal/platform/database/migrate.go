package database

import (
	"embed"
	"log"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate runs embedded goose migrations against the open pool.
func Migrate() {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("Error setting migration dialect: %v", err)
	}
	if err := goose.Up(DB, "migrations"); err != nil {
		log.Fatalf("Error running migrations: %v", err)
	}
}
