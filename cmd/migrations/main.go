// Runs a single migration file against the configured database:
//
//	go run ./cmd/migrations 000001_create_feature_requests.up
package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal().Msg("a migration name is required")
	}
	migrationName := os.Args[1]

	_ = godotenv.Load()

	db, err := sql.Open("postgres", dbConnString())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	content, err := migrationFileContent(migrationName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read migration")
	}

	if _, err := db.Exec(string(content)); err != nil {
		log.Fatal().Err(err).Str("migration", migrationName).Msg("failed to execute migration")
	}

	log.Info().Str("migration", migrationName).Msg("migration executed")
}

const migrationsDir = "internal/adapters/repository/postgres/migrations"

func migrationFileContent(migrationName string) ([]byte, error) {
	pattern, err := regexp.Compile(fmt.Sprintf(`^.*%s\.sql$`, regexp.QuoteMeta(migrationName)))
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() || !pattern.MatchString(entry.Name()) {
			continue
		}
		return os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
	}

	return nil, fmt.Errorf("migration %q not found", migrationName)
}

func dbConnString() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		os.Getenv("POSTGRES_USER"), os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("POSTGRES_HOST"), os.Getenv("POSTGRES_PORT"), os.Getenv("POSTGRES_DB"))
}
