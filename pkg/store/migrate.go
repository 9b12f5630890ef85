package store

import (
	"database/sql"
	"embed"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver backing goose
	"github.com/pressly/goose/v3"

	sharederrors "github.com/devmemory/learning-engine/pkg/shared/errors"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate runs every pending goose migration against dsn. Goose needs a
// database/sql handle; pgx's stdlib adapter supplies one so the rest of the
// store can still talk to Postgres through pgxpool directly.
func Migrate(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return sharederrors.FailedTo("open migration connection", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return sharederrors.FailedTo("set goose dialect", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return sharederrors.FailedTo("run migrations", err)
	}
	return nil
}
