package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed postgres/*.sql sqlite3/*.sql
var embedded embed.FS

// Run applies every pending "up" migration. It opens its own connection because
// the migrate driver closes the database it is given.
//
// driverName is the database/sql driver (pgx, postgres or sqlite3). When
// sourceURL is empty the migrations bundled with the binary are used,
// otherwise sourceURL is handed to migrate (e.g. "file://migrations").
func Run(driverName, dsn, sourceURL string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection for migrations: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database for migrations: %w", err)
	}

	dir, driver, err := databaseDriver(driverName, db)
	if err != nil {
		_ = db.Close()
		return err
	}

	var m *migrate.Migrate
	if sourceURL != "" {
		m, err = migrate.NewWithDatabaseInstance(sourceURL, dir, driver)
	} else {
		src, srcErr := iofs.New(embedded, dir)
		if srcErr != nil {
			_ = db.Close()
			return fmt.Errorf("failed to open embedded migrations: %w", srcErr)
		}
		m, err = migrate.NewWithInstance("iofs", src, dir, driver)
	}
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	upErr := m.Up()
	sourceErr, dbErr := m.Close()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", upErr)
	}
	if sourceErr != nil {
		return fmt.Errorf("migration source error: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("migration database error: %w", dbErr)
	}

	if errors.Is(upErr, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.", slog.String("driver", driverName))
	}
	return nil
}

func databaseDriver(driverName string, db *sql.DB) (string, database.Driver, error) {
	switch driverName {
	case "pgx", "postgres":
		driver, err := postgres.WithInstance(db, &postgres.Config{})
		if err != nil {
			return "", nil, fmt.Errorf("could not create postgres driver instance for migrations: %w", err)
		}
		return "postgres", driver, nil
	case "sqlite3":
		driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
		if err != nil {
			return "", nil, fmt.Errorf("could not create sqlite3 driver instance for migrations: %w", err)
		}
		return "sqlite3", driver, nil
	default:
		return "", nil, fmt.Errorf("unsupported migration driver %q", driverName)
	}
}
