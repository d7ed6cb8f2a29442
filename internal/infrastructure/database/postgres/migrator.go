package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/NoduleAdvisor/pkg/errors"
)

// MigrationState is the applied schema version.
type MigrationState struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

// Migrator applies the SQL files under a migrations directory.
type Migrator struct {
	dbURL      string
	sourceURL  string
	logger     logging.Logger
	newMigrate func(sourceURL, dbURL string) (*migrate.Migrate, error)
}

// NewMigrator builds a Migrator.  migrationsPath may be a plain directory or a
// file:// URL.
func NewMigrator(dbURL, migrationsPath string, log logging.Logger) *Migrator {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Migrator{
		dbURL:      dbURL,
		sourceURL:  sourceURL(migrationsPath),
		logger:     log,
		newMigrate: migrate.New,
	}
}

func sourceURL(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	return "file://" + path
}

func (m *Migrator) open() (*migrate.Migrate, error) {
	mg, err := m.newMigrate(m.sourceURL, m.dbURL)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDBMigrationError, "failed to create migrate instance")
	}
	return mg, nil
}

// Up applies every pending migration.  No pending migrations is not an error.
func (m *Migrator) Up() error {
	mg, err := m.open()
	if err != nil {
		return err
	}
	defer mg.Close()

	if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		version, _, _ := mg.Version()
		return apperrors.Wrap(err, apperrors.ErrCodeDBMigrationError,
			fmt.Sprintf("failed to run migrations (current version: %d)", version))
	}

	version, dirty, err := mg.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		m.logger.Warn("failed to read migration version", logging.Err(err))
	}
	m.logger.Info("database migrations completed",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty),
	)
	return nil
}

// Down rolls back steps migrations.
func (m *Migrator) Down(steps int) error {
	if steps <= 0 {
		return apperrors.New(apperrors.ErrCodeBadRequest, fmt.Sprintf("steps must be greater than 0, got %d", steps))
	}
	mg, err := m.open()
	if err != nil {
		return err
	}
	defer mg.Close()

	if err := mg.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return apperrors.New(apperrors.ErrCodeDBMigrationError, "no migrations to roll back")
		}
		return apperrors.Wrap(err, apperrors.ErrCodeDBMigrationError, fmt.Sprintf("failed to roll back %d step(s)", steps))
	}
	m.logger.Info("database migrations rolled back", logging.Int("steps", steps))
	return nil
}

// Status reports the applied version.  A fresh database reports version 0.
func (m *Migrator) Status() (MigrationState, error) {
	mg, err := m.open()
	if err != nil {
		return MigrationState{}, err
	}
	defer mg.Close()

	version, dirty, err := mg.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return MigrationState{}, nil
		}
		return MigrationState{}, apperrors.Wrap(err, apperrors.ErrCodeDBMigrationError, "failed to read migration version")
	}
	return MigrationState{Version: version, Dirty: dirty}, nil
}

//Personal.AI order the ending
