/*
Package store
File: store.go
Description:
    SQLite persistence for computed dive plans. The planning engine never
    touches this package; the API layer saves finished profiles here and
    reads them back for the log endpoints.
*/

package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/everforgeworks/diveplan-server/internal/deco"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned when a plan id does not exist.
var ErrNotFound = errors.New("store: plan not found")

// PlanSummary is the listing row: everything except the profile body.
type PlanSummary struct {
	ID           string  `db:"id" json:"id"`
	Name         string  `db:"name" json:"name"`
	Model        string  `db:"model" json:"model"`
	GFLow        float64 `db:"gf_low" json:"gf_low"`
	GFHigh       float64 `db:"gf_high" json:"gf_high"`
	MaxDepth     float64 `db:"max_depth" json:"max_depth"`
	Runtime      float64 `db:"runtime" json:"runtime"`
	WarningCount int     `db:"warning_count" json:"warning_count"`
	CreatedAt    string  `db:"created_at" json:"created_at"`
}

// PlanRecord is a stored plan with its full profile.
type PlanRecord struct {
	PlanSummary
	Profile deco.Profile `json:"profile"`
}

type planRow struct {
	PlanSummary
	Profile string `db:"profile"`
}

// Store wraps the SQLite connection.
type Store struct {
	db *sqlx.DB
}

// Open connects to the SQLite database at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping database: %w", err)
	}
	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("store: migration driver: %w", err)
	}
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("store: migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("store: migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("store: run migrations: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SavePlan persists a computed profile under a fresh id and returns it.
func (s *Store) SavePlan(ctx context.Context, name string, profile deco.Profile) (string, error) {
	body, err := json.Marshal(profile)
	if err != nil {
		return "", fmt.Errorf("store: encode profile: %w", err)
	}

	row := planRow{
		PlanSummary: PlanSummary{
			ID:           uuid.NewString(),
			Name:         name,
			Model:        profile.Model,
			GFLow:        profile.GradientFactors.Low,
			GFHigh:       profile.GradientFactors.High,
			MaxDepth:     profile.MaxDepth,
			Runtime:      profile.Runtime,
			WarningCount: len(profile.Warnings),
			CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		},
		Profile: string(body),
	}

	const q = `INSERT INTO plans
		(id, name, model, gf_low, gf_high, max_depth, runtime, warning_count, profile, created_at)
		VALUES (:id, :name, :model, :gf_low, :gf_high, :max_depth, :runtime, :warning_count, :profile, :created_at)`
	if _, err := s.db.NamedExecContext(ctx, q, row); err != nil {
		return "", fmt.Errorf("store: insert plan: %w", err)
	}
	return row.ID, nil
}

// ListPlans returns all stored plans, newest first.
func (s *Store) ListPlans(ctx context.Context) ([]PlanSummary, error) {
	summaries := []PlanSummary{}
	const q = `SELECT id, name, model, gf_low, gf_high, max_depth, runtime, warning_count, created_at
		FROM plans ORDER BY created_at DESC, id`
	if err := s.db.SelectContext(ctx, &summaries, q); err != nil {
		return nil, fmt.Errorf("store: list plans: %w", err)
	}
	return summaries, nil
}

// GetPlan loads one stored plan including its profile.
func (s *Store) GetPlan(ctx context.Context, id string) (*PlanRecord, error) {
	var row planRow
	const q = `SELECT id, name, model, gf_low, gf_high, max_depth, runtime, warning_count, profile, created_at
		FROM plans WHERE id = ?`
	if err := s.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get plan: %w", err)
	}

	rec := &PlanRecord{PlanSummary: row.PlanSummary}
	if err := json.Unmarshal([]byte(row.Profile), &rec.Profile); err != nil {
		return nil, fmt.Errorf("store: decode profile: %w", err)
	}
	return rec, nil
}
