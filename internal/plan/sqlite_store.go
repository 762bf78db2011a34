package plan

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"

	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/domain"
	adopterrors "github.com/mrz1836/adopt/internal/errors"
)

// sqliteSchema is the authoritative schema for the sqlite store. Each
// aggregate is one JSON document row; the other columns exist for lookups.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS adoption_plans (
	id               TEXT PRIMARY KEY,
	assignment_id    TEXT NOT NULL,
	customer_id      TEXT NOT NULL,
	source_id        TEXT NOT NULL,
	solution_plan_id TEXT,
	needs_sync       INTEGER NOT NULL DEFAULT 0,
	progress         REAL NOT NULL DEFAULT 0,
	created_at       INTEGER NOT NULL,
	updated_at       INTEGER NOT NULL,
	document         TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_adoption_plans_assignment ON adoption_plans(assignment_id);
CREATE INDEX IF NOT EXISTS idx_adoption_plans_source ON adoption_plans(source_id);
CREATE INDEX IF NOT EXISTS idx_adoption_plans_customer ON adoption_plans(customer_id);

CREATE TABLE IF NOT EXISTS solution_plans (
	id            TEXT PRIMARY KEY,
	assignment_id TEXT NOT NULL,
	customer_id   TEXT NOT NULL,
	source_id     TEXT NOT NULL,
	needs_sync    INTEGER NOT NULL DEFAULT 0,
	progress      REAL NOT NULL DEFAULT 0,
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL,
	document      TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_solution_plans_assignment ON solution_plans(assignment_id);
CREATE INDEX IF NOT EXISTS idx_solution_plans_source ON solution_plans(source_id);
`

// SchemaSQL returns the sqlite schema.
func SchemaSQL() string {
	return sqliteSchema
}

// SQLiteStore implements Store on a sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema. ":memory:" opens a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = "file:" + path + "?_busy_timeout=5000&_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows one writer; a single connection also keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)

	store, err := NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteStore wraps an open database and applies the schema.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// CreatePlan persists a new plan.
func (s *SQLiteStore) CreatePlan(ctx context.Context, p *domain.AdoptionPlan) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("failed to create plan: plan %w", adopterrors.ErrEmptyValue)
	}
	if p.SchemaVersion == "" {
		p.SchemaVersion = constants.PlanSchemaVersion
	}

	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal plan '%s': %w", p.ID, err)
	}

	var solutionPlanID sql.NullString
	if p.SolutionPlanID != "" {
		solutionPlanID = sql.NullString{String: p.SolutionPlanID, Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO adoption_plans (id, assignment_id, customer_id, source_id, solution_plan_id, needs_sync, progress, created_at, updated_at, document)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Assignment.ID, p.Assignment.CustomerID, p.Assignment.SourceID, solutionPlanID,
		p.NeedsSync, p.Totals.ProgressPercentage, p.CreatedAt.UnixNano(), p.UpdatedAt.UnixNano(), string(doc),
	)
	if isConstraintError(err) {
		return fmt.Errorf("failed to create plan '%s': %w", p.ID, adopterrors.ErrPlanExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create plan '%s': %w", p.ID, err)
	}
	return nil
}

// GetPlan returns the plan with id.
func (s *SQLiteStore) GetPlan(ctx context.Context, id string) (*domain.AdoptionPlan, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, "SELECT document FROM adoption_plans WHERE id = ?", id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get plan '%s': %w", id, adopterrors.ErrPlanNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan '%s': %w", id, err)
	}

	var p domain.AdoptionPlan
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, fmt.Errorf("failed to parse plan '%s': %w: %w", id, adopterrors.ErrStoreCorrupted, err)
	}
	return &p, nil
}

// UpdatePlan replaces a stored plan in a single transaction.
func (s *SQLiteStore) UpdatePlan(ctx context.Context, p *domain.AdoptionPlan) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("failed to update plan: plan %w", adopterrors.ErrEmptyValue)
	}

	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal plan '%s': %w", p.ID, err)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE adoption_plans
			 SET assignment_id = ?, customer_id = ?, source_id = ?, needs_sync = ?, progress = ?, updated_at = ?, document = ?
			 WHERE id = ?`,
			p.Assignment.ID, p.Assignment.CustomerID, p.Assignment.SourceID,
			p.NeedsSync, p.Totals.ProgressPercentage, p.UpdatedAt.UnixNano(), string(doc), p.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update plan '%s': %w", p.ID, err)
		}
		return requireRow(res, fmt.Errorf("failed to update plan '%s': %w", p.ID, adopterrors.ErrPlanNotFound))
	})
}

// ListPlans returns matching plans, newest first.
func (s *SQLiteStore) ListPlans(ctx context.Context, filter ListFilter) ([]*domain.AdoptionPlan, error) {
	query, args := listQuery("adoption_plans", filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	plans := make([]*domain.AdoptionPlan, 0)
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		var p domain.AdoptionPlan
		if err := json.Unmarshal([]byte(doc), &p); err != nil {
			return nil, fmt.Errorf("failed to parse plan '%s': %w: %w", id, adopterrors.ErrStoreCorrupted, err)
		}
		plans = append(plans, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

// DeletePlan removes a plan.
func (s *SQLiteStore) DeletePlan(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM adoption_plans WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete plan '%s': %w", id, err)
	}
	return requireRow(res, fmt.Errorf("failed to delete plan '%s': %w", id, adopterrors.ErrPlanNotFound))
}

// CreateSolutionPlan persists a new solution plan.
func (s *SQLiteStore) CreateSolutionPlan(ctx context.Context, sp *domain.SolutionAdoptionPlan) error {
	if sp == nil || sp.ID == "" {
		return fmt.Errorf("failed to create solution plan: plan %w", adopterrors.ErrEmptyValue)
	}
	if sp.SchemaVersion == "" {
		sp.SchemaVersion = constants.PlanSchemaVersion
	}

	doc, err := json.Marshal(sp)
	if err != nil {
		return fmt.Errorf("failed to marshal solution plan '%s': %w", sp.ID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO solution_plans (id, assignment_id, customer_id, source_id, needs_sync, progress, created_at, updated_at, document)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sp.ID, sp.Assignment.ID, sp.Assignment.CustomerID, sp.Assignment.SourceID,
		sp.NeedsSync, sp.Totals.ProgressPercentage, sp.CreatedAt.UnixNano(), sp.UpdatedAt.UnixNano(), string(doc),
	)
	if isConstraintError(err) {
		return fmt.Errorf("failed to create solution plan '%s': %w", sp.ID, adopterrors.ErrPlanExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create solution plan '%s': %w", sp.ID, err)
	}
	return nil
}

// GetSolutionPlan returns the solution plan with id.
func (s *SQLiteStore) GetSolutionPlan(ctx context.Context, id string) (*domain.SolutionAdoptionPlan, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, "SELECT document FROM solution_plans WHERE id = ?", id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get solution plan '%s': %w", id, adopterrors.ErrSolutionPlanNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get solution plan '%s': %w", id, err)
	}

	var sp domain.SolutionAdoptionPlan
	if err := json.Unmarshal([]byte(doc), &sp); err != nil {
		return nil, fmt.Errorf("failed to parse solution plan '%s': %w: %w", id, adopterrors.ErrStoreCorrupted, err)
	}
	return &sp, nil
}

// UpdateSolutionPlan replaces a stored solution plan.
func (s *SQLiteStore) UpdateSolutionPlan(ctx context.Context, sp *domain.SolutionAdoptionPlan) error {
	if sp == nil || sp.ID == "" {
		return fmt.Errorf("failed to update solution plan: plan %w", adopterrors.ErrEmptyValue)
	}

	doc, err := json.Marshal(sp)
	if err != nil {
		return fmt.Errorf("failed to marshal solution plan '%s': %w", sp.ID, err)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE solution_plans
			 SET needs_sync = ?, progress = ?, updated_at = ?, document = ?
			 WHERE id = ?`,
			sp.NeedsSync, sp.Totals.ProgressPercentage, sp.UpdatedAt.UnixNano(), string(doc), sp.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update solution plan '%s': %w", sp.ID, err)
		}
		return requireRow(res, fmt.Errorf("failed to update solution plan '%s': %w", sp.ID, adopterrors.ErrSolutionPlanNotFound))
	})
}

// ListSolutionPlans returns matching solution plans, newest first.
func (s *SQLiteStore) ListSolutionPlans(ctx context.Context, filter ListFilter) ([]*domain.SolutionAdoptionPlan, error) {
	query, args := listQuery("solution_plans", filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list solution plans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	plans := make([]*domain.SolutionAdoptionPlan, 0)
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("failed to scan solution plan: %w", err)
		}
		var sp domain.SolutionAdoptionPlan
		if err := json.Unmarshal([]byte(doc), &sp); err != nil {
			return nil, fmt.Errorf("failed to parse solution plan '%s': %w: %w", id, adopterrors.ErrStoreCorrupted, err)
		}
		plans = append(plans, &sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list solution plans: %w", err)
	}
	return plans, nil
}

// DeleteSolutionPlan removes a solution plan.
func (s *SQLiteStore) DeleteSolutionPlan(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM solution_plans WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete solution plan '%s': %w", id, err)
	}
	return requireRow(res, fmt.Errorf("failed to delete solution plan '%s': %w", id, adopterrors.ErrSolutionPlanNotFound))
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// listQuery builds the id and document query for a table. Both tables share the
// filter columns.
func listQuery(table string, filter ListFilter) (string, []any) {
	query := "SELECT id, document FROM " + table + " WHERE 1=1" //nolint:gosec // table is one of two constants
	args := []any{}

	if filter.CustomerID != "" {
		query += " AND customer_id = ?"
		args = append(args, filter.CustomerID)
	}
	if filter.SourceID != "" {
		query += " AND source_id = ?"
		args = append(args, filter.SourceID)
	}
	if filter.AssignmentID != "" {
		query += " AND assignment_id = ?"
		args = append(args, filter.AssignmentID)
	}
	query += " ORDER BY created_at DESC"
	return query, args
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)
