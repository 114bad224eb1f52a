package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/johntango/milonga/internal/models"
	"github.com/johntango/milonga/internal/shared"
)

// PlanRepository implements models.Repository[*models.SavedPlan].
//
// The assembled plan is stored as a JSON blob alongside queryable metadata
// columns; soft deletes keep exported history recoverable.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository with the given database connection
func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create inserts a new saved plan with generated ID and sequence
func (r *PlanRepository) Create(plan *models.SavedPlan) error {
	sequence, err := NextSequence(r.db, "plans")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	plan.SetID(shared.GenerateID())
	plan.SetSequence(sequence)

	if err := plan.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	blob, err := json.Marshal(plan.Plan())
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}

	query := `
		INSERT INTO plans (id, sequence, name, minutes, plan_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		plan.ID(),
		sequence,
		plan.Name(),
		plan.Minutes(),
		string(blob),
		plan.CreatedAt(),
		plan.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert plan: %w", err)
	}

	return nil
}

// Get retrieves a saved plan by ID, excluding soft-deleted plans
func (r *PlanRepository) Get(id string) (*models.SavedPlan, error) {
	query := `
		SELECT id, sequence, name, minutes, plan_json, created_at, updated_at, deleted_at
		FROM plans
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetBySequence retrieves a saved plan by its human-readable sequence number
func (r *PlanRepository) GetBySequence(sequence int) (*models.SavedPlan, error) {
	query := `
		SELECT id, sequence, name, minutes, plan_json, created_at, updated_at, deleted_at
		FROM plans
		WHERE sequence = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, sequence))
}

// Update modifies an existing saved plan in the database
func (r *PlanRepository) Update(plan *models.SavedPlan) error {
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	blob, err := json.Marshal(plan.Plan())
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}

	now := time.Now()
	plan.SetUpdatedAt(now)

	query := `
		UPDATE plans
		SET name = ?, minutes = ?, plan_json = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, plan.Name(), plan.Minutes(), string(blob), now, plan.ID())
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlanNotFound, plan.ID())
	}

	return nil
}

// Delete soft-deletes a saved plan by ID
func (r *PlanRepository) Delete(id string) error {
	query := `
		UPDATE plans
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlanNotFound, id)
	}

	return nil
}

// List retrieves all saved plans matching the given criteria, excluding soft-deleted plans
func (r *PlanRepository) List(criteria map[string]any) ([]*models.SavedPlan, error) {
	query := `
		SELECT id, sequence, name, minutes, plan_json, created_at, updated_at, deleted_at
		FROM plans
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if name, ok := criteria["name"].(string); ok && name != "" {
		query += " AND name = ?"
		args = append(args, name)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	var plans []*models.SavedPlan
	for rows.Next() {
		plan, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return plans, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PlanRepository) scan(row rowScanner) (*models.SavedPlan, error) {
	var (
		id        string
		sequence  int
		name      string
		minutes   int
		blob      string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &name, &minutes, &blob, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan plan: %w", err)
	}

	var decoded models.Plan
	if err := json.Unmarshal([]byte(blob), &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode plan blob: %w", err)
	}

	plan := models.NewSavedPlan(name, minutes, decoded)
	plan.SetID(id)
	plan.SetSequence(sequence)
	plan.SetCreatedAt(createdAt)
	plan.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		plan.SetDeletedAt(&deletedAt.Time)
	}

	return plan, nil
}

func (r *PlanRepository) scanOne(row *sql.Row) (*models.SavedPlan, error) {
	return r.scan(row)
}

func (r *PlanRepository) scanRow(rows *sql.Rows) (*models.SavedPlan, error) {
	return r.scan(rows)
}
