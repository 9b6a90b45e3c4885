package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/spendlog/backend/internal/apperror"
	"github.com/spendlog/backend/internal/model"
)

var ErrGroupNotFound = apperror.NotFound("occasional group")

type OccasionalGroupRepository struct {
	db *sqlx.DB
}

func NewOccasionalGroupRepository(db *sqlx.DB) *OccasionalGroupRepository {
	return &OccasionalGroupRepository{db: db}
}

func (r *OccasionalGroupRepository) Create(ctx context.Context, g *model.OccasionalGroup) error {
	query := `
		INSERT INTO occasional_groups (id, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING created_at, updated_at`

	g.ID = uuid.New()
	err := r.db.QueryRowxContext(ctx, query, g.ID, g.Name, g.Status).Scan(&g.CreatedAt, &g.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateName
	}
	return err
}

func (r *OccasionalGroupRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.OccasionalGroup, error) {
	var g model.OccasionalGroup
	query := `SELECT * FROM occasional_groups WHERE id = $1`
	err := r.db.GetContext(ctx, &g, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// List returns groups ordered by name, optionally only those with status.
func (r *OccasionalGroupRepository) List(ctx context.Context, status *string) ([]model.OccasionalGroup, error) {
	groups := []model.OccasionalGroup{}
	query := `
		SELECT * FROM occasional_groups
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY LOWER(name), name`
	err := r.db.SelectContext(ctx, &groups, query, status)
	return groups, err
}

func (r *OccasionalGroupRepository) Update(ctx context.Context, g *model.OccasionalGroup) error {
	query := `
		UPDATE occasional_groups
		SET name = $2, status = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, g.ID, g.Name, g.Status).Scan(&g.CreatedAt, &g.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrGroupNotFound
	case isUniqueViolation(err):
		return ErrDuplicateName
	}
	return err
}

// HasExpenses reports whether any expense or recurring definition belongs to
// the group.
func (r *OccasionalGroupRepository) HasExpenses(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(SELECT 1 FROM expenses WHERE occasional_group_id = $1)
			OR EXISTS(SELECT 1 FROM recurring_expenses WHERE occasional_group_id = $1)`

	var has bool
	err := r.db.GetContext(ctx, &has, query, id)
	return has, err
}

func (r *OccasionalGroupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM occasional_groups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrGroupNotFound
	}
	return nil
}
