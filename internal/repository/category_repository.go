package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/spendlog/backend/internal/apperror"
	"github.com/spendlog/backend/internal/model"
)

var (
	ErrCategoryNotFound = apperror.NotFound("category")
	ErrUnknownKind      = errors.New("unknown category kind")
)

// registryTables maps each registry to its table. Table names are never
// taken from input, only from this whitelist.
var registryTables = map[model.CategoryKind]string{
	model.KindSupermarkets:      "supermarkets",
	model.KindRestaurants:       "restaurants",
	model.KindServiceTypes:      "service_types",
	model.KindLeisureTypes:      "leisure_types",
	model.KindPersonalCareTypes: "personal_care_types",
	model.KindShops:             "shops",
	model.KindPlaces:            "places",
	model.KindHealthTypes:       "health_types",
	model.KindFamilyMembers:     "family_members",
	model.KindCharityTypes:      "charity_types",
	model.KindFixedExpenseTypes: "fixed_expense_types",
}

func tableFor(kind model.CategoryKind) (string, error) {
	table, ok := registryTables[kind]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return table, nil
}

// CategoryRepository stores the rows of every category registry.
type CategoryRepository struct {
	db *sqlx.DB
}

func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, item *model.CategoryItem) error {
	table, err := tableFor(item.Kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, created_at)
		VALUES ($1, $2, NOW())
		RETURNING created_at`, table)

	item.ID = uuid.New()
	err = r.db.QueryRowxContext(ctx, query, item.ID, item.Name).Scan(&item.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateName
	}
	return err
}

func (r *CategoryRepository) List(ctx context.Context, kind model.CategoryKind) ([]model.CategoryItem, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	items := []model.CategoryItem{}
	query := fmt.Sprintf(`SELECT id, name, created_at FROM %s ORDER BY LOWER(name), name`, table)
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Kind = kind
	}
	return items, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, kind model.CategoryKind, id uuid.UUID) (*model.CategoryItem, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	var item model.CategoryItem
	query := fmt.Sprintf(`SELECT id, name, created_at FROM %s WHERE id = $1`, table)
	err = r.db.GetContext(ctx, &item, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	item.Kind = kind
	return &item, nil
}

func (r *CategoryRepository) Exists(ctx context.Context, kind model.CategoryKind, id uuid.UUID) (bool, error) {
	table, err := tableFor(kind)
	if err != nil {
		return false, err
	}

	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)`, table)
	err = r.db.GetContext(ctx, &exists, query, id)
	return exists, err
}

// IsReferenced reports whether any expense or recurring definition points at
// the row.
func (r *CategoryRepository) IsReferenced(ctx context.Context, kind model.CategoryKind, id uuid.UUID) (bool, error) {
	category := kind.Category()
	query := `
		SELECT EXISTS(SELECT 1 FROM expenses WHERE category_ref_id = $1 AND routine_category = $2)
			OR EXISTS(SELECT 1 FROM recurring_expenses WHERE category_ref_id = $1 AND routine_category = $2)`

	var referenced bool
	err := r.db.GetContext(ctx, &referenced, query, id, category)
	return referenced, err
}

func (r *CategoryRepository) Delete(ctx context.Context, kind model.CategoryKind, id uuid.UUID) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table)
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// ErrDuplicateName is returned when a unique name index rejects an insert or
// update.
var ErrDuplicateName = apperror.Conflict("name already exists")

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
