package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/spendlog/backend/internal/apperror"
	"github.com/spendlog/backend/internal/model"
)

// CategoryLookup checks that a registry row exists.
type CategoryLookup interface {
	Exists(ctx context.Context, kind model.CategoryKind, id uuid.UUID) (bool, error)
}

// GroupLookup loads an occasional group.
type GroupLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.OccasionalGroup, error)
}

// classificationChecker validates the category variant of expenses and
// recurring definitions, including the existence of what it points to.
type classificationChecker struct {
	categories CategoryLookup
	groups     GroupLookup
}

// check records problems with c in issues. previousGroup is the group the
// record already belonged to; staying in a closed group is allowed, joining
// one is not. A non-nil error means a lookup failed.
func (c classificationChecker) check(ctx context.Context, cl model.Classification, previousGroup *uuid.UUID, issues *apperror.Issues) error {
	shape := cl.Validate()
	for _, is := range shape {
		issues.Add(is.Field, is.Message)
	}
	if len(shape) > 0 {
		return nil
	}

	if kind, id, ok := cl.Reference(); ok {
		exists, err := c.categories.Exists(ctx, kind, id)
		if err != nil {
			return fmt.Errorf("checking %s reference: %w", kind, err)
		}
		if !exists {
			issues.Addf("categoryRefId", "no %s entry with id %s", kind, id)
		}
	}

	if cl.ExpenseType == model.ExpenseTypeOccasional {
		g, err := c.groups.GetByID(ctx, *cl.OccasionalGroupID)
		if errors.Is(err, apperror.ErrNotFound) {
			issues.Addf("occasionalGroupId", "no occasional group with id %s", *cl.OccasionalGroupID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("loading occasional group: %w", err)
		}
		joining := previousGroup == nil || *previousGroup != g.ID
		if g.Status == model.GroupStatusClosed && joining {
			issues.Addf("occasionalGroupId", "occasional group %q is closed", g.Name)
		}
	}
	return nil
}
