package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/spendlog/backend/internal/apperror"
	"github.com/spendlog/backend/internal/model"
)

const maxCategoryNameLen = 100

// CategoryRepositoryInterface defines the contract for category registry data access.
type CategoryRepositoryInterface interface {
	Create(ctx context.Context, item *model.CategoryItem) error
	List(ctx context.Context, kind model.CategoryKind) ([]model.CategoryItem, error)
	Exists(ctx context.Context, kind model.CategoryKind, id uuid.UUID) (bool, error)
	IsReferenced(ctx context.Context, kind model.CategoryKind, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, kind model.CategoryKind, id uuid.UUID) error
}

// CategoryService manages the eleven category registries through one API.
type CategoryService struct {
	repo CategoryRepositoryInterface
}

func NewCategoryService(repo CategoryRepositoryInterface) *CategoryService {
	return &CategoryService{repo: repo}
}

type CreateCategoryInput struct {
	Name string `json:"name"`
}

func registryKind(kind string) (model.CategoryKind, error) {
	k := model.CategoryKind(kind)
	if !k.IsValid() {
		return "", apperror.NotFound("category registry " + kind)
	}
	return k, nil
}

// Create adds an entry to the registry of kind. Names are unique per
// registry regardless of case.
func (s *CategoryService) Create(ctx context.Context, kind string, in CreateCategoryInput) (*model.CategoryItem, error) {
	k, err := registryKind(kind)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return nil, apperror.ValidationError("name", "is required")
	case len(name) > maxCategoryNameLen:
		return nil, apperror.ValidationError("name", fmt.Sprintf("must be at most %d characters", maxCategoryNameLen))
	}

	item := &model.CategoryItem{Kind: k, Name: name}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("creating %s entry: %w", k, err)
	}
	return item, nil
}

// List returns the registry of kind sorted by name.
func (s *CategoryService) List(ctx context.Context, kind string) ([]model.CategoryItem, error) {
	k, err := registryKind(kind)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.List(ctx, k)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", k, err)
	}
	return items, nil
}

// Delete removes an entry. Entries still referenced by an expense or a
// recurring definition are kept.
func (s *CategoryService) Delete(ctx context.Context, kind string, id uuid.UUID) error {
	k, err := registryKind(kind)
	if err != nil {
		return err
	}

	exists, err := s.repo.Exists(ctx, k, id)
	if err != nil {
		return fmt.Errorf("checking %s entry: %w", k, err)
	}
	if !exists {
		return apperror.NotFound(string(k) + " entry")
	}

	referenced, err := s.repo.IsReferenced(ctx, k, id)
	if err != nil {
		return fmt.Errorf("checking references to %s entry: %w", k, err)
	}
	if referenced {
		return apperror.Conflict("entry is still used by expenses")
	}

	if err := s.repo.Delete(ctx, k, id); err != nil {
		return fmt.Errorf("deleting %s entry: %w", k, err)
	}
	return nil
}
