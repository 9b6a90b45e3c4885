package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/spendlog/backend/internal/apperror"
	"github.com/spendlog/backend/internal/model"
)

const maxGroupNameLen = 100

// OccasionalGroupRepositoryInterface defines the contract for occasional group data access.
type OccasionalGroupRepositoryInterface interface {
	Create(ctx context.Context, g *model.OccasionalGroup) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.OccasionalGroup, error)
	List(ctx context.Context, status *string) ([]model.OccasionalGroup, error)
	Update(ctx context.Context, g *model.OccasionalGroup) error
	HasExpenses(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// OccasionalGroupService manages the containers occasional expenses belong to.
type OccasionalGroupService struct {
	repo OccasionalGroupRepositoryInterface
}

func NewOccasionalGroupService(repo OccasionalGroupRepositoryInterface) *OccasionalGroupService {
	return &OccasionalGroupService{repo: repo}
}

type CreateGroupInput struct {
	Name   string            `json:"name"`
	Status model.GroupStatus `json:"status"`
}

type UpdateGroupInput struct {
	Name   *string            `json:"name"`
	Status *model.GroupStatus `json:"status"`
}

func validGroupStatus(s model.GroupStatus) bool {
	return s == model.GroupStatusOpen || s == model.GroupStatusClosed
}

func validateGroup(g *model.OccasionalGroup) error {
	var issues apperror.Issues
	switch {
	case g.Name == "":
		issues.Add("name", "is required")
	case len(g.Name) > maxGroupNameLen:
		issues.Addf("name", "must be at most %d characters", maxGroupNameLen)
	}
	if !validGroupStatus(g.Status) {
		issues.Add("status", "must be 'open' or 'closed'")
	}
	return issues.Err()
}

// Create stores a new group. Groups start open unless a status is given.
func (s *OccasionalGroupService) Create(ctx context.Context, in CreateGroupInput) (*model.OccasionalGroup, error) {
	g := &model.OccasionalGroup{Name: strings.TrimSpace(in.Name), Status: in.Status}
	if g.Status == "" {
		g.Status = model.GroupStatusOpen
	}
	if err := validateGroup(g); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("creating occasional group: %w", err)
	}
	return g, nil
}

func (s *OccasionalGroupService) Get(ctx context.Context, id uuid.UUID) (*model.OccasionalGroup, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting occasional group %s: %w", id, err)
	}
	return g, nil
}

// List returns the groups, optionally only those with status.
func (s *OccasionalGroupService) List(ctx context.Context, status *string) ([]model.OccasionalGroup, error) {
	if status != nil && !validGroupStatus(model.GroupStatus(*status)) {
		return nil, apperror.ValidationError("status", "must be 'open' or 'closed'")
	}
	groups, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("listing occasional groups: %w", err)
	}
	return groups, nil
}

// Update renames a group or opens/closes it. Closing a group keeps its
// expenses but rejects new ones.
func (s *OccasionalGroupService) Update(ctx context.Context, id uuid.UUID, in UpdateGroupInput) (*model.OccasionalGroup, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching occasional group %s for update: %w", id, err)
	}
	if in.Name != nil {
		g.Name = strings.TrimSpace(*in.Name)
	}
	if in.Status != nil {
		g.Status = *in.Status
	}
	if err := validateGroup(g); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, g); err != nil {
		return nil, fmt.Errorf("updating occasional group %s: %w", id, err)
	}
	return g, nil
}

// Delete removes an empty group.
func (s *OccasionalGroupService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return fmt.Errorf("fetching occasional group %s for deletion: %w", id, err)
	}
	has, err := s.repo.HasExpenses(ctx, id)
	if err != nil {
		return fmt.Errorf("checking expenses of group %s: %w", id, err)
	}
	if has {
		return apperror.Conflict("occasional group still has expenses")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting occasional group %s: %w", id, err)
	}
	return nil
}
