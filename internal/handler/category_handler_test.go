package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/spendlog/backend/internal/apperror"
	"github.com/spendlog/backend/internal/model"
	"github.com/spendlog/backend/internal/service"
)

// MockCategoryService implements CategoryServiceInterface for testing
type MockCategoryService struct {
	mock.Mock
}

func (m *MockCategoryService) Create(ctx context.Context, kind string, in service.CreateCategoryInput) (*model.CategoryItem, error) {
	args := m.Called(ctx, kind, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CategoryItem), args.Error(1)
}

func (m *MockCategoryService) List(ctx context.Context, kind string) ([]model.CategoryItem, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CategoryItem), args.Error(1)
}

func (m *MockCategoryService) Delete(ctx context.Context, kind string, id uuid.UUID) error {
	args := m.Called(ctx, kind, id)
	return args.Error(0)
}

func TestCategoryHandler_Create(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		kind       string
		body       interface{}
		setupMock  func(*MockCategoryService)
		wantStatus int
	}{
		{
			name: "success",
			kind: "restaurants",
			body: map[string]string{"name": "Pho House"},
			setupMock: func(m *MockCategoryService) {
				m.On("Create", mock.Anything, "restaurants", service.CreateCategoryInput{Name: "Pho House"}).
					Return(&model.CategoryItem{ID: uuid.New(), Kind: model.KindRestaurants, Name: "Pho House"}, nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "duplicate",
			kind: "restaurants",
			body: map[string]string{"name": "Pho House"},
			setupMock: func(m *MockCategoryService) {
				m.On("Create", mock.Anything, "restaurants", mock.Anything).Return(nil, apperror.Conflict("name already exists"))
			},
			wantStatus: http.StatusConflict,
		},
		{
			name: "unknown registry",
			kind: "galaxies",
			body: map[string]string{"name": "Andromeda"},
			setupMock: func(m *MockCategoryService) {
				m.On("Create", mock.Anything, "galaxies", mock.Anything).Return(nil, apperror.NotFound("category registry galaxies"))
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := new(MockCategoryService)
			tt.setupMock(svc)

			w := httptest.NewRecorder()
			NewCategoryHandler(svc).Create(w, newRequest(t, http.MethodPost, "/api/"+tt.kind, tt.body, "kind", tt.kind))

			assert.Equal(t, tt.wantStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestCategoryHandler_List(t *testing.T) {
	t.Parallel()

	svc := new(MockCategoryService)
	svc.On("List", mock.Anything, "family-members").Return([]model.CategoryItem{{Name: "Ana"}, {Name: "Bruno"}}, nil)

	w := httptest.NewRecorder()
	NewCategoryHandler(svc).List(w, newRequest(t, http.MethodGet, "/api/family-members", nil, "kind", "family-members"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Bruno")
}

func TestCategoryHandler_Delete(t *testing.T) {
	t.Parallel()

	id := uuid.New()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "deleted", err: nil, wantStatus: http.StatusNoContent},
		{name: "still referenced", err: apperror.Conflict("entry is still used by expenses"), wantStatus: http.StatusConflict},
		{name: "missing", err: apperror.NotFound("places entry"), wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := new(MockCategoryService)
			svc.On("Delete", mock.Anything, "places", id).Return(tt.err)

			w := httptest.NewRecorder()
			NewCategoryHandler(svc).Delete(w, newRequest(t, http.MethodDelete, "/", nil, "kind", "places", "id", id.String()))

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
