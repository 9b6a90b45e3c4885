package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spendlog/backend/internal/model"
)

// newRequest builds a request with an optional JSON body and chi URL
// parameters given as name, value pairs.
func newRequest(t *testing.T, method, target string, body interface{}, params ...string) *http.Request {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(params); i += 2 {
		rctx.URLParams.Add(params[i], params[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRouter(t *testing.T) {
	t.Parallel()

	expenses := new(MockExpenseService)
	recurring := new(MockRecurringService)
	statsSvc := new(MockStatsService)
	categories := new(MockCategoryService)

	expenses.On("Recent", mock.Anything, 10).Return([]model.Expense{}, nil)
	recurring.On("List", mock.Anything).Return([]model.RecurringExpense{}, nil)
	categories.On("List", mock.Anything, "supermarkets").Return([]model.CategoryItem{}, nil)

	router := NewRouter([]string{"http://localhost:3000"}, Handlers{
		Expense:       NewExpenseHandler(expenses),
		Recurring:     NewRecurringHandler(recurring),
		Stats:         NewStatsHandler(statsSvc),
		Category:      NewCategoryHandler(categories),
		Group:         NewOccasionalGroupHandler(new(MockGroupService)),
		FinancialYear: NewFinancialYearHandler(new(MockFinancialYearService)),
		Export:        NewExportHandler(new(MockExportService)),
	})

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{name: "health", method: http.MethodGet, path: "/api/health", wantStatus: http.StatusOK, wantBody: `"status":"ok"`},
		{name: "static expense route wins over id", method: http.MethodGet, path: "/api/expenses/recent", wantStatus: http.StatusOK},
		{name: "recurring list", method: http.MethodGet, path: "/api/recurring-expenses", wantStatus: http.StatusOK},
		{name: "registry by kind", method: http.MethodGet, path: "/api/supermarkets", wantStatus: http.StatusOK},
		{name: "invalid expense id", method: http.MethodGet, path: "/api/expenses/not-a-uuid", wantStatus: http.StatusBadRequest},
		{name: "bad year", method: http.MethodGet, path: "/api/stats/annual/abc", wantStatus: http.StatusBadRequest},
		{name: "wrong method", method: http.MethodPut, path: "/api/recurring-expenses", wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
		})
	}
}
