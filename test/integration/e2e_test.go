//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/spendlog/backend/internal/database"
	"github.com/spendlog/backend/internal/handler"
	"github.com/spendlog/backend/internal/recurrence"
	"github.com/spendlog/backend/internal/repository"
	"github.com/spendlog/backend/internal/service"
)

// TestEnv holds the test environment
type TestEnv struct {
	DB        *sqlx.DB
	Container testcontainers.Container
	Server    *httptest.Server
	Recurring *service.RecurringService
}

// SetupTestEnv creates a test environment with a real PostgreSQL database
func SetupTestEnv(t *testing.T) *TestEnv {
	ctx := context.Background()

	// Start PostgreSQL container
	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sqlx.Connect("postgres", connStr)
	require.NoError(t, err)

	require.NoError(t, database.Migrate(db))

	categoryRepo := repository.NewCategoryRepository(db)
	groupRepo := repository.NewOccasionalGroupRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	recurringRepo := repository.NewRecurringRepository(db)
	financialYearRepo := repository.NewFinancialYearRepository(db)

	recurringService := service.NewRecurringService(recurringRepo, expenseRepo, categoryRepo, groupRepo, recurrence.PolicyTombstone)
	expenseService := service.NewExpenseService(expenseRepo, categoryRepo, groupRepo, recurringService)
	financialYearService := service.NewFinancialYearService(financialYearRepo)
	statsService := service.NewStatsService(expenseRepo, financialYearService, recurringService)

	router := handler.NewRouter([]string{"*"}, handler.Handlers{
		Expense:       handler.NewExpenseHandler(expenseService),
		Recurring:     handler.NewRecurringHandler(recurringService),
		Stats:         handler.NewStatsHandler(statsService),
		Category:      handler.NewCategoryHandler(service.NewCategoryService(categoryRepo)),
		Group:         handler.NewOccasionalGroupHandler(service.NewOccasionalGroupService(groupRepo)),
		FinancialYear: handler.NewFinancialYearHandler(financialYearService),
		Export:        handler.NewExportHandler(service.NewExportService(expenseService, statsService, "BRL")),
	})

	return &TestEnv{
		DB:        db,
		Container: pgContainer,
		Server:    httptest.NewServer(router),
		Recurring: recurringService,
	}
}

// Cleanup tears down the test environment
func (e *TestEnv) Cleanup(t *testing.T) {
	e.Server.Close()
	e.DB.Close()
	if err := e.Container.Terminate(context.Background()); err != nil {
		t.Logf("Failed to terminate container: %v", err)
	}
}

// Request sends a JSON request to the test server.
func (e *TestEnv) Request(method, path string, body interface{}) (*http.Response, error) {
	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, e.Server.URL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return http.DefaultClient.Do(req)
}

// Do sends a request, checks the status and decodes the body into out.
func (e *TestEnv) Do(t *testing.T, method, path string, body interface{}, wantStatus int, out interface{}) {
	t.Helper()
	resp, err := e.Request(method, path, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, wantStatus, resp.StatusCode, "%s %s", method, path)
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
}

// ============ E2E Tests ============

func TestE2E_HealthCheck(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}

	env := SetupTestEnv(t)
	defer env.Cleanup(t)

	env.Do(t, http.MethodGet, "/api/health", nil, http.StatusOK, nil)
}

func TestE2E_ExpenseFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}

	env := SetupTestEnv(t)
	defer env.Cleanup(t)

	// 1. Register a restaurant
	var restaurant map[string]interface{}
	env.Do(t, http.MethodPost, "/api/restaurants", map[string]string{"name": "Pho House"}, http.StatusCreated, &restaurant)
	restaurantID := restaurant["id"].(string)

	// Names are unique per registry
	env.Do(t, http.MethodPost, "/api/restaurants", map[string]string{"name": "Pho House"}, http.StatusConflict, nil)

	// 2. Food expenses must point at it
	env.Do(t, http.MethodPost, "/api/expenses", map[string]interface{}{
		"amount":          "42.50",
		"purchaseDate":    "2024-03-15",
		"paymentMethod":   "pix",
		"expenseType":     "routine",
		"routineCategory": "food",
	}, http.StatusBadRequest, nil)

	var expense map[string]interface{}
	env.Do(t, http.MethodPost, "/api/expenses", map[string]interface{}{
		"amount":          "42.50",
		"purchaseDate":    "2024-03-15",
		"paymentMethod":   "pix",
		"expenseType":     "routine",
		"routineCategory": "food",
		"categoryRefId":   restaurantID,
		"description":     "lunch",
	}, http.StatusCreated, &expense)
	assert.Equal(t, "42.5", expense["amount"])

	// 3. The referenced entry cannot be deleted
	env.Do(t, http.MethodDelete, "/api/restaurants/"+restaurantID, nil, http.StatusConflict, nil)

	// 4. Goals and monthly stats
	env.Do(t, http.MethodPost, "/api/financial-years", map[string]interface{}{
		"year":             2024,
		"totalMonthlyGoal": "100",
		"monthlyGoals":     []map[string]string{{"category": "food", "amount": "50"}},
	}, http.StatusCreated, nil)

	var monthly map[string]interface{}
	env.Do(t, http.MethodGet, "/api/stats/monthly?year=2024&month=3", nil, http.StatusOK, &monthly)
	assert.Equal(t, "42.5", monthly["total"])
	goals := monthly["goals"].(map[string]interface{})
	total := goals["total"].(map[string]interface{})
	assert.Equal(t, 42.5, total["percentage"])

	// 5. Once the expense is gone the entry can be deleted
	env.Do(t, http.MethodDelete, "/api/expenses/"+expense["id"].(string), nil, http.StatusNoContent, nil)
	env.Do(t, http.MethodDelete, "/api/restaurants/"+restaurantID, nil, http.StatusNoContent, nil)
}

func TestE2E_RecurringFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}

	env := SetupTestEnv(t)
	defer env.Cleanup(t)

	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 10, 0, 0, 0, 0, time.UTC).AddDate(0, -2, 0)

	var entry map[string]interface{}
	env.Do(t, http.MethodPost, "/api/fixed-expense-types", map[string]string{"name": "Gym"}, http.StatusCreated, &entry)

	// 1. Four installments starting two months ago: three are due
	var recurring map[string]interface{}
	env.Do(t, http.MethodPost, "/api/recurring-expenses", map[string]interface{}{
		"name":              "Gym membership",
		"amount":            "99.90",
		"startDate":         start.Format("2006-01-02"),
		"paymentMethod":     "credit_card",
		"expenseType":       "routine",
		"routineCategory":   "fixed",
		"categoryRefId":     entry["id"],
		"recurrenceType":    "determined",
		"installmentsTotal": 4,
	}, http.StatusCreated, &recurring)
	id := recurring["id"].(string)

	var occurrences []map[string]interface{}
	env.Do(t, http.MethodGet, "/api/recurring-expenses/"+id+"/occurrences", nil, http.StatusOK, &occurrences)
	require.Len(t, occurrences, 3)

	// 2. The sweep is idempotent
	created, err := env.Recurring.ReconcileAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	// 3. Paying an occurrence moves the counters
	first := occurrences[0]
	env.Do(t, http.MethodPatch, fmt.Sprintf("/api/expenses/%s/mark-as-paid", first["id"]), nil, http.StatusOK, nil)

	var got map[string]interface{}
	env.Do(t, http.MethodGet, "/api/recurring-expenses/"+id, nil, http.StatusOK, &got)
	assert.Equal(t, float64(1), got["installmentsTrulyPaid"])
	assert.Equal(t, float64(3), got["installmentsGenerated"])

	// 4. Paused recurrences stop generating
	env.Do(t, http.MethodPost, "/api/recurring-expenses/"+id+"/pause", nil, http.StatusOK, &got)
	assert.Equal(t, "paused", got["recurrenceType"])

	// 5. Deleting the definition keeps its expenses
	env.Do(t, http.MethodDelete, "/api/recurring-expenses/"+id, nil, http.StatusNoContent, nil)

	var list map[string]interface{}
	env.Do(t, http.MethodGet, "/api/expenses?pageSize=50", nil, http.StatusOK, &list)
	assert.Len(t, list["expenses"], 3)
}

func TestE2E_Export(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}

	env := SetupTestEnv(t)
	defer env.Cleanup(t)

	resp, err := env.Request(http.MethodGet, "/api/expenses/yearly/2024/export/csv", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))

	resp, err = env.Request(http.MethodGet, "/api/expenses/yearly/2024/export/xlsx", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))

	resp, err = env.Request(http.MethodGet, "/api/stats/annual/2024/export/pdf", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
}
