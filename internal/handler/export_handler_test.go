package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockExportService implements ExportServiceInterface for testing
type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) ExpensesCSV(ctx context.Context, year int) ([]byte, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockExportService) ExpensesXLSX(ctx context.Context, year int) ([]byte, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockExportService) AnnualReportPDF(ctx context.Context, year int) ([]byte, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func TestExportHandler_ExportExpensesCSV(t *testing.T) {
	t.Parallel()

	csv := []byte("Date,Amount\n2024-01-05,10.00\n")
	svc := new(MockExportService)
	svc.On("ExpensesCSV", mock.Anything, 2024).Return(csv, nil)

	w := httptest.NewRecorder()
	NewExportHandler(svc).ExportExpensesCSV(w, newRequest(t, http.MethodGet, "/", nil, "year", "2024"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="expenses_2024.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, strconv.Itoa(len(csv)), w.Header().Get("Content-Length"))
	assert.Equal(t, string(csv), w.Body.String())
}

func TestExportHandler_ExportExpensesXLSX(t *testing.T) {
	t.Parallel()

	t.Run("serves the workbook", func(t *testing.T) {
		t.Parallel()
		book := []byte("PK\x03\x04workbook")
		svc := new(MockExportService)
		svc.On("ExpensesXLSX", mock.Anything, 2024).Return(book, nil)

		w := httptest.NewRecorder()
		NewExportHandler(svc).ExportExpensesXLSX(w, newRequest(t, http.MethodGet, "/", nil, "year", "2024"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="expenses_2024.xlsx"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, strconv.Itoa(len(book)), w.Header().Get("Content-Length"))
		assert.Equal(t, book, w.Body.Bytes())
	})

	t.Run("year out of range", func(t *testing.T) {
		t.Parallel()
		svc := new(MockExportService)

		w := httptest.NewRecorder()
		NewExportHandler(svc).ExportExpensesXLSX(w, newRequest(t, http.MethodGet, "/", nil, "year", "1850"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "ExpensesXLSX", mock.Anything, mock.Anything)
	})
}

func TestExportHandler_ExportAnnualReportPDF(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		year       string
		setupMock  func(*MockExportService)
		wantStatus int
	}{
		{
			name: "success",
			year: "2024",
			setupMock: func(m *MockExportService) {
				m.On("AnnualReportPDF", mock.Anything, 2024).Return([]byte("%PDF-1.3"), nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "year out of range",
			year:       "1999",
			setupMock:  func(m *MockExportService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "generation failure",
			year: "2024",
			setupMock: func(m *MockExportService) {
				m.On("AnnualReportPDF", mock.Anything, 2024).Return(nil, assert.AnError)
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := new(MockExportService)
			tt.setupMock(svc)

			w := httptest.NewRecorder()
			NewExportHandler(svc).ExportAnnualReportPDF(w, newRequest(t, http.MethodGet, "/", nil, "year", tt.year))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
				assert.Equal(t, "%PDF-1.3", w.Body.String())
			}
			svc.AssertExpectations(t)
		})
	}
}
