package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/spendlog/backend/internal/model"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler handles data export endpoints.
type ExportHandler struct {
	exportService ExportServiceInterface
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(exportService ExportServiceInterface) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// ExportExpensesCSV godoc
// @Summary Export a year of expenses to CSV
// @Tags export
// @Produce text/csv
// @Param year path int true "Year"
// @Success 200 {file} file "CSV file"
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /expenses/yearly/{year}/export/csv [get]
func (h *ExportHandler) ExportExpensesCSV(w http.ResponseWriter, r *http.Request) {
	year, ok := exportYear(w, r)
	if !ok {
		return
	}

	csvData, err := h.exportService.ExpensesCSV(r.Context(), year)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	// Set headers for CSV download
	filename := fmt.Sprintf("expenses_%d.csv", year)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(csvData)))
	_, _ = w.Write(csvData)
}

// ExportExpensesXLSX godoc
// @Summary Export a year of expenses to Excel
// @Tags export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param year path int true "Year"
// @Success 200 {file} file "XLSX file"
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /expenses/yearly/{year}/export/xlsx [get]
func (h *ExportHandler) ExportExpensesXLSX(w http.ResponseWriter, r *http.Request) {
	year, ok := exportYear(w, r)
	if !ok {
		return
	}

	data, err := h.exportService.ExpensesXLSX(r.Context(), year)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	filename := fmt.Sprintf("expenses_%d.xlsx", year)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// ExportAnnualReportPDF godoc
// @Summary Export the annual report to PDF
// @Description Totals, monthly series, category breakdown and goal comparison of a year
// @Tags export
// @Produce application/pdf
// @Param year path int true "Year"
// @Success 200 {file} file "PDF file"
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /stats/annual/{year}/export/pdf [get]
func (h *ExportHandler) ExportAnnualReportPDF(w http.ResponseWriter, r *http.Request) {
	year, ok := exportYear(w, r)
	if !ok {
		return
	}

	pdfData, err := h.exportService.AnnualReportPDF(r.Context(), year)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	// Set headers for PDF download
	filename := fmt.Sprintf("spendlog_report_%d.pdf", year)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdfData)))
	_, _ = w.Write(pdfData)
}

func exportYear(w http.ResponseWriter, r *http.Request) (int, bool) {
	year, ok := pathInt(w, r, "year")
	if !ok {
		return 0, false
	}
	if year < model.MinYear || year > model.MaxYear {
		respondError(w, http.StatusBadRequest, "invalid year")
		return 0, false
	}
	return year, true
}
