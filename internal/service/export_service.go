package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/spendlog/backend/internal/model"
	"github.com/spendlog/backend/pkg/currency"
	"github.com/spendlog/backend/pkg/datetime"
)

// YearlyExpenseSource provides the expenses of a year with due occurrences
// materialized.
type YearlyExpenseSource interface {
	Yearly(ctx context.Context, year int) ([]model.Expense, error)
}

// AnnualStatsSource provides the aggregated figures of a year.
type AnnualStatsSource interface {
	Annual(ctx context.Context, year int) (*AnnualStats, error)
}

// ExportService renders expenses and reports as downloadable files.
type ExportService struct {
	expenses YearlyExpenseSource
	stats    AnnualStatsSource
	currency string
	now      func() time.Time
}

// NewExportService creates a new ExportService. Amounts in reports are
// formatted in currencyCode.
func NewExportService(expenses YearlyExpenseSource, stats AnnualStatsSource, currencyCode string) *ExportService {
	return &ExportService{expenses: expenses, stats: stats, currency: currencyCode, now: time.Now}
}

var csvHeader = []string{
	"Date", "Amount", "Payment Method", "Type", "Category", "Category Ref",
	"Occasional Group", "Description", "Recurring Expense", "Installment", "Payment Status",
}

// ExpensesCSV exports every expense of year, oldest first.
func (s *ExportService) ExpensesCSV(ctx context.Context, year int) ([]byte, error) {
	expenses, err := s.expenses.Yearly(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("fetching expenses for export: %w", err)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("writing CSV header: %w", err)
	}

	for i := range expenses {
		if err := writer.Write(expenseRecord(&expenses[i])); err != nil {
			return nil, fmt.Errorf("writing CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flushing CSV writer: %w", err)
	}

	return buf.Bytes(), nil
}

const (
	xlsxSheet       = "Expenses"
	xlsxAmountCol   = 1
	xlsxAmountWidth = 14
)

// ExpensesXLSX exports the same rows as ExpensesCSV as an Excel workbook,
// with amounts stored as numbers.
func (s *ExportService) ExpensesXLSX(ctx context.Context, year int) ([]byte, error) {
	expenses, err := s.expenses.Yearly(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("fetching expenses for export: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), xlsxSheet); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, fmt.Errorf("creating amount style: %w", err)
	}

	sw, err := f.NewStreamWriter(xlsxSheet)
	if err != nil {
		return nil, fmt.Errorf("opening sheet writer: %w", err)
	}
	// Column widths must precede the first row.
	if err := sw.SetColWidth(xlsxAmountCol+1, xlsxAmountCol+1, xlsxAmountWidth); err != nil {
		return nil, fmt.Errorf("sizing amount column: %w", err)
	}

	header := make([]interface{}, len(csvHeader))
	for i, title := range csvHeader {
		header[i] = excelize.Cell{StyleID: bold, Value: title}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, fmt.Errorf("writing XLSX header: %w", err)
	}

	for i := range expenses {
		record := expenseRecord(&expenses[i])
		row := make([]interface{}, len(record))
		for j, v := range record {
			row[j] = v
		}
		row[xlsxAmountCol] = excelize.Cell{StyleID: money, Value: expenses[i].Amount.InexactFloat64()}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return nil, fmt.Errorf("writing XLSX row: %w", err)
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("flushing XLSX writer: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("generating XLSX: %w", err)
	}
	return buf.Bytes(), nil
}

// expenseRecord flattens e into the export columns of csvHeader.
func expenseRecord(e *model.Expense) []string {
	row := []string{
		e.PurchaseDate.Format(datetime.DateFormat),
		e.Amount.StringFixed(2),
		string(e.PaymentMethod),
		string(e.ExpenseType),
		e.CategoryKey(),
		uuidString(e.CategoryRefID),
		uuidString(e.OccasionalGroupID),
		e.Description,
		uuidString(e.RecurringExpenseID),
		"",
		"",
	}
	if e.InstallmentNumber != nil {
		row[9] = strconv.Itoa(*e.InstallmentNumber)
	}
	if e.PaymentStatus != nil {
		row[10] = string(*e.PaymentStatus)
	}
	return row
}

// AnnualReportPDF renders the annual stats of year: summary, monthly series,
// category breakdown and, when goals exist, the goal comparison.
func (s *ExportService) AnnualReportPDF(ctx context.Context, year int) ([]byte, error) {
	report, err := s.stats.Annual(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("fetching annual stats for report: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	// Core fonts are cp1252; translate symbols such as € and £.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	money := func(amount decimal.Decimal) string {
		return tr(currency.Format(amount, s.currency))
	}

	// Title
	pdf.SetFont("Arial", "B", 24)
	pdf.SetTextColor(33, 37, 41)
	pdf.CellFormat(0, 12, "Spendlog", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 14)
	pdf.SetTextColor(108, 117, 125)
	pdf.CellFormat(0, 8, fmt.Sprintf("Annual Report - %d", report.Year), "", 1, "C", false, 0, "")

	pdf.Ln(10)

	// Summary
	sectionTitle(pdf, "Summary")
	pdf.SetFont("Arial", "", 11)
	colWidth := float64(85)

	summaryRow := func(label, value string, r, g, b int) {
		pdf.SetFont("Arial", "", 11)
		pdf.SetTextColor(108, 117, 125)
		pdf.CellFormat(colWidth, 7, label, "", 0, "L", false, 0, "")
		pdf.SetTextColor(r, g, b)
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(colWidth, 7, value, "", 1, "R", false, 0, "")
	}
	summaryRow("Total Spent", money(report.Total), 220, 53, 69)
	summaryRow("Pending Installments", money(report.Pending), 33, 37, 41)
	summaryRow("Expenses", strconv.Itoa(report.Count), 33, 37, 41)
	if report.Goals != nil {
		summaryRow("Annual Goal", money(report.Goals.Total.Goal), 33, 37, 41)
		r, g, b := 40, 167, 69
		if report.Goals.Total.Exceeded {
			r, g, b = 220, 53, 69
		}
		summaryRow("Goal Used", fmt.Sprintf("%.1f%%", report.Goals.Total.Percentage), r, g, b)
	}

	pdf.Ln(10)

	// Monthly series
	sectionTitle(pdf, "Spending by Month")
	tableHeader(pdf, []string{"Month", "Expenses", "Total"}, []float64{80, 45, 45})
	pdf.SetFont("Arial", "", 10)
	for _, m := range report.Months {
		pdf.SetTextColor(33, 37, 41)
		pdf.CellFormat(80, 7, time.Month(m.Month).String(), "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 7, strconv.Itoa(m.Count), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 7, money(m.Total), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(10)

	// Categories
	if len(report.Categories) > 0 {
		sectionTitle(pdf, "Spending by Category")
		tableHeader(pdf, []string{"Category", "Amount", "% of Total"}, []float64{80, 45, 45})
		pdf.SetFont("Arial", "", 10)
		for _, c := range report.Categories {
			pdf.SetTextColor(33, 37, 41)
			pdf.CellFormat(80, 7, c.Category, "1", 0, "L", false, 0, "")
			pdf.CellFormat(45, 7, money(c.Amount), "1", 0, "R", false, 0, "")
			pdf.CellFormat(45, 7, fmt.Sprintf("%.2f%%", c.Percentage), "1", 1, "R", false, 0, "")
		}
		pdf.Ln(10)
	}

	// Goals
	if report.Goals != nil && len(report.Goals.Categories) > 0 {
		sectionTitle(pdf, "Goals")
		tableHeader(pdf, []string{"Category", "Goal", "Actual", "Used"}, []float64{55, 40, 40, 35})
		pdf.SetFont("Arial", "", 10)
		for _, g := range report.Goals.Categories {
			pdf.SetTextColor(33, 37, 41)
			pdf.CellFormat(55, 7, g.Category, "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 7, money(g.Goal), "1", 0, "R", false, 0, "")
			pdf.CellFormat(40, 7, money(g.Actual), "1", 0, "R", false, 0, "")
			if g.Exceeded {
				pdf.SetTextColor(220, 53, 69)
			}
			pdf.CellFormat(35, 7, fmt.Sprintf("%.1f%%", g.Percentage), "1", 1, "R", false, 0, "")
		}
	}

	// Footer
	pdf.SetY(-25)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(108, 117, 125)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated by Spendlog on %s", s.now().Format("January 2, 2006")), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("generating PDF: %w", err)
	}

	return buf.Bytes(), nil
}

func sectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(33, 37, 41)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(5)
}

func tableHeader(pdf *gofpdf.Fpdf, columns []string, widths []float64) {
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(248, 249, 250)
	pdf.SetTextColor(33, 37, 41)
	for i, col := range columns {
		align, ln := "R", 0
		if i == 0 {
			align = "L"
		}
		if i == len(columns)-1 {
			ln = 1
		}
		pdf.CellFormat(widths[i], 8, col, "1", ln, align, true, 0, "")
	}
}

func uuidString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
