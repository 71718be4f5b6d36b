package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"timebill/internal/application/service"
	"timebill/internal/domain/billing"
	"timebill/internal/domain/entity"
)

// ExcelExporter renders invoices and revenue reports as xlsx workbooks.
type ExcelExporter struct {
	logger *zap.Logger
}

// NewExcelExporter creates a new Excel exporter
func NewExcelExporter(logger *zap.Logger) *ExcelExporter {
	return &ExcelExporter{logger: logger}
}

// Invoice writes a single-sheet invoice workbook. Monetary cells are display
// precision, converted from cents here at the output boundary.
func (ex *ExcelExporter) Invoice(w io.Writer, inv *entity.Invoice) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	ex.setCell(f, sheet, "A1", "Invoice")
	ex.setCell(f, sheet, "A2", "Number")
	ex.setCell(f, sheet, "B2", inv.InvoiceNumber)
	ex.setCell(f, sheet, "A3", "Client")
	if inv.Client != nil {
		ex.setCell(f, sheet, "B3", inv.Client.Name)
	}
	ex.setCell(f, sheet, "A4", "Issue date")
	ex.setCell(f, sheet, "B4", inv.IssueDate.Format("2006-01-02"))
	ex.setCell(f, sheet, "A5", "Due date")
	ex.setCell(f, sheet, "B5", inv.DueDate.Format("2006-01-02"))
	ex.setCell(f, sheet, "A6", "Status")
	ex.setCell(f, sheet, "B6", inv.Status)

	ex.setCell(f, sheet, "A8", "Description")
	ex.setCell(f, sheet, "B8", "Type")
	ex.setCell(f, sheet, "C8", "Quantity")
	ex.setCell(f, sheet, "D8", "Unit price")
	ex.setCell(f, sheet, "E8", "Amount")

	row := 9
	for _, item := range inv.Items {
		ex.setCell(f, sheet, fmt.Sprintf("A%d", row), item.Description)
		ex.setCell(f, sheet, fmt.Sprintf("B%d", row), item.ItemType)
		ex.setCell(f, sheet, fmt.Sprintf("C%d", row), item.Quantity)
		ex.setCell(f, sheet, fmt.Sprintf("D%d", row), billing.FromCents(item.UnitPriceCents))
		ex.setCell(f, sheet, fmt.Sprintf("E%d", row), billing.FromCents(item.AmountCents))
		row++
	}

	row++
	ex.setCell(f, sheet, fmt.Sprintf("D%d", row), "Subtotal")
	ex.setCell(f, sheet, fmt.Sprintf("E%d", row), billing.FromCents(inv.SubtotalCents))
	row++
	ex.setCell(f, sheet, fmt.Sprintf("D%d", row), fmt.Sprintf("Tax (%.2f%%)", inv.TaxRate))
	ex.setCell(f, sheet, fmt.Sprintf("E%d", row), billing.FromCents(inv.TaxCents))
	row++
	ex.setCell(f, sheet, fmt.Sprintf("D%d", row), "Total")
	ex.setCell(f, sheet, fmt.Sprintf("E%d", row), billing.FromCents(inv.TotalCents))

	if len(inv.Payments) > 0 {
		row += 2
		ex.setCell(f, sheet, fmt.Sprintf("A%d", row), "Payments")
		row++
		ex.setCell(f, sheet, fmt.Sprintf("A%d", row), "Date")
		ex.setCell(f, sheet, fmt.Sprintf("B%d", row), "Method")
		ex.setCell(f, sheet, fmt.Sprintf("C%d", row), "Reference")
		ex.setCell(f, sheet, fmt.Sprintf("D%d", row), "Amount")
		for _, p := range inv.Payments {
			row++
			ex.setCell(f, sheet, fmt.Sprintf("A%d", row), p.Date.Format("2006-01-02"))
			ex.setCell(f, sheet, fmt.Sprintf("B%d", row), p.Method)
			ex.setCell(f, sheet, fmt.Sprintf("C%d", row), p.Reference)
			ex.setCell(f, sheet, fmt.Sprintf("D%d", row), billing.FromCents(p.AmountCents))
		}
		row++
		ex.setCell(f, sheet, fmt.Sprintf("C%d", row), "Outstanding")
		ex.setCell(f, sheet, fmt.Sprintf("D%d", row), billing.FromCents(inv.OutstandingCents()))
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write invoice workbook: %w", err)
	}

	ex.logger.Info("Invoice exported",
		zap.String("invoice_id", inv.ID),
		zap.String("invoice_number", inv.InvoiceNumber))
	return nil
}

// RevenueReport writes a revenue report workbook with a summary block and a
// per-client table.
func (ex *ExcelExporter) RevenueReport(w io.Writer, r *service.RevenueReport) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	ex.setCell(f, sheet, "A1", "Revenue Report")
	ex.setCell(f, sheet, "A2", "Period")
	ex.setCell(f, sheet, "B2", fmt.Sprintf("%s to %s", r.StartDate, r.EndDate))

	ex.setCell(f, sheet, "A4", "Billable amount")
	ex.setCell(f, sheet, "B4", r.BillableAmount)
	ex.setCell(f, sheet, "A5", "Billable expenses")
	ex.setCell(f, sheet, "B5", r.BillableExpenses)
	ex.setCell(f, sheet, "A6", "Invoiced total")
	ex.setCell(f, sheet, "B6", r.InvoicedTotal)
	ex.setCell(f, sheet, "A7", "Paid total")
	ex.setCell(f, sheet, "B7", r.PaidTotal)
	ex.setCell(f, sheet, "A8", "Outstanding total")
	ex.setCell(f, sheet, "B8", r.OutstandingTotal)

	ex.setCell(f, sheet, "A10", "Client")
	ex.setCell(f, sheet, "B10", "Billable")
	ex.setCell(f, sheet, "C10", "Expenses")
	ex.setCell(f, sheet, "D10", "Invoiced")
	ex.setCell(f, sheet, "E10", "Paid")
	ex.setCell(f, sheet, "F10", "Outstanding")

	row := 11
	for _, cs := range r.ClientStats {
		ex.setCell(f, sheet, fmt.Sprintf("A%d", row), cs.Name)
		ex.setCell(f, sheet, fmt.Sprintf("B%d", row), cs.BillableAmount)
		ex.setCell(f, sheet, fmt.Sprintf("C%d", row), cs.Expenses)
		ex.setCell(f, sheet, fmt.Sprintf("D%d", row), cs.InvoicedAmount)
		ex.setCell(f, sheet, fmt.Sprintf("E%d", row), cs.PaidAmount)
		ex.setCell(f, sheet, fmt.Sprintf("F%d", row), cs.OutstandingAmount)
		row++
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write report workbook: %w", err)
	}

	ex.logger.Info("Revenue report exported",
		zap.String("start", r.StartDate),
		zap.String("end", r.EndDate))
	return nil
}

// setCell sets a cell value, logging failures without aborting the export
func (ex *ExcelExporter) setCell(f *excelize.File, sheet, cell string, value interface{}) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		ex.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}
