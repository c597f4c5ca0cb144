package report

import (
	"fmt"

	"github.com/acamposr/receipt-bridge/internal/merge"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const sheetName = "Receipts"

var headers = []string{
	"Receipt", "Order", "Date", "Time", "Payment",
	"Subtotal", "Tax", "Total", "Status",
}

// Writer renders merged receipts into an xlsx summary
type Writer struct {
	logger *zap.Logger
}

// NewWriter creates a new report writer
func NewWriter(logger *zap.Logger) *Writer {
	return &Writer{logger: logger}
}

// Write renders one row per merged receipt plus a totals footer and saves
// the workbook to outputPath
func (w *Writer) Write(receipts []*merge.MergedReceipt, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetName)

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to compute header cell: %w", err)
		}
		w.setCell(f, cell, header)
	}

	grandTotal := decimal.Zero
	taxTotal := decimal.Zero

	for i, receipt := range receipts {
		row := i + 2
		values := []interface{}{
			receipt.ReceiptNumber,
			receipt.OrderNumber,
			receipt.Date,
			receipt.Time,
			receipt.PaymentType,
			receipt.Subtotal.InexactFloat64(),
			receipt.Tax.InexactFloat64(),
			receipt.Total.InexactFloat64(),
			receipt.Status,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return fmt.Errorf("failed to compute cell: %w", err)
			}
			w.setCell(f, cell, value)
		}

		grandTotal = grandTotal.Add(receipt.Total)
		taxTotal = taxTotal.Add(receipt.Tax)
	}

	footerRow := len(receipts) + 2
	w.setCell(f, fmt.Sprintf("A%d", footerRow), "TOTAL")
	w.setCell(f, fmt.Sprintf("F%d", footerRow), grandTotal.Sub(taxTotal).InexactFloat64())
	w.setCell(f, fmt.Sprintf("G%d", footerRow), taxTotal.InexactFloat64())
	w.setCell(f, fmt.Sprintf("H%d", footerRow), grandTotal.InexactFloat64())

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	w.logger.Info("Report written",
		zap.String("output_path", outputPath),
		zap.Int("receipts", len(receipts)))

	return nil
}

func (w *Writer) setCell(f *excelize.File, cell string, value interface{}) {
	if err := f.SetCellValue(sheetName, cell, value); err != nil {
		w.logger.Warn("Failed to set cell value",
			zap.String("cell", cell),
			zap.Error(err))
	}
}
