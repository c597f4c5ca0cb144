package report

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/acamposr/receipt-bridge/internal/merge"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func mergedReceipt(number, total, tax string) *merge.MergedReceipt {
	t, _ := decimal.NewFromString(total)
	x, _ := decimal.NewFromString(tax)
	return &merge.MergedReceipt{
		LoyverseID:    "id-" + number,
		ReceiptNumber: number,
		OrderNumber:   "N/A",
		Date:          "2024-03-05",
		Time:          "14:30:00",
		PaymentType:   "Efectivo",
		Items:         []merge.Item{},
		Subtotal:      t.Sub(x),
		Tax:           x,
		Total:         t,
		Status:        "pending",
		InvoiceLinks:  []json.RawMessage{},
	}
}

func TestWriteProducesRowsAndTotals(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "receipts.xlsx")

	writer := NewWriter(zap.NewNop())
	err := writer.Write([]*merge.MergedReceipt{
		mergedReceipt("2-1", "10.00", "1.30"),
		mergedReceipt("2-2", "5.10", "0.66"),
	}, outputPath)
	require.NoError(t, err)

	f, err := excelize.OpenFile(outputPath)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("Receipts", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Receipt", header)

	first, err := f.GetCellValue("Receipts", "A2")
	require.NoError(t, err)
	assert.Equal(t, "2-1", first)

	footerLabel, err := f.GetCellValue("Receipts", "A4")
	require.NoError(t, err)
	assert.Equal(t, "TOTAL", footerLabel)

	grandTotal, err := f.GetCellValue("Receipts", "H4")
	require.NoError(t, err)
	assert.Equal(t, "15.1", grandTotal)
}

func TestWriteEmptyRangeStillProducesWorkbook(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.xlsx")

	writer := NewWriter(zap.NewNop())
	err := writer.Write(nil, outputPath)
	require.NoError(t, err)

	f, err := excelize.OpenFile(outputPath)
	require.NoError(t, err)
	defer f.Close()

	footerLabel, err := f.GetCellValue("Receipts", "A2")
	require.NoError(t, err)
	assert.Equal(t, "TOTAL", footerLabel)
}
