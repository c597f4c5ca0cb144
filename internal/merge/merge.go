package merge

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/acamposr/receipt-bridge/internal/pos"
	"github.com/acamposr/receipt-bridge/internal/store"
	"github.com/shopspring/decimal"
)

// Fallback literals the frontend renders as-is
const (
	orderNumberFallback = "N/A"
	paymentTypeUnknown  = "Desconocido"
)

// MergedReceipt is the frontend-ready combination of a POS receipt and its
// annotation. It is built per request and never stored.
type MergedReceipt struct {
	LoyverseID    string            `json:"loyverseId"`
	ReceiptNumber string            `json:"receiptNumber"`
	OrderNumber   string            `json:"orderNumber"`
	Date          string            `json:"date"`
	Time          string            `json:"time"`
	PaymentType   string            `json:"paymentType"`
	Items         []Item            `json:"items"`
	Subtotal      decimal.Decimal   `json:"subtotal"`
	Tax           decimal.Decimal   `json:"tax"`
	Total         decimal.Decimal   `json:"total"`
	Status        string            `json:"status"`
	InvoiceLinks  []json.RawMessage `json:"invoiceLinks"`
	CustomerData  json.RawMessage   `json:"customerData"`
}

// Item is one normalized receipt line
type Item struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Merge combines a POS receipt with its annotation, which may be nil when
// the receipt was never annotated. Malformed numeric fields fail the merge
// rather than producing a silent sentinel.
func Merge(receipt *pos.Receipt, annotation *store.Annotation) (*MergedReceipt, error) {
	createdAt, err := time.Parse(time.RFC3339, receipt.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at %q: %w", receipt.CreatedAt, err)
	}

	total, err := parseAmount("total_money", receipt.TotalMoney)
	if err != nil {
		return nil, err
	}
	tax, err := parseAmount("total_tax", receipt.TotalTax)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(receipt.LineItems))
	for _, line := range receipt.LineItems {
		quantity, err := parseAmount("quantity", line.Quantity)
		if err != nil {
			return nil, err
		}
		price, err := parseAmount("price", line.Price)
		if err != nil {
			return nil, err
		}
		items = append(items, Item{
			Name:     line.ItemName,
			Quantity: quantity,
			Price:    price,
		})
	}

	orderNumber := receipt.Order
	if orderNumber == "" {
		orderNumber = orderNumberFallback
	}

	paymentType := paymentTypeUnknown
	if len(receipt.Payments) > 0 {
		// Only the first payment entry is reported
		paymentType = receipt.Payments[0].Name
	}

	merged := &MergedReceipt{
		LoyverseID:    receipt.ID,
		ReceiptNumber: receipt.ReceiptNumber,
		OrderNumber:   orderNumber,
		Date:          createdAt.Format("2006-01-02"),
		Time:          createdAt.Format("15:04:05"),
		PaymentType:   paymentType,
		Items:         items,
		Subtotal:      total.Sub(tax),
		Tax:           tax,
		Total:         total,
		Status:        store.StatusPending,
		InvoiceLinks:  []json.RawMessage{},
		CustomerData:  nil,
	}

	if annotation != nil {
		merged.Status = annotation.Status
		merged.CustomerData = annotation.CustomerData
		if annotation.InvoiceLinks != nil {
			merged.InvoiceLinks = annotation.InvoiceLinks
		}
	}

	return merged, nil
}

func parseAmount(field, value string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to parse %s %q: %w", field, value, err)
	}
	return amount, nil
}
