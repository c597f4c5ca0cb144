package pos

// Receipt is the Loyverse receipt record as returned by the receipts API.
// Monetary fields and quantities arrive as strings and are not interpreted
// at this layer.
type Receipt struct {
	ID            string     `json:"id"`
	ReceiptNumber string     `json:"receipt_number"`
	Order         string     `json:"order"`
	CreatedAt     string     `json:"created_at"`
	LineItems     []LineItem `json:"line_items"`
	Payments      []Payment  `json:"payments"`
	TotalMoney    string     `json:"total_money"`
	TotalTax      string     `json:"total_tax"`
}

// LineItem is a single receipt line
type LineItem struct {
	ItemName string `json:"item_name"`
	Quantity string `json:"quantity"`
	Price    string `json:"price"`
}

// Payment is a single payment entry on a receipt
type Payment struct {
	Name string `json:"name"`
}

// receiptListResponse wraps the list endpoint's payload
type receiptListResponse struct {
	Receipts []Receipt `json:"receipts"`
}
