package store

import (
	"encoding/json"
	"time"
)

// Annotation statuses. A receipt with no annotation row is reported as
// pending; saving customer data always moves it to processing.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
)

// Annotation is the supplementary record this service keeps per receipt,
// keyed by the POS-assigned receipt id.
type Annotation struct {
	ReceiptID    string
	Status       string
	CustomerData json.RawMessage   // nil when never set
	InvoiceLinks []json.RawMessage // opaque link entries, empty by default
	UpdatedAt    time.Time
}

// AnnotationUpdate carries the fields written by a customer-data save.
// Columns not named here (invoice links) are left untouched by Upsert.
type AnnotationUpdate struct {
	Status       string
	CustomerData json.RawMessage
	UpdatedAt    time.Time
}
