package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/acamposr/receipt-bridge/pkg/database"
	"go.uber.org/zap"
)

// AnnotationRepository handles receipt annotation persistence
type AnnotationRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewAnnotationRepository creates a new annotation repository
func NewAnnotationRepository(db *database.DB, logger *zap.Logger) *AnnotationRepository {
	return &AnnotationRepository{
		db:     db,
		logger: logger,
	}
}

// GetByReceiptID retrieves the annotation for a receipt. A missing row is
// not an error: it returns (nil, nil) and the caller applies defaults.
func (r *AnnotationRepository) GetByReceiptID(ctx context.Context, receiptID string) (*Annotation, error) {
	query := `
		SELECT receipt_id, status, customer_data, invoice_links, updated_at
		FROM receipt_annotations
		WHERE receipt_id = ?
	`

	var annotation Annotation
	var customerData sql.NullString
	var invoiceLinks string

	err := r.db.QueryRowContext(ctx, query, receiptID).Scan(
		&annotation.ReceiptID,
		&annotation.Status,
		&customerData,
		&invoiceLinks,
		&annotation.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get annotation", zap.String("receipt_id", receiptID), zap.Error(err))
		return nil, fmt.Errorf("failed to get annotation: %w", err)
	}

	if customerData.Valid {
		annotation.CustomerData = json.RawMessage(customerData.String)
	}
	if err := json.Unmarshal([]byte(invoiceLinks), &annotation.InvoiceLinks); err != nil {
		return nil, fmt.Errorf("failed to decode invoice links for %s: %w", receiptID, err)
	}

	return &annotation, nil
}

// Upsert creates or merges the annotation for a receipt. Only the columns
// carried by the update are written; an existing row keeps its invoice
// links. Concurrent writers to the same receipt race last-write-wins.
func (r *AnnotationRepository) Upsert(ctx context.Context, receiptID string, update AnnotationUpdate) error {
	err := r.db.WithTransaction(func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx,
			"SELECT 1 FROM receipt_annotations WHERE receipt_id = ?", receiptID,
		).Scan(&exists)

		switch {
		case err == sql.ErrNoRows:
			_, err = tx.ExecContext(ctx, `
				INSERT INTO receipt_annotations (receipt_id, status, customer_data, updated_at)
				VALUES (?, ?, ?, ?)
			`, receiptID, update.Status, string(update.CustomerData), update.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to insert annotation: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to check annotation existence: %w", err)
		default:
			_, err = tx.ExecContext(ctx, `
				UPDATE receipt_annotations
				SET status = ?, customer_data = ?, updated_at = ?
				WHERE receipt_id = ?
			`, update.Status, string(update.CustomerData), update.UpdatedAt, receiptID)
			if err != nil {
				return fmt.Errorf("failed to update annotation: %w", err)
			}
		}

		return nil
	})

	if err != nil {
		r.logger.Error("Failed to upsert annotation", zap.String("receipt_id", receiptID), zap.Error(err))
		return err
	}

	r.logger.Debug("Annotation upserted",
		zap.String("receipt_id", receiptID),
		zap.String("status", update.Status))

	return nil
}
