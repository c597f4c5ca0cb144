package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/acamposr/receipt-bridge/internal/merge"
	"github.com/acamposr/receipt-bridge/internal/pos"
	"github.com/acamposr/receipt-bridge/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// POSClient is the slice of the Loyverse client the service needs
type POSClient interface {
	GetReceipt(ctx context.Context, number string) (*pos.Receipt, error)
	ListReceipts(ctx context.Context, createdAtMin, createdAtMax *time.Time) ([]pos.Receipt, error)
}

// AnnotationStore is the slice of the annotation repository the service needs
type AnnotationStore interface {
	GetByReceiptID(ctx context.Context, receiptID string) (*store.Annotation, error)
	Upsert(ctx context.Context, receiptID string, update store.AnnotationUpdate) error
}

// ReceiptService orchestrates the three frontend operations
type ReceiptService struct {
	pos         POSClient
	annotations AnnotationStore
	logger      *zap.Logger
	now         func() time.Time
}

// NewReceiptService creates a new receipt service
func NewReceiptService(posClient POSClient, annotations AnnotationStore, logger *zap.Logger) *ReceiptService {
	return &ReceiptService{
		pos:         posClient,
		annotations: annotations,
		logger:      logger,
		now:         time.Now,
	}
}

// GetReceipt fetches one receipt by the number the frontend sent, joins its
// annotation by the POS-assigned id, and returns the merged view. The
// request's number is the POS lookup key; the annotation join never uses it.
func (s *ReceiptService) GetReceipt(ctx context.Context, number string) (*merge.MergedReceipt, error) {
	receipt, err := s.pos.GetReceipt(ctx, number)
	if err != nil {
		return nil, err
	}

	annotation, err := s.annotations.GetByReceiptID(ctx, receipt.ID)
	if err != nil {
		return nil, err
	}

	return merge.Merge(receipt, annotation)
}

// GetReceiptsByDate fetches one page of receipts created in the given range
// and merges each with its annotation. Annotation lookups run concurrently;
// any failing lookup fails the whole batch. Order follows the POS response.
func (s *ReceiptService) GetReceiptsByDate(ctx context.Context, startDate, endDate *time.Time) ([]*merge.MergedReceipt, error) {
	receipts, err := s.pos.ListReceipts(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}

	merged := make([]*merge.MergedReceipt, len(receipts))

	g, ctx := errgroup.WithContext(ctx)
	for i := range receipts {
		i := i
		g.Go(func() error {
			receipt := &receipts[i]
			annotation, err := s.annotations.GetByReceiptID(ctx, receipt.ID)
			if err != nil {
				return err
			}
			view, err := merge.Merge(receipt, annotation)
			if err != nil {
				return err
			}
			merged[i] = view
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("Merged receipt page", zap.Int("count", len(merged)))

	return merged, nil
}

// SaveCustomerData upserts the annotation for a receipt, setting the
// customer payload, forcing status to processing, and stamping the write.
func (s *ReceiptService) SaveCustomerData(ctx context.Context, loyverseID string, customerData json.RawMessage) error {
	err := s.annotations.Upsert(ctx, loyverseID, store.AnnotationUpdate{
		Status:       store.StatusProcessing,
		CustomerData: customerData,
		UpdatedAt:    s.now().UTC(),
	})
	if err != nil {
		return err
	}

	s.logger.Info("Customer data saved", zap.String("receipt_id", loyverseID))
	return nil
}
