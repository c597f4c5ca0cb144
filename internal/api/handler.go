package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/acamposr/receipt-bridge/internal/merge"
	"github.com/acamposr/receipt-bridge/internal/pos"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Action names the operation a frontend request selects. The set is closed;
// anything else is rejected before any side effect.
type Action string

const (
	ActionGetReceipt        Action = "getReceipt"
	ActionGetReceiptsByDate Action = "getReceiptsByDate"
	ActionSaveCustomerData  Action = "saveCustomerData"
)

// ReceiptService is the operation surface the handler dispatches to
type ReceiptService interface {
	GetReceipt(ctx context.Context, number string) (*merge.MergedReceipt, error)
	GetReceiptsByDate(ctx context.Context, startDate, endDate *time.Time) ([]*merge.MergedReceipt, error)
	SaveCustomerData(ctx context.Context, loyverseID string, customerData json.RawMessage) error
}

// Handler routes action requests to the receipt service
type Handler struct {
	receipts ReceiptService
	logger   *zap.Logger
}

// NewHandler creates a new action handler
func NewHandler(receipts ReceiptService, logger *zap.Logger) *Handler {
	return &Handler{
		receipts: receipts,
		logger:   logger,
	}
}

type actionRequest struct {
	Action  Action          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

type getReceiptPayload struct {
	ReceiptNumber string `json:"receiptNumber"`
}

type dateRangePayload struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type saveCustomerDataPayload struct {
	LoyverseID   string          `json:"loyverseId"`
	CustomerData json.RawMessage `json:"customerData"`
}

// Dispatch handles POST /api/receipts
func (h *Handler) Dispatch(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	switch req.Action {
	case ActionGetReceipt:
		h.getReceipt(c, req.Payload)
	case ActionGetReceiptsByDate:
		h.getReceiptsByDate(c, req.Payload)
	case ActionSaveCustomerData:
		h.saveCustomerData(c, req.Payload)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid action %q", req.Action)})
	}
}

func (h *Handler) getReceipt(c *gin.Context, rawPayload json.RawMessage) {
	var payload getReceiptPayload
	if err := unmarshalPayload(rawPayload, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	merged, err := h.receipts.GetReceipt(c.Request.Context(), payload.ReceiptNumber)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, merged)
}

func (h *Handler) getReceiptsByDate(c *gin.Context, rawPayload json.RawMessage) {
	var payload dateRangePayload
	if err := unmarshalPayload(rawPayload, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	startDate, err := parseDateBoundary(payload.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid startDate %q", payload.StartDate)})
		return
	}
	endDate, err := parseDateBoundary(payload.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid endDate %q", payload.EndDate)})
		return
	}

	merged, err := h.receipts.GetReceiptsByDate(c.Request.Context(), startDate, endDate)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, merged)
}

func (h *Handler) saveCustomerData(c *gin.Context, rawPayload json.RawMessage) {
	var payload saveCustomerDataPayload
	if err := unmarshalPayload(rawPayload, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if payload.LoyverseID == "" || isAbsentJSON(payload.CustomerData) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "loyverseId and customerData are required"})
		return
	}

	if err := h.receipts.SaveCustomerData(c.Request.Context(), payload.LoyverseID, payload.CustomerData); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Customer data saved"})
}

// writeError maps operation errors to HTTP responses. Upstream POS failures
// keep their status code; everything unexpected becomes a 500 whose body
// carries the raw error text, which the frontend displays today.
func (h *Handler) writeError(c *gin.Context, err error) {
	var notFound *pos.NotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
		return
	}

	var apiErr *pos.APIError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.StatusCode, gin.H{"error": "failed to fetch receipts from the POS system"})
		return
	}

	h.logger.Error("Operation failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func unmarshalPayload(raw json.RawMessage, dest interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

// parseDateBoundary converts an optional payload date to a timestamp
// boundary. Empty means the bound is open on that side.
func parseDateBoundary(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// isAbsentJSON reports whether a payload field was missing or explicitly null
func isAbsentJSON(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
