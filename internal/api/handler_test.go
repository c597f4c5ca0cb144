package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/acamposr/receipt-bridge/internal/merge"
	"github.com/acamposr/receipt-bridge/internal/pos"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockReceiptService struct {
	getReceiptFunc        func(ctx context.Context, number string) (*merge.MergedReceipt, error)
	getReceiptsByDateFunc func(ctx context.Context, start, end *time.Time) ([]*merge.MergedReceipt, error)
	saveCustomerDataFunc  func(ctx context.Context, loyverseID string, customerData json.RawMessage) error
	saveCalls             int
}

func (m *mockReceiptService) GetReceipt(ctx context.Context, number string) (*merge.MergedReceipt, error) {
	if m.getReceiptFunc != nil {
		return m.getReceiptFunc(ctx, number)
	}
	return sampleMergedReceipt(), nil
}

func (m *mockReceiptService) GetReceiptsByDate(ctx context.Context, start, end *time.Time) ([]*merge.MergedReceipt, error) {
	if m.getReceiptsByDateFunc != nil {
		return m.getReceiptsByDateFunc(ctx, start, end)
	}
	return []*merge.MergedReceipt{}, nil
}

func (m *mockReceiptService) SaveCustomerData(ctx context.Context, loyverseID string, customerData json.RawMessage) error {
	m.saveCalls++
	if m.saveCustomerDataFunc != nil {
		return m.saveCustomerDataFunc(ctx, loyverseID, customerData)
	}
	return nil
}

func sampleMergedReceipt() *merge.MergedReceipt {
	total, _ := decimal.NewFromString("5.10")
	tax, _ := decimal.NewFromString("0.66")
	return &merge.MergedReceipt{
		LoyverseID:    "rcpt-001",
		ReceiptNumber: "2-1045",
		OrderNumber:   "N/A",
		Date:          "2024-03-05",
		Time:          "14:30:00",
		PaymentType:   "Efectivo",
		Items:         []merge.Item{},
		Subtotal:      total.Sub(tax),
		Tax:           tax,
		Total:         total,
		Status:        "pending",
		InvoiceLinks:  []json.RawMessage{},
	}
}

func newTestRouter(svc ReceiptService) *gin.Engine {
	handler := NewHandler(svc, zap.NewNop())
	return NewRouter(handler, zap.NewNop(), RouterConfig{AllowedOrigins: []string{"*"}})
}

func postAction(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/receipts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestDispatchRejectsUnknownAction(t *testing.T) {
	svc := &mockReceiptService{}
	router := newTestRouter(svc)

	w := postAction(router, `{"action": "deleteEverything", "payload": {"receiptNumber": "2-1045"}}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid action")
	assert.Zero(t, svc.saveCalls)
}

func TestDispatchRejectsWrongMethod(t *testing.T) {
	router := newTestRouter(&mockReceiptService{})

	req := httptest.NewRequest(http.MethodGet, "/api/receipts", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestGetReceiptReturnsMergedView(t *testing.T) {
	var requestedNumber string
	svc := &mockReceiptService{
		getReceiptFunc: func(ctx context.Context, number string) (*merge.MergedReceipt, error) {
			requestedNumber = number
			return sampleMergedReceipt(), nil
		},
	}
	router := newTestRouter(svc)

	w := postAction(router, `{"action": "getReceipt", "payload": {"receiptNumber": "2-1045"}}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2-1045", requestedNumber)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "rcpt-001", body["loyverseId"])
	assert.Equal(t, "2024-03-05", body["date"])
	assert.Equal(t, "14:30:00", body["time"])
	assert.Equal(t, "pending", body["status"])
	assert.Nil(t, body["customerData"])
}

func TestGetReceiptNotFoundNamesNumber(t *testing.T) {
	svc := &mockReceiptService{
		getReceiptFunc: func(ctx context.Context, number string) (*merge.MergedReceipt, error) {
			return nil, &pos.NotFoundError{Number: number}
		},
	}
	router := newTestRouter(svc)

	w := postAction(router, `{"action": "getReceipt", "payload": {"receiptNumber": "9-9999"}}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "9-9999")
}

func TestGetReceiptUpstreamStatusPassthrough(t *testing.T) {
	svc := &mockReceiptService{
		getReceiptFunc: func(ctx context.Context, number string) (*merge.MergedReceipt, error) {
			return nil, &pos.APIError{StatusCode: http.StatusServiceUnavailable}
		},
	}
	router := newTestRouter(svc)

	w := postAction(router, `{"action": "getReceipt", "payload": {"receiptNumber": "2-1045"}}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	// Generic message only, no upstream detail
	assert.NotContains(t, w.Body.String(), "503")
}

func TestGetReceiptsByDateForwardsBounds(t *testing.T) {
	var gotStart, gotEnd *time.Time
	svc := &mockReceiptService{
		getReceiptsByDateFunc: func(ctx context.Context, start, end *time.Time) ([]*merge.MergedReceipt, error) {
			gotStart, gotEnd = start, end
			return []*merge.MergedReceipt{sampleMergedReceipt()}, nil
		},
	}
	router := newTestRouter(svc)

	w := postAction(router, `{"action": "getReceiptsByDate", "payload": {"startDate": "2024-03-01", "endDate": "2024-03-31"}}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, gotStart)
	require.NotNil(t, gotEnd)
	assert.Equal(t, "2024-03-01", gotStart.Format("2006-01-02"))
	assert.Equal(t, "2024-03-31", gotEnd.Format("2006-01-02"))

	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body, 1)
}

func TestGetReceiptsByDateOpenBounds(t *testing.T) {
	var gotStart, gotEnd *time.Time
	svc := &mockReceiptService{
		getReceiptsByDateFunc: func(ctx context.Context, start, end *time.Time) ([]*merge.MergedReceipt, error) {
			gotStart, gotEnd = start, end
			return []*merge.MergedReceipt{}, nil
		},
	}
	router := newTestRouter(svc)

	w := postAction(router, `{"action": "getReceiptsByDate", "payload": {}}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, gotStart)
	assert.Nil(t, gotEnd)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestGetReceiptsByDateRejectsMalformedDate(t *testing.T) {
	router := newTestRouter(&mockReceiptService{})

	w := postAction(router, `{"action": "getReceiptsByDate", "payload": {"startDate": "yesterday"}}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "startDate")
}

func TestSaveCustomerDataValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"missing loyverseId", `{"customerData": {"name": "Ana"}}`},
		{"missing customerData", `{"loyverseId": "rcpt-001"}`},
		{"null customerData", `{"loyverseId": "rcpt-001", "customerData": null}`},
		{"empty payload", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockReceiptService{}
			router := newTestRouter(svc)

			w := postAction(router, `{"action": "saveCustomerData", "payload": `+tt.payload+`}`)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Zero(t, svc.saveCalls, "no storage write on validation failure")
		})
	}
}

func TestSaveCustomerDataSuccess(t *testing.T) {
	var savedID string
	var savedData json.RawMessage
	svc := &mockReceiptService{
		saveCustomerDataFunc: func(ctx context.Context, loyverseID string, customerData json.RawMessage) error {
			savedID = loyverseID
			savedData = customerData
			return nil
		},
	}
	router := newTestRouter(svc)

	w := postAction(router, `{"action": "saveCustomerData", "payload": {"loyverseId": "rcpt-001", "customerData": {"name": "Ana"}}}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rcpt-001", savedID)
	assert.JSONEq(t, `{"name": "Ana"}`, string(savedData))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Customer data saved", body["message"])
	// Acknowledgment only, no echo of the stored record
	assert.NotContains(t, w.Body.String(), "Ana")
}

func TestUnexpectedErrorReturnsRawMessage(t *testing.T) {
	svc := &mockReceiptService{
		getReceiptFunc: func(ctx context.Context, number string) (*merge.MergedReceipt, error) {
			return nil, errors.New("annotation store exploded")
		},
	}
	router := newTestRouter(svc)

	w := postAction(router, `{"action": "getReceipt", "payload": {"receiptNumber": "2-1045"}}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "annotation store exploded")
}

func TestDispatchRejectsMalformedBody(t *testing.T) {
	router := newTestRouter(&mockReceiptService{})

	w := postAction(router, `{"action": `)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
