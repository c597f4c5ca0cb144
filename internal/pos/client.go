package pos

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// MaxPageSize is the largest page the Loyverse receipts API serves in one
// call. The date-range query requests exactly one page of this size.
const MaxPageSize = 250

const expandParam = "line_items,payments"

// HTTPClient interface for testability
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds Loyverse client configuration
type Config struct {
	BaseURL  string
	APIToken string
}

// Client calls the Loyverse receipts API
type Client struct {
	baseURL    string
	apiToken   string
	httpClient HTTPClient
	logger     *zap.Logger
}

// NewClient creates a new Loyverse client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiToken:   cfg.APIToken,
		httpClient: http.DefaultClient,
		logger:     logger,
	}
}

// GetReceipt fetches a single receipt with its line items and payments.
// The number is used verbatim as the lookup path segment.
func (c *Client) GetReceipt(ctx context.Context, number string) (*Receipt, error) {
	endpoint := fmt.Sprintf("%s/receipts/%s?expand=%s", c.baseURL, url.PathEscape(number), url.QueryEscape(expandParam))

	body, err := c.get(ctx, endpoint, number)
	if err != nil {
		return nil, err
	}

	var receipt Receipt
	if err := json.Unmarshal(body, &receipt); err != nil {
		return nil, fmt.Errorf("failed to decode receipt %s: %w", number, err)
	}

	c.logger.Debug("Fetched receipt",
		zap.String("receipt_number", receipt.ReceiptNumber),
		zap.String("receipt_id", receipt.ID))

	return &receipt, nil
}

// ListReceipts fetches the first page of receipts created within
// [createdAtMin, createdAtMax]. Either bound may be nil to leave the range
// open on that side.
func (c *Client) ListReceipts(ctx context.Context, createdAtMin, createdAtMax *time.Time) ([]Receipt, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(MaxPageSize))
	params.Set("expand", expandParam)
	if createdAtMin != nil {
		params.Set("created_at_min", createdAtMin.Format(time.RFC3339))
	}
	if createdAtMax != nil {
		params.Set("created_at_max", createdAtMax.Format(time.RFC3339))
	}

	endpoint := fmt.Sprintf("%s/receipts?%s", c.baseURL, params.Encode())

	body, err := c.get(ctx, endpoint, "")
	if err != nil {
		return nil, err
	}

	var list receiptListResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to decode receipt list: %w", err)
	}

	c.logger.Debug("Fetched receipt page", zap.Int("count", len(list.Receipts)))

	return list.Receipts, nil
}

// get performs an authenticated GET and maps non-2xx responses to typed
// errors. number is only used to name the receipt in a NotFoundError.
func (c *Client) get(ctx context.Context, endpoint, number string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiToken))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Loyverse request failed",
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return nil, fmt.Errorf("loyverse request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{Number: number}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Loyverse returned error status",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode))
		return nil, &APIError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}
