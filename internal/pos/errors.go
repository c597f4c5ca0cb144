package pos

import "fmt"

// NotFoundError reports that the POS system has no receipt for the
// requested number.
type NotFoundError struct {
	Number string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("receipt %s not found", e.Number)
}

// APIError reports a Loyverse API failure other than not-found. The status
// code is passed through to the client verbatim.
type APIError struct {
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("loyverse api returned status %d", e.StatusCode)
}
