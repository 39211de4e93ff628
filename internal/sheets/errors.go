package sheets

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/Veraticus/fund-compliance/internal/common"
)

// classifyAPIError marks Sheets API failures for common.WithRetry: rate
// limits and server errors are retried, other client errors are not.
func classifyAPIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", common.ErrRateLimit, err)
	case apiErr.Code >= http.StatusInternalServerError:
		return &common.RetryableError{Err: err, Retryable: true}
	default:
		return &common.RetryableError{Err: err, Retryable: false}
	}
}
