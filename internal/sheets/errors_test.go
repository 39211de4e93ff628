package sheets

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"

	"github.com/Veraticus/fund-compliance/internal/common"
)

func TestClassifyAPIError(t *testing.T) {
	assert.NoError(t, classifyAPIError(nil))

	plain := errors.New("connection reset")
	assert.Equal(t, plain, classifyAPIError(plain))

	rateLimited := classifyAPIError(fmt.Errorf("update: %w", &googleapi.Error{Code: 429}))
	assert.ErrorIs(t, rateLimited, common.ErrRateLimit)
	assert.True(t, common.IsRetryable(rateLimited))

	assert.True(t, common.IsRetryable(classifyAPIError(&googleapi.Error{Code: 503})))
	assert.False(t, common.IsRetryable(classifyAPIError(&googleapi.Error{Code: 403})))
}
