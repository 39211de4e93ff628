package common

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/Veraticus/fund-compliance/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    slog.Level
		wantErr bool
	}{
		{name: "debug", input: "debug", want: slog.LevelDebug},
		{name: "empty defaults to info", input: "", want: slog.LevelInfo},
		{name: "warn", input: "warn", want: slog.LevelWarn},
		{name: "error", input: "error", want: slog.LevelError},
		{name: "unknown", input: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, slog.LevelInfo, "json")
	require.NoError(t, err)

	logger.Warn("threshold override ignored", "rule_id", "R001")
	assert.Contains(t, buf.String(), `"rule_id":"R001"`)

	_, err = NewLogger(&buf, slog.LevelInfo, "xml")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestUserError(t *testing.T) {
	base := errors.New("boom")
	err := NewUserError("could not load manifest", base)

	assert.Equal(t, "could not load manifest: boom", err.Error())
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "plain", NewUserError("plain", nil).Error())
}

func TestWithRetry(t *testing.T) {
	opts := service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		}, opts)
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return &RetryableError{Err: errors.New("bad request"), Retryable: false}
		}, opts)
		require.Error(t, err)
		assert.Equal(t, 1, calls)
		assert.False(t, IsRetryable(err))
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		err := WithRetry(context.Background(), func() error {
			return ErrRateLimit
		}, opts)
		assert.ErrorIs(t, err, ErrMaxRetries)
	})
}
