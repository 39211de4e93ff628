package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewInterruptHandler(t *testing.T) {
	tests := []struct {
		writer io.Writer
		name   string
	}{
		{
			name:   "with custom writer",
			writer: &bytes.Buffer{},
		},
		{
			name:   "with nil writer",
			writer: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewInterruptHandler(tt.writer)
			assert.NotNil(t, handler)
			assert.NotNil(t, handler.writer)
			assert.False(t, handler.interrupted)
		})
	}
}

func TestInterrupt_CancelsContext(t *testing.T) {
	var output bytes.Buffer
	handler := NewInterruptHandler(&output)

	ctx := handler.HandleInterrupts(context.Background())

	select {
	case <-ctx.Done():
		t.Fatal("Context should not be canceled initially")
	default:
	}

	handler.interrupt()

	<-ctx.Done()
	assert.True(t, handler.WasInterrupted())
	assert.Contains(t, output.String(), "Compliance run interrupted!")
	assert.Contains(t, output.String(), "No report was written.")
}

func TestInterrupt_MessageShownOnce(t *testing.T) {
	var output bytes.Buffer
	handler := NewInterruptHandler(&output)
	_ = handler.HandleInterrupts(context.Background())

	handler.interrupt()
	handler.interrupt()

	assert.Equal(t, 1, strings.Count(output.String(), "Compliance run interrupted!"))
}

func TestParentCancelIsNotAnInterrupt(t *testing.T) {
	handler := NewInterruptHandler(&bytes.Buffer{})
	parent, cancel := context.WithCancel(context.Background())
	ctx := handler.HandleInterrupts(parent)

	cancel()
	<-ctx.Done()

	assert.False(t, handler.WasInterrupted())
}
