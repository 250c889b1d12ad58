package errors

import (
	"context"
	goerrors "errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyNil(t *testing.T) {
	assert.Empty(t, Classify(nil))
}

func TestClassifyUnwrapsToInnermost(t *testing.T) {
	inner := &net.OpError{Op: "dial"}
	wrapped := fmt.Errorf("connect database: %w", fmt.Errorf("retry 3: %w", inner))
	assert.Equal(t, "net_operror", Classify(wrapped))
}

func TestClassifyPlainError(t *testing.T) {
	assert.Equal(t, "errors_errorstring", Classify(goerrors.New("boom")))
}

func TestClassifyContextErrors(t *testing.T) {
	assert.Equal(t, "canceled", Classify(context.Canceled))
	assert.Equal(t, "deadline_exceeded", Classify(context.DeadlineExceeded))

	wrapped := fmt.Errorf("await persist stage: %w", context.Canceled)
	assert.Equal(t, "canceled", Classify(wrapped))
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return false }

func TestClassifyNetTimeout(t *testing.T) {
	assert.Equal(t, "net_timeout", Classify(fmt.Errorf("read series: %w", timeoutErr{})))
}
