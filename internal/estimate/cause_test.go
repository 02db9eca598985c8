package estimate

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/daryltucker/load-estimator/internal/engine"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestCause(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("%w: no key", engine.ErrMissingCredential), CauseMissingCredential},
		{fmt.Errorf("%w: %w", engine.ErrTransport, context.Canceled), CauseCanceled},
		{fmt.Errorf("%w: %w", engine.ErrTransport, context.DeadlineExceeded), CauseTimeout},
		{fmt.Errorf("%w: %w", engine.ErrTransport, timeoutErr{}), CauseTimeout},
		{fmt.Errorf("%w: connection refused", engine.ErrTransport), CauseTransport},
		{fmt.Errorf("%w: 500", engine.ErrStatus), CauseStatus},
		{engine.ErrEmptyPayload, CauseEmptyPayload},
		{fmt.Errorf("%w: <html>", engine.ErrMalformedResponse), CauseMalformedPayload},
		{fmt.Errorf("%w: eof", ErrMalformedPayload), CauseMalformedPayload},
		{fmt.Errorf("%w: missing", ErrSchemaViolation), CauseSchemaViolation},
		{fmt.Errorf("%w: boom", errPanic), CausePanic},
		{errors.New("?"), CauseUnknown},
	}

	for _, tt := range tests {
		if got := Cause(tt.err); got != tt.want {
			t.Errorf("Cause(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
