/*
PURPOSE:
  Maps resolution errors to the stable cause labels written to the log and
  the journal.

IMPLEMENTATION RULES:
  - Order matters: cancellation and timeouts are checked before the
    transport sentinel that usually wraps them.

RELATED FILES:
  - internal/engine/errors.go
  - internal/estimate/parse.go
*/

package estimate

import (
	"context"
	"errors"
	"net"

	"github.com/daryltucker/load-estimator/internal/engine"
)

// Failure causes recorded on the operator side-channel. Users only ever see
// the fallback estimate, whatever the cause.
const (
	CauseMissingCredential = "missing_credential"
	CauseTimeout           = "timeout"
	CauseCanceled          = "canceled"
	CauseTransport         = "transport"
	CauseStatus            = "status"
	CauseEmptyPayload      = "empty_payload"
	CauseMalformedPayload  = "malformed_payload"
	CauseSchemaViolation   = "schema_violation"
	CausePanic             = "panic"
	CauseUnknown           = "unknown"
)

// errPanic marks a recovered provider panic.
var errPanic = errors.New("provider panicked")

// Cause maps a resolution error to one of the Cause* labels.
func Cause(err error) string {
	var netErr net.Error
	switch {
	case err == nil:
		return ""
	case errors.Is(err, engine.ErrMissingCredential):
		return CauseMissingCredential
	case errors.Is(err, context.Canceled):
		return CauseCanceled
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return CauseTimeout
	case errors.Is(err, engine.ErrTransport):
		return CauseTransport
	case errors.Is(err, engine.ErrStatus):
		return CauseStatus
	case errors.Is(err, engine.ErrEmptyPayload):
		return CauseEmptyPayload
	case errors.Is(err, ErrMalformedPayload), errors.Is(err, engine.ErrMalformedResponse):
		return CauseMalformedPayload
	case errors.Is(err, ErrSchemaViolation):
		return CauseSchemaViolation
	case errors.Is(err, errPanic):
		return CausePanic
	default:
		return CauseUnknown
	}
}
