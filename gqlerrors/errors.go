package gqlerrors

import (
	"errors"
	"fmt"
)

// ServerErrorKey is the reserved error-map key for transport-level and
// top-level failures, as opposed to errors scoped to a single query name.
const ServerErrorKey = "serverError"

// Sentinel errors for the fatal (pre-network) failure modes.
var (
	// ErrNotConfigured is returned when an operation is attempted
	// before an endpoint URL has been configured.
	ErrNotConfigured = errors.New("gqlfront: endpoint url not configured")

	// ErrInvalidEntry is returned when a query registration is
	// structurally invalid.
	ErrInvalidEntry = errors.New("gqlfront: invalid query entry")
)

// ValidationError reports a structurally invalid registration or a composed
// document that failed syntax checking. It is returned synchronously, never
// through the error map.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidEntry
}

// Fault is a server-reported failure carried in the error map. Faults on the
// serverError channel have Code set to ServerErrorKey; faults scoped to a
// query name carry that name as Code.
type Fault struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (f Fault) Error() string { return f.Message }

// ServerFault builds a Fault for the serverError channel.
func ServerFault(message string) Fault {
	return Fault{Message: message, Code: ServerErrorKey}
}
