package screener

import (
	"fmt"

	"github.com/spigell/resume-screener/internal/ai"
)

// TransportError is a failed model call. See ai.TransportError.
type TransportError = ai.TransportError

// CallerContractError reports an argument that breaks a precondition of an
// operation. It is never retried.
type CallerContractError struct {
	Operation string
	Argument  string
	Reason    string
}

func (e *CallerContractError) Error() string {
	return fmt.Sprintf("%s: %s %s", e.Operation, e.Argument, e.Reason)
}
