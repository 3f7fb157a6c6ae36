package execute

import (
	"fmt"
	"sort"
	"strings"
)

// InvocationError reports a bad invocation request: an unknown command name
// or a missing required parameter. It is always raised before any process
// is spawned.
type InvocationError struct {
	Message string
}

func (e *InvocationError) Error() string { return e.Message }

func unknownCommandError(name string, available []string) *InvocationError {
	sort.Strings(available)
	return &InvocationError{
		Message: fmt.Sprintf("command %q not found. Available: [%s]", name, strings.Join(available, ", ")),
	}
}

func missingParamsError(missing []string) *InvocationError {
	return &InvocationError{
		Message: fmt.Sprintf("missing required parameters: [%s]", strings.Join(missing, ", ")),
	}
}
