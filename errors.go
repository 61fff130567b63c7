package autocmd

import (
	"fmt"

	"github.com/pkg/errors"
)

// Exit codes returned by App.Run.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// SpecError reports an argument that could not be constructed, usually
// because of a malformed override.
type SpecError struct {
	Command string
	Param   string
	Err     error
}

func (e *SpecError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s: argument %s: %v", e.Command, e.Param, e.Err)
}

// Cause returns the underlying error.
func (e *SpecError) Cause() error { return e.Err }

func (e *SpecError) Unwrap() error { return e.Err }

// UsageError reports command-line arguments that could not be parsed.
type UsageError struct {
	// Usage is the usage line of the parser that rejected the arguments.
	Usage string
	Err   error
}

func (e *UsageError) Error() string { return e.Err.Error() }

// Cause returns the underlying error.
func (e *UsageError) Cause() error { return e.Err }

func (e *UsageError) Unwrap() error { return e.Err }

// DispatchError reports that no command could be selected.
type DispatchError struct {
	Usage  string
	Reason string
}

func (e *DispatchError) Error() string { return e.Reason }

// CommandError wraps a failure raised by a command: either the error it
// returned, or a panic.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string { return e.Err.Error() }

// Cause returns the error raised by the command.
func (e *CommandError) Cause() error { return e.Err }

func (e *CommandError) Unwrap() error { return e.Err }

// Format prints the message only, except for %+v, which adds whatever
// trace the underlying error carries.
func (e *CommandError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "%s: %T: %+v", e.Command, errors.Cause(e.Err), e.Err)
		return
	}
	fmt.Fprint(s, e.Error())
}

// ExitCode maps an error reported by App.Run to the exit code Run returns.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var cerr *CommandError
	if errors.As(err, &cerr) {
		return ExitFailure
	}
	return ExitUsage
}
