package qmcsim

// errors.go holds the two failure channels of the simulator.  Problems with
// input descriptions are ordinary error values returned to the caller.
// Violations of the model's invariants (a core over capacity, a lookup of an
// unmapped qubit, an inadmissible first gate in an admission round) are
// defects of the configuration being simulated; they are raised as a panic
// carrying an *InvariantError and converted back to an error only at the
// top of a simulation run.

import (
	"errors"
	"fmt"
	"strings"
)

// InvariantError describes a violated simulation invariant.  Op names the
// operation that detected it.
type InvariantError struct {
	Op  string
	Msg string
}

func (ie *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated in %s: %s", ie.Op, ie.Msg)
}

// invariantf aborts the current simulation run
func invariantf(op string, format string, args ...any) {
	panic(&InvariantError{Op: op, Msg: fmt.Sprintf(format, args...)})
}

// IsInvariantError reports whether err carries an *InvariantError
func IsInvariantError(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}

// LoadError wraps a failure to load one of the simulator's input descriptions.
// Kind is one of "circuit", "architecture", "parameters".
type LoadError struct {
	Kind string
	File string
	Err  error
}

func (le *LoadError) Error() string {
	return fmt.Sprintf("error reading %s file %s: %v", le.Kind, le.File, le.Err)
}

func (le *LoadError) Unwrap() error {
	return le.Err
}

// ReportErrs transforms a list of errors and transforms the non-nil ones into a single error
// with comma-separated report of all the constituent errors, and returns it.
func ReportErrs(errs []error) error {
	errMsg := make([]string, 0)
	for _, err := range errs {
		if err != nil {
			errMsg = append(errMsg, err.Error())
		}
	}
	if len(errMsg) == 0 {
		return nil
	}

	return errors.New(strings.Join(errMsg, ","))
}
