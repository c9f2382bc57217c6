package services

import (
	"errors"
	"fmt"

	"smartexpense/internal/api"
)

// Steps of a mutation.
const (
	StepMutate  = "mutate"
	StepRefresh = "refresh"
)

// StepError tells callers whether the mutation itself or the follow-up list
// read failed. Only the read is allowed to end the session.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// IsRefreshFailure reports whether err came from the list read after a mutation.
func IsRefreshFailure(err error) bool {
	var se *StepError
	return errors.As(err, &se) && se.Step == StepRefresh
}

// EndsSession reports whether err must force a logout: a 401 from any read.
// A 401 from the mutation call is shown as an ordinary failure.
func EndsSession(err error) bool {
	if !api.IsUnauthorized(err) {
		return false
	}
	var se *StepError
	if errors.As(err, &se) {
		return se.Step == StepRefresh
	}
	return true
}
