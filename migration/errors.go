package migration

import "fmt"

// ErrorKind classifies why a step failed.
type ErrorKind string

const (
	KindConnection ErrorKind = "connection"
	KindQuery      ErrorKind = "query"
	KindTransform  ErrorKind = "transform"
	KindInsert     ErrorKind = "insert"
)

// StepError is the only error Importer.Run returns for a failed step.
type StepError struct {
	Step string
	Kind ErrorKind
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed (%s error): %v", e.Step, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func stepError(step string, kind ErrorKind, err error) *StepError {
	return &StepError{Step: step, Kind: kind, Err: err}
}
