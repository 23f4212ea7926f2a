package repository

import "fmt"

// StoreExecutionError is any provider failure of a store call other than a parameter
// binding mismatch during probing.
type StoreExecutionError struct {
	Operation string
	Procedure string
	Err       error
}

func (e *StoreExecutionError) Error() string {
	return fmt.Sprintf("store call %s failed during %s: %v", e.Procedure, e.Operation, e.Err)
}

func (e *StoreExecutionError) Unwrap() error {
	return e.Err
}
