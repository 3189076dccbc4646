// Package errors holds errors shared by the service wiring.
package errors

// NilConfigError is returned by constructors that require a parsed config.
type NilConfigError struct{}

func (e *NilConfigError) Error() string {
	return "config can not be nil"
}
