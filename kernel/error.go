// Package kernel holds the types shared by every kernel package.
package kernel

// Error is the error type returned by kernel code. Errors are declared as
// package-level pointers and compared by identity: without a heap there is
// no errors.New and no formatting of dynamic messages.
type Error struct {
	// Module names the package that reported the error.
	Module string

	// Message is a static description of the failure.
	Message string
}

// Error implements the error interface. It returns Message unchanged since
// joining it with Module would allocate.
func (e *Error) Error() string {
	return e.Message
}
