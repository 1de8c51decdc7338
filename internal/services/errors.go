package services

import "errors"

var (
	// ErrForbidden indicates the caller's role or ownership does not
	// authorize the operation
	ErrForbidden = errors.New("access denied")

	// ErrDriverNotApproved indicates the driver has not been approved by
	// an admin
	ErrDriverNotApproved = errors.New("driver not approved")

	// ErrDriverNotAvailable indicates the driver is busy or offline
	ErrDriverNotAvailable = errors.New("driver not available")

	// ErrGateway indicates an upstream service (payment gateway) failed
	ErrGateway = errors.New("upstream gateway failure")

	// ErrValidation wraps request payload validation failures
	ErrValidation = errors.New("invalid request")
)

// validationError tags err as a payload validation failure
func validationError(err error) error {
	return &wrappedValidation{err: err}
}

type wrappedValidation struct {
	err error
}

func (w *wrappedValidation) Error() string { return w.err.Error() }

func (w *wrappedValidation) Unwrap() error { return w.err }

// Is lets errors.Is(err, ErrValidation) match any tagged error
func (w *wrappedValidation) Is(target error) bool { return target == ErrValidation }
