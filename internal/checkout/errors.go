package checkout

import "errors"

// Rejections are checked in this order and never write anything.
var (
	ErrNotLoggedIn        = errors.New("must be logged in")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidCart        = errors.New("invalid cart contents")
	ErrIncompleteShipping = errors.New("shipping details are incomplete")
)

var (
	ErrSubmissionInFlight = errors.New("a checkout is already being submitted")
	ErrSubmissionFailed   = errors.New("failed to place order, please retry")
)

// IsRejection reports whether err is a precondition rejection rather than an I/O failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrNotLoggedIn) ||
		errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrInvalidCart) ||
		errors.Is(err, ErrIncompleteShipping)
}
