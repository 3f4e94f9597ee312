package domain

import "errors"

// Domain errors
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrGameNotFound        = errors.New("game not found")
	ErrGiftNotFound        = errors.New("gift not found")
	ErrInvalidActionKind   = errors.New("invalid action kind")
	ErrInvalidPoints       = errors.New("points must be positive")
	ErrInvalidPointCost    = errors.New("point cost must be positive")
	ErrInvalidStock        = errors.New("stock cannot be negative")
	ErrPointsNotSupported  = errors.New("game does not support points")
	ErrAlreadyAwarded      = errors.New("points already awarded for this action")
	ErrOutOfStock          = errors.New("gift is out of stock")
	ErrInsufficientBalance = errors.New("insufficient balance to redeem this gift")
	ErrStoreFailure        = errors.New("store failure")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInternalError       = errors.New("internal server error")
)

// IsNotFound checks if an error is a not-found type error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrGameNotFound) ||
		errors.Is(err, ErrGiftNotFound)
}

// IsInvalidArgument checks if an error is a request-validation type error
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidActionKind) ||
		errors.Is(err, ErrInvalidPoints) ||
		errors.Is(err, ErrInvalidPointCost) ||
		errors.Is(err, ErrInvalidStock) ||
		errors.Is(err, ErrPointsNotSupported) ||
		errors.Is(err, ErrInvalidRequest)
}

// IsConflict checks if an error is a business-rule rejection against current
// state rather than a hard failure
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyAwarded) ||
		errors.Is(err, ErrOutOfStock) ||
		errors.Is(err, ErrInsufficientBalance)
}
