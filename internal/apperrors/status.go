package apperrors

import (
	"errors"
	"net/http"
)

// HTTPStatus maps an error kind to the status code the HTTP boundary responds with.
func HTTPStatus(err error) int {
	var appErr *AppError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrConcurrencyConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation), errors.Is(err, ErrMissingField), errors.Is(err, ErrSchema),
		errors.Is(err, ErrSameWallet), errors.Is(err, ErrInvalidAccountType), errors.Is(err, ErrCurrencyMismatch):
		return http.StatusBadRequest
	case errors.Is(err, ErrInsufficientFunds), errors.Is(err, ErrMinimumBalance), errors.Is(err, ErrInactiveAccount):
		return http.StatusUnprocessableEntity
	case errors.As(err, &appErr) && appErr.Code != 0:
		return appErr.Code
	default:
		return http.StatusInternalServerError
	}
}

// Kind returns a short machine-readable label for the error's category.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrSchema):
		return "schema"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrConcurrencyConflict):
		return "concurrency_conflict"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrMinimumBalance):
		return "minimum_balance_violation"
	case errors.Is(err, ErrCurrencyMismatch):
		return "currency_mismatch"
	case errors.Is(err, ErrInactiveAccount):
		return "inactive_account"
	case errors.Is(err, ErrInvalidAccountType):
		return "invalid_account_type"
	case errors.Is(err, ErrSameWallet):
		return "same_wallet"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}
