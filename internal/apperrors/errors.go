package apperrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrSchema indicates an unknown table, an unknown column, or access to a restricted table.
var ErrSchema = errors.New("schema error")

// ErrMissingField indicates that required columns were absent from a create payload.
var ErrMissingField = errors.New("missing required fields")

// ErrConcurrencyConflict indicates that a row was modified since it was read.
var ErrConcurrencyConflict = errors.New("record has been modified by another user")

var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrMinimumBalance     = errors.New("minimum balance requirement violated")
	ErrCurrencyMismatch   = errors.New("currency mismatch")
	ErrInactiveAccount    = errors.New("account is inactive")
	ErrInvalidAccountType = errors.New("invalid account type for operation")
	ErrSameWallet         = errors.New("cannot transfer to the same wallet")
	ErrForbidden          = errors.New("forbidden")
	ErrAuditWrite         = errors.New("audit trail write failed")
)

// NotFoundError names the table (or entity) and key that could not be resolved.
type NotFoundError struct {
	Table string
	Key   string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: no matching row in %s", ErrNotFound, e.Table)
	}
	return fmt.Sprintf("%s: %s with key %s", ErrNotFound, e.Table, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// SchemaError reports a metadata problem for a table.
type SchemaError struct {
	Table  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrSchema, e.Table, e.Reason)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// MissingFieldError lists the required columns absent from a payload, in column order.
type MissingFieldError struct {
	Table  string
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s for %s: %s", ErrMissingField, e.Table, strings.Join(e.Fields, ", "))
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// DuplicateError reports a uniqueness constraint group collision.
type DuplicateError struct {
	Table  string
	Fields []string
	Values []any
}

func (e *DuplicateError) Error() string {
	vals := make([]string, len(e.Values))
	for i, v := range e.Values {
		vals[i] = fmt.Sprint(v)
	}
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s in %s", ErrDuplicate, e.Table)
	}
	return fmt.Sprintf("%s: another record with %s '%s' already exists in %s",
		ErrDuplicate, strings.Join(e.Fields, ", "), strings.Join(vals, ", "), e.Table)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// ConcurrencyConflictError is returned when a compare-and-swap write loses.
type ConcurrencyConflictError struct {
	Table    string
	Key      string
	Expected int64
	Current  int64
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("%s: %s/%s expected version %d, current version %d",
		ErrConcurrencyConflict, e.Table, e.Key, e.Expected, e.Current)
}

func (e *ConcurrencyConflictError) Unwrap() error { return ErrConcurrencyConflict }

type InsufficientFundsError struct {
	AccountKey string
	Balance    decimal.Decimal
	Required   decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("%s: account %s has %s, requires %s",
		ErrInsufficientFunds, e.AccountKey, e.Balance.StringFixed(2), e.Required.StringFixed(2))
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

type MinimumBalanceViolationError struct {
	AccountKey string
	Balance    decimal.Decimal
	Debit      decimal.Decimal
	MinBalance decimal.Decimal
}

func (e *MinimumBalanceViolationError) Error() string {
	return fmt.Sprintf("%s: account %s balance %s minus %s falls below minimum %s",
		ErrMinimumBalance, e.AccountKey, e.Balance.StringFixed(2), e.Debit.StringFixed(2), e.MinBalance.StringFixed(2))
}

func (e *MinimumBalanceViolationError) Unwrap() error { return ErrMinimumBalance }

type CurrencyMismatchError struct {
	Source string
	Target string
}

func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf("%s: %s to %s", ErrCurrencyMismatch, e.Source, e.Target)
}

func (e *CurrencyMismatchError) Unwrap() error { return ErrCurrencyMismatch }

type InactiveAccountError struct {
	AccountKey string
}

func (e *InactiveAccountError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInactiveAccount, e.AccountKey)
}

func (e *InactiveAccountError) Unwrap() error { return ErrInactiveAccount }

type InvalidAccountTypeError struct {
	AccountKey string
	Got        string
	Want       []string
}

func (e *InvalidAccountTypeError) Error() string {
	return fmt.Sprintf("%s: account %s is %s, expected %s",
		ErrInvalidAccountType, e.AccountKey, e.Got, strings.Join(e.Want, " or "))
}

func (e *InvalidAccountTypeError) Unwrap() error { return ErrInvalidAccountType }

// AuditWriteFailure is logged, never returned to callers of the CRUD engine.
type AuditWriteFailure struct {
	Action string
	Table  string
	Err    error
}

func (e *AuditWriteFailure) Error() string {
	return fmt.Sprintf("%s: action %s on %s: %v", ErrAuditWrite, e.Action, e.Table, e.Err)
}

func (e *AuditWriteFailure) Unwrap() []error { return []error{ErrAuditWrite, e.Err} }

// AppError wraps infrastructure failures (begin, commit, driver errors) with a status code.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }
