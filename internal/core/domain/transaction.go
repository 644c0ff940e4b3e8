package domain

import (
	"github.com/shopspring/decimal"
)

// TransactionType identifies the kind of economic event a ledger transaction records.
type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
	TransactionTopUp      TransactionType = "topup"
	TransactionTransfer   TransactionType = "transfer"
)

// RefPrefix returns the human-readable reference number prefix for the type.
func (t TransactionType) RefPrefix() string {
	switch t {
	case TransactionDeposit:
		return "TXN"
	case TransactionWithdrawal:
		return "WD"
	case TransactionTopUp:
		return "TU"
	case TransactionTransfer:
		return "TRF"
	default:
		return "TX"
	}
}

// TransactionStatus indicates the state of a ledger transaction.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
	StatusCancelled TransactionStatus = "cancelled"
)

// CanTransitionTo reports whether a posted transaction may move from s to next.
// Status is the only field of a transaction that changes after creation.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusCompleted || next == StatusFailed || next == StatusCancelled
	case StatusCompleted:
		return next == StatusCancelled
	default:
		return false
	}
}

// LedgerTransaction is the header of one economic event.
type LedgerTransaction struct {
	Key             string            `json:"key"`
	RefNumber       string            `json:"refNumber"`
	SenderAcctKey   string            `json:"senderAcctKey"`
	ReceiverAcctKey string            `json:"receiverAcctKey"`
	Description     string            `json:"description"`
	Type            TransactionType   `json:"type"`
	Amount          decimal.Decimal   `json:"amount"`
	CommissionFee   decimal.Decimal   `json:"commissionFee"`
	Status          TransactionStatus `json:"status"`
	Version         int64             `json:"version"`
	AuditFields
	Entries []LedgerEntry `json:"entries,omitempty"` // Loaded on demand
}
