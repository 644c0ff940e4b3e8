package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType defines what a ledger account is used for.
type AccountType string

const (
	AccountTypeWallet     AccountType = "wallet"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeInitial    AccountType = "initial"    // External funding boundary, one per user
	AccountTypeCommission AccountType = "commission" // Collects transfer fees, one per currency
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeWallet, AccountTypeSavings, AccountTypeInitial, AccountTypeCommission:
		return true
	}
	return false
}

// Account is a ledger-bearing record owned by exactly one user.
type Account struct {
	Key           string          `json:"key"`
	UserKey       string          `json:"userKey"`
	BankKey       string          `json:"bankKey,omitempty"`
	AccountNumber string          `json:"accountNumber"`
	AccountName   string          `json:"accountName"`
	AccountType   AccountType     `json:"accountType"`
	Currency      string          `json:"currency"`
	Balance       decimal.Decimal `json:"balance"`
	IsActive      bool            `json:"isActive"`
	IsDefault     bool            `json:"isDefault"`
	Version       int64           `json:"version"`
	AuditFields
}

// IsSystem reports whether the account is an internal bookkeeping account
// hidden from wallet listings.
func (a Account) IsSystem() bool {
	return a.AccountType == AccountTypeInitial || a.AccountType == AccountTypeCommission
}

// TracksBalance reports whether postings mutate the stored balance.
// The initial account only marks where money enters and leaves the system.
func (a Account) TracksBalance() bool {
	return a.AccountType != AccountTypeInitial
}
