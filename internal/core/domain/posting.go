package domain

import "github.com/shopspring/decimal"

// BalanceResult is returned from postings that move a single user account,
// deposits and withdrawals.
type BalanceResult struct {
	RefNumber  string          `json:"refNumber"`
	NewBalance decimal.Decimal `json:"newBalance"`
}

// TopUpResult is returned from a successful savings to wallet top-up.
type TopUpResult struct {
	RefNumber        string          `json:"refNumber"`
	NewSourceBalance decimal.Decimal `json:"newSourceBalance"`
	NewTargetBalance decimal.Decimal `json:"newTargetBalance"`
}

// TransferResult is returned from a successful wallet to wallet transfer.
type TransferResult struct {
	RefNumber          string          `json:"refNumber"`
	CommissionFee      decimal.Decimal `json:"commissionFee"`
	NewSenderBalance   decimal.Decimal `json:"newSenderBalance"`
	NewReceiverBalance decimal.Decimal `json:"newReceiverBalance"`
}
