package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// EntrySide is the debit/credit marker of a ledger entry.
type EntrySide string

const (
	Debit  EntrySide = "DR" // Money entering the account
	Credit EntrySide = "CR" // Money leaving the account
)

// LedgerEntry is one side of a posting against a single account.
type LedgerEntry struct {
	Key         string          `json:"key"`
	TrxnKey     string          `json:"trxnKey"`
	AcctKey     string          `json:"acctKey"`
	Description string          `json:"description"`
	Entry       EntrySide       `json:"entry"`
	AmountDr    decimal.Decimal `json:"amountDr"`
	AmountCr    decimal.Decimal `json:"amountCr"`
	Version     int64           `json:"version"`
	AuditFields
}

// NewDebitEntry builds a DR entry for money entering acctKey.
func NewDebitEntry(acctKey string, amount decimal.Decimal, description string) LedgerEntry {
	return LedgerEntry{AcctKey: acctKey, Entry: Debit, AmountDr: amount, AmountCr: decimal.Zero, Description: description}
}

// NewCreditEntry builds a CR entry for money leaving acctKey.
func NewCreditEntry(acctKey string, amount decimal.Decimal, description string) LedgerEntry {
	return LedgerEntry{AcctKey: acctKey, Entry: Credit, AmountDr: decimal.Zero, AmountCr: amount, Description: description}
}

// Amount returns the positive side of the entry.
func (e LedgerEntry) Amount() decimal.Decimal {
	if e.Entry == Debit {
		return e.AmountDr
	}
	return e.AmountCr
}

// Validate enforces that exactly one side is positive and the other exactly zero,
// and that the side marker agrees with it.
func (e LedgerEntry) Validate() error {
	if e.AcctKey == "" {
		return errors.New("ledger entry requires an account key")
	}
	drPositive := e.AmountDr.IsPositive() && e.AmountCr.IsZero()
	crPositive := e.AmountCr.IsPositive() && e.AmountDr.IsZero()
	switch {
	case drPositive && e.Entry == Debit:
		return nil
	case crPositive && e.Entry == Credit:
		return nil
	case !drPositive && !crPositive:
		return fmt.Errorf("ledger entry for account %s must carry exactly one positive side (dr=%s, cr=%s)",
			e.AcctKey, e.AmountDr.String(), e.AmountCr.String())
	default:
		return fmt.Errorf("ledger entry for account %s is marked %s but carries the other side", e.AcctKey, e.Entry)
	}
}
