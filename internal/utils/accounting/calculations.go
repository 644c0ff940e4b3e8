package accounting

import (
	"fmt"

	"github.com/shadwattai/miniwallet/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CalculateCommission returns amount × rate rounded half away from zero to 2 decimals.
func CalculateCommission(amount, rate decimal.Decimal) decimal.Decimal {
	if rate.IsZero() || !amount.IsPositive() {
		return decimal.Zero
	}
	return amount.Mul(rate).Round(2)
}

// SignedAmount returns the balance delta an entry applies to its account.
// DR (money entering) is positive, CR (money leaving) is negative.
func SignedAmount(e domain.LedgerEntry) decimal.Decimal {
	if e.Entry == domain.Credit {
		return e.AmountCr.Neg()
	}
	return e.AmountDr
}

// ValidateEntries checks that every entry carries exactly one positive side
// and that the debits and credits of the posting sum to the same amount.
func ValidateEntries(entries []domain.LedgerEntry) error {
	if len(entries) < 2 {
		return fmt.Errorf("posting must have at least two entries")
	}

	totalDr, totalCr := decimal.Zero, decimal.Zero
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		totalDr = totalDr.Add(e.AmountDr)
		totalCr = totalCr.Add(e.AmountCr)
	}

	if !totalDr.Equal(totalCr) {
		return fmt.Errorf("entries do not balance: debits %s, credits %s", totalDr.String(), totalCr.String())
	}
	return nil
}

// BalanceDeltas sums the signed amount of every entry per account.
func BalanceDeltas(entries []domain.LedgerEntry) map[string]decimal.Decimal {
	deltas := make(map[string]decimal.Decimal, len(entries))
	for _, e := range entries {
		deltas[e.AcctKey] = deltas[e.AcctKey].Add(SignedAmount(e))
	}
	return deltas
}
