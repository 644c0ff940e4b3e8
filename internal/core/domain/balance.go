package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceHistory is one running-balance snapshot written alongside a balance update.
type BalanceHistory struct {
	Key            string          `json:"key"`
	AcctKey        string          `json:"acctKey"`
	TrxnKey        string          `json:"trxnKey"`
	PrevBalance    decimal.Decimal `json:"prevBalance"`
	TrxnAmount     decimal.Decimal `json:"trxnAmount"` // Signed: negative when money left the account
	RunningBalance decimal.Decimal `json:"runningBalance"`
	CreatedAt      time.Time       `json:"createdAt"`
	CreatedBy      string          `json:"createdBy"`
}
