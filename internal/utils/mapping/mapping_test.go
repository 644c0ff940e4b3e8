package mapping

import (
	"testing"
	"time"

	"github.com/shadwattai/miniwallet/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainAccount(t *testing.T) {
	created := time.Date(2025, 5, 15, 9, 0, 0, 0, time.UTC)
	rec := domain.Record{
		"key":            "k1",
		"user_key":       "alice",
		"bank_key":       nil,
		"account_number": "WLT12345678",
		"account_name":   "Main",
		"account_type":   "wallet",
		"currency":       "AED",
		"balance":        "500.00",
		"is_active":      true,
		"is_default":     int64(0),
		"version":        int64(3),
		"created_at":     created,
		"created_by":     "alice",
		"updated_at":     created.Add(time.Minute),
		"updated_by":     "alice",
		"deleted_at":     nil,
	}

	a, err := ToDomainAccount(rec)
	require.NoError(t, err)
	assert.Equal(t, "k1", a.Key)
	assert.Equal(t, domain.AccountTypeWallet, a.AccountType)
	assert.True(t, decimal.NewFromInt(500).Equal(a.Balance))
	assert.True(t, a.IsActive)
	assert.False(t, a.IsDefault)
	assert.Equal(t, int64(3), a.Version)
	assert.Equal(t, created, a.CreatedAt)
	assert.False(t, a.IsDeleted())
	assert.Empty(t, a.BankKey)

	back := ToAccountRecord(a)
	assert.Equal(t, "500.00", back["balance"])
	assert.Equal(t, "wallet", back["account_type"])
	assert.NotContains(t, back, "bank_key")
}

func TestToDomainAccount_BadValues(t *testing.T) {
	_, err := ToDomainAccount(domain.Record{"key": "k1", "balance": "lots", "version": "v2"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "column balance")
	assert.ErrorContains(t, err, "column version")
}

func TestTransactionAndEntryMapping(t *testing.T) {
	txn, err := ToDomainTransaction(domain.Record{
		"key": "t1", "ref_number": "TRF0123456789AB1747299600", "type": "transfer",
		"amount": "100.00", "commission_fee": "1.50", "status": "completed", "version": int64(1),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTransfer, txn.Type)
	assert.True(t, decimal.RequireFromString("1.5").Equal(txn.CommissionFee))

	entry := domain.NewCreditEntry("a1", decimal.RequireFromString("101.5"), "transfer")
	rec := ToEntryRecord("t1", entry)
	assert.Equal(t, "101.50", rec["amount_cr"])
	assert.Equal(t, "0.00", rec["amount_dr"])
	assert.Equal(t, "CR", rec["entry"])

	back, err := ToDomainEntry(domain.Record{"key": "e1", "trxn_key": "t1", "acct_key": "a1", "entry": "CR",
		"amount_dr": "0.00", "amount_cr": rec["amount_cr"]})
	require.NoError(t, err)
	assert.NoError(t, back.Validate())
}

func TestBalanceHistoryMapping(t *testing.T) {
	h := domain.BalanceHistory{
		AcctKey: "a1", TrxnKey: "t1",
		PrevBalance:    decimal.NewFromInt(500),
		TrxnAmount:     decimal.RequireFromString("-101.5"),
		RunningBalance: decimal.RequireFromString("398.5"),
	}
	rec := ToBalanceHistoryRecord(h)
	assert.Equal(t, "-101.50", rec["trxn_amount"])
	assert.Equal(t, "398.50", rec["running_balance"])

	rec["key"] = "b1"
	back, err := ToDomainBalanceHistory(domain.Record(rec))
	require.NoError(t, err)
	assert.True(t, h.RunningBalance.Equal(back.RunningBalance))
}
