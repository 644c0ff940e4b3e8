package mapping

import (
	"fmt"

	"github.com/shadwattai/miniwallet/internal/core/domain"
	"github.com/shadwattai/miniwallet/internal/utils"
)

// ToDomainTransaction converts a wlt_transactions record to a domain LedgerTransaction
func ToDomainTransaction(r domain.Record) (domain.LedgerTransaction, error) {
	rr := newReader(r)
	t := domain.LedgerTransaction{
		Key:             rr.str("key"),
		RefNumber:       rr.str("ref_number"),
		SenderAcctKey:   rr.str("sender_acct_key"),
		ReceiverAcctKey: rr.str("receiver_acct_key"),
		Description:     rr.str("description"),
		Type:            domain.TransactionType(rr.str("type")),
		Amount:          rr.dec("amount"),
		CommissionFee:   rr.dec("commission_fee"),
		Status:          domain.TransactionStatus(rr.str("status")),
		Version:         rr.int64("version"),
		AuditFields:     auditFields(rr),
	}
	if err := rr.err(); err != nil {
		return domain.LedgerTransaction{}, fmt.Errorf("failed to map transaction %s: %w", t.Key, err)
	}
	return t, nil
}

// ToTransactionRecord converts a domain LedgerTransaction to the writable columns of wlt_transactions
func ToTransactionRecord(t domain.LedgerTransaction) map[string]any {
	return map[string]any{
		"ref_number":        t.RefNumber,
		"sender_acct_key":   t.SenderAcctKey,
		"receiver_acct_key": t.ReceiverAcctKey,
		"description":       t.Description,
		"type":              string(t.Type),
		"amount":            utils.FormatMoney(t.Amount),
		"commission_fee":    utils.FormatMoney(t.CommissionFee),
		"status":            string(t.Status),
	}
}

// ToDomainEntry converts a wlt_transactions_details record to a domain LedgerEntry
func ToDomainEntry(r domain.Record) (domain.LedgerEntry, error) {
	rr := newReader(r)
	e := domain.LedgerEntry{
		Key:         rr.str("key"),
		TrxnKey:     rr.str("trxn_key"),
		AcctKey:     rr.str("acct_key"),
		Description: rr.str("description"),
		Entry:       domain.EntrySide(rr.str("entry")),
		AmountDr:    rr.dec("amount_dr"),
		AmountCr:    rr.dec("amount_cr"),
		Version:     rr.int64("version"),
		AuditFields: auditFields(rr),
	}
	if err := rr.err(); err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("failed to map ledger entry %s: %w", e.Key, err)
	}
	return e, nil
}

// ToEntryRecord converts a domain LedgerEntry to the writable columns of wlt_transactions_details
func ToEntryRecord(trxnKey string, e domain.LedgerEntry) map[string]any {
	return map[string]any{
		"trxn_key":    trxnKey,
		"acct_key":    e.AcctKey,
		"description": e.Description,
		"entry":       string(e.Entry),
		"amount_dr":   utils.FormatMoney(e.AmountDr),
		"amount_cr":   utils.FormatMoney(e.AmountCr),
	}
}

// ToDomainBalanceHistory converts a wlt_accounts_balances record to a domain BalanceHistory
func ToDomainBalanceHistory(r domain.Record) (domain.BalanceHistory, error) {
	rr := newReader(r)
	h := domain.BalanceHistory{
		Key:            rr.str("key"),
		AcctKey:        rr.str("acct_key"),
		TrxnKey:        rr.str("trxn_key"),
		PrevBalance:    rr.dec("prev_balance"),
		TrxnAmount:     rr.dec("trxn_amount"),
		RunningBalance: rr.dec("running_balance"),
		CreatedAt:      rr.time("created_at"),
		CreatedBy:      rr.str("created_by"),
	}
	if err := rr.err(); err != nil {
		return domain.BalanceHistory{}, fmt.Errorf("failed to map balance history %s: %w", h.Key, err)
	}
	return h, nil
}

// ToBalanceHistoryRecord converts a domain BalanceHistory to the writable columns of wlt_accounts_balances
func ToBalanceHistoryRecord(h domain.BalanceHistory) map[string]any {
	return map[string]any{
		"acct_key":        h.AcctKey,
		"trxn_key":        h.TrxnKey,
		"prev_balance":    utils.FormatMoney(h.PrevBalance),
		"trxn_amount":     utils.FormatMoney(h.TrxnAmount),
		"running_balance": utils.FormatMoney(h.RunningBalance),
	}
}
