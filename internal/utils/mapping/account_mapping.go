package mapping

import (
	"fmt"

	"github.com/shadwattai/miniwallet/internal/core/domain"
	"github.com/shadwattai/miniwallet/internal/utils"
)

// ToDomainAccount converts a wlt_accounts record to a domain Account
func ToDomainAccount(r domain.Record) (domain.Account, error) {
	rr := newReader(r)
	a := domain.Account{
		Key:           rr.str("key"),
		UserKey:       rr.str("user_key"),
		BankKey:       rr.str("bank_key"),
		AccountNumber: rr.str("account_number"),
		AccountName:   rr.str("account_name"),
		AccountType:   domain.AccountType(rr.str("account_type")),
		Currency:      rr.str("currency"),
		Balance:       rr.dec("balance"),
		IsActive:      rr.boolean("is_active"),
		IsDefault:     rr.boolean("is_default"),
		Version:       rr.int64("version"),
		AuditFields:   auditFields(rr),
	}
	if err := rr.err(); err != nil {
		return domain.Account{}, fmt.Errorf("failed to map account %s: %w", a.Key, err)
	}
	return a, nil
}

// ToAccountRecord converts a domain Account to the writable columns of wlt_accounts
func ToAccountRecord(a domain.Account) map[string]any {
	rec := map[string]any{
		"user_key":       a.UserKey,
		"account_number": a.AccountNumber,
		"account_name":   a.AccountName,
		"account_type":   string(a.AccountType),
		"currency":       a.Currency,
		"balance":        utils.FormatMoney(a.Balance),
		"is_active":      a.IsActive,
		"is_default":     a.IsDefault,
	}
	if a.BankKey != "" {
		rec["bank_key"] = a.BankKey
	}
	return rec
}

// ToDomainAccountSlice converts records to domain Accounts
func ToDomainAccountSlice(rs []domain.Record) ([]domain.Account, error) {
	out := make([]domain.Account, 0, len(rs))
	for _, r := range rs {
		a, err := ToDomainAccount(r)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
