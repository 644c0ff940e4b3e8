package sqlrepo

import (
	"context"
	"fmt"
	"sort"

	"github.com/shadwattai/miniwallet/internal/apperrors"
	"github.com/shadwattai/miniwallet/internal/core/domain"
	portsrepo "github.com/shadwattai/miniwallet/internal/core/ports/repositories"
	"github.com/shadwattai/miniwallet/internal/repositories/database/crud"
	"github.com/shadwattai/miniwallet/internal/utils/mapping"
)

type transactionRepository struct {
	BaseRepository
}

func newTransactionRepository(engine *crud.Engine) portsrepo.TransactionRepositoryFacade {
	return &transactionRepository{BaseRepository{engine: engine}}
}

var _ portsrepo.TransactionRepositoryFacade = (*transactionRepository)(nil)

func (r *transactionRepository) SaveTransaction(ctx context.Context, actor domain.Actor, txn domain.LedgerTransaction) (*domain.LedgerTransaction, error) {
	key, err := r.engine.CreateSingle(ctx, actor, TableTransactions, mapping.ToTransactionRecord(txn))
	if err != nil {
		return nil, err
	}
	rec, err := r.engine.GetByKey(ctx, actor, TableTransactions, key, lookup)
	if err != nil {
		return nil, err
	}
	saved, err := mapping.ToDomainTransaction(rec)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *transactionRepository) FindTransactionByRef(ctx context.Context, actor domain.Actor, refNumber string) (*domain.LedgerTransaction, error) {
	rec, err := r.engine.GetByField(ctx, actor, TableTransactions, "ref_number", refNumber)
	if err != nil {
		return nil, err
	}
	txn, err := mapping.ToDomainTransaction(rec)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// ListTransactionsByAccount pages over transactions where acctKey is either party.
func (r *transactionRepository) ListTransactionsByAccount(ctx context.Context, actor domain.Actor, acctKey string, limit int, nextToken *string) ([]domain.LedgerTransaction, *string, error) {
	cq := crud.CursorQuery{
		AnyOf: map[string]any{"sender_acct_key": acctKey, "receiver_acct_key": acctKey},
		Limit: limit,
	}
	if nextToken != nil {
		cq.Token = *nextToken
	}
	page, err := r.engine.Cursor(ctx, actor, TableTransactions, cq)
	if err != nil {
		return nil, nil, err
	}
	txns := make([]domain.LedgerTransaction, 0, len(page.Rows))
	for _, rec := range page.Rows {
		txn, err := mapping.ToDomainTransaction(rec)
		if err != nil {
			return nil, nil, err
		}
		txns = append(txns, txn)
	}
	return txns, page.NextToken, nil
}

// UpdateStatus enforces the status lifecycle before the compare-and-swap write.
func (r *transactionRepository) UpdateStatus(ctx context.Context, actor domain.Actor, key string, next domain.TransactionStatus, expectedVersion int64) (int64, error) {
	var version int64
	err := r.engine.WithTx(ctx, func(tx *crud.Engine) error {
		rec, err := tx.GetByKey(ctx, actor, TableTransactions, key, lookup)
		if err != nil {
			return err
		}
		current, err := mapping.ToDomainTransaction(rec)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: transaction %s cannot move from %s to %s",
				apperrors.ErrValidation, current.RefNumber, current.Status, next)
		}
		res, err := tx.UpdateSingle(ctx, actor, TableTransactions, key,
			map[string]any{"status": string(next)}, crud.ExpectVersion(expectedVersion))
		if err != nil {
			return err
		}
		version = res.Version
		return nil
	})
	return version, err
}

type entryRepository struct {
	BaseRepository
}

func newEntryRepository(engine *crud.Engine) portsrepo.EntryRepositoryFacade {
	return &entryRepository{BaseRepository{engine: engine}}
}

var _ portsrepo.EntryRepositoryFacade = (*entryRepository)(nil)

// SaveEntries inserts every entry of one posting; none is written if any row is invalid.
func (r *entryRepository) SaveEntries(ctx context.Context, actor domain.Actor, trxnKey string, entries []domain.LedgerEntry) ([]domain.LedgerEntry, error) {
	rows := make([]map[string]any, len(entries))
	for i, e := range entries {
		rows[i] = mapping.ToEntryRecord(trxnKey, e)
	}
	keys, err := r.engine.CreateMultiple(ctx, actor, TableEntries, rows)
	if err != nil {
		return nil, err
	}
	saved := make([]domain.LedgerEntry, len(entries))
	for i, e := range entries {
		e.Key = keys[i]
		e.TrxnKey = trxnKey
		e.Version = 1
		saved[i] = e
	}
	return saved, nil
}

func (r *entryRepository) FindEntriesByTransaction(ctx context.Context, actor domain.Actor, trxnKey string) ([]domain.LedgerEntry, error) {
	recs, err := r.engine.Search(ctx, actor, TableEntries, equals("trxn_key", trxnKey), 0, lookup)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.LedgerEntry, 0, len(recs))
	for _, rec := range recs {
		e, err := mapping.ToDomainEntry(rec)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

type balanceHistoryRepository struct {
	BaseRepository
}

func newBalanceHistoryRepository(engine *crud.Engine) portsrepo.BalanceHistoryRepositoryFacade {
	return &balanceHistoryRepository{BaseRepository{engine: engine}}
}

var _ portsrepo.BalanceHistoryRepositoryFacade = (*balanceHistoryRepository)(nil)

func (r *balanceHistoryRepository) SaveBalanceHistory(ctx context.Context, actor domain.Actor, h domain.BalanceHistory) error {
	_, err := r.engine.CreateSingle(ctx, actor, TableBalances, mapping.ToBalanceHistoryRecord(h))
	return err
}

// ListBalanceHistory returns the newest snapshots of an account first.
func (r *balanceHistoryRepository) ListBalanceHistory(ctx context.Context, actor domain.Actor, acctKey string, limit int) ([]domain.BalanceHistory, error) {
	page, err := r.engine.Cursor(ctx, actor, TableBalances, crud.CursorQuery{
		Filters: map[string]any{"acct_key": acctKey},
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.BalanceHistory, 0, len(page.Rows))
	for _, rec := range page.Rows {
		h, err := mapping.ToDomainBalanceHistory(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}
