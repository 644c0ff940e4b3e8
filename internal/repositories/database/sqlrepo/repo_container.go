package sqlrepo

import (
	portsrepo "github.com/shadwattai/miniwallet/internal/core/ports/repositories"
	"github.com/shadwattai/miniwallet/internal/repositories/database/audit"
	"github.com/shadwattai/miniwallet/internal/repositories/database/crud"
)

// NewRepositoryProvider wires every repository over one engine and its audit recorder.
func NewRepositoryProvider(engine *crud.Engine, recorder *audit.Recorder) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:     newAccountRepository(engine),
		TransactionRepo: newTransactionRepository(engine),
		EntryRepo:       newEntryRepository(engine),
		BalanceRepo:     newBalanceHistoryRepository(engine),
		AuditRepo:       newAuditRepository(recorder),
		RecordRepo:      newRecordRepository(engine),
		TxManager:       NewTransactionManager(engine),
	}
}
