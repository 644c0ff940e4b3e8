package repositories

import (
	"context"

	"github.com/shadwattai/miniwallet/internal/core/domain"
)

// AuditFilter narrows an audit trail listing. Empty fields match everything.
type AuditFilter struct {
	Table     string
	Action    domain.AuditAction
	ActorKey  string
	Limit     int
	NextToken string
}

// AuditRepository reads the append-only audit trail.
type AuditRepository interface {
	ListAuditEntries(ctx context.Context, filter AuditFilter) ([]domain.AuditEntry, *string, error)
}

// RecordPage is one keyset page of generic rows.
type RecordPage struct {
	Rows      []domain.Record `json:"rows"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// RecordStats summarizes a table.
type RecordStats struct {
	Table       string   `json:"table"`
	Total       int64    `json:"total"`
	Active      int64    `json:"active"`
	SoftDeleted int64    `json:"softDeleted"`
	Columns     []string `json:"columns"`
}

// RecordRepository gives read-only access to any non-restricted table.
type RecordRepository interface {
	ListRecords(ctx context.Context, actor domain.Actor, table string, limit int, nextToken string) (*RecordPage, error)
	GetRecord(ctx context.Context, actor domain.Actor, table, key string) (domain.Record, error)
	RecordStats(ctx context.Context, actor domain.Actor, table string) (*RecordStats, error)
}

// Notifier delivers post-commit events to a user's channel.
type Notifier interface {
	Notify(ctx context.Context, event domain.MoneyEvent) error
}

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	AccountRepo     AccountRepositoryFacade
	TransactionRepo TransactionRepositoryFacade
	EntryRepo       EntryRepositoryFacade
	BalanceRepo     BalanceHistoryRepositoryFacade
	AuditRepo       AuditRepository
	RecordRepo      RecordRepository
	TxManager       TransactionManager
}
