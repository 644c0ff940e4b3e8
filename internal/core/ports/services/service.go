package services

import (
	"context"

	"github.com/shadwattai/miniwallet/internal/core/domain"
	portsrepo "github.com/shadwattai/miniwallet/internal/core/ports/repositories"
	"github.com/shadwattai/miniwallet/internal/dto"
)

// AuditSvc browses the audit trail.
type AuditSvc interface {
	List(ctx context.Context, actor domain.Actor, params dto.ListAuditParams) (*dto.ListAuditResponse, error)
}

// RecordSvc gives administrators read-only access to any non-restricted table.
type RecordSvc interface {
	ListRecords(ctx context.Context, actor domain.Actor, table string, params dto.ListRecordsParams) (*portsrepo.RecordPage, error)
	GetRecord(ctx context.Context, actor domain.Actor, table, key string) (domain.Record, error)
	RecordStats(ctx context.Context, actor domain.Actor, table string) (*portsrepo.RecordStats, error)
}

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing service functionality and
// is used throughout the application, particularly in the handlers.
type ServiceContainer struct {
	Ledger  LedgerSvcFacade
	Wallet  WalletSvcFacade
	Audit   AuditSvc
	Records RecordSvc
}
