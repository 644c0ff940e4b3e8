package sqlrepo

import (
	"context"

	"github.com/shadwattai/miniwallet/internal/core/domain"
	portsrepo "github.com/shadwattai/miniwallet/internal/core/ports/repositories"
	"github.com/shadwattai/miniwallet/internal/repositories/database/audit"
	"github.com/shadwattai/miniwallet/internal/repositories/database/crud"
)

type auditRepository struct {
	recorder *audit.Recorder
}

func newAuditRepository(recorder *audit.Recorder) portsrepo.AuditRepository {
	return &auditRepository{recorder: recorder}
}

func (r *auditRepository) ListAuditEntries(ctx context.Context, filter portsrepo.AuditFilter) ([]domain.AuditEntry, *string, error) {
	entries, next, err := r.recorder.List(ctx, audit.Query{
		Table:     filter.Table,
		Action:    filter.Action,
		ActorKey:  filter.ActorKey,
		Limit:     filter.Limit,
		NextToken: filter.NextToken,
	})
	if err != nil {
		return nil, nil, err
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	return entries, next, nil
}

type recordRepository struct {
	BaseRepository
}

func newRecordRepository(engine *crud.Engine) portsrepo.RecordRepository {
	return &recordRepository{BaseRepository{engine: engine}}
}

// ListRecords pages over any table the engine does not restrict.
func (r *recordRepository) ListRecords(ctx context.Context, actor domain.Actor, table string, limit int, nextToken string) (*portsrepo.RecordPage, error) {
	page, err := r.engine.Cursor(ctx, actor, table, crud.CursorQuery{Limit: limit, Token: nextToken})
	if err != nil {
		return nil, err
	}
	return &portsrepo.RecordPage{Rows: page.Rows, NextToken: page.NextToken}, nil
}

func (r *recordRepository) GetRecord(ctx context.Context, actor domain.Actor, table, key string) (domain.Record, error) {
	return r.engine.GetByKey(ctx, actor, table, key)
}

func (r *recordRepository) RecordStats(ctx context.Context, actor domain.Actor, table string) (*portsrepo.RecordStats, error) {
	stats, err := r.engine.TableStats(ctx, actor, table)
	if err != nil {
		return nil, err
	}
	return &portsrepo.RecordStats{
		Table:       stats.Table,
		Total:       stats.Total,
		Active:      stats.Active,
		SoftDeleted: stats.SoftDeleted,
		Columns:     stats.Columns,
	}, nil
}
