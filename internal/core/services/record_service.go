package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shadwattai/miniwallet/internal/apperrors"
	"github.com/shadwattai/miniwallet/internal/core/domain"
	portsrepo "github.com/shadwattai/miniwallet/internal/core/ports/repositories"
	portssvc "github.com/shadwattai/miniwallet/internal/core/ports/services"
	"github.com/shadwattai/miniwallet/internal/dto"
)

type recordService struct {
	BaseService
	recordRepo portsrepo.RecordRepository
	isAdmin    func(userKey string) bool
}

// NewRecordService creates the records admin service. isAdmin decides which
// users may read raw rows; the system user always may.
func NewRecordService(repo portsrepo.RecordRepository, isAdmin func(userKey string) bool) portssvc.RecordSvc {
	if isAdmin == nil {
		isAdmin = func(string) bool { return false }
	}
	return &recordService{recordRepo: repo, isAdmin: isAdmin}
}

var _ portssvc.RecordSvc = (*recordService)(nil)

func (s *recordService) authorize(ctx context.Context, actor domain.Actor, table string) error {
	if actor.IsSystem() || s.isAdmin(actor.UserKey) {
		return nil
	}
	s.LogDebug(ctx, "Records admin access denied",
		slog.String("user_key", actor.UserKey),
		slog.String("table", table))
	return fmt.Errorf("%w: records admin requires an administrator", apperrors.ErrForbidden)
}

func (s *recordService) ListRecords(ctx context.Context, actor domain.Actor, table string, params dto.ListRecordsParams) (*portsrepo.RecordPage, error) {
	if err := s.authorize(ctx, actor, table); err != nil {
		return nil, err
	}
	return s.recordRepo.ListRecords(ctx, actor, table, params.Limit, params.NextToken)
}

func (s *recordService) GetRecord(ctx context.Context, actor domain.Actor, table, key string) (domain.Record, error) {
	if err := s.authorize(ctx, actor, table); err != nil {
		return nil, err
	}
	return s.recordRepo.GetRecord(ctx, actor, table, key)
}

func (s *recordService) RecordStats(ctx context.Context, actor domain.Actor, table string) (*portsrepo.RecordStats, error) {
	if err := s.authorize(ctx, actor, table); err != nil {
		return nil, err
	}
	return s.recordRepo.RecordStats(ctx, actor, table)
}
