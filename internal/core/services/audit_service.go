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

type auditService struct {
	BaseService
	auditRepo portsrepo.AuditRepository
}

func NewAuditService(repo portsrepo.AuditRepository) portssvc.AuditSvc {
	return &auditService{auditRepo: repo}
}

var _ portssvc.AuditSvc = (*auditService)(nil)

// List pages over the audit trail. Users other than the system user only see
// entries they caused.
func (s *auditService) List(ctx context.Context, actor domain.Actor, params dto.ListAuditParams) (*dto.ListAuditResponse, error) {
	action := domain.AuditAction(params.Action)
	if action != "" && !action.Valid() {
		return nil, fmt.Errorf("%w: unknown audit action %q", apperrors.ErrValidation, params.Action)
	}

	actorKey := params.ActorKey
	if !actor.IsSystem() {
		if actorKey != "" && actorKey != actor.UserKey {
			return nil, fmt.Errorf("%w: audit entries of %s", apperrors.ErrForbidden, actorKey)
		}
		actorKey = actor.UserKey
	}

	entries, next, err := s.auditRepo.ListAuditEntries(ctx, portsrepo.AuditFilter{
		Table:     params.Table,
		Action:    action,
		ActorKey:  actorKey,
		Limit:     params.Limit,
		NextToken: params.NextToken,
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list audit entries", slog.String("actor_key", actorKey))
		return nil, err
	}
	return &dto.ListAuditResponse{Entries: entries, NextToken: next}, nil
}
