package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shadwattai/miniwallet/internal/apperrors"
	"github.com/shadwattai/miniwallet/internal/core/domain"
	"github.com/shadwattai/miniwallet/internal/middleware"
)

// BaseService provides common functionality for all services
type BaseService struct{}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	logger := middleware.GetLoggerFromCtx(ctx)
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+2)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Debug(msg, keyvals...)
}

// AuthorizeOwner checks that the actor owns the account.
func (s *BaseService) AuthorizeOwner(ctx context.Context, actor domain.Actor, account *domain.Account) error {
	if account.UserKey == actor.UserKey {
		return nil
	}
	s.LogDebug(ctx, "Account access denied",
		slog.String("user_key", actor.UserKey),
		slog.String("account_key", account.Key))
	return fmt.Errorf("%w: account %s does not belong to user %s", apperrors.ErrForbidden, account.Key, actor.UserKey)
}

// validationError wraps a request validation failure so it maps to ErrValidation.
func validationError(err error) error {
	return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
}
