package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/dispatch-service/internal/auth"
	"github.com/spec-kit/dispatch-service/internal/config"
	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/repository"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util"
)

// AuthService coordinates dispatcher login and credential management.
// Authentication identifies who made a change for the audit trail;
// role checks live in the routing layer.
type AuthService struct {
	dispatchers repository.DispatcherRepository
	tokenMgr    *auth.TokenManager
	bcryptCost  int
}

// AuthDependencies encapsulates repo requirements for the auth service.
type AuthDependencies struct {
	DispatcherRepo repository.DispatcherRepository
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		dispatchers: deps.DispatcherRepo,
		tokenMgr:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost:  cfg.Auth.BcryptCost,
	}
}

// Login authenticates a dispatcher and returns a role-bearing token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Dispatcher, string, time.Time, error) {
	dispatcher, err := s.dispatchers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if !dispatcher.Active {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("dispatcher deactivated")
	}
	if err := auth.ComparePassword(dispatcher.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokenMgr.GenerateToken(dispatcher.ID, dispatcher.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return dispatcher, token, exp, nil
}

// ChangePassword rotates the dispatcher's credential after verifying
// the current one.
func (s *AuthService) ChangePassword(ctx context.Context, dispatcherID, currentPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	dispatcher, err := s.dispatchers.GetByID(ctx, dispatcherID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("dispatcher", map[string]any{"dispatcher_id": dispatcherID})
		}
		return apperrors.MapError(err)
	}
	if err := auth.ComparePassword(dispatcher.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	dispatcher.PasswordHash = hash
	if err := s.dispatchers.Update(ctx, dispatcher); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// TokenManager exposes the manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
