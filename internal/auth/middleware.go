package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/repository"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal is the authenticated dispatcher making the request.
type Principal struct {
	Dispatcher *domain.Dispatcher
	Role       domain.DispatcherRole
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens      *TokenManager
	dispatchers repository.DispatcherRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, dispatchers repository.DispatcherRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, dispatchers: dispatchers}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	dispatcher, err := m.dispatchers.GetByID(c.Context(), claims.DispatcherID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewUnauthorized("dispatcher not found")
		}
		return apperrors.MapError(err)
	}
	if !dispatcher.Active {
		return apperrors.NewUnauthorized("dispatcher deactivated")
	}

	c.Locals(principalKey, &Principal{Dispatcher: dispatcher, Role: dispatcher.Role})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated dispatcher.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
