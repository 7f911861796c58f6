package auth

import (
	"log"
	"strings"
	"time"

	"everlasting-kin/internal/config"
	"everlasting-kin/internal/database"
	"everlasting-kin/internal/models"
	"everlasting-kin/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	CtxUserIDKey    = "user_id"
	CtxUserRoleKey  = "user_role"
	CtxTokenIDKey   = "token_id"
	CtxTokenExpKey  = "token_exp"
	CtxUserModelKey = "user_model"
)

func JWTMiddleware(cfg *config.Config, sessions session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Missing Authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization must be 'Bearer <token>'")
		}

		claims, err := ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}

		revoked, err := sessions.Revoked(c.UserContext(), claims.ID)
		if err != nil {
			log.Printf("[auth] revocation check failed: %v", err)
			return fiber.NewError(fiber.StatusServiceUnavailable, "Session check unavailable")
		}
		if revoked {
			return fiber.NewError(fiber.StatusUnauthorized, "Token has been signed out")
		}

		var exp time.Time
		if claims.ExpiresAt != nil {
			exp = claims.ExpiresAt.Time
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserRoleKey, claims.Role)
		c.Locals(CtxTokenIDKey, claims.ID)
		c.Locals(CtxTokenExpKey, exp)

		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Role missing from session")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "You are not allowed to do this")
	}
}

// RequireApproved loads the caller and rejects accounts an admin has not
// approved. Approval is read from the database so it takes effect without
// a new token.
func RequireApproved() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := CurrentUser(c)
		if err != nil {
			return err
		}
		if user.ApprovalStatus != models.ApprovalApproved {
			return fiber.NewError(fiber.StatusForbidden, "Account is awaiting admin approval")
		}
		return c.Next()
	}
}

// CurrentUser returns the authenticated user, loading it once per request.
func CurrentUser(c *fiber.Ctx) (*models.User, error) {
	if u, ok := c.Locals(CtxUserModelKey).(*models.User); ok {
		return u, nil
	}

	userID, ok := c.Locals(CtxUserIDKey).(uuid.UUID)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "User missing from session")
	}

	var user models.User
	if err := database.DB.WithContext(c.UserContext()).First(&user, "id = ?", userID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "User no longer exists")
	}
	c.Locals(CtxUserModelKey, &user)
	return &user, nil
}
