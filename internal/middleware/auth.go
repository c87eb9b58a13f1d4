package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/oilmart/internal/config"
	"github.com/example/oilmart/internal/models"
	"github.com/example/oilmart/internal/utils"
)

const adminContextKey = "adminPrincipal"

// Principal identifies the authenticated back-office account for the
// duration of one request. It is stored by value in the request locals so
// handlers can re-check it without reaching back into the token.
type Principal struct {
	ID       uuid.UUID
	Username string
	Role     string
}

// AdminAuth validates the bearer token, re-reads the account to confirm it
// still exists and is active, and stores the principal in the request
// locals.
func AdminAuth(cfg *config.Config, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		adminID, _, err := utils.ParseAdminToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		var admin models.Admin
		if err := db.First(&admin, "id = ?", adminID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "account no longer exists")
			}
			return err
		}
		if !admin.IsActive {
			return fiber.NewError(fiber.StatusUnauthorized, "account is disabled")
		}

		c.Locals(adminContextKey, Principal{
			ID:       admin.ID,
			Username: admin.Username,
			Role:     admin.Role,
		})
		return c.Next()
	}
}

// CurrentAdmin returns the principal stored by AdminAuth. Handlers must
// treat its absence as an authorization failure rather than assume the
// middleware ran.
func CurrentAdmin(c *fiber.Ctx) (Principal, bool) {
	principal, ok := c.Locals(adminContextKey).(Principal)
	return principal, ok
}
