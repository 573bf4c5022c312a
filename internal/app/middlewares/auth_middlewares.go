package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/stagepass/giftcard-core/internal/app/errors"
	"github.com/stagepass/giftcard-core/internal/app/models"
	"github.com/stagepass/giftcard-core/internal/app/pkg"
)

// AuthMiddleware resolves the calling identity from the gateway headers.
// The API gateway authenticates the caller and forwards the verified
// identity as X-User-ID and X-User-Role.
type AuthMiddleware struct{}

func NewAuthMiddleware() *AuthMiddleware {
	return &AuthMiddleware{}
}

// RequireIdentity stores the caller as models.Actor in Locals("actor").
func (m *AuthMiddleware) RequireIdentity(c *fiber.Ctx) error {
	rawID := c.Get("X-User-ID")
	if rawID == "" {
		return pkg.ErrorResponse(c, errors.NewUnauthorizedError("Missing X-User-ID header"))
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return pkg.ErrorResponse(c, errors.NewUnauthorizedError("Invalid X-User-ID header"))
	}

	role := models.Role(c.Get("X-User-Role", string(models.RoleAgent)))
	if !models.ValidRole(role) {
		return pkg.ErrorResponse(c, errors.NewUnauthorizedError("Invalid X-User-Role header"))
	}

	c.Locals("actor", models.Actor{ID: id, Role: role})
	return c.Next()
}

// RequireOperator rejects non-operator callers. It must run after
// RequireIdentity.
func (m *AuthMiddleware) RequireOperator(c *fiber.Ctx) error {
	actor, ok := c.Locals("actor").(models.Actor)
	if !ok {
		return pkg.ErrorResponse(c, errors.NewUnauthorizedError())
	}
	if !actor.IsOperator() {
		return pkg.ErrorResponse(c, errors.NewUnauthorizedError("Operator role required"))
	}
	return c.Next()
}

// ActorFromContext returns the identity placed by RequireIdentity.
func ActorFromContext(c *fiber.Ctx) (models.Actor, error) {
	actor, ok := c.Locals("actor").(models.Actor)
	if !ok {
		return models.Actor{}, errors.NewUnauthorizedError()
	}
	return actor, nil
}
