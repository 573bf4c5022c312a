package deliveries

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stagepass/giftcard-core/internal/app/errors"
	"github.com/stagepass/giftcard-core/internal/app/middlewares"
	"github.com/stagepass/giftcard-core/internal/app/models"
	"github.com/stagepass/giftcard-core/internal/app/pkg"
	"github.com/stagepass/giftcard-core/internal/app/services"
)

type LimitHandler struct {
	limitService   *services.LimitService
	authMiddleware *middlewares.AuthMiddleware
}

func NewLimitHandler(limitService *services.LimitService, authMiddleware *middlewares.AuthMiddleware) *LimitHandler {
	return &LimitHandler{
		limitService:   limitService,
		authMiddleware: authMiddleware,
	}
}

func (h *LimitHandler) RegisterRoutes(router fiber.Router) {
	group := router.Group("/limits")
	group.Use(h.authMiddleware.RequireIdentity)

	group.Get("/check", h.Check)
}

// Check is advisory: it reports whether a proposed issuance amount would
// fit under the caller's monthly cap right now. The binding check happens
// again inside the issuance itself.
func (h *LimitHandler) Check(c *fiber.Ctx) error {
	actor, err := middlewares.ActorFromContext(c)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	proposed := models.ZeroMoney()
	if raw := c.Query("amount"); raw != "" {
		proposed, err = models.NewMoneyFromString(raw)
		if err != nil {
			return pkg.ErrorResponse(c, errors.NewValidationError("Invalid amount format"))
		}
	}

	result, err := h.limitService.CheckLimit(actor.ID, actor.IsAdminAgent(), proposed)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, result)
}
