package deliveries

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stagepass/giftcard-core/internal/app/middlewares"
	"github.com/stagepass/giftcard-core/internal/app/models"
	"github.com/stagepass/giftcard-core/internal/app/pkg"
	"github.com/stagepass/giftcard-core/internal/app/services"
)

type RedemptionHandler struct {
	redemptionService *services.RedemptionService
	authMiddleware    *middlewares.AuthMiddleware
	rateLimit         *middlewares.RateLimitMiddleware
}

func NewRedemptionHandler(redemptionService *services.RedemptionService, authMiddleware *middlewares.AuthMiddleware, rateLimit *middlewares.RateLimitMiddleware) *RedemptionHandler {
	return &RedemptionHandler{
		redemptionService: redemptionService,
		authMiddleware:    authMiddleware,
		rateLimit:         rateLimit,
	}
}

func (h *RedemptionHandler) RegisterRoutes(router fiber.Router) {
	group := router.Group("/redemptions")
	group.Use(h.authMiddleware.RequireIdentity)

	group.Post("/", h.rateLimit.LimitByUser(middlewares.RedemptionLimit), h.Redeem)
}

func (h *RedemptionHandler) Redeem(c *fiber.Ctx) error {
	actor, err := middlewares.ActorFromContext(c)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	var request models.RedeemRequest
	if err := c.BodyParser(&request); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	result, err := h.redemptionService.Redeem(&request, actor)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, result)
}
