package deliveries

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/stagepass/giftcard-core/internal/app/errors"
	"github.com/stagepass/giftcard-core/internal/app/middlewares"
	"github.com/stagepass/giftcard-core/internal/app/models"
	"github.com/stagepass/giftcard-core/internal/app/pkg"
	"github.com/stagepass/giftcard-core/internal/app/services"
)

type GiftCardHandler struct {
	giftCardService *services.GiftCardService
	auditService    *services.AuditService
	authMiddleware  *middlewares.AuthMiddleware
	rateLimit       *middlewares.RateLimitMiddleware
}

func NewGiftCardHandler(giftCardService *services.GiftCardService, auditService *services.AuditService, authMiddleware *middlewares.AuthMiddleware, rateLimit *middlewares.RateLimitMiddleware) *GiftCardHandler {
	return &GiftCardHandler{
		giftCardService: giftCardService,
		auditService:    auditService,
		authMiddleware:  authMiddleware,
		rateLimit:       rateLimit,
	}
}

func (h *GiftCardHandler) RegisterRoutes(router fiber.Router) {
	group := router.Group("/giftcards")
	group.Use(h.authMiddleware.RequireIdentity)
	group.Use(h.rateLimit.LimitByUser(middlewares.AuthenticatedAPILimit))

	group.Post("/", h.Issue)
	group.Get("/issued", h.ListIssued)
	group.Get("/received", h.ListReceived)
	group.Get("/code/:code", h.GetByCode)
	group.Get("/:id", h.Get)
	group.Post("/:id/award", h.Award)

	// Operator endpoints
	group.Post("/:id/suspend", h.authMiddleware.RequireOperator, h.Suspend)
	group.Post("/:id/unsuspend", h.authMiddleware.RequireOperator, h.Unsuspend)
	group.Post("/:id/cancel", h.authMiddleware.RequireOperator, h.Cancel)
	group.Patch("/:id/allocation", h.authMiddleware.RequireOperator, h.EditAllocation)
	group.Get("/:id/audit", h.authMiddleware.RequireOperator, h.AuditLogs)
}

func (h *GiftCardHandler) Issue(c *fiber.Ctx) error {
	actor, err := middlewares.ActorFromContext(c)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	var request models.GiftCardIssueRequest
	if err := c.BodyParser(&request); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	card, err := h.giftCardService.Issue(&request, actor)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, card)
}

func (h *GiftCardHandler) Get(c *fiber.Ctx) error {
	card, err := h.giftCardService.GetCard(c.Params("id"))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, card)
}

func (h *GiftCardHandler) GetByCode(c *fiber.Ctx) error {
	card, err := h.giftCardService.GetCardByCode(c.Params("code"))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, card)
}

func (h *GiftCardHandler) ListIssued(c *fiber.Ctx) error {
	actor, err := middlewares.ActorFromContext(c)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	cards, err := h.giftCardService.ListByIssuer(actor.ID, paginationFromQuery(c))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, cards)
}

func (h *GiftCardHandler) ListReceived(c *fiber.Ctx) error {
	actor, err := middlewares.ActorFromContext(c)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	cards, err := h.giftCardService.ListByRecipient(actor.ID, paginationFromQuery(c))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, cards)
}

func (h *GiftCardHandler) Award(c *fiber.Ctx) error {
	actor, err := middlewares.ActorFromContext(c)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	var request models.GiftCardAwardRequest
	if err := c.BodyParser(&request); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	card, err := h.giftCardService.Award(c.Params("id"), &request, actor)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, card)
}

func (h *GiftCardHandler) Suspend(c *fiber.Ctx) error {
	return h.statusChange(c, h.giftCardService.Suspend)
}

func (h *GiftCardHandler) Unsuspend(c *fiber.Ctx) error {
	return h.statusChange(c, h.giftCardService.Unsuspend)
}

func (h *GiftCardHandler) Cancel(c *fiber.Ctx) error {
	return h.statusChange(c, h.giftCardService.Cancel)
}

func (h *GiftCardHandler) statusChange(c *fiber.Ctx, fn func(string, *models.GiftCardStatusRequest, models.Actor) (*models.GiftCard, error)) error {
	actor, err := middlewares.ActorFromContext(c)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	var request models.GiftCardStatusRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&request); err != nil {
			return pkg.ErrorResponse(c, err)
		}
	}

	card, err := fn(c.Params("id"), &request, actor)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, card)
}

func (h *GiftCardHandler) EditAllocation(c *fiber.Ctx) error {
	actor, err := middlewares.ActorFromContext(c)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	var request models.GiftCardEditRequest
	if err := c.BodyParser(&request); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	card, err := h.giftCardService.EditAllocation(c.Params("id"), &request, actor)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, card)
}

func (h *GiftCardHandler) AuditLogs(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return pkg.ErrorResponse(c, errors.NewValidationError("Invalid card ID format"))
	}

	logs, err := h.auditService.GetCardAuditLogs(id)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, logs)
}

func paginationFromQuery(c *fiber.Ctx) *models.PaginationRequest {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil {
		page = 1
	}
	limit, err := strconv.Atoi(c.Query("limit", "10"))
	if err != nil {
		limit = 10
	}
	return &models.PaginationRequest{Page: page, Limit: limit}
}
