package deliveries

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/stagepass/giftcard-core/internal/app/errors"
	"github.com/stagepass/giftcard-core/internal/app/middlewares"
	"github.com/stagepass/giftcard-core/internal/app/pkg"
	"github.com/stagepass/giftcard-core/internal/app/services"
)

type ReportHandler struct {
	reportService  *services.ReportService
	authMiddleware *middlewares.AuthMiddleware
}

func NewReportHandler(reportService *services.ReportService, authMiddleware *middlewares.AuthMiddleware) *ReportHandler {
	return &ReportHandler{
		reportService:  reportService,
		authMiddleware: authMiddleware,
	}
}

func (h *ReportHandler) RegisterRoutes(router fiber.Router) {
	group := router.Group("/reports")
	group.Use(h.authMiddleware.RequireIdentity)

	group.Get("/balance", h.Balance)
	group.Get("/history", h.History)

	// Operator endpoints
	group.Get("/agents/:id/ledger", h.authMiddleware.RequireOperator, h.AgentLedger)
	group.Get("/cards/:id/reconcile", h.authMiddleware.RequireOperator, h.Reconcile)
}

func (h *ReportHandler) Balance(c *fiber.Ctx) error {
	actor, err := middlewares.ActorFromContext(c)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	report, err := h.reportService.Balance(actor.ID)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, report)
}

func (h *ReportHandler) History(c *fiber.Ctx) error {
	actor, err := middlewares.ActorFromContext(c)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	report, err := h.reportService.History(actor.ID)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, report)
}

func (h *ReportHandler) AgentLedger(c *fiber.Ctx) error {
	agentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return pkg.ErrorResponse(c, errors.NewValidationError("Invalid agent ID format"))
	}

	report, err := h.reportService.AgentLedger(agentID)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, report)
}

func (h *ReportHandler) Reconcile(c *fiber.Ctx) error {
	result, err := h.reportService.Reconcile(c.Params("id"))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, result)
}
