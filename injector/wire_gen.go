// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package injector

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/wire"
	"github.com/stagepass/giftcard-core/internal/app/deliveries"
	"github.com/stagepass/giftcard-core/internal/app/middlewares"
	"github.com/stagepass/giftcard-core/internal/app/services"
	"github.com/stagepass/giftcard-core/internal/infrastructures"
	"github.com/stagepass/giftcard-core/pkg/keylock"
)

// Injectors from injector.go:

// InitializeApplication initializes the application with all its dependencies
func InitializeApplication() (*Application, error) {
	healthHandler := deliveries.NewHealthHandler()
	validator := infrastructures.NewValidator()
	db := infrastructures.NewDatabase()
	manager := keylock.NewManager()
	ledgerStore := services.NewLedgerStore(db, manager)
	limitService := services.NewLimitService(ledgerStore)
	auditService := services.NewAuditService(db)
	client := infrastructures.NewRedisClient()
	notificationService := services.NewNotificationService(client)
	giftCardService := services.NewGiftCardService(validator, ledgerStore, limitService, auditService, notificationService)
	authMiddleware := middlewares.NewAuthMiddleware()
	string2 := _wireStringValue
	redisRateLimiter := middlewares.NewRedisRateLimiter(client, string2)
	rateLimitMiddleware := middlewares.NewRateLimitMiddleware(redisRateLimiter)
	giftCardHandler := deliveries.NewGiftCardHandler(giftCardService, auditService, authMiddleware, rateLimitMiddleware)
	redemptionService := services.NewRedemptionService(validator, ledgerStore, notificationService)
	redemptionHandler := deliveries.NewRedemptionHandler(redemptionService, authMiddleware, rateLimitMiddleware)
	reportService := services.NewReportService(ledgerStore)
	reportHandler := deliveries.NewReportHandler(reportService, authMiddleware)
	limitHandler := deliveries.NewLimitHandler(limitService, authMiddleware)
	application := &Application{
		HealthHandler:       healthHandler,
		GiftCardHandler:     giftCardHandler,
		RedemptionHandler:   redemptionHandler,
		ReportHandler:       reportHandler,
		LimitHandler:        limitHandler,
		RateLimitMiddleware: rateLimitMiddleware,
	}
	return application, nil
}

var (
	_wireStringValue = "giftcard"
)

// injector.go:

// Application represents the main application container for giftcard-core
type Application struct {
	HealthHandler       *deliveries.HealthHandler
	GiftCardHandler     *deliveries.GiftCardHandler
	RedemptionHandler   *deliveries.RedemptionHandler
	ReportHandler       *deliveries.ReportHandler
	LimitHandler        *deliveries.LimitHandler
	RateLimitMiddleware *middlewares.RateLimitMiddleware
}

// RegisterRoutes registers all application routes using a Fiber router
func (app *Application) RegisterRoutes(router fiber.Router) {

	router.Use(app.RateLimitMiddleware.LimitByIP(middlewares.PublicAPILimit))

	app.HealthHandler.RegisterRoutes(router)
	app.GiftCardHandler.RegisterRoutes(router)
	app.RedemptionHandler.RegisterRoutes(router)
	app.ReportHandler.RegisterRoutes(router)
	app.LimitHandler.RegisterRoutes(router)
}

// Infrastructure providers
var infrastructureSet = wire.NewSet(infrastructures.NewDatabase, infrastructures.NewRedisClient, infrastructures.NewValidator, keylock.NewManager, wire.Value("giftcard"), wire.Bind(new(middlewares.RateLimiter), new(*middlewares.RedisRateLimiter)), middlewares.NewRedisRateLimiter)

// Service providers
var serviceSet = wire.NewSet(services.NewLedgerStore, services.NewLimitService, services.NewAuditService, services.NewNotificationService, services.NewGiftCardService, services.NewRedemptionService, services.NewReportService)

// Middleware providers
var middlewareSet = wire.NewSet(middlewares.NewAuthMiddleware, middlewares.NewRateLimitMiddleware)

// Handler providers
var handlerSet = wire.NewSet(deliveries.NewHealthHandler, deliveries.NewGiftCardHandler, deliveries.NewRedemptionHandler, deliveries.NewReportHandler, deliveries.NewLimitHandler, wire.Struct(new(Application), "*"))
