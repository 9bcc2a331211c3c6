package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/stock-ledger-api/internal/application/analytics"
	"github.com/jhoicas/stock-ledger-api/internal/application/auth"
	"github.com/jhoicas/stock-ledger-api/internal/application/catalog"
	"github.com/jhoicas/stock-ledger-api/internal/application/export"
	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/application/training"
	"github.com/jhoicas/stock-ledger-api/internal/application/transactions"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	ProductUC   *catalog.ProductUseCase
	MutationUC  *inventory.MutationUseCase
	LedgerUC    *transactions.LedgerUseCase
	DashboardUC *appanalytics.DashboardUseCase
	TrainingUC  *training.TrainingUseCase
	ExportUC    *export.TrainingExportUseCase
	JWTSecret   string
	Log         *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.Component("http")
	api := app.Group("/api")
	adminOnly := RequireRole(entity.RoleAdmin)
	anyRole := RequireRole(entity.RoleAdmin, entity.RoleUser)

	// Auth (público; un admin autenticado puede registrar otros admin)
	authHandler := NewAuthHandler(deps.AuthUC, log)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", OptionalAuth(deps.JWTSecret), authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Get("/me", AuthMiddleware(deps.JWTSecret), authHandler.Me)

	// Rutas protegidas (requieren Bearer Token con rol)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret), anyRole)

	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, log)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", adminOnly, productHandler.Update)
	products.Delete("/:id", adminOnly, productHandler.Delete)

	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.MutationUC, log)
	invGroup.Post("/procure", inventoryHandler.Procure)
	invGroup.Post("/distribute", inventoryHandler.Distribute)
	invGroup.Post("/adjust", inventoryHandler.Adjust)
	invGroup.Put("/:id/warehouses", adminOnly, inventoryHandler.SetWarehouses)

	txGroup := protected.Group("/transactions")
	txHandler := NewTransactionHandler(deps.LedgerUC, log)
	txGroup.Get("/", txHandler.List)
	txGroup.Get("/pdf", txHandler.ExportPDF)
	txGroup.Get("/audit/:productId", txHandler.Audit)
	txGroup.Get("/:id", txHandler.Get)
	txGroup.Get("/:id/invoice", txHandler.Invoice)

	dashboardHandler := NewDashboardHandler(deps.DashboardUC, log)
	protected.Get("/dashboard", adminOnly, dashboardHandler.Get)

	trainingHandler := NewTrainingHandler(deps.TrainingUC, deps.ExportUC, log)
	trainings := protected.Group("/trainings")
	trainings.Post("/", trainingHandler.Create)
	trainings.Get("/", adminOnly, trainingHandler.List)
	trainings.Get("/mine", trainingHandler.Mine)
	trainings.Get("/:id", trainingHandler.Get)
	trainings.Put("/:id", trainingHandler.Update)
	trainings.Delete("/:id", trainingHandler.Delete)

	reports := protected.Group("/report-excel")
	reports.Get("/mine", trainingHandler.ExportMine)
	reports.Get("/", adminOnly, trainingHandler.ExportAll)
}
