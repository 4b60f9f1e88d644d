package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Creditos-api/internal/application/archive"
	"github.com/jhoicas/Creditos-api/internal/application/auth"
	"github.com/jhoicas/Creditos-api/internal/application/consumption"
	"github.com/jhoicas/Creditos-api/internal/application/entitlement"
	"github.com/jhoicas/Creditos-api/internal/application/holds"
	"github.com/jhoicas/Creditos-api/internal/application/statement"
	"github.com/jhoicas/Creditos-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	EntitlementUC *entitlement.EntitlementUseCase
	ConsumptionUC *consumption.ConsumptionUseCase
	HoldUC        *holds.HoldUseCase
	PolicyUC      *archive.PolicyUseCase
	ArchiveUC     *archive.ArchiveUseCase
	StatementUC   *statement.StatementUseCase
	AuthUC        *auth.AuthUseCase
	JWTSecret     string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Entitlements y consumos (protegido)
	entitlementHandler := NewEntitlementHandler(deps.EntitlementUC, deps.ConsumptionUC)
	protected.Post("/entitlements/materialize", entitlementHandler.Materialize)
	protected.Post("/entitlements/adjustments", RequireRole(entity.RoleAdmin), entitlementHandler.Adjust)
	protected.Post("/consumptions", entitlementHandler.Consume)

	// Holds (protegido)
	holdHandler := NewHoldHandler(deps.HoldUC)
	holdsGroup := protected.Group("/holds")
	holdsGroup.Post("/", holdHandler.Create)
	holdsGroup.Post("/sweep-expired", holdHandler.Sweep)
	holdsGroup.Get("/stale", holdHandler.ListStale)
	holdsGroup.Post("/:id/release", holdHandler.Release)
	holdsGroup.Post("/:id/booking", holdHandler.SetBooking)
	holdsGroup.Put("/:id", holdHandler.Update)
	holdsGroup.Delete("/:id", holdHandler.Cancel)

	// Vistas por estudiante (protegido)
	ledgerHandler := NewLedgerHandler(deps.ArchiveUC, deps.StatementUC)
	students := protected.Group("/students")
	students.Get("/:student_id/balance", entitlementHandler.GetBalance)
	students.Get("/:student_id/holds", holdHandler.ListActive)
	students.Get("/:student_id/statement", ledgerHandler.Statement)

	// Ledger (protegido)
	protected.Get("/ledger", ledgerHandler.Query)

	// Archivado (solo admin)
	archiveHandler := NewArchiveHandler(deps.PolicyUC, deps.ArchiveUC)
	archiveGroup := protected.Group("/archive", RequireRole(entity.RoleAdmin))
	archiveGroup.Post("/policies", archiveHandler.CreatePolicy)
	archiveGroup.Get("/policies", archiveHandler.ListPolicies)
	archiveGroup.Get("/policies/:id", archiveHandler.GetPolicy)
	archiveGroup.Put("/policies/:id/enabled", archiveHandler.SetPolicyEnabled)
	archiveGroup.Post("/run", archiveHandler.Run)
}
