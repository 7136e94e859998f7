package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/medlan/pharmacy-pos/internal/application/auth"
	"github.com/medlan/pharmacy-pos/internal/application/pos"
	"github.com/medlan/pharmacy-pos/internal/application/receiving"
	"github.com/medlan/pharmacy-pos/internal/application/scan"
	"github.com/medlan/pharmacy-pos/internal/application/transfer"
	"github.com/medlan/pharmacy-pos/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC     *auth.UseCase
	CartSvc    *pos.CartService
	Receipts   pos.ReceiptGenerator
	GRNUC      *receiving.GRNUseCase
	TransferUC *transfer.UseCase
	ScanGuard  *scan.Guard
	JWTSecret  string
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

	// Punto de venta (protegido)
	posGroup := protected.Group("/pos/:terminal")
	posHandler := NewPOSHandler(deps.CartSvc, deps.Receipts)
	posGroup.Get("/", posHandler.Cart)
	posGroup.Post("/lines", posHandler.AddLine)
	posGroup.Put("/lines/:line", posHandler.UpdateLine)
	posGroup.Delete("/lines/:line", posHandler.RemoveLine)
	posGroup.Put("/discount", posHandler.SetCartDiscount)
	posGroup.Put("/customer", posHandler.SetCustomer)
	posGroup.Put("/payment", posHandler.SetPayment)
	posGroup.Post("/hold", posHandler.Hold)
	posGroup.Post("/recall/:holdId", posHandler.Recall)
	posGroup.Get("/held", posHandler.HeldSales)
	posGroup.Delete("/held/:holdId", posHandler.DeleteHeld)
	posGroup.Post("/checkout", posHandler.Checkout)
	posGroup.Get("/receipt/:saleId", posHandler.Receipt)

	// Recepción de mercancía (protegido; verificar y completar exigen gerente)
	grnGroup := protected.Group("/grn")
	grnHandler := NewGRNHandler(deps.GRNUC)
	grnGroup.Post("/", grnHandler.Create)
	grnGroup.Get("/", grnHandler.List)
	grnGroup.Get("/:id", grnHandler.GetByID)
	grnGroup.Put("/:id", grnHandler.Update)
	grnGroup.Post("/:id/submit", grnHandler.Submit)
	grnGroup.Put("/:id/verify", RequireRole(entity.RoleManager), grnHandler.Verify)
	grnGroup.Put("/:id/complete", RequireRole(entity.RoleManager), grnHandler.Complete)
	grnGroup.Post("/:id/cancel", grnHandler.Cancel)

	// Traslados entre sucursales (protegido; aprobar/rechazar exigen gerente)
	transfers := protected.Group("/stock-transfers")
	transferHandler := NewTransferHandler(deps.TransferUC)
	transfers.Post("/", transferHandler.Create)
	transfers.Get("/", transferHandler.List)
	transfers.Get("/:id", transferHandler.GetByID)
	transfers.Post("/:id/approve", RequireRole(entity.RoleManager), transferHandler.Approve)
	transfers.Post("/:id/reject", RequireRole(entity.RoleManager), transferHandler.Reject)
	transfers.Post("/:id/dispatch", transferHandler.Dispatch)
	transfers.Post("/:id/receive", transferHandler.Receive)

	// Escaneo (protegido)
	scanGroup := protected.Group("/scan")
	scanHandler := NewScanHandler(deps.ScanGuard)
	scanGroup.Post("/keys", scanHandler.Keys)
	scanGroup.Post("/process", scanHandler.Process)
	scanGroup.Post("/override", scanHandler.Override)
	scanGroup.Post("/cancel", scanHandler.Cancel)
}
