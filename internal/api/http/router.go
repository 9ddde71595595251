package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Chats          *handlers.ChatsHandler
	Admin          *handlers.AdminHandler
	Staff          *handlers.StaffHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/clients/register", cfg.Auth.RegisterClient)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/staff/register", cfg.Auth.RegisterStaff)
	authGroup.Post("/staff/login", cfg.Auth.LoginStaff)

	chats := app.Group("/chats", cfg.AuthMiddleware.Handle,
		auth.RequireRole(domain.RoleClient, domain.RoleStaff, domain.RoleAdmin))
	chats.Post("/", cfg.Chats.CreateChat)
	chats.Get("/", cfg.Chats.ListChats)
	chats.Get("/:id", cfg.Chats.GetChat)
	chats.Get("/:id/messages", cfg.Chats.ListMessages)
	chats.Post("/:id/messages", cfg.Chats.AddMessage)
	chats.Get("/:id/messages/:messageId/attachment", cfg.Chats.DownloadAttachment)
	chats.Post("/:id/payments", cfg.Chats.SubmitPayment)
	chats.Get("/:id/payment-card", cfg.Chats.PaymentCard)
	chats.Post("/:id/price", cfg.Chats.SetPrice)
	chats.Put("/:id/status", cfg.Chats.OverrideStatus)
	chats.Post("/:id/complete", cfg.Chats.Complete)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Get("/payments", cfg.Admin.ListPayments)
	admin.Post("/payments/:id/approve", cfg.Admin.ApprovePayment)
	admin.Post("/payments/:id/reject", cfg.Admin.RejectPayment)
	admin.Get("/payment-card", cfg.Admin.GetPaymentCard)
	admin.Put("/payment-card", cfg.Admin.SetPaymentCard)
	admin.Get("/overview", cfg.Admin.Overview)
	admin.Get("/staff", cfg.Admin.ListStaff)
	admin.Post("/staff/:id/approve", cfg.Admin.ApproveStaff)
	admin.Post("/staff/:id/reject", cfg.Admin.RejectStaff)
	admin.Delete("/staff/:id", cfg.Admin.DeleteStaff)
	admin.Post("/staff/:id/payouts", cfg.Admin.CreditStaff)
	admin.Post("/staff/:id/recompute", cfg.Admin.RecomputeStaff)
	admin.Delete("/payouts/:id", cfg.Admin.ReversePayout)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle,
		auth.RequireRole(domain.RoleStaffPending, domain.RoleStaff, domain.RoleAdmin))
	staff.Get("/me", cfg.Staff.Me)
	staff.Post("/me/documents", cfg.Staff.UploadDocument)
	staff.Get("/documents/:docId", cfg.Staff.DownloadDocument)
	staff.Get("/:id/payouts", cfg.Staff.Payouts)
	staff.Get("/:id/documents", cfg.Staff.ListDocuments)
}
