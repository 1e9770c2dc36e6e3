package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	checkoutsvc "github.com/Iloudia/planner-shop/backend/internal/services/checkout"
	downloadsvc "github.com/Iloudia/planner-shop/backend/internal/services/downloads"
	"github.com/Iloudia/planner-shop/backend/internal/transport/http/handlers"
)

type Dependencies struct {
	CheckoutService *checkoutsvc.Service
	DownloadService *downloadsvc.Service
	WebhookVerifier handlers.WebhookVerifier
	Logger          *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	checkoutHandler := handlers.NewCheckoutHandler(deps.CheckoutService, deps.Logger)
	downloadHandler := handlers.NewDownloadHandler(deps.DownloadService, deps.Logger)
	webhookHandler := handlers.NewWebhookHandler(deps.WebhookVerifier, deps.CheckoutService, deps.Logger)

	r.Get("/healthz", healthHandler.Get)

	r.Route("/api", func(r chi.Router) {
		r.Post("/create-checkout-session", checkoutHandler.CreateSession)
		r.Get("/checkout-session", checkoutHandler.VerifySession)
		r.Get("/download", downloadHandler.Get)
		r.Post("/stripe-webhook", webhookHandler.Handle)
	})
}
