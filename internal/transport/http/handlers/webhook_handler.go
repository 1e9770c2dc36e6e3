package handlers

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/Iloudia/planner-shop/backend/internal/infra/stripeapi"
	checkoutsvc "github.com/Iloudia/planner-shop/backend/internal/services/checkout"
	"github.com/Iloudia/planner-shop/backend/internal/transport/http/dto"
	httperrors "github.com/Iloudia/planner-shop/backend/internal/transport/http/errors"
)

const maxWebhookBody = 1 << 20

type WebhookVerifier interface {
	Parse(payload []byte, sigHeader string) (stripeapi.Event, error)
}

type WebhookHandler struct {
	verifier WebhookVerifier
	service  *checkoutsvc.Service
	logger   *zap.Logger
}

func NewWebhookHandler(verifier WebhookVerifier, service *checkoutsvc.Service, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{verifier: verifier, service: service, logger: logger}
}

// Handle acknowledges every authentic delivery. Signature verification
// runs on the raw body; anything after that is logged, never surfaced,
// so the gateway does not retry-storm on transient failures.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.verifier == nil || h.service == nil {
		http.Error(w, "webhook handler is unavailable", http.StatusInternalServerError)
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	event, err := h.verifier.Parse(payload, r.Header.Get("stripe-signature"))
	if err != nil {
		if errors.Is(err, stripeapi.ErrInvalidSignature) {
			http.Error(w, "invalid signature", http.StatusBadRequest)
			return
		}
		h.logger.Warn("webhook payload rejected", zap.Error(err))
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	h.service.HandleWebhookEvent(r.Context(), event)

	httperrors.Write(w, http.StatusOK, dto.WebhookAckResponse{Received: true})
}
