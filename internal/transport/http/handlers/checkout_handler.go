package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	checkoutsvc "github.com/Iloudia/planner-shop/backend/internal/services/checkout"
	"github.com/Iloudia/planner-shop/backend/internal/transport/http/dto"
	httperrors "github.com/Iloudia/planner-shop/backend/internal/transport/http/errors"
)

type CheckoutHandler struct {
	service *checkoutsvc.Service
	logger  *zap.Logger
}

func NewCheckoutHandler(service *checkoutsvc.Service, logger *zap.Logger) *CheckoutHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutHandler{service: service, logger: logger}
}

func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "checkout service is unavailable")
		return
	}

	var req dto.CreateCheckoutSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	result, err := h.service.CreateSession(r.Context(), req.ProductID)
	if err != nil {
		switch {
		case errors.Is(err, checkoutsvc.ErrValidation):
			writeBadRequest(w, "productId is required")
		case errors.Is(err, checkoutsvc.ErrUnknownProduct):
			writeBadRequest(w, "unknown product")
		default:
			h.logger.Error("create checkout session failed", zap.Error(err))
			writeInternal(w, "failed to create checkout session")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CreateCheckoutSessionResponse{
		URL: result.RedirectURL,
	})
}

func (h *CheckoutHandler) VerifySession(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "checkout service is unavailable")
		return
	}

	sessionID := r.URL.Query().Get("session_id")

	result, err := h.service.VerifySession(r.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, checkoutsvc.ErrInvalidSession):
			writeBadRequest(w, "invalid session_id")
		case errors.Is(err, checkoutsvc.ErrUnknownProduct):
			httperrors.WriteError(w, http.StatusNotFound, "unknown product")
		default:
			h.logger.Error("verify checkout session failed", zap.Error(err))
			writeInternal(w, "failed to verify checkout session")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CheckoutSessionResponse{
		Paid:          result.Paid,
		DownloadURL:   result.DownloadURL,
		ProductName:   result.ProductName,
		CustomerEmail: result.CustomerEmail,
	})
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, message string) {
	httperrors.WriteError(w, http.StatusBadRequest, message)
}

func writeInternal(w http.ResponseWriter, message string) {
	httperrors.WriteError(w, http.StatusInternalServerError, message)
}
