package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	downloadsvc "github.com/Iloudia/planner-shop/backend/internal/services/downloads"
)

type DownloadHandler struct {
	service *downloadsvc.Service
	logger  *zap.Logger
}

func NewDownloadHandler(service *downloadsvc.Service, logger *zap.Logger) *DownloadHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DownloadHandler{service: service, logger: logger}
}

// Get streams the purchased file. Errors are plain text so the link
// still shows something readable when opened directly in a browser.
func (h *DownloadHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		http.Error(w, "download service is unavailable", http.StatusInternalServerError)
		return
	}

	file, err := h.service.Fetch(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		switch {
		case errors.Is(err, downloadsvc.ErrMissingToken):
			http.Error(w, "missing token", http.StatusBadRequest)
		case errors.Is(err, downloadsvc.ErrInvalidToken):
			http.Error(w, "invalid or expired token", http.StatusForbidden)
		case errors.Is(err, downloadsvc.ErrUnknownProduct):
			http.Error(w, "unknown product", http.StatusNotFound)
		case errors.Is(err, downloadsvc.ErrFileNotFound):
			http.Error(w, "file not found", http.StatusNotFound)
		default:
			h.logger.Error("download failed", zap.Error(err))
			http.Error(w, "download failed", http.StatusInternalServerError)
		}
		return
	}
	defer file.Body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	if file.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	}

	if _, err := io.Copy(w, file.Body); err != nil {
		h.logger.Warn("download stream interrupted", zap.Error(err))
	}
}
