package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fakhrymubarak/weather-text/internal/model"
	"github.com/fakhrymubarak/weather-text/internal/repository"
	"github.com/fakhrymubarak/weather-text/internal/service"
	"go.uber.org/zap"
)

type PreviewHandler struct {
	PreviewService service.PreviewServiceInterface
	Logger         *zap.SugaredLogger
}

func NewPreviewHandler(svc service.PreviewServiceInterface, logger *zap.SugaredLogger) *PreviewHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &PreviewHandler{PreviewService: svc, Logger: logger}
}

func (h *PreviewHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Warnw("could not encode json", "error", err)
	}
}

// HandlePreview returns the message the next run would send, without sending it.
func (h *PreviewHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		h.writeJSONResponse(w, http.StatusMethodNotAllowed, model.ErrorResponse("Method not allowed"))
		return
	}

	preview, err := h.PreviewService.Preview(r.Context())
	if err != nil {
		h.Logger.Errorw("preview failed", "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrLocationNotFound) {
			status = http.StatusNotFound
		}
		h.writeJSONResponse(w, status, model.ErrorResponse("Failed to fetch weather data"))
		return
	}

	h.writeJSONResponse(w, http.StatusOK, model.Response{
		Data:    preview,
		Message: "Success",
	})
}

// HandleHealth reports liveness.
func (h *PreviewHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, model.Response{Message: "ok"})
}
