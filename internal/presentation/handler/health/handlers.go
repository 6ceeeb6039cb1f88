package health

import (
	"net/http"
	"time"

	"github.com/inkroom/inkroom/internal/infrastructure/json"
	"github.com/inkroom/inkroom/internal/registry"
)

var startTime = time.Now()

type Handler struct {
	registry *registry.Registry
}

func NewHandler(reg *registry.Registry) *Handler {
	return &Handler{registry: reg}
}

func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	json.Write(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(startTime).Round(time.Second).String(),
		Rooms:     h.registry.Len(),
	})
}
