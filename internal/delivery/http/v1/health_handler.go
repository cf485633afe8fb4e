package v1

import (
	"context"
	"net/http"

	"product-service/pkg/utils"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store  Pinger
	driver string
}

func NewHealthHandler(store Pinger, driver string) *HealthHandler {
	return &HealthHandler{store: store, driver: driver}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"store":  h.driver,
		})
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"store":  h.driver,
	})
}
