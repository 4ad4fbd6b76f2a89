package routes

import (
	"github.com/go-chi/chi"

	"github.com/presensia/presensi-services/internal/bridgesvc/fanout"
	"github.com/presensia/presensi-services/internal/bridgesvc/handlers"
)

func SetRoutes(r *chi.Mux, hub *fanout.Hub, slot *fanout.LatestSlot) {
	h := handlers.NewHandler(hub, slot)

	// push and pull mode live side by side, the client picks one
	r.Get("/ws", h.HandleWebSocket)
	r.Get("/get_latest_uid", h.HandleLatestUID)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.HealthHandler)
	})
}
