package handlers

import (
	"os"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
)

func (h *Handler) SetRoutes(r *chi.Mux) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/verify-and-record", h.VerifyAndRecord)
		r.Post("/get-employee-data", h.GetEmployeeData)
		r.Post("/register-employee", h.RegisterEmployee)

		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)

			r.Get("/report", h.Report)
		})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.HealthHandler)
		r.Get("/photos/{rfid}", h.Photo)
		r.Get("/taps/latest", h.LatestTap)
	})
}

// InitAuth sets up the verifier for the report routes. Consumers mint
// their tokens from the same JWT_SECRET_KEY out of band.
func (h *Handler) InitAuth() {
	h.tokenAuth = jwtauth.New("HS256", []byte(os.Getenv("JWT_SECRET_KEY")), nil)
}
