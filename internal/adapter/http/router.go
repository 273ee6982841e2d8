package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/YelzhanWeb/mealdash/internal/adapter/logger"
)

// NewRouter wires the order and browse handlers behind the JWT middleware.
func NewRouter(orders *OrderHandler, browse *BrowseHandler, jwtSecret []byte, lgr logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(RecoveryMiddleware(lgr))
	r.Use(LoggingMiddleware(lgr))
	r.Use(AuthMiddleware(jwtSecret))

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", orders.CreateOrder)
		r.Get("/", browse.ListOrders)
		r.Get("/available", browse.AvailableOrders)
		r.Get("/stats", browse.Stats)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", orders.GetOrder)
			r.Patch("/status", orders.UpdateStatus)
			r.Patch("/cancel", orders.Cancel)
			r.Post("/assign", orders.Assign)
			r.Post("/rate", orders.Rate)
			r.Get("/track", browse.TrackOrder)
			r.Get("/history", browse.OrderHistory)
		})
	})

	r.Get("/couriers/status", browse.CouriersStatus)

	return r
}
