package routers

import (
	"fmt"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/primeedge/transfer-service/internal/di"
	http2 "github.com/primeedge/transfer-service/internal/infrastructure/api/http"
	"github.com/primeedge/transfer-service/internal/infrastructure/api/middlewares"
)

func NewRouter(container *di.Container) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Logger)

	// Set up v1 routes with a path prefix
	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Route(fmt.Sprintf("/{%s}", http2.UserIDParam), func(r chi.Router) {
				r.Use(middlewares.UserValidationMiddleware(container.UserInteractor))
				r.Route("/transfers", func(r chi.Router) {
					th := container.TransferHandler
					r.Post("/", th.Create)
					r.Get("/updates", th.ListUpdates)
					r.Get("/events", container.EventsHandler.Stream)
				})
				r.Route("/balance", func(r chi.Router) {
					bh := container.BalanceHandler
					r.Get("/", bh.GetBalance)
				})
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewares.AdminValidationMiddleware(container.UserInteractor))
			r.Route("/transfers", func(r chi.Router) {
				ah := container.AdminHandler
				r.Get("/pending", ah.PendingTransfers)
				r.Get("/stats", ah.Stats)
				r.Route(fmt.Sprintf("/{%s}", http2.TransferIDParam), func(r chi.Router) {
					r.Post("/approve", ah.Approve)
					r.Post("/reject", ah.Reject)
				})
			})
		})
	})

	return router
}
