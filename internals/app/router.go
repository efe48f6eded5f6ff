package app

import (
	"time"

	middle "endpoint-monitor/internals/middleware"
	"endpoint-monitor/internals/modules/endpoint"
	"endpoint-monitor/internals/modules/monitor"
	"endpoint-monitor/internals/modules/notification"
	"endpoint-monitor/internals/modules/user"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// requestTimeout must cover a manual check at the largest allowed probe timeout.
const requestTimeout = 45 * time.Second

func RegisterRoutes(c *Container) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middle.Logger(c.Logger))
	r.Use(middle.Metrics(c.Metrics))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", c.health)
	r.Handle("/metrics", c.Metrics.Handler())

	r.Route("/api/v1", func(v1 chi.Router) {
		// register and login are public, /users/me is guarded inside
		v1.Mount("/users", user.Routes(c.userHandler, c.authMW))

		v1.Group(func(p chi.Router) {
			p.Use(c.authMW.Handle)

			p.Mount("/endpoints", endpoint.Routes(c.endpointHandler))
			p.Mount("/monitor", monitor.Routes(c.monitorHandler, c.checkLimit))
			p.Mount("/notifications", notification.Routes(c.notificationHandler))
		})
	})

	return r
}
