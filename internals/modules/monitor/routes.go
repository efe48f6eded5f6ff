package monitor

import (
	middle "endpoint-monitor/internals/middleware"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the monitor API. checkLimit throttles manual checks.
func Routes(h *Handler, checkLimit middle.Middleware) chi.Router {
	r := chi.NewRouter()

	r.With(checkLimit).Post("/check/{endpointID}", h.CheckNow)
	r.Get("/stats/{endpointID}", h.Stats)
	r.Get("/status/{endpointID}", h.Status)
	r.Get("/logs/{endpointID}", h.Logs)

	return r
}

/*
- POST: /monitor/check/{endpointID} -> run a check now (rate limited per user)
	req auth : true
	resp : CheckResult

- GET: /monitor/stats/{endpointID} -> last 24h grouped by success
	req auth : true
	resp : StatsResponse

- GET: /monitor/status/{endpointID} -> latest status snapshot
	req auth : true

- GET: /monitor/logs/{endpointID}?limit={} -> newest observations, max 100
	req auth : true
*/
