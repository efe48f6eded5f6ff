package app

import (
	"context"
	"net/http"
	"time"

	"endpoint-monitor/pkg/utils"

	"github.com/go-chi/chi/v5/middleware"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// healthHandler reports liveness plus the reachability of the stores the
// service cannot work without.
func healthHandler(deps map[string]pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		res := healthResponse{Status: "ok", Timestamp: time.Now().UTC(), Checks: map[string]string{}}
		code := http.StatusOK
		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				res.Checks[name] = "unreachable"
				res.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			res.Checks[name] = "ok"
		}

		utils.WriteJSON(w, code, middleware.GetReqID(r.Context()), res.Status, res)
	}
}
