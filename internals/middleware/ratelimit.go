package middle

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"endpoint-monitor/pkg/apperror"
	"endpoint-monitor/pkg/utils"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// RateLimitPerUser throttles authenticated requests by user id. It must run
// after the auth middleware. Limiter failures fail open.
func RateLimitPerUser(limiter Limiter, log *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			reqID := middleware.GetReqID(ctx)

			user, ok := UserFromContext(ctx)
			if !ok {
				utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "user is unauthorised")
				return
			}

			allowed, retryAfter, err := limiter.Allow(ctx, user.UserID.String())
			if err != nil {
				log.Warn().Err(err).Str("request_id", reqID).Msg("rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				secs := int(math.Ceil(retryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				utils.WriteError(w, http.StatusTooManyRequests, reqID, apperror.TooManyRequests, "too many check requests, slow down")
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}
