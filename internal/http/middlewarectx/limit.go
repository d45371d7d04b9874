package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/doorbell-backend/internal/http/response"
)

// RateLimitMiddleware ограничивает частоту запросов к конечным точкам,
// выдающим OTP коды. Лимит общий для инстанса.
func RateLimitMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(1, 3)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.Error("too many requests")
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
