package middleware

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"tenantx/utils"
)

// KeyFunc выбирает ключ, по которому считается лимит
type KeyFunc func(r *http.Request) string

// ByLandlord считает лимит по арендодателю из токена, иначе по адресу клиента
func ByLandlord(r *http.Request) string {
	if id, err := LandlordFromContext(r.Context()); err == nil {
		return "landlord:" + id.String()
	}
	return "ip:" + r.RemoteAddr
}

// RateLimit ограничивает частоту запросов
func RateLimit(limiter *utils.RateLimiter, limit int, key KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)

			allowed, retryAfter := limiter.Allow(k)
			if !allowed {
				seconds := int(math.Ceil(retryAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				writeJSONError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(k)))

			next.ServeHTTP(w, r)
		})
	}
}

// Recovery перехватывает панику в обработчике
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				utils.LogError("panic recovered", "path", r.URL.Path, "error", err)
				writeJSONError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}
