package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"tenantx/utils"
)

type contextKey string

const landlordIDKey contextKey = "landlord_id"

// ErrNoLandlord возвращается, если в контексте нет арендодателя
var ErrNoLandlord = errors.New("landlord_id not found in context")

type LoggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (lrw *LoggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *LoggingResponseWriter) Write(b []byte) (int, error) {
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware логирует информацию о запросе и ответе
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := &LoggingResponseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(lrw, r)

		utils.LogInfo("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", lrw.statusCode,
			"bytes", lrw.size,
			"duration", time.Since(start),
		)
	})
}

// AuthMiddleware проверяет JWT токен и кладет landlord_id в контекст запроса
func AuthMiddleware(jwtKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := r.Header.Get("Authorization")
			if tokenString == "" {
				http.Error(w, "Authorization header is required", http.StatusUnauthorized)
				return
			}
			tokenString = strings.TrimPrefix(tokenString, "Bearer ")

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return jwtKey, nil
			})
			if err != nil {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok || !token.Valid {
				http.Error(w, "Invalid token claims", http.StatusUnauthorized)
				return
			}

			raw, _ := claims["landlord_id"].(string)
			landlordID, err := uuid.Parse(raw)
			if err != nil || landlordID == uuid.Nil {
				http.Error(w, "Invalid landlord_id in token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithLandlord(r.Context(), landlordID)))
		})
	}
}

// WithLandlord возвращает контекст с идентификатором арендодателя
func WithLandlord(ctx context.Context, landlordID uuid.UUID) context.Context {
	return context.WithValue(ctx, landlordIDKey, landlordID)
}

// LandlordFromContext получает идентификатор арендодателя из контекста
func LandlordFromContext(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(landlordIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrNoLandlord
	}
	return id, nil
}
