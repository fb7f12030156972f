package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"tenantx/config"
	"tenantx/database"
	"tenantx/services"
)

func TestHealthHandler(t *testing.T) {
	// Создаем тестовый HTTP-запрос
	req, err := http.NewRequest("GET", "/health", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(healthHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusOK)
	}

	expected := "{\"status\":\"ok\"}\n"
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v",
			rr.Body.String(), expected)
	}
}

func TestHealthHandlerMethodNotAllowed(t *testing.T) {
	req, err := http.NewRequest("POST", "/health", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(healthHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusMethodNotAllowed {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusMethodNotAllowed)
	}
}

func TestNewHandler(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.SecretKey = "test-secret"
	cfg.CORS.AllowedOrigins = []string{"https://app.tenantx.io"}

	scheduler := services.NewPaymentSchedulerService(nil, services.SchedulerConfig{})
	handler := newHandler(cfg, database.New(nil), scheduler, nil)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("health: got %v want %v", rr.Code, http.StatusOK)
	}

	// без токена защищенные маршруты недоступны
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/payments/check-defaults", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("check-defaults without token: got %v want %v", rr.Code, http.StatusUnauthorized)
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/payments/check-defaults", nil)
	req.Header.Set("Origin", "https://app.tenantx.io")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.tenantx.io" {
		t.Errorf("preflight allow origin: got %q", got)
	}
}
