package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"tenantx/database"
	"tenantx/middleware"
	"tenantx/models"
	"tenantx/services"
	"tenantx/utils"
)

const (
	recentDefaultedWindow = 30 * 24 * time.Hour
	recentDefaultedLimit  = 10
)

// SweepTrigger - ручной запуск проверки и состояние планировщика
type SweepTrigger interface {
	RunNow(ctx context.Context) (services.SweepSummary, error)
	Status() services.SchedulerStatus
}

// PenaltyCalculator рассчитывает штраф без записи
type PenaltyCalculator interface {
	CalculatePenalty(ctx context.Context, paymentID uuid.UUID) (*services.PenaltyPreview, error)
}

// DefaultStats - статистика платежей арендодателя
type DefaultStats interface {
	PaymentStats(ctx context.Context, landlordID uuid.UUID) ([]database.StatusStat, error)
	RecentDefaulted(ctx context.Context, landlordID uuid.UUID, since time.Time, limit int) ([]models.Payment, error)
}

// RentDefaultController обрабатывает административные запросы по просроченной аренде
type RentDefaultController struct {
	trigger SweepTrigger
	penalty PenaltyCalculator
	stats   DefaultStats
	metrics *utils.Metrics
	now     func() time.Time
}

// NewRentDefaultController создает новый экземпляр RentDefaultController
func NewRentDefaultController(trigger SweepTrigger, penalty PenaltyCalculator, stats DefaultStats, metrics *utils.Metrics) *RentDefaultController {
	return &RentDefaultController{
		trigger: trigger,
		penalty: penalty,
		stats:   stats,
		metrics: metrics,
		now:     time.Now,
	}
}

// RegisterRoutes подключает маршруты к защищенному роутеру
func (c *RentDefaultController) RegisterRoutes(r *mux.Router, triggerLimit mux.MiddlewareFunc) {
	r.Handle("/payments/check-defaults", triggerLimit(http.HandlerFunc(c.CheckDefaults))).Methods(http.MethodPost)
	r.HandleFunc("/payments/defaults-status", c.DefaultsStatus).Methods(http.MethodGet)
	r.HandleFunc("/payments/{id}/penalty", c.PenaltyPreview).Methods(http.MethodGet)
}

// CheckDefaults запускает проверку просроченной аренды вручную
func (c *RentDefaultController) CheckDefaults(w http.ResponseWriter, r *http.Request) {
	landlordID, err := middleware.LandlordFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	utils.LogInfo("manual rent default check requested", "landlord_id", landlordID)

	summary, err := c.trigger.RunNow(r.Context())
	switch {
	case errors.Is(err, services.ErrSweepInProgress):
		respondError(w, http.StatusConflict, "Rent default check is already running")
		return
	case err != nil:
		utils.LogError("manual rent default check failed", "landlord_id", landlordID, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to check rent defaults")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

type defaultsStatusResponse struct {
	Stats           []database.StatusStat    `json:"stats"`
	RecentDefaulted []models.Payment         `json:"recentDefaulted"`
	Scheduler       services.SchedulerStatus `json:"scheduler"`
	Metrics         map[string]interface{}   `json:"metrics"`
}

// DefaultsStatus возвращает статистику платежей арендодателя и состояние планировщика
func (c *RentDefaultController) DefaultsStatus(w http.ResponseWriter, r *http.Request) {
	landlordID, err := middleware.LandlordFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	stats, err := c.stats.PaymentStats(r.Context(), landlordID)
	if err != nil {
		utils.LogError("payment stats failed", "landlord_id", landlordID, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to get defaults status")
		return
	}

	recent, err := c.stats.RecentDefaulted(r.Context(), landlordID, c.now().Add(-recentDefaultedWindow), recentDefaultedLimit)
	if err != nil {
		utils.LogError("recent defaulted payments failed", "landlord_id", landlordID, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to get defaults status")
		return
	}

	if stats == nil {
		stats = []database.StatusStat{}
	}
	if recent == nil {
		recent = []models.Payment{}
	}

	respondJSON(w, http.StatusOK, defaultsStatusResponse{
		Stats:           stats,
		RecentDefaulted: recent,
		Scheduler:       c.trigger.Status(),
		Metrics:         c.metrics.GetMetricsSnapshot(),
	})
}

// PenaltyPreview показывает штраф, который получит платеж при переводе в дефолт
func (c *RentDefaultController) PenaltyPreview(w http.ResponseWriter, r *http.Request) {
	landlordID, err := middleware.LandlordFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	paymentID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payment ID")
		return
	}

	preview, err := c.penalty.CalculatePenalty(r.Context(), paymentID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondError(w, http.StatusNotFound, "Payment not found")
		return
	case errors.Is(err, services.ErrNoDueDate):
		respondError(w, http.StatusUnprocessableEntity, "Payment has no due date")
		return
	case err != nil:
		utils.LogError("penalty preview failed", "payment_id", paymentID, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to calculate penalty")
		return
	}

	// чужие платежи не раскрываем
	if preview.LandlordID != landlordID {
		respondError(w, http.StatusNotFound, "Payment not found")
		return
	}

	respondJSON(w, http.StatusOK, preview)
}

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: false, Error: msg})
}
