package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"tenantx/database"
	"tenantx/middleware"
	"tenantx/models"
	"tenantx/utils"
)

// RentSettingsStore читает и сохраняет глобальные настройки аренды арендодателя
type RentSettingsStore interface {
	GetLandlord(ctx context.Context, id uuid.UUID) (*models.Landlord, error)
	UpdateLandlordRentSettings(ctx context.Context, id uuid.UUID, deadlineDays int, penaltyPercentage decimal.Decimal, useGlobal bool) (*models.Landlord, error)
}

// UpdateRentSettingsDTO - тело запроса на изменение настроек аренды
type UpdateRentSettingsDTO struct {
	GlobalRentDeadline       *int     `json:"globalRentDeadline" validate:"omitempty,min=1,max=31"`
	DefaultPenaltyPercentage *float64 `json:"defaultPenaltyPercentage" validate:"omitempty,min=0,max=100"`
	UseGlobalSettings        *bool    `json:"useGlobalSettings"`
}

// RentSettingsResponse - действующие настройки арендодателя
type RentSettingsResponse struct {
	GlobalRentDeadline       int             `json:"globalRentDeadline"`
	DefaultPenaltyPercentage decimal.Decimal `json:"defaultPenaltyPercentage"`
	UseGlobalSettings        bool            `json:"useGlobalSettings"`
}

// SettingsController обрабатывает запросы к настройкам аренды
type SettingsController struct {
	store     RentSettingsStore
	validator *validator.Validate
}

// NewSettingsController создает новый экземпляр SettingsController
func NewSettingsController(store RentSettingsStore) *SettingsController {
	return &SettingsController{
		store:     store,
		validator: validator.New(),
	}
}

// RegisterRoutes подключает маршруты к защищенному роутеру
func (c *SettingsController) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/settings/rent-settings", c.GetRentSettings).Methods(http.MethodGet)
	r.HandleFunc("/settings/rent-settings", c.UpdateRentSettings).Methods(http.MethodPut)
}

// validateRequest валидирует DTO и возвращает ошибки валидации
func (c *SettingsController) validateRequest(dto interface{}) error {
	if err := c.validator.Struct(dto); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return err
		}
		var errorMessages []string
		for _, e := range validationErrors {
			switch e.Tag() {
			case "min":
				errorMessages = append(errorMessages, "поле "+e.Field()+" должно быть не меньше "+e.Param())
			case "max":
				errorMessages = append(errorMessages, "поле "+e.Field()+" должно быть не больше "+e.Param())
			default:
				errorMessages = append(errorMessages, "поле "+e.Field()+" заполнено неверно")
			}
		}
		return errors.New(strings.Join(errorMessages, "; "))
	}
	return nil
}

// GetRentSettings возвращает настройки аренды арендодателя; если они не заданы, значения по умолчанию
func (c *SettingsController) GetRentSettings(w http.ResponseWriter, r *http.Request) {
	landlordID, err := middleware.LandlordFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	landlord, err := c.store.GetLandlord(r.Context(), landlordID)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Landlord not found")
		return
	}
	if err != nil {
		utils.LogError("get rent settings failed", "landlord_id", landlordID, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to get rent settings")
		return
	}

	respondJSON(w, http.StatusOK, rentSettingsResponse(landlord.RentSettings))
}

// UpdateRentSettings сохраняет настройки аренды арендодателя
func (c *SettingsController) UpdateRentSettings(w http.ResponseWriter, r *http.Request) {
	landlordID, err := middleware.LandlordFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var dto UpdateRentSettingsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := c.validateRequest(dto); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	deadline := models.DefaultRentDeadlineDays
	if dto.GlobalRentDeadline != nil {
		deadline = *dto.GlobalRentDeadline
	}
	penalty := decimal.NewFromInt(models.DefaultPenaltyPercentage)
	if dto.DefaultPenaltyPercentage != nil {
		penalty = decimal.NewFromFloat(*dto.DefaultPenaltyPercentage)
	}
	useGlobal := true
	if dto.UseGlobalSettings != nil {
		useGlobal = *dto.UseGlobalSettings
	}

	landlord, err := c.store.UpdateLandlordRentSettings(r.Context(), landlordID, deadline, penalty, useGlobal)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Landlord not found")
		return
	}
	if err != nil {
		utils.LogError("update rent settings failed", "landlord_id", landlordID, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to update rent settings")
		return
	}

	utils.LogInfo("rent settings updated",
		"landlord_id", landlordID,
		"deadline_days", deadline,
		"penalty_percentage", penalty.String(),
		"use_global_settings", useGlobal,
	)
	respondJSON(w, http.StatusOK, rentSettingsResponse(landlord.RentSettings))
}

func rentSettingsResponse(rs models.LandlordRentSettings) RentSettingsResponse {
	if !rs.Configured() {
		return RentSettingsResponse{
			GlobalRentDeadline:       models.DefaultRentDeadlineDays,
			DefaultPenaltyPercentage: decimal.NewFromInt(models.DefaultPenaltyPercentage),
			UseGlobalSettings:        true,
		}
	}

	resp := RentSettingsResponse{
		GlobalRentDeadline:       models.DefaultRentDeadlineDays,
		DefaultPenaltyPercentage: decimal.NewFromInt(models.DefaultPenaltyPercentage),
		UseGlobalSettings:        rs.UseGlobalSettings,
	}
	if rs.GlobalRentDeadline != nil {
		resp.GlobalRentDeadline = *rs.GlobalRentDeadline
	}
	if rs.DefaultPenaltyPercentage.Valid {
		resp.DefaultPenaltyPercentage = rs.DefaultPenaltyPercentage.Decimal
	}
	return resp
}
