package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/rs/cors"

	"tenantx/config"
	"tenantx/controllers"
	"tenantx/database"
	"tenantx/middleware"
	"tenantx/services"
	"tenantx/utils"
)

const (
	sweepLeaseKey       = "tenantx:rent-default-sweep"
	manualTriggerLimit  = 5
	manualTriggerWindow = time.Minute
)

// healthHandler отвечает на проверку доступности сервиса
func healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// initPaymentScheduler собирает проверку просроченной аренды и планировщик
func initPaymentScheduler(ctx context.Context, cfg *config.Config, db *database.Database, emailService *services.EmailService) (*services.PaymentSchedulerService, *services.RentDefaultService, error) {
	opts := []services.RentDefaultOption{services.WithMetrics(utils.GetMetrics())}
	if cfg.NotifyDefaults {
		opts = append(opts, services.WithNotifier(emailService))
	}
	rentDefaults := services.NewRentDefaultService(db, services.NewRentPolicyResolver(db), opts...)

	schedulerCfg := services.SchedulerConfig{
		DailySpec:         cfg.Scheduler.DailySpec,
		BusinessHoursSpec: cfg.Scheduler.BusinessHoursSpec,
		Location:          cfg.Location(),
		Metrics:           utils.GetMetrics(),
	}
	if cfg.Scheduler.DistributedLock {
		client, err := database.NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		schedulerCfg.Lease = database.NewRedisLease(client, sweepLeaseKey, cfg.Scheduler.LeaseTTL)
	}

	scheduler := services.NewPaymentSchedulerService(rentDefaults, schedulerCfg)
	if cfg.Scheduler.Enabled {
		if err := scheduler.Start(ctx); err != nil {
			return nil, nil, err
		}
	}
	return scheduler, rentDefaults, nil
}

func newHandler(cfg *config.Config, db *database.Database, scheduler *services.PaymentSchedulerService, rentDefaults *services.RentDefaultService) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Защищенные маршруты
	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(middleware.AuthMiddleware([]byte(cfg.JWT.SecretKey)))
	protected.Use(middleware.LoggingMiddleware)

	triggerLimit := middleware.RateLimit(
		utils.NewRateLimiter(manualTriggerLimit, manualTriggerWindow),
		manualTriggerLimit,
		middleware.ByLandlord,
	)
	controllers.NewRentDefaultController(scheduler, rentDefaults, db, utils.GetMetrics()).RegisterRoutes(protected, triggerLimit)
	controllers.NewSettingsController(db).RegisterRoutes(protected)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	return alice.New(middleware.Recovery, c.Handler).Then(router)
}

func main() {
	// Инициализируем конфигурацию
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	if err := utils.SetupLogger(cfg.Log.File); err != nil {
		log.Fatalf("Ошибка настройки логгера: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Инициализируем подключение к базе данных
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Ошибка подключения к базе данных: %v", err)
	}
	defer db.Close()

	emailService := services.NewEmailService(cfg, db)

	scheduler, rentDefaults, err := initPaymentScheduler(ctx, cfg, db, emailService)
	if err != nil {
		log.Fatalf("Ошибка запуска планировщика: %v", err)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           newHandler(cfg, db, scheduler, rentDefaults),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.LogInfo("server started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogError("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	utils.LogInfo("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		utils.LogError("server shutdown failed", "error", err)
	}
	if cfg.Scheduler.Enabled {
		scheduler.Stop()
	}
}
