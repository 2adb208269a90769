package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medibook-backend/internal/accounts"
	"medibook-backend/internal/auth"
	"medibook-backend/internal/availability"
	"medibook-backend/internal/booking"
	"medibook-backend/internal/cache"
	"medibook-backend/internal/config"
	"medibook-backend/internal/db"
	"medibook-backend/internal/directory"
	"medibook-backend/internal/jobs"
	"medibook-backend/internal/middleware"
	"medibook-backend/internal/models"
	"medibook-backend/internal/payments"
	"medibook-backend/internal/validation"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("mongo connected")
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		logger.Error("index creation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var cacheStore cache.Cache = cache.NewNoop()
	if cfg.RedisURL != "" || cfg.RedisAddr != "" {
		var redisCache *cache.RedisCache
		var err error
		if cfg.RedisURL != "" {
			redisCache, err = cache.NewRedisFromURL(cfg.RedisURL)
		} else {
			redisCache = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		}
		if err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := redisCache.Ping(ctx); err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("redis connected")
		cacheStore = redisCache
	}

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}
	jwtManager := &auth.Manager{
		Secret:   []byte(cfg.JWTSecret),
		TokenTTL: time.Duration(cfg.TokenTTLMinutes) * time.Minute,
		Issuer:   "medibook-backend",
	}

	val := validation.New()
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second

	ledger := booking.NewLedger(cols.Appointments)

	availabilityRepo := availability.NewRepository(cols.Availabilities)
	availabilityService := availability.NewService(availabilityRepo, ledger, cfg.Timezone)
	availabilityHandler := availability.NewHandler(availabilityService, val, logger, cacheStore, cacheTTL)

	allocator := booking.NewAllocator(availabilityService, ledger, cfg.Timezone)
	bookingHandler := booking.NewHandler(allocator, ledger, val, logger, cacheStore, cfg.Timezone)

	directoryRepo := directory.NewRepository(cols.Users)
	directoryService := directory.NewService(directoryRepo, availabilityService)
	directoryHandler := directory.NewHandler(directoryService, val, logger)

	accountsRepo := accounts.NewRepository(cols.Users)
	accountsService := accounts.NewService(accountsRepo, availabilityService, ledger, jwtManager, cfg.Timezone)
	accountsHandler := accounts.NewHandler(accountsService, val, logger, cacheStore)

	paymentsService := payments.NewService(ledger, payments.NewSyntheticProvider(), cfg.PaymentCurrency)
	paymentsHandler := payments.NewHandler(paymentsService, val, logger, cfg.PaymentSecret)

	scheduler := cron.New(cron.WithLocation(cfg.Timezone))
	retention := jobs.NewRetention(availabilityService, ledger, cfg.Timezone, logger)
	if _, err := scheduler.AddFunc(cfg.RetentionSpec, retention.Run); err != nil {
		logger.Error("retention schedule invalid", slog.String("error", err.Error()))
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.FrontendOrigin))
	r.Use(chiMiddleware.Timeout(30 * time.Second))
	r.Use(middleware.Authenticate(jwtManager))

	rateWindow := time.Duration(cfg.RateLimitWindowSec) * time.Second
	bookingLimiter := middleware.NewRateLimiter(cfg.RateLimitBooking, rateWindow)
	authLimiter := middleware.NewRateLimiter(cfg.RateLimitAuth, rateWindow)

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(a chi.Router) {
			a.Use(authLimiter.Middleware)
			a.Post("/register", accountsHandler.Register)
			a.Post("/login", accountsHandler.Login)
		})

		api.Route("/doctors", func(d chi.Router) {
			d.Get("/search", directoryHandler.Search)
			d.Get("/available/{date}", directoryHandler.Available)
			d.Get("/profile/{doctorID}", directoryHandler.Profile)
		})

		api.With(middleware.RequireRole(models.RoleDoctor)).Post("/availability", availabilityHandler.Publish)
		api.Get("/availability/{doctorID}/{date}", availabilityHandler.Query)

		api.Route("/appointments", func(a chi.Router) {
			a.With(middleware.RequireRole(models.RolePatient), bookingLimiter.Middleware).Post("/", bookingHandler.Create)
			a.With(middleware.RequireRole(models.RolePatient, models.RoleDoctor)).Get("/", bookingHandler.List)
		})

		api.Route("/payments", func(p chi.Router) {
			p.With(middleware.RequireRole(models.RolePatient)).Post("/intent", paymentsHandler.CreateIntent)
			p.Post("/webhook", paymentsHandler.Webhook)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(middleware.RequireRole(models.RoleAdmin))
			admin.Get("/users", accountsHandler.AdminListUsers)
			admin.Post("/users", accountsHandler.AdminRegisterUser)
			admin.Delete("/users/{id}", accountsHandler.AdminDeleteUser)
			admin.Get("/appointments", bookingHandler.AdminList)
			admin.Post("/appointments", bookingHandler.AdminCreate)
			admin.Delete("/appointments/{id}", bookingHandler.AdminDelete)
		})
	})

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: r,
	}

	go func() {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
}
