package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/username/folioledger/backend/src/config"
	"github.com/username/folioledger/backend/src/database"
	"github.com/username/folioledger/backend/src/handlers"
	"github.com/username/folioledger/backend/src/logger"
	"github.com/username/folioledger/backend/src/processors"
	"github.com/username/folioledger/backend/src/services"
	"github.com/username/folioledger/backend/src/store"
	"golang.org/x/time/rate"
)

var limiter *rate.Limiter

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == config.Cfg.AllowedOrigin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("FolioLedger backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	db, err := database.Open(config.Cfg.DatabasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	if err := database.RunMigrations(db, config.Cfg.DatabasePath); err != nil {
		stdlog.Fatalf("failed to run migrations: %v", err)
	}
	if err := database.EnsureBaseCurrency(db, config.Cfg.BaseCurrencyCode); err != nil {
		stdlog.Fatalf("base currency check failed: %v", err)
	}

	limiter = rate.NewLimiter(rate.Every(config.Cfg.RateLimitInterval), config.Cfg.RateLimitBurst)
	summaryCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)

	userStore := store.NewUserStore(db)
	currencyStore := store.NewCurrencyStore(db)
	investmentStore := store.NewInvestmentStore(db)
	priceStore := store.NewPriceStore(db)
	rateStore := store.NewRateStore(db)
	accountStore := store.NewAccountStore(db)
	holdingStore := store.NewHoldingStore(db)

	movementProcessor := processors.NewMovementProcessor(db)
	cashLedger := processors.NewCashLedger(db)
	valuationService := services.NewValuationService(accountStore, holdingStore, priceStore, rateStore, summaryCache)

	userHandler := handlers.NewUserHandler(userStore, valuationService)
	currencyHandler := handlers.NewCurrencyHandler(currencyStore, rateStore, valuationService)
	investmentHandler := handlers.NewInvestmentHandler(investmentStore, priceStore, valuationService)
	accountHandler := handlers.NewAccountHandler(accountStore, holdingStore, cashLedger, valuationService)
	holdingHandler := handlers.NewHoldingHandler(holdingStore, movementProcessor, valuationService)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "FolioLedger Backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/users", userHandler.List)
		r.Post("/users", userHandler.Create)
		r.Get("/users/{id}", userHandler.Get)
		r.Get("/users/{id}/accounts", accountHandler.ListByUser)
		r.Get("/users/{id}/valuation", userHandler.Valuation)

		r.Get("/currencies", currencyHandler.List)
		r.Post("/currencies", currencyHandler.Create)
		r.Put("/currencies/{id}", currencyHandler.Update)
		r.Delete("/currencies/{id}", currencyHandler.Delete)
		r.Post("/currencies/{id}/rates", currencyHandler.UpsertRate)
		r.Get("/currencies/{id}/rates", currencyHandler.RateHistory)
		r.Get("/currencies/{id}/rates/latest", currencyHandler.LatestRate)

		r.Get("/investments", investmentHandler.List)
		r.Post("/investments", investmentHandler.Create)
		r.Get("/investments/types", investmentHandler.ListTypes)
		r.Get("/investments/{id}", investmentHandler.Get)
		r.Put("/investments/{id}", investmentHandler.Update)
		r.Delete("/investments/{id}", investmentHandler.Delete)
		r.Post("/investments/{id}/prices", investmentHandler.UpsertPrice)
		r.Get("/investments/{id}/prices", investmentHandler.PriceHistory)
		r.Get("/investments/{id}/prices/latest", investmentHandler.LatestPrice)

		r.Post("/accounts", accountHandler.Create)
		r.Get("/accounts/{id}", accountHandler.Get)
		r.Put("/accounts/{id}", accountHandler.Update)
		r.Delete("/accounts/{id}", accountHandler.Delete)
		r.Get("/accounts/{id}/holdings", accountHandler.ListHoldings)
		r.Post("/accounts/{id}/cash", accountHandler.RecordCashTransaction)
		r.Get("/accounts/{id}/cash", accountHandler.CashHistory)
		r.Delete("/accounts/{id}/cash/{txID}", accountHandler.ReverseCashTransaction)
		r.Get("/accounts/{id}/valuation", accountHandler.Valuation)

		r.Post("/holdings", holdingHandler.Create)
		r.Get("/holdings/{id}", holdingHandler.Get)
		r.Put("/holdings/{id}", holdingHandler.Update)
		r.Delete("/holdings/{id}", holdingHandler.Delete)
		r.Post("/holdings/{id}/movements", holdingHandler.ApplyMovement)
		r.Get("/holdings/{id}/movements", holdingHandler.ListMovements)
		r.Delete("/holdings/{id}/movements/{movementID}", holdingHandler.ReverseMovement)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "Not found"})
			return
		}
		http.NotFound(w, r)
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  config.Cfg.ReadTimeout,
		WriteTimeout: config.Cfg.WriteTimeout,
		IdleTimeout:  config.Cfg.IdleTimeout,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
