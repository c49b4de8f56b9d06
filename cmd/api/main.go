package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"greenstake/internal/chain"
	"greenstake/internal/forecast"
	"greenstake/internal/handler"
	"greenstake/internal/middleware"
	"greenstake/internal/stake"
	"greenstake/internal/store"
	"greenstake/internal/trade"
	"greenstake/pkg/config"
	"greenstake/pkg/logger"
	"greenstake/pkg/validator"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New("greenstake-api")

	log.Info("Starting GreenStake API", logger.Fields{
		"port": cfg.Server.Port,
	})

	// Record store: Postgres when DATABASE_URL is set, in-memory otherwise.
	var (
		records interface {
			forecast.Repository
			stake.Repository
			trade.Repository
		}
	)
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatal("Failed to connect to database", logger.Fields{
				"error": err.Error(),
			})
		}
		defer db.Close()

		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

		log.Info("Database connected", nil)
		records = store.NewPostgres(db)
	} else {
		log.Info("No DATABASE_URL set, using in-memory store", nil)
		records = store.NewMemory()
	}

	// Inference predictor is optional; without a token every forecast takes
	// the computed fallback path.
	var predictor forecast.Predictor
	if cfg.AI.Token != "" {
		predictor = forecast.NewHuggingFace(cfg.AI.BaseURL, cfg.AI.Model, cfg.AI.Token, cfg.AI.Timeout)
		log.Info("Inference predictor configured", logger.Fields{"model": cfg.AI.Model})
	} else {
		log.Info("No HF_TOKEN set, forecasts use computed fallback", nil)
	}

	forecastService := forecast.NewService(records, predictor, log)
	stakeService := stake.NewService(records, log)
	tradeService := trade.NewService(records, log)

	// Chain source for stats and the price stream. Without an RPC endpoint
	// the demo mock stands in.
	var source interface {
		handler.StatsSource
		handler.PriceSource
	}
	if cfg.Chain.RPCURL != "" {
		client, err := chain.NewClient(chain.Options{
			RPCURL:          cfg.Chain.RPCURL,
			ChainID:         cfg.Chain.ChainID,
			ContractAddress: cfg.Chain.ContractAddress,
			PythAddress:     cfg.Chain.PythAddress,
			PrivateKey:      cfg.Chain.PrivateKey,
			CallTimeout:     cfg.Chain.RequestTimeout,
		}, log)
		if err != nil {
			log.Fatal("Invalid chain configuration", logger.Fields{
				"error": err.Error(),
			})
		}
		defer client.Close()
		source = client
		log.Info("Chain client configured", logger.Fields{
			"chain_id": cfg.Chain.ChainID,
			"contract": cfg.Chain.ContractAddress,
		})
	} else {
		log.Info("No CHAIN_RPC_URL set, using demo chain source", nil)
		source = chain.NewMockSource()
	}

	val := validator.New()
	forecastHandler := handler.NewForecastHandler(forecastService, val, log)
	stakeHandler := handler.NewStakeHandler(stakeService, val, log)
	tradeHandler := handler.NewTradeHandler(tradeService, val, log)
	systemHandler := handler.NewSystemHandler(cfg.AI.Token != "", source, log)
	priceHandler := handler.NewPriceHandler(source, 15*time.Second, log)

	r := mux.NewRouter()

	r.Use(middleware.CORS)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recovery)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.NewLoggingMiddleware(log).Log)
	r.Use(middleware.BodyLimit(1 << 20)) // 1MB global cap

	// Rate limiting is optional; enabled when Redis is configured.
	if cfg.Redis.URL != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.URL,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		r.Use(middleware.NewRateLimiter(redisClient, 120, time.Minute).Limit)
		log.Info("Redis rate limiting enabled", nil)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", systemHandler.Health).Methods("GET")
	api.HandleFunc("/stats", systemHandler.GetStats).Methods("GET")
	api.HandleFunc("/price/ws", priceHandler.Stream).Methods("GET")

	api.HandleFunc("/forecast", forecastHandler.Create).Methods("POST")
	api.HandleFunc("/forecast/{walletAddress}", forecastHandler.ListByWallet).Methods("GET")

	api.HandleFunc("/stake", stakeHandler.Create).Methods("POST")
	api.HandleFunc("/stake/{id}", stakeHandler.Update).Methods("PATCH")
	api.HandleFunc("/stake/{walletAddress}", stakeHandler.ListByWallet).Methods("GET")

	api.HandleFunc("/trade", tradeHandler.Create).Methods("POST")
	api.HandleFunc("/trade/{id}", tradeHandler.Update).Methods("PATCH")
	api.HandleFunc("/trade/{walletAddress}", tradeHandler.ListByWallet).Methods("GET")

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		log.Info("GreenStake API started", logger.Fields{
			"address": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", logger.Fields{
				"error": err.Error(),
			})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down GreenStake API...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", logger.Fields{
			"error": err.Error(),
		})
	}

	log.Info("GreenStake API stopped gracefully", nil)
}
