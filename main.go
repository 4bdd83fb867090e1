package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ms-landing/internal/auth"
	"ms-landing/internal/catalog"
	"ms-landing/internal/checkout"
	"ms-landing/internal/checkout/checkout_api"
	"ms-landing/internal/config"
	"ms-landing/internal/database"
	"ms-landing/internal/kafka"
	"ms-landing/internal/logger"
	"ms-landing/internal/promo"
	"ms-landing/internal/promo/promo_api"
	purchase_db "ms-landing/internal/purchases/db"
	"ms-landing/internal/sales"
	"ms-landing/internal/sales/sales_api"
	"ms-landing/internal/share"
	"ms-landing/internal/sheets"
	"ms-landing/internal/sse"
	"ms-landing/internal/testimonials"
	testimonial_db "ms-landing/internal/testimonials/db"
	testimonial_mongo "ms-landing/internal/testimonials/mongo"
	"ms-landing/internal/testimonials/testimonial_api"
	"ms-landing/internal/utils"
	"ms-landing/internal/webhook"
	"ms-landing/internal/webhook/dedup"
	"ms-landing/internal/webhook/webhook_api"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	// .env has to be loaded before the log directory is known.
	envErr := godotenv.Load()

	cfg := config.Load()
	log := logger.New("ms-landing", cfg.Server.LogDir)
	log.SetLevel(cfg.Server.LogLevel)
	defer log.Close()

	log.Info("APP", "Starting landing service initialization")
	if envErr != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal("CONFIG", err.Error())
	}
	if cfg.Stripe.WebhookSecret == "" {
		log.Warn("CONFIG", "STRIPE_WEBHOOK_SECRET not set, webhook deliveries will be rejected")
	}
	if cfg.Sheets.WebhookURL == "" {
		log.Warn("CONFIG", "SHEETS_WEBHOOK_URL not set, purchases will not reach the spreadsheet")
	}

	ctx := context.Background()

	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	events, redisClient := processedEventStore(ctx, cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	broker := sse.NewBroker()
	purchases := purchase_db.New(bunDB)

	cat, err := catalog.Parse(cfg.Stripe.ProductPrices)
	if err != nil {
		log.Fatal("CONFIG", fmt.Sprintf("Invalid PRODUCT_PRICES: %v", err))
	}
	sessions, err := checkout.NewStripeSessions(cfg.Stripe.SecretKey)
	if err != nil {
		log.Fatal("CONFIG", err.Error())
	}
	checkoutService := checkout.NewCheckoutService(cat, sessions, purchases, log)

	webhookService := webhook.NewService(
		cfg.Stripe.WebhookSecret,
		events,
		cfg.Redis.EventTTL,
		purchases,
		sheets.NewClient(cfg.Sheets.WebhookURL, cfg.Sheets.Timeout, log),
		cfg.Sheets.TimeZone,
		log,
	)
	webhookService.Broker = broker

	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{cfg.Kafka.Topic}, log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		defer producer.Close()
		webhookService.Publisher = producer
		log.Info("KAFKA", fmt.Sprintf("Publishing purchases to %s", cfg.Kafka.Topic))
	}

	repo, mongoClient := testimonialRepository(ctx, cfg, bunDB, log)
	if mongoClient != nil {
		defer mongoClient.Disconnect(context.Background())
	}
	testimonialService := testimonials.NewService(repo, broker, log)

	countdown, err := promo.NewCountdown(cfg.Promo.EndsAt, cfg.Promo.TimeZone)
	if err != nil {
		log.Fatal("CONFIG", fmt.Sprintf("Invalid promo settings: %v", err))
	}
	if countdown.Rolling() {
		log.Info("PROMO", fmt.Sprintf("Rolling promo, resets at midnight %s", cfg.Promo.TimeZone))
	}

	checkoutHandler := checkout_api.NewHandler(checkoutService, log, cfg.Server.PublicURL)
	checkoutHandler.Broker = broker
	webhookHandler := webhook_api.NewHandler(webhookService, log)
	authMiddleware := auth.Middleware(verifier(ctx, cfg, log), log)
	testimonialHandler := testimonial_api.NewHandler(testimonialService, broker, authMiddleware, log)
	promoHandler := promo_api.NewHandler(countdown, log)
	shareHandler := share.NewHandler(share.NewQRGenerator(cfg.Server.PublicURL, share.DefaultSize), cat, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(log.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", healthHandler(bunDB, redisClient))

	r.Route("/api", func(r chi.Router) {
		checkoutHandler.RegisterRoutes(r)
		webhookHandler.RegisterRoutes(r)
		testimonialHandler.RegisterRoutes(r)
		promoHandler.RegisterRoutes(r)
		shareHandler.RegisterRoutes(r)

		if len(cfg.Admin.Emails) > 0 {
			salesHandler := sales_api.NewHandler(
				sales.NewService(bunDB, cfg.Sheets.TimeZone),
				purchases,
				log,
				authMiddleware,
				auth.RequireEmail(cfg.Admin.Emails, log),
			)
			salesHandler.RegisterRoutes(r)
		}
	})
	log.Info("ROUTER", "API routes registered under /api")

	if cfg.Server.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.Server.StaticDir)))
		log.Info("ROUTER", fmt.Sprintf("Serving static files from %s", cfg.Server.StaticDir))
	}

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Landing service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Landing service shutdown complete")
	}
}

// processedEventStore prefers Redis so webhook dedup survives restarts and
// is shared between replicas.
func processedEventStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (dedup.Store, *redis.Client) {
	if !cfg.Redis.Enabled() {
		log.Warn("REDIS", "REDIS_ADDR not set, processed webhook events are kept in memory")
		return dedup.NewMemoryStore(), nil
	}

	client, err := dedup.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
	if err != nil {
		log.Fatal("REDIS", err.Error())
	}
	return dedup.NewRedisStore(client), client
}

func testimonialRepository(ctx context.Context, cfg *config.Config, bunDB *bun.DB, log *logger.Logger) (testimonials.Repository, *mongo.Client) {
	if cfg.Testimonials.Store != "mongo" {
		log.Info("TESTIMONIAL", "Storing testimonials in the SQL database")
		return testimonial_db.New(bunDB), nil
	}

	client, err := testimonial_mongo.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		log.Fatal("MONGO", err.Error())
	}
	repo, err := testimonial_mongo.NewRepository(ctx, client, cfg.Mongo.Database, cfg.Mongo.Collection)
	if err != nil {
		log.Fatal("MONGO", err.Error())
	}
	log.Info("MONGO", fmt.Sprintf("✅ Storing testimonials in %s.%s", cfg.Mongo.Database, cfg.Mongo.Collection))
	return repo, client
}

func verifier(ctx context.Context, cfg *config.Config, log *logger.Logger) auth.Verifier {
	if cfg.Auth.Issuer == "" {
		log.Warn("AUTH", "AUTH_ISSUER not set, testimonial writes are disabled")
		return auth.DisabledVerifier{}
	}

	v, err := auth.NewOIDCVerifier(ctx, cfg.Auth.Issuer, cfg.Auth.Audience)
	if err != nil {
		log.Fatal("AUTH", err.Error())
	}
	log.Info("AUTH", fmt.Sprintf("Verifying tokens issued by %s", cfg.Auth.Issuer))
	return v
}

func healthHandler(bunDB *bun.DB, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"status": "ok", "database": "ok"}
		code := http.StatusOK

		if err := bunDB.PingContext(ctx); err != nil {
			status["status"], status["database"] = "degraded", err.Error()
			code = http.StatusServiceUnavailable
		}
		if redisClient != nil {
			status["redis"] = "ok"
			if err := redisClient.Ping(ctx).Err(); err != nil {
				status["status"], status["redis"] = "degraded", err.Error()
				code = http.StatusServiceUnavailable
			}
		}

		utils.WriteJSON(w, code, status)
	}
}
