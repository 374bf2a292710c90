package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	_ "github.com/tair/field-service/docs"
	"github.com/tair/field-service/internal/app"
	"github.com/tair/field-service/internal/config"
	"github.com/tair/field-service/kafka"
	"github.com/tair/field-service/pkg/auth"
	"github.com/tair/field-service/pkg/database"
	"github.com/tair/field-service/pkg/httpx"
	"github.com/tair/field-service/pkg/logger"
	"github.com/tair/field-service/pkg/tracing"
)

const serviceVersion = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("field-service", true)
		logger.Logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	logger.Init(cfg.ServiceName, cfg.IsDevelopment())
	logger.SetLevel(cfg.LogLevel)

	logger.Logger.Info().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Str("log_level", cfg.LogLevel).
		Msg("Starting field service")

	auth.SetSecret(cfg.JWTSecret)

	// Initialize tracing
	tp, err := tracing.InitTracer(cfg.Tracing(serviceVersion))
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("Failed to initialize tracer, continuing without export")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	// Connect to database
	db, err := database.NewGormConnection(cfg.Database)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	if err := app.Migrate(db); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}
	logger.Logger.Info().Msg("Database initialized successfully")

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Events go to Kafka when brokers are configured, otherwise they are dispatched in process
	var publisher kafka.EventPublisher
	var bus *kafka.LocalBus
	if cfg.Kafka.Enabled() {
		p, err := kafka.NewPublisher(cfg.Kafka.Brokers)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to create Kafka publisher")
		}
		defer p.Close()
		publisher = p
	} else {
		bus = kafka.NewLocalBus()
		publisher = bus
		logger.Logger.Info().Msg("No Kafka brokers configured, using in-process event bus")
	}

	application, err := app.InitializeApplication(db, redisClient, publisher, cfg)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize application")
	}

	if err := app.Seed(ctx, application.Repositories, cfg.Seed); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to seed reference data")
	}

	if bus != nil {
		application.Subscribe(bus)
	} else {
		consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID,
			[]string{kafka.TopicJobs, kafka.TopicRequisitions})
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to create Kafka consumer")
		}
		defer consumer.Close()
		application.Subscribe(consumer)
		if err := consumer.Start(ctx); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to start Kafka consumer")
		}
	}

	ping := func(ctx context.Context) error {
		return sqlDB.PingContext(ctx)
	}

	routerCfg := app.RouterConfig{
		Health:  ping,
		Swagger: httpSwagger.WrapHandler,
	}
	if redisClient != nil {
		routerCfg.RateLimiter = httpx.NewRateLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           app.NewRouter(application, routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go startHTTPServer(httpServer)

	healthServer := health.NewServer()
	grpcServer := app.NewGRPCServer(healthServer)
	go app.WatchHealth(ctx, healthServer, ping, 15*time.Second)
	go startGRPCServer(grpcServer, cfg.GRPCPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down servers...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	grpcServer.GracefulStop()

	logger.Logger.Info().Msg("Field service stopped")
}

func startHTTPServer(server *http.Server) {
	logger.Logger.Info().
		Str("addr", server.Addr).
		Str("metrics_endpoint", "/metrics").
		Str("swagger_endpoint", "/swagger/index.html").
		Msg("HTTP server started")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
	}
}

func startGRPCServer(server *grpc.Server, port string) {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		logger.Logger.Fatal().Err(err).Str("port", port).Msg("Failed to listen for gRPC")
	}

	logger.Logger.Info().Str("port", port).Msg("gRPC server started")
	if err := server.Serve(lis); err != nil {
		logger.Logger.Error().Err(err).Msg("gRPC server stopped")
	}
}
