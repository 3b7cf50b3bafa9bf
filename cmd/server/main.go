package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"supportmatch/internal/config"
	handlers "supportmatch/internal/handlers/shared"
	"supportmatch/internal/middleware"
	"supportmatch/internal/notifications"
	"supportmatch/internal/services"
	"supportmatch/pkg/cache"
	"supportmatch/pkg/logger"
	"supportmatch/pkg/stream"
	"supportmatch/pkg/websocket"
	"supportmatch/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.App.LogLevel),
		Format:     cfg.App.LogFormat,
		Output:     "stdout",
		TimeFormat: time.RFC3339,
		Colors:     cfg.App.Debug,
		AppName:    cfg.App.Name,
		Version:    cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	if err := run(cfg, appLogger); err != nil {
		appLogger.WithError(err).Fatal("Server stopped with error")
	}
}

func run(cfg *config.Config, appLogger *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openStorage(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := repos.close(); err != nil {
			appLogger.WithError(err).Warn("Failed to close storage")
		}
	}()

	hub := websocket.NewHub(appLogger)
	go hub.Run(ctx)
	wsPublisher := notifications.NewWebSocketPublisher(hub)

	var (
		locker     services.Locker        = cache.NewLocalLocker()
		limiter    middleware.RateLimiter = cache.NewLocalRateLimiter()
		publishers []services.EventPublisher
	)

	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			IdleTimeout:  cfg.Redis.IdleTimeout,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return err
		}
		defer redisCache.Close()

		locker = redisCache
		limiter = redisCache
		repos.health["redis"] = redisCache

		// Every replica relays redis events to its own websocket clients.
		publishers = append(publishers, notifications.NewRedisPublisher(redisCache))
		relay := notifications.NewRedisRelay(redisCache, wsPublisher, appLogger)
		go func() {
			if err := relay.Run(ctx); err != nil {
				appLogger.WithError(err).Error("Redis relay stopped")
			}
		}()
		appLogger.WithField("addr", cfg.Redis.Addr()).Info("Connected to Redis")
	} else {
		publishers = append(publishers, wsPublisher)
	}

	if cfg.Kafka.Enabled {
		producer := stream.NewProducer(&stream.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.MatchTopic,
			BatchTimeout: cfg.Kafka.BatchTimeout,
			WriteTimeout: cfg.Kafka.WriteTimeout,
			RequiredAcks: cfg.Kafka.RequiredAcks,
		})
		defer producer.Close()
		publishers = append(publishers, notifications.NewKafkaPublisher(producer))
		appLogger.WithField("topic", producer.Topic()).Info("Publishing match events to Kafka")
	}

	publisher := notifications.NewMultiPublisher(publishers...)

	matcher := services.NewMatchingService(cfg.Matching, repos.reports, repos.matches, repos.tx,
		services.NewCatalogService(repos.services), locker, publisher, appLogger)
	provisioner := services.NewAppointmentProvisioner(repos.reports, repos.matches, repos.appointments, repos.tx,
		cfg.Matching.AppointmentDefaultLead)
	reportService := services.NewReportService(repos.reports, repos.matches, matcher, appLogger)
	supportServiceService := services.NewSupportServiceService(repos.services, appLogger)
	matchService := services.NewMatchService(repos.reports, repos.services, repos.matches, repos.tx, provisioner, publisher, appLogger)
	appointmentService := services.NewAppointmentService(repos.appointments, appLogger)

	sweeper := services.NewPendingSweeper(cfg.Matching, repos.reports, repos.matches, repos.tx, locker, publisher, appLogger)
	if sweeper.Enabled() {
		go sweeper.Run(ctx)
		appLogger.WithFields(map[string]interface{}{
			"pending_ttl": cfg.Matching.PendingTTL.String(),
			"interval":    cfg.Matching.SweepInterval.String(),
		}).Info("Pending match sweeper started")
	}

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		return err
	}

	router.Use(middleware.RecoveryMiddleware(appLogger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))

	routes.Setup(router, &routes.Handlers{
		Report:      handlers.NewReportHandler(reportService, appLogger),
		Service:     handlers.NewSupportServiceHandler(supportServiceService, appLogger),
		Match:       handlers.NewMatchHandler(matchService, appLogger),
		Appointment: handlers.NewAppointmentHandler(appointmentService, appLogger),
		Admin:       handlers.NewAdminHandler(sweeper, appLogger),
		Health:      handlers.NewHealthHandler(repos.health),
		WebSocket: websocket.NewHandler(hub, notifications.ServiceRoomResolver(repos.services), websocket.Options{
			ReadBufferSize:    cfg.WebSocket.ReadBufferSize,
			WriteBufferSize:   cfg.WebSocket.WriteBufferSize,
			HandshakeTimeout:  cfg.WebSocket.HandshakeTimeout,
			PingInterval:      cfg.WebSocket.PingInterval,
			PongTimeout:       cfg.WebSocket.PongTimeout,
			MaxMessageSize:    cfg.WebSocket.MaxMessageSize,
			EnableCompression: cfg.WebSocket.EnableCompression,
			AllowedOrigins:    cfg.WebSocket.AllowedOrigins,
		}),
	}, routes.Options{
		JWTSecret:     cfg.Security.JWTSecret,
		WebSocketPath: cfg.WebSocket.Path,
		RateLimit:     middleware.RateLimitMiddleware(limiter, cfg.Security.RateLimitPerMinute, appLogger),
	})

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.WithFields(map[string]interface{}{
			"addr":    server.Addr,
			"storage": cfg.Storage.Driver,
		}).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	appLogger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
