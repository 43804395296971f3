package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mountain-sentinel/config"
	"mountain-sentinel/internal/database"
	"mountain-sentinel/internal/geo"
	"mountain-sentinel/internal/handler"
	"mountain-sentinel/internal/logger"
	"mountain-sentinel/internal/messaging"
	"mountain-sentinel/internal/repository"
	"mountain-sentinel/internal/service"
	"mountain-sentinel/internal/sos"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := os.Getenv("SENTINEL_CONFIG")
	if configPath == "" {
		configPath = "config/config.json"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.Component("main")

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		log.WithError(err).Fatal("failed to migrate schema")
	}
	log.Info("connected to database")

	// Connect to RabbitMQ
	rmq, err := messaging.NewRabbitMQ(cfg.RabbitMQ)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to RabbitMQ")
	}
	defer rmq.Close()
	log.Info("connected to RabbitMQ")

	// Initialize repositories
	outboxRepo := repository.NewOutboxRepository(db.SQL)
	reportRepo := repository.NewReportRepository(db.SQL, outboxRepo)
	sosRepo := repository.NewSOSRepository(db.SQL, outboxRepo)
	notificationRepo := repository.NewNotificationRepository(db.SQL)

	// Live queries
	reportHub := messaging.NewReportHub(reportRepo)
	go reportHub.Run()
	defer reportHub.Stop()

	pgListener := messaging.NewPGListener(db.DSN, reportHub)
	if err := pgListener.Start(); err != nil {
		log.WithError(err).Fatal("failed to listen for report changes")
	}
	defer pgListener.Stop()

	// Outbox relay and notification fan-out
	outboxWorker := messaging.NewOutboxWorker(outboxRepo, rmq)
	outboxWorker.Start()
	defer outboxWorker.Stop()

	notificationHub := messaging.NewNotificationHub()
	go notificationHub.Run()
	defer notificationHub.Stop()

	consumer := messaging.NewEventConsumer(rmq, notificationRepo, notificationHub)
	consumer.Start()
	defer consumer.Stop()
	log.Info("outbox worker and event consumer started")

	// Initialize services
	geocoder := geo.NewGeocoder(cfg.Geocoder, nil)
	reportService := service.NewReportService(reportRepo, geocoder, reportHub)
	notificationService := service.NewNotificationService(notificationRepo, notificationHub)
	sosService := service.NewSOSService(sosRepo)

	sosManager := sos.NewManager(cfg.SOS, sosService)
	defer sosManager.Shutdown()

	// Setup Gin
	gin.SetMode(cfg.Server.Mode)
	router := handler.SetupRouter(handler.Handlers{
		Report:       handler.NewReportHandler(reportService, reportHub, outboxWorker),
		Map:          handler.NewMapHandler(reportService, reportHub),
		Geo:          handler.NewGeoHandler(geocoder),
		SOS:          handler.NewSOSHandler(sosManager),
		Notification: handler.NewNotificationHandler(notificationService),
	}, handler.RouterConfig{
		JWTSecret:           cfg.JWT.Secret,
		TrustGatewayHeaders: cfg.Server.TrustGatewayHeaders,
		Logger:              logger.Get("http"),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("mountain sentinel starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	sosManager.Shutdown()
	reportHub.Stop()
	notificationHub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server shutdown")
	}
}
