package main

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"banket/config"
	"banket/internal/cache"
	"banket/internal/handler"
	"banket/internal/lock"
	"banket/internal/middleware"
	"banket/internal/notify"
	"banket/internal/service"
	"banket/internal/store"
	"banket/pkg/database"
	"banket/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	// Store: durable postgres by default, in-memory when asked for.
	var st store.Store
	if cfg.Store == "memory" {
		st = store.NewMemory()
		log.Warn("using in-memory store; nothing will survive a restart")
	} else {
		db, err := database.NewPostgresDB(cfg.DSN())
		if err != nil {
			log.WithError(err).Fatal("database connection failed")
		}
		gs, err := store.NewGorm(db)
		if err != nil {
			log.WithError(err).Fatal("database migration failed")
		}
		st = gs
	}

	// Notifier: AMQP when configured, log-only otherwise; either way calls
	// go through the bounded fire-and-forget dispatcher.
	var base notify.Notifier = notify.NewLog(log)
	if cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL)
		if err != nil {
			log.WithError(err).Fatal("rabbitmq connection failed")
		}
		defer pub.Close()
		base = notify.NewAMQP(pub)
	}
	dispatcher := notify.NewDispatcher(base, cfg.NotifyQueueDepth, log)
	defer dispatcher.Close()

	avail := cache.NewAvailability(newRedisClient(cfg.RedisAddr, log), time.Minute, log)

	// One serializer for per-event seat mutations, one for per-payment
	// confirmation.
	eventLocks := lock.NewKeyed()
	paymentLocks := lock.NewKeyed()

	bookingSvc := service.NewBookingService(st, eventLocks, dispatcher, avail, log, cfg.ReservationWindow)
	paymentSvc := service.NewPaymentService(st, paymentLocks, dispatcher, log, cfg.PaymentInstruction)
	eventSvc := service.NewEventService(st, avail)

	sweeper := service.NewSweeper(st, bookingSvc, cfg.SweepInterval, log)
	if err := sweeper.Start(); err != nil {
		log.WithError(err).Fatal("failed to start expiration sweeper")
	}
	defer func() { _ = sweeper.Stop() }()

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.WithFields(logrus.Fields{
				"method": v.Method,
				"uri":    v.URI,
				"status": v.Status,
			}).Info("request")
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "banket"})
	})

	handler.NewEventHandler(eventSvc).RegisterRoutes(e)
	handler.NewBookingHandler(bookingSvc).RegisterRoutes(e)
	handler.NewPaymentHandler(paymentSvc).RegisterRoutes(e)

	log.WithField("port", cfg.ServerPort).Info("banket starting")
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

// newRedisClient connects to Redis for the advisory availability cache.
// Returns nil when no address is configured or the server is unreachable;
// the cache degrades to pass-through in that case.
func newRedisClient(addr string, log *logrus.Logger) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("redis unreachable, availability cache disabled")
		return nil
	}
	return client
}
