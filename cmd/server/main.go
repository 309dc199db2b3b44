package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/event-bookings/internal/config"
	"github.com/iliyamo/event-bookings/internal/database"
	"github.com/iliyamo/event-bookings/internal/handler"
	"github.com/iliyamo/event-bookings/internal/middleware"
	"github.com/iliyamo/event-bookings/internal/presenter"
	"github.com/iliyamo/event-bookings/internal/push"
	"github.com/iliyamo/event-bookings/internal/queue"
	"github.com/iliyamo/event-bookings/internal/reminder"
	"github.com/iliyamo/event-bookings/internal/repository"
	"github.com/iliyamo/event-bookings/internal/router"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis is optional; without it cache, rate limit and push dedup are off.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	}

	bookings := repository.NewBookingRepo(db)
	reminders := repository.NewReminderRepo(db)
	customers := repository.NewCustomerRepo(db)

	publisher := queue.NewPublisher(cfg.RabbitURL)
	defer publisher.Close()

	var gateway reminder.PushGateway = push.LogGateway{}
	if cfg.PushGatewayURL != "" {
		gateway = push.NewHTTPGateway(cfg.PushGatewayURL, cfg.PushAccessToken)
	}
	var dedup reminder.Deduper
	if d := push.NewRedisDedup(rdb, "push", cfg.PushDedupTTL); d != nil {
		dedup = d
	}

	pipeline := reminder.NewPipeline(reminders, customers, publisher, gateway, dedup)
	planner := &reminder.Planner{Bookings: bookings, Reminders: reminders, LeadTime: cfg.ReminderLeadTime}
	scheduler := &reminder.Scheduler{
		Store:      reminders,
		Queue:      publisher,
		Interval:   cfg.PollInterval,
		StaleAfter: cfg.StaleAfter,
		Batch:      cfg.ClaimBatch,
	}

	consumer := queue.NewConsumer(cfg.RabbitURL, cfg.QueuePrefetch)
	pipeline.Register(consumer)
	planner.Register(consumer)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("consumer: stopped: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("reminder-scheduler: stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				log.Printf("http: %s %s %d %s err=%v", v.Method, v.URI, v.Status, v.Latency, v.Error)
				return nil
			}
			log.Printf("http: %s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	router.RegisterRoutes(e, db)
	router.RegisterBookings(e,
		handler.NewBookingHandler(bookings, presenter.New(cfg.DisplayTimezone)),
		router.Guards{
			JWTSecret: cfg.JWTSecret,
			LoginURL:  cfg.LoginURL,
			RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
			Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
		})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, tz=%s)", addr, cfg.Env, cfg.DisplayTimezone)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("http: shutdown: %v", err)
	}
	wg.Wait()
}
