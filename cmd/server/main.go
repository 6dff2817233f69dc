package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"trip-dispatch-service/internal/adapters/cache"
	"trip-dispatch-service/internal/adapters/events"
	"trip-dispatch-service/internal/adapters/notify"
	"trip-dispatch-service/internal/adapters/ors"
	"trip-dispatch-service/internal/adapters/repositories"
	"trip-dispatch-service/internal/api"
	"trip-dispatch-service/internal/config"
	"trip-dispatch-service/internal/platform/db"
	"trip-dispatch-service/internal/platform/obs"
	"trip-dispatch-service/internal/ports"
	"trip-dispatch-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (Postgres/SQLite, ORS, Redis, mail) behind
// ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration failed")
	}

	obs.InitLogger(cfg.LogLevel)

	sqlDB, stores, err := openStores(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database setup failed")
	}
	defer sqlDB.Close()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
	}

	// Travel-time cache: Redis when available, otherwise in-process.
	var durationCache ports.DurationCache = cache.NewMemoryDurationCache()
	if redisClient != nil {
		durationCache = cache.NewRedisDurationCache(redisClient)
	}

	var publisher ports.EventPublisher = events.NopPublisher{}
	if redisClient != nil {
		publisher = events.NewRedisPublisher(redisClient, cfg.EventsChannel)
	}

	// Routing and geocoding are optional capabilities: without an API key
	// the estimator falls back to haversine and the validator reports the
	// missing key as a configuration error.
	var (
		travelProvider ports.TravelTimeProvider
		geocoder       ports.Geocoder
	)
	if cfg.ORSAPIKey != "" {
		orsClient, err := ors.NewClient(cfg.ORSAPIKey)
		if err != nil {
			log.Fatal().Err(err).Msg("ORS client setup failed")
		}
		travelProvider = ors.NewTravelTimeProvider(orsClient)
		geocoder = ors.NewGeocoder(orsClient)
	} else {
		log.Warn().Msg("ORS_API_KEY not set: using haversine estimates, geocoding disabled")
	}

	var notifier ports.Notifier = notify.NewLogNotifier()
	if cfg.MailAPIURL != "" {
		mailNotifier, err := notify.NewMailNotifier(cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailSender)
		if err != nil {
			log.Fatal().Err(err).Msg("mail notifier setup failed")
		}
		notifier = mailNotifier
	}

	estimator := services.NewTravelTimeEstimator(travelProvider, durationCache)
	validator := services.NewPolicyValidator(stores.bookings, geocoder, config.FilePolicySource(cfg.PolicyPath), publisher)
	scheduler := services.NewPickupScheduler(stores.bookings, stores.routes, estimator)
	queue := services.NewDispatchQueue(stores.bookings, stores.partners, stores.logs, notifier, cfg.DispatchEnabled)

	router := api.NewRouter(validator, scheduler, queue)

	// Timeouts are tuned for cold-cache schedule computation (external API latency).
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	// Drain in-flight dispatch retry loops before exiting.
	queue.Wait()
}

type storeSet struct {
	bookings ports.BookingStore
	routes   ports.RouteStore
	partners ports.PartnerStore
	logs     ports.DispatchLogStore
}

// openStores selects the backend by environment presence and initializes
// schema (plus demo seed data when the seed file exists).
func openStores(cfg *config.Config) (*sql.DB, *storeSet, error) {
	if cfg.UsePostgres() {
		sqlDB, err := db.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}

		if err := repositories.InitPostgresSchema(sqlDB); err != nil {
			return nil, nil, err
		}
		if _, statErr := os.Stat(cfg.SeedPath); statErr == nil {
			if err := repositories.SeedPostgresFromJSON(sqlDB, cfg.SeedPath); err != nil {
				return nil, nil, err
			}
		}

		return sqlDB, &storeSet{
			bookings: repositories.NewPostgresBookingStore(sqlDB),
			routes:   repositories.NewPostgresRouteStore(sqlDB),
			partners: repositories.NewPostgresPartnerStore(sqlDB),
			logs:     repositories.NewPostgresDispatchLogStore(sqlDB),
		}, nil
	}

	sqlDB, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}

	if err := repositories.InitSqliteSchema(sqlDB); err != nil {
		return nil, nil, err
	}
	if _, statErr := os.Stat(cfg.SeedPath); statErr == nil {
		if err := repositories.SeedSqliteFromJSON(sqlDB, cfg.SeedPath); err != nil {
			return nil, nil, err
		}
	}

	return sqlDB, &storeSet{
		bookings: repositories.NewSqliteBookingStore(sqlDB),
		routes:   repositories.NewSqliteRouteStore(sqlDB),
		partners: repositories.NewSqlitePartnerStore(sqlDB),
		logs:     repositories.NewSqliteDispatchLogStore(sqlDB),
	}, nil
}
