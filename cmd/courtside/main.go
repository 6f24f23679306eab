package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtside/internal/aggregate"
	"github.com/fortuna/courtside/internal/api/rest"
	"github.com/fortuna/courtside/internal/api/websocket"
	"github.com/fortuna/courtside/internal/cache"
	"github.com/fortuna/courtside/internal/coordinator"
	"github.com/fortuna/courtside/internal/entity"
	"github.com/fortuna/courtside/internal/intent"
	"github.com/fortuna/courtside/internal/provider"
	"github.com/fortuna/courtside/internal/provider/balldontlie"
	"github.com/fortuna/courtside/internal/provider/espn"
	"github.com/fortuna/courtside/internal/provider/scoreboard"
	"github.com/fortuna/courtside/internal/service"
	"github.com/fortuna/courtside/internal/store"
	"github.com/fortuna/courtside/internal/validation"
)

const (
	serviceName    = "courtside"
	serviceVersion = "1.0.0"
)

func main() {
	// .env is a development convenience; absence is normal in production.
	_ = godotenv.Load()

	config := loadConfig()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(config.LogLevel); err == nil {
		log.SetLevel(level)
	}

	log.Infof("Starting %s v%s - NBA question answering service", serviceName, serviceVersion)

	// The registry comes from the catalog database when one is configured,
	// and from the built-in seed set otherwise. Either way it is immutable
	// for the life of the process.
	registry := entity.SeededRegistry()
	checkers := map[string]rest.HealthChecker{}

	var db *store.Database
	if config.CatalogDSN != "" {
		var err error
		db, err = store.NewDatabase(config.CatalogDSN, log)
		if err != nil {
			log.Warnf("⚠️  catalog database unavailable, using built-in seed set: %v", err)
		} else {
			defer db.Close()
			checkers["catalog"] = db
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := db.EnsureSchema(ctx); err != nil {
				log.Fatalf("Failed to prepare catalog schema: %v", err)
			}
			if err := db.SeedCatalog(ctx, registry); err != nil {
				log.Warnf("⚠️  catalog seed warning: %v (continuing anyway)", err)
			}
			if loaded, err := db.LoadRegistry(ctx); err != nil {
				log.Warnf("⚠️  catalog load failed, using built-in seed set: %v", err)
			} else {
				registry = loaded
				log.Info("✓ Entity registry loaded from catalog")
			}
			cancel()
		}
	}

	// Redis only caches provider-assigned player ids. Without it every cold
	// player lookup pays one extra search round trip, nothing more.
	var idCache balldontlie.IDCache
	if config.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(config.RedisURL, log)
		if err != nil {
			log.Warnf("⚠️  Redis unavailable, player id caching disabled: %v", err)
		} else {
			defer redisCache.Close()
			idCache = redisCache
			checkers["redis"] = redisCache
			log.Info("✓ Connected to Redis")
		}
	}

	resolver := entity.NewResolver(registry, log)
	validator := validation.NewValidator(resolver, log)
	aggregator := aggregate.New(validator, log)

	// Freshness order: ESPN's API updates within minutes of the final buzzer,
	// balldontlie lags it, and the scoreboard scrape is the slow last resort.
	adapters := []provider.Adapter{
		espn.NewAdapter(espn.NewClient(config.ESPNAPIBase, config.ProviderTimeout, log), log),
		balldontlie.NewAdapter(balldontlie.NewClient(config.BallDontLieBase, config.BallDontLieKey, config.ProviderTimeout), idCache, log),
	}
	scoreboardClient, err := scoreboard.NewClient(config.ScrapeTimeout, log)
	if err != nil {
		log.Warnf("⚠️  scoreboard scraper unavailable: %v", err)
	} else {
		defer scoreboardClient.Close()
		adapters = append(adapters, scoreboard.NewAdapter(scoreboardClient, log))
	}

	coord := coordinator.New(coordinator.Config{
		RequestDeadline:      config.RequestDeadline,
		TeamResultWindowDays: config.TeamResultWindowDays,
		AggregateWindowDays:  config.AggregateWindowDays,
		ScheduleWindowDays:   config.ScheduleWindowDays,
	}, resolver, validator, aggregator, adapters, log)

	classifier := intent.NewClassifier(registry, log)
	pipeline := service.NewPipeline(classifier, coord, log)

	restServer := rest.NewServer(config.RESTPort, pipeline, checkers, log)
	go func() {
		if err := restServer.Start(); err != nil {
			log.Errorf("REST server error: %v", err)
		}
	}()
	log.Infof("✓ REST API server listening on :%s", config.RESTPort)

	wsServer := websocket.NewServer(pipeline, log)
	go func() {
		if err := wsServer.Start(config.WSPort); err != nil {
			log.Errorf("WebSocket server error: %v", err)
		}
	}()
	log.Infof("✓ WebSocket server listening on :%s", config.WSPort)
	log.Infof("✓ %s v%s started successfully", serviceName, serviceVersion)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("REST API server shutdown error: %v", err)
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("WebSocket server shutdown error: %v", err)
	}

	log.Infof("%s stopped", serviceName)
}

type Config struct {
	CatalogDSN      string
	RedisURL        string
	RESTPort        string
	WSPort          string
	ESPNAPIBase     string
	BallDontLieBase string
	BallDontLieKey  string
	LogLevel        string

	RequestDeadline      time.Duration
	ProviderTimeout      time.Duration
	ScrapeTimeout        time.Duration
	TeamResultWindowDays int
	AggregateWindowDays  int
	ScheduleWindowDays   int
}

func loadConfig() Config {
	return Config{
		CatalogDSN:      os.Getenv("CATALOG_DSN"),
		RedisURL:        os.Getenv("REDIS_URL"),
		RESTPort:        getEnv("REST_PORT", "8080"),
		WSPort:          getEnv("WS_PORT", "8081"),
		ESPNAPIBase:     getEnv("ESPN_API_BASE", ""),
		BallDontLieBase: getEnv("BALLDONTLIE_API_BASE", ""),
		BallDontLieKey:  os.Getenv("BALLDONTLIE_API_KEY"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),

		RequestDeadline:      getDurationEnv("REQUEST_DEADLINE", 8*time.Second),
		ProviderTimeout:      getDurationEnv("PROVIDER_TIMEOUT", 4*time.Second),
		ScrapeTimeout:        getDurationEnv("SCRAPE_TIMEOUT", 8*time.Second),
		TeamResultWindowDays: getIntEnv("TEAM_RESULT_WINDOW_DAYS", 7),
		AggregateWindowDays:  getIntEnv("AGGREGATE_WINDOW_DAYS", 14),
		ScheduleWindowDays:   getIntEnv("SCHEDULE_WINDOW_DAYS", 7),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
