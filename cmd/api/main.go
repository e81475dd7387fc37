package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/robertarktes/event-registration/internal/adapters/crdb"
	mongoadapter "github.com/robertarktes/event-registration/internal/adapters/mongo"
	"github.com/robertarktes/event-registration/internal/adapters/qr"
	redisadapter "github.com/robertarktes/event-registration/internal/adapters/redis"
	"github.com/robertarktes/event-registration/internal/catalog"
	"github.com/robertarktes/event-registration/internal/config"
	"github.com/robertarktes/event-registration/internal/forms"
	httphandler "github.com/robertarktes/event-registration/internal/http"
	"github.com/robertarktes/event-registration/internal/idempotency"
	"github.com/robertarktes/event-registration/internal/observability"
	"github.com/robertarktes/event-registration/internal/payment"
	"github.com/robertarktes/event-registration/internal/rateLimit"
	"github.com/robertarktes/event-registration/internal/registration"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdown, err := observability.SetupOTel(context.Background(), cfg, "registration-api")
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdown()

	logger := observability.NewLogger()
	ctx := context.Background()

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	redisCache := redisadapter.NewCache(redisClient)
	sessions := redisadapter.NewSessionStore(redisClient, cfg.SessionTTL)
	drafts := redisadapter.NewDrafts(redisClient, cfg.SessionTTL)
	idemp := idempotency.NewIdempotency(redisadapter.NewIdempotency(redisClient), cfg.IdempotencyTTL)
	rl := rateLimit.NewRateLimiter(redisCache, logger)

	checks := []httphandler.Check{{Name: "redis", Probe: redisCache.Ping}}

	var (
		confirmations registration.Confirmations = registration.NewMemoryConfirmations()
		submissions   forms.Repository
	)
	if cfg.CRDBDSN != "" {
		pool, err := pgxpool.New(ctx, cfg.CRDBDSN)
		if err != nil {
			log.Fatalf("failed to connect to crdb: %v", err)
		}
		defer pool.Close()
		repo := crdb.NewRepository(pool)
		if err := repo.Migrate(ctx); err != nil {
			log.Fatalf("failed to migrate crdb: %v", err)
		}
		confirmations = repo
		submissions = repo
		checks = append(checks, httphandler.Check{Name: "crdb", Probe: repo.Ping})
	} else {
		logger.Warn("CRDB_DSN not set, confirmations are kept in memory and form submissions are not stored")
	}

	cat := catalog.Default()
	regOpts := []registration.Option{
		registration.WithConfirmations(confirmations),
		registration.WithLocker(redisCache),
		registration.WithPayments(payment.NewSimulated(cfg.PaymentDelay, logger)),
		registration.WithLogger(logger),
		registration.WithLockTTL(cfg.PaymentDelay + 30*time.Second),
	}

	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatalf("failed to connect to mongo: %v", err)
		}
		defer mongoClient.Disconnect(context.Background())
		mongoDB := mongoClient.Database(cfg.MongoDatabase)

		regOpts = append(regOpts, registration.WithAuditor(mongoadapter.NewAuditLogger(mongoDB, logger)))
		checks = append(checks, httphandler.Check{Name: "mongo", Probe: func(ctx context.Context) error {
			return mongoClient.Ping(ctx, nil)
		}})

		if cfg.CatalogSource == config.CatalogMongo {
			cat, err = loadCatalog(ctx, mongoadapter.NewCatalogRepository(mongoDB, logger), logger)
			if err != nil {
				log.Fatalf("failed to load catalog: %v", err)
			}
		}
	}

	reg := registration.NewService(cat, sessions, regOpts...)
	formsSvc := forms.NewService(submissions, drafts, logger)
	qrClient := qr.NewClient(cfg.QREndpoint, nil, logger)

	handlers := httphandler.NewHandlers(reg, formsSvc, qrClient, checks...)
	r := httphandler.SetupRouter(handlers, logger, httphandler.RouterConfig{
		Limiter:            rl,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Idempotency:        idemp,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("registration api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.PaymentDelay+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	logger.Info("Server exiting")
}

// loadCatalog reads the catalog from mongo, seeding the built-in one into
// empty collections first.
func loadCatalog(ctx context.Context, repo *mongoadapter.CatalogRepository, logger observability.Logger) (*catalog.Catalog, error) {
	cat, err := repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(cat.Events()) > 0 {
		return cat, nil
	}
	logger.Info("catalog collections empty, seeding built-in catalog")
	if err := repo.Seed(ctx, catalog.Default()); err != nil {
		return nil, err
	}
	return repo.Load(ctx)
}
