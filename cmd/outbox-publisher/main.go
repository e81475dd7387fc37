package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/event-registration/internal/adapters/crdb"
	"github.com/robertarktes/event-registration/internal/adapters/rabbit"
	"github.com/robertarktes/event-registration/internal/config"
	"github.com/robertarktes/event-registration/internal/observability"
	"github.com/robertarktes/event-registration/internal/outbox"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.CRDBDSN == "" || cfg.RabbitURL == "" {
		log.Fatalf("outbox publisher needs CRDB_DSN and RABBIT_URL")
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg, "registration-outbox-publisher")
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger()

	pool, err := pgxpool.New(context.Background(), cfg.CRDBDSN)
	if err != nil {
		log.Fatalf("failed to connect to crdb: %v", err)
	}
	defer pool.Close()
	repo := crdb.NewRepository(pool)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()
	rabbitPub, err := rabbit.NewPublisher(conn)
	if err != nil {
		log.Fatalf("failed to create publisher: %v", err)
	}
	defer rabbitPub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outbox.NewPublisher(repo, rabbitPub, logger).Run(ctx)
	logger.Info("Shutdown outbox publisher")
}
