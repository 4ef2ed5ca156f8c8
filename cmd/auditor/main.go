package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-warehouse-orders/internal/audit"
	"github.com/ariefcatur/go-warehouse-orders/internal/config"
	kafkax "github.com/ariefcatur/go-warehouse-orders/internal/kafka"
	"github.com/ariefcatur/go-warehouse-orders/internal/orders"
	"github.com/ariefcatur/go-warehouse-orders/internal/postgres"
	"github.com/ariefcatur/go-warehouse-orders/internal/redisx"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if len(cfg.KafkaBrokers) == 0 {
		log.Fatal("KAFKA_BROKERS is required for the auditor")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	svc := &audit.Service{Store: &audit.Repo{DB: db}, ServiceName: "auditor"}
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		svc.Dedup = redisx.NewCache(rdb, "", redisx.TTLDedup)
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.AuditorGroup, orders.Topics, cfg.AuditorWorkers)
	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Printf("auditor started: group=%s topics=%v workers=%d", cfg.AuditorGroup, orders.Topics, cfg.AuditorWorkers)
		if err := cons.Start(ctx, svc.HandleOrderEvent); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Println("shutting down auditor...")
	cancel()
	<-done
}
