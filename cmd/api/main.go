package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-warehouse-orders/internal/audit"
	"github.com/ariefcatur/go-warehouse-orders/internal/auth"
	"github.com/ariefcatur/go-warehouse-orders/internal/catalog"
	"github.com/ariefcatur/go-warehouse-orders/internal/config"
	"github.com/ariefcatur/go-warehouse-orders/internal/httpx"
	kafkax "github.com/ariefcatur/go-warehouse-orders/internal/kafka"
	"github.com/ariefcatur/go-warehouse-orders/internal/orders"
	"github.com/ariefcatur/go-warehouse-orders/internal/payments"
	"github.com/ariefcatur/go-warehouse-orders/internal/redisx"
	"github.com/ariefcatur/go-warehouse-orders/internal/users"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatalf("stores: %v", err)
	}
	defer st.close()

	// Redis is optional; nil interfaces below mean "no cache".
	var (
		productCache catalog.Cache
		orderCache   orders.Cache
	)
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		c := redisx.NewCache(rdb, cfg.ServiceName+":", cfg.CacheTTL)
		if err := c.Ping(ctx); err != nil {
			log.Printf("redis %s unreachable, continuing: %v", cfg.RedisAddr, err)
		}
		productCache, orderCache = c, c
	}

	// Without brokers the audit trail is written in-process.
	var (
		events orders.Publisher
		prod   *kafkax.Producer
	)
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, 1024)
		prod.Start()
		events = prod
	} else {
		events = inlineAudit{svc: &audit.Service{Store: st.trail, ServiceName: "auditor"}}
	}

	var gateway payments.Gateway
	if cfg.StripeSecretKey != "" {
		gateway = payments.NewStripeGateway(cfg.StripeSecretKey)
	} else {
		log.Println("STRIPE_SECRET_KEY not set, payment intents disabled")
	}

	cat := catalog.NewService(st.products, productCache)
	userSvc := &users.Service{Store: st.users}
	tokens := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenTTL, cfg.ServiceName)
	manager := &orders.Manager{
		Orders:  st.orders,
		Stock:   cat,
		Ledger:  st.ledger,
		Events:  events,
		Cache:   orderCache,
		Service: cfg.ServiceName,
	}

	gate := &httpx.Gate{Tokens: tokens, Users: userSvc}
	router := httpx.NewRouter()
	(&httpx.UsersHandler{Users: userSvc, Tokens: tokens, Gate: gate}).Register(router)
	(&httpx.ProductsHandler{Catalog: cat, Gate: gate}).Register(router)
	(&httpx.OrdersHandler{Orders: manager, Gate: gate, Trail: st.trail}).Register(router)
	(&httpx.ReviewsHandler{Reviews: st.reviews}).Register(router)
	(&httpx.PaymentsHandler{Gateway: gateway, Currency: cfg.Currency, Gate: gate}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Printf("HTTP listening at %s (store=%s)", cfg.HTTPAddr, cfg.Store)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	if prod != nil {
		prod.Close()
		prod.WaitClosed()
	}
}
