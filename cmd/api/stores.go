package main

import (
	"context"
	"fmt"
	"log"

	"github.com/ariefcatur/go-warehouse-orders/internal/audit"
	"github.com/ariefcatur/go-warehouse-orders/internal/catalog"
	"github.com/ariefcatur/go-warehouse-orders/internal/config"
	"github.com/ariefcatur/go-warehouse-orders/internal/memstore"
	"github.com/ariefcatur/go-warehouse-orders/internal/orders"
	"github.com/ariefcatur/go-warehouse-orders/internal/payments"
	"github.com/ariefcatur/go-warehouse-orders/internal/postgres"
	"github.com/ariefcatur/go-warehouse-orders/internal/reviews"
	"github.com/ariefcatur/go-warehouse-orders/internal/users"
	kafkago "github.com/segmentio/kafka-go"
)

type stores struct {
	products catalog.Store
	orders   orders.OrderStore
	users    users.Store
	reviews  reviews.Store
	ledger   orders.PaymentLedger
	trail    audit.Store
	close    func()
}

func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return &stores{
			products: memstore.NewProducts(),
			orders:   memstore.NewOrders(),
			users:    memstore.NewUsers(),
			reviews:  &memstore.Reviews{},
			ledger:   &memstore.Ledger{},
			trail:    &memstore.Events{},
			close:    func() {},
		}, nil
	case config.StorePostgres:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return &stores{
			products: &catalog.Repo{DB: db},
			orders:   &orders.Repo{DB: db},
			users:    &users.Repo{DB: db},
			reviews:  &reviews.Repo{DB: db},
			ledger:   &payments.LedgerRepo{DB: db},
			trail:    &audit.Repo{DB: db},
			close:    db.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown STORE %q", cfg.Store)
}

// inlineAudit feeds order events straight to the auditor when no broker is
// configured.
type inlineAudit struct{ svc *audit.Service }

func (a inlineAudit) Publish(topic string, key, value []byte, headers ...kafkago.Header) {
	m := kafkago.Message{Topic: topic, Key: key, Value: value, Headers: headers}
	if err := a.svc.HandleOrderEvent(context.Background(), m); err != nil {
		log.Printf("[audit] inline %s: %v", topic, err)
	}
}
