package setup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/LavaJover/marketplace-order-service/internal/config"
	"github.com/LavaJover/marketplace-order-service/internal/delivery/grpcapi"
	"github.com/LavaJover/marketplace-order-service/internal/domain"
	"github.com/LavaJover/marketplace-order-service/internal/infrastructure/cache"
	publisher "github.com/LavaJover/marketplace-order-service/internal/infrastructure/kafka"
	"github.com/LavaJover/marketplace-order-service/internal/infrastructure/memory"
	"github.com/LavaJover/marketplace-order-service/internal/infrastructure/metrics"
	"github.com/LavaJover/marketplace-order-service/internal/infrastructure/payment"
	"github.com/LavaJover/marketplace-order-service/internal/infrastructure/postgres"
	"github.com/LavaJover/marketplace-order-service/internal/infrastructure/postgres/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Dependencies struct {
	Config 			*config.OrderConfig
	DB 				*gorm.DB
	Repositories 	*Repositories
	Cache 			domain.OrderCache
	Payments 		domain.PaymentGateway
	Publisher 		*publisher.DefaultKafkaPublisher
	Subscriber 		*publisher.DefaultKafkaSubscriber
	Registry 		*prometheus.Registry
	Metrics 		*metrics.LifecycleMetrics

	redis *redis.Client
}

type Repositories struct {
	OrderRepo 	domain.OrderRepository
	AuditRepo 	domain.AuditRepository
	ReviewRepo 	domain.ReviewRepository
	DisputeRepo domain.DisputeRepository
	OutboxRepo 	domain.OutboxRepository
	// Pinger is nil for the in-memory driver.
	Pinger 		grpcapi.Pinger
}

func InitializeDependencies(cfg *config.OrderConfig) (*Dependencies, error) {
	deps := &Dependencies{Config: cfg}

	switch cfg.OrderDB.Driver {
	case "postgres":
		db, err := postgres.InitDB(cfg)
		if err != nil {
			return nil, fmt.Errorf("order db: %w", err)
		}
		deps.DB = db
		audit := repository.NewDefaultAuditRepository(db)
		deps.Repositories = &Repositories{
			OrderRepo: 		repository.NewDefaultOrderRepository(db),
			AuditRepo: 		audit,
			ReviewRepo: 	audit,
			DisputeRepo: 	repository.NewDefaultDisputeRepository(db),
			OutboxRepo: 	repository.NewDefaultOutboxRepository(db),
			Pinger: 		postgres.Pinger{DB: db},
		}
	case "memory":
		slog.Warn("using the in-memory order store; state is lost on restart")
		store := memory.NewStore()
		deps.Repositories = &Repositories{
			OrderRepo: 		store,
			AuditRepo: 		store,
			ReviewRepo: 	store,
			DisputeRepo: 	store,
			OutboxRepo: 	store,
		}
	default:
		return nil, fmt.Errorf("unknown order_db.driver %q", cfg.OrderDB.Driver)
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr: 		cfg.Redis.Addr,
			Password: 	cfg.Redis.Password,
			DB: 		cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			slog.Warn("redis unavailable, order cache disabled", "addr", cfg.Redis.Addr, "error", err)
			_ = client.Close()
		} else {
			deps.redis = client
			deps.Cache = cache.NewRedisOrderCache(client, cfg.Redis.TTL)
		}
	}

	if cfg.KafkaService.Enabled {
		deps.Publisher = publisher.NewDefaultKafkaPublisher(cfg.KafkaService.Brokers)
		deps.Subscriber = publisher.NewDefaultKafkaSubscriber(cfg.KafkaService.Brokers)
	}

	deps.Payments = payment.NewHTTPPaymentClient(cfg.PaymentService)

	deps.Registry = prometheus.NewRegistry()
	deps.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps.Metrics = metrics.NewLifecycleMetrics(deps.Registry)

	return deps, nil
}

// Close releases the connections opened by InitializeDependencies.
func (d *Dependencies) Close() error {
	var errs []error
	if d.Publisher != nil {
		errs = append(errs, d.Publisher.Close())
	}
	if d.redis != nil {
		errs = append(errs, d.redis.Close())
	}
	if d.DB != nil {
		if sqlDB, err := d.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
