package postgres

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/LavaJover/marketplace-order-service/internal/config"
	"github.com/LavaJover/marketplace-order-service/internal/infrastructure/migrate"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the connection and applies the SQL migrations.
func InitDB(cfg *config.OrderConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.OrderDB.Dsn), &gorm.Config{
		TranslateError: true,
		Logger: 		logger.Default.LogMode(logger.Warn),
		NowFunc: 		func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.OrderDB.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.OrderDB.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.OrderDB.ConnMaxLifetime)

	if err := migrate.RunMigrations(db, cfg.OrderDB.MigrationsPath); err != nil {
		return nil, err
	}
	return db, nil
}

func MustInitDB(cfg *config.OrderConfig) *gorm.DB {
	db, err := InitDB(cfg)
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}
	return db
}

// Pinger checks the underlying connection pool for the health endpoint.
type Pinger struct {
	DB *gorm.DB
}

func (p Pinger) Ping(ctx context.Context) error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
