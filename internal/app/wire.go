//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/tair/field-service/internal/config"
	"github.com/tair/field-service/kafka"
)

// ProvideMaxRetries returns the CAS retry bound
func ProvideMaxRetries(cfg *config.Config) int {
	return cfg.CASMaxRetries
}

// InfrastructureSet provides storage, catalog and idempotency
var InfrastructureSet = wire.NewSet(
	GormRepositories,
	ProvideCatalog,
	ProvideIdempotencyStore,
	ProvideMaxRetries,
)

// InitializeApplication builds the application on PostgreSQL and Redis
func InitializeApplication(db *gorm.DB, redisClient *redis.Client, publisher kafka.EventPublisher, cfg *config.Config) (*Application, error) {
	wire.Build(
		InfrastructureSet,
		Build,
	)
	return nil, nil
}
