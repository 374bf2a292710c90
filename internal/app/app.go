// Package app assembles repositories, use cases and HTTP handlers into a runnable service.
package app

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/tair/field-service/internal/catalog"
	"github.com/tair/field-service/internal/config"
	"github.com/tair/field-service/internal/idempotency"
	inspdomain "github.com/tair/field-service/internal/inspection/domain"
	insphttp "github.com/tair/field-service/internal/inspection/delivery/http"
	insprepo "github.com/tair/field-service/internal/inspection/repository"
	invdomain "github.com/tair/field-service/internal/inventory/domain"
	invhttp "github.com/tair/field-service/internal/inventory/delivery/http"
	invrepo "github.com/tair/field-service/internal/inventory/repository"
	invcommand "github.com/tair/field-service/internal/inventory/usecase/command"
	"github.com/tair/field-service/internal/job"
	jobhttp "github.com/tair/field-service/internal/job/delivery/http"
	jobdomain "github.com/tair/field-service/internal/job/domain"
	jobrepo "github.com/tair/field-service/internal/job/repository"
	reqhttp "github.com/tair/field-service/internal/requisition/delivery/http"
	reqdomain "github.com/tair/field-service/internal/requisition/domain"
	reqrepo "github.com/tair/field-service/internal/requisition/repository"
	"github.com/tair/field-service/internal/storage/memory"
	"github.com/tair/field-service/kafka"
	"github.com/tair/field-service/pkg/database"
)

// Repositories is the storage the service runs on
type Repositories struct {
	Transactor   database.Transactor
	Jobs         jobdomain.JobRepository
	Requisitions reqdomain.RequisitionRepository
	Inventory    invdomain.InventoryRepository
	Inspections  inspdomain.InspectionRepository
}

// Application holds the HTTP handlers and event subscribers of the service
type Application struct {
	Repositories Repositories
	Jobs         *jobhttp.JobHandler
	Requisitions *reqhttp.RequisitionHandler
	Inventory    *invhttp.InventoryHandler
	Inspections  *insphttp.InspectionHandler
	Advancer     *job.Advancer
	Activation   *invcommand.ActivateDevicesHandler
}

// Build wires every use case on top of repos
func Build(repos Repositories, cat catalog.Catalog, keys idempotency.Store, publisher kafka.EventPublisher, maxRetries int) *Application {
	retrier := database.NewRetrier(repos.Transactor, maxRetries)

	jobs := jobhttp.NewJobHandler(repos.Jobs, repos.Requisitions, repos.Inspections, cat, repos.Inventory, retrier, publisher)
	return &Application{
		Repositories: repos,
		Jobs:         jobs,
		Requisitions: reqhttp.NewRequisitionHandler(
			repos.Requisitions, repos.Jobs, cat,
			invcommand.NewIssueStockHandler(repos.Inventory, cat, retrier),
			keys, retrier, publisher,
		),
		Inventory:   invhttp.NewInventoryHandler(repos.Inventory, cat, retrier, publisher),
		Inspections: insphttp.NewInspectionHandler(repos.Inspections, repos.Jobs, retrier),
		Advancer:    job.NewAdvancer(repos.Jobs, jobs.Transition()),
		Activation:  invcommand.NewActivateDevicesHandler(repos.Inventory, cat, retrier),
	}
}

// Subscribe registers the event handlers: jobs advance on requisition events and
// installed devices are activated when a job completes.
func (a *Application) Subscribe(r job.Registrar) {
	a.Advancer.Register(r)
	r.RegisterHandler(kafka.EventTypeJobStatusChanged, a.Activation.HandleJobEvent)
}

// GormRepositories returns traced PostgreSQL repositories
func GormRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Transactor:   database.NewGormTransactor(db),
		Jobs:         jobrepo.NewTracingRepository(jobrepo.NewGormJobRepository(db)),
		Requisitions: reqrepo.NewTracingRepository(reqrepo.NewGormRequisitionRepository(db)),
		Inventory:    invrepo.NewTracingRepository(invrepo.NewGormInventoryRepository(db)),
		Inspections:  insprepo.NewGormInspectionRepository(db),
	}
}

// MemoryRepositories returns repositories backed by store
func MemoryRepositories(store *memory.Store) Repositories {
	return Repositories{
		Transactor:   store,
		Jobs:         store.Jobs(),
		Requisitions: store.Requisitions(),
		Inventory:    store.Inventory(),
		Inspections:  store.Inspections(),
	}
}

// Migrate creates or updates the schema of every table
func Migrate(db *gorm.DB) error {
	migrators := []interface{ AutoMigrate() error }{
		invrepo.NewGormInventoryRepository(db),
		jobrepo.NewGormJobRepository(db),
		reqrepo.NewGormRequisitionRepository(db),
		insprepo.NewGormInspectionRepository(db),
	}
	for _, m := range migrators {
		if err := m.AutoMigrate(); err != nil {
			return err
		}
	}
	return nil
}

// ProvideCatalog returns the remote catalog behind a Redis cache when a URL is configured,
// otherwise the seeded static catalog
func ProvideCatalog(cfg *config.Config, redisClient *redis.Client) catalog.Catalog {
	if cfg.Catalog.URL == "" {
		return catalog.NewStaticCatalog(cfg.Seed.Products...)
	}
	remote := catalog.NewHTTPClient(cfg.Catalog.URL, cfg.Catalog.Timeout)
	return catalog.NewCachedCatalog(remote, redisClient, cfg.Catalog.CacheTTL)
}

// ProvideIdempotencyStore returns the Redis store, or an in-process one without Redis
func ProvideIdempotencyStore(redisClient *redis.Client) idempotency.Store {
	if redisClient == nil {
		return idempotency.NewMemoryStore()
	}
	return idempotency.NewRedisStore(redisClient, "fieldservice:idempotency")
}
