package services

import (
	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/ports"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/infrastructure/database"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/infrastructure/lock"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/infrastructure/persistence"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/expression"
)

// Options tune the services built by NewServiceManager
type Options struct {
	// Locker serializes pipeline mutations; nil selects an in-process lock
	Locker             ports.Locker
	MaxConflictRetries int
	SweepSchedule      string
	ConversionRule     string
}

// ServiceManager orchestrates all services with dependency injection
type ServiceManager struct {
	db *database.Connection

	TxManager *persistence.TransactionManager
	Pipelines *PipelineService
	Boards    *BoardService
	Dashboard *DashboardService
	Entities  *EntityService
	Catalog   *CatalogService
	Sweeper   *SweepService
}

// NewServiceManager creates a new service manager with all dependencies wired
func NewServiceManager(db *database.Connection, opts Options) (*ServiceManager, error) {
	sm := &ServiceManager{db: db}

	locker := opts.Locker
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}

	pipelineRepo := persistence.NewPipelineRepository(db)
	peopleRepo := persistence.NewPeopleRepository(db)
	companyRepo := persistence.NewCompanyRepository(db)
	dealRepo := persistence.NewDealRepository(db)
	customerRepo := persistence.NewCustomerRepository(db)
	catalogRepo := persistence.NewCatalogRepository(db)
	sources := NewEntitySources(peopleRepo, companyRepo, dealRepo, customerRepo)

	// Initialize services in dependency order
	sm.TxManager = persistence.NewTransactionManager(db)
	sm.Pipelines = NewPipelineService(pipelineRepo, sources, sm.TxManager, locker, opts.MaxConflictRetries)
	sm.Boards = NewBoardService(pipelineRepo, peopleRepo, companyRepo, dealRepo, customerRepo)

	dashboard, err := NewDashboardService(pipelineRepo, peopleRepo, companyRepo, dealRepo, expression.NewEngine(), opts.ConversionRule)
	if err != nil {
		return nil, err
	}
	sm.Dashboard = dashboard

	sm.Entities = NewEntityService(peopleRepo, companyRepo, dealRepo, customerRepo, sm.Pipelines, sm.TxManager, opts.MaxConflictRetries)
	sm.Catalog = NewCatalogService(catalogRepo, pipelineRepo, sm.Pipelines, sm.TxManager)
	sm.Sweeper = NewSweepService(pipelineRepo, sources, sm.Pipelines, opts.SweepSchedule)

	return sm, nil
}

// StartSweeper starts the background dangling-ref sweep
func (sm *ServiceManager) StartSweeper() error {
	return sm.Sweeper.Start()
}

// StopSweeper stops the background sweep
func (sm *ServiceManager) StopSweeper() {
	sm.Sweeper.Stop()
}
