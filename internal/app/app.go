package app

import (
	"context"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/asaskevich/EventBus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/talkincode/catalogd/config"
	"github.com/talkincode/catalogd/internal/catalog"
	"github.com/talkincode/catalogd/internal/domain"
	"github.com/talkincode/catalogd/internal/storage"
	"github.com/talkincode/catalogd/pkg/metrics"
)

type Application struct {
	appConfig   *config.AppConfig
	gormDB      *gorm.DB
	sched       *cron.Cron
	bus         EventBus.Bus
	objectStore storage.ObjectStore
	catalogSvc  *catalog.Service
}

// Ensure Application implements all interfaces
var (
	_ DBProvider          = (*Application)(nil)
	_ ConfigProvider      = (*Application)(nil)
	_ CatalogProvider     = (*Application)(nil)
	_ ObjectStoreProvider = (*Application)(nil)
	_ SchedulerProvider   = (*Application)(nil)
	_ BusProvider         = (*Application)(nil)
	_ AppContext          = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

func (a *Application) Catalog() *catalog.Service {
	return a.catalogSvc
}

func (a *Application) ObjectStore() storage.ObjectStore {
	return a.objectStore
}

func (a *Application) Bus() EventBus.Bus {
	return a.bus
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

// OverrideDB replaces the application's database handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
}

func (a *Application) Init(cfg *config.AppConfig) {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	// Initialize zap logger
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	zapConfig.OutputPaths = []string{"stdout"}
	if cfg.Logger.FileEnable {
		zapConfig.OutputPaths = append(zapConfig.OutputPaths, cfg.Logger.Filename)
	}

	// Build logger with file rotation if enabled
	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	} else {
		logger, err = zapConfig.Build(zap.AddCaller(), zap.AddCallerSkip(1))
		if err != nil {
			panic(err)
		}
	}

	zap.ReplaceGlobals(logger)

	// Initialize metrics with workdir convention
	err = metrics.InitMetrics(cfg.System.Workdir)
	if err != nil {
		zap.S().Warn("Failed to initialize metrics:", err)
	}

	// Initialize database connection
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	a.gormDB = getDatabase(cfg.Database)
	zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)

	// Ensure database schema is migrated before serving
	if err := a.MigrateDB(false); err != nil {
		zap.S().Errorf("database migration failed: %v", err)
	}

	// Initialize the image object store
	store, err := storage.NewS3Store(context.Background(), cfg.Storage)
	if err != nil {
		zap.S().Fatalf("object store init failed: %v", err)
	}
	a.objectStore = store

	// Wire the event bus and the catalog service
	a.bus = EventBus.New()
	a.catalogSvc = catalog.NewService(
		catalog.NewGormProductRepository(a.gormDB),
		a.objectStore,
		a.bus,
		cfg.Storage.Bucket,
	)
	a.subscribeAuditEvents()

	if cfg.System.SeedDemo {
		go func() {
			// wait for database initialization to complete
			time.Sleep(3 * time.Second)
			a.checkProducts()
		}()
	}

	a.initJob()
}

func (a *Application) MigrateDB(track bool) (err error) {
	if track {
		return a.gormDB.Debug().Migrator().AutoMigrate(domain.Tables...)
	}
	return a.gormDB.Migrator().AutoMigrate(domain.Tables...)
}

func (a *Application) DropAll() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
}

func (a *Application) InitDb() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
	err := a.gormDB.Migrator().AutoMigrate(domain.Tables...)
	if err != nil {
		zap.S().Error(err)
	}
}

// subscribeAuditEvents attaches audit logging and counters to the
// catalog event topics.
func (a *Application) subscribeAuditEvents() {
	_ = a.bus.Subscribe(catalog.TopicProductCreated, func(p *domain.Product) {
		metrics.IncrCounter("product_created")
		zap.L().Info("product created", zap.Int64("id", p.ID), zap.String("name", p.Name))
	})
	_ = a.bus.Subscribe(catalog.TopicProductUpdated, func(p *domain.Product) {
		metrics.IncrCounter("product_updated")
		zap.L().Info("product updated", zap.Int64("id", p.ID), zap.String("name", p.Name))
	})
	_ = a.bus.Subscribe(catalog.TopicProductDeleted, func(id int64) {
		metrics.IncrCounter("product_deleted")
		zap.L().Info("product deleted", zap.Int64("id", id))
	})
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}
	_ = metrics.Close()
	_ = zap.L().Sync()
}
