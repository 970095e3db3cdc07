package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shamss11/pychiatrist-backend/internal/config"
	"github.com/shamss11/pychiatrist-backend/internal/domain"
	"github.com/shamss11/pychiatrist-backend/internal/pkg/logger"
)

type DatabaseService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewDatabaseService opens Postgres by default; DB_DRIVER=sqlite selects a
// local file database for development, matching the original deployment shape.
func NewDatabaseService(cfg *config.Config, log *logger.Logger) (*DatabaseService, error) {
	serviceLog := log.With("service", "DatabaseService")

	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "sqlite":
		serviceLog.Info("Opening sqlite database", "path", cfg.Database.Path)
		dialector = sqlite.Open(cfg.Database.Path)
	default:
		dsn := fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.Name,
		)
		serviceLog.Info("Connecting to Postgres...", "host", cfg.Database.Host, "name", cfg.Database.Name)
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DatabaseService{db: db, log: serviceLog}, nil
}

func (s *DatabaseService) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	err := s.db.AutoMigrate(
		&domain.User{},
		&domain.Entry{},
		&domain.Sentiment{},
	)
	if err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

func (s *DatabaseService) DB() *gorm.DB {
	return s.db
}
