package factory

import (
	"fmt"

	"github.com/phishguard/phishguard/internal/adapters/history"
	"github.com/phishguard/phishguard/internal/config"
	"github.com/phishguard/phishguard/internal/core"
	"go.uber.org/zap"
)

// HistoryFactory creates scan history repositories based on configuration
type HistoryFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewHistoryFactory creates a new history factory
func NewHistoryFactory(cfg *config.Config, logger *zap.Logger) *HistoryFactory {
	return &HistoryFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateHistoryRepository creates a history repository based on the configuration
func (f *HistoryFactory) CreateHistoryRepository() (core.HistoryRepository, error) {
	historyCfg := f.cfg.GetHistory()

	switch historyCfg.Backend {
	case "none", "":
		return history.NewNoopRepository(), nil
	case "mysql":
		return history.NewMySQLRepository(historyCfg.MySQLDSN, f.logger)
	case "postgres":
		return history.NewPostgresRepository(historyCfg.PostgresDSN, f.logger)
	default:
		return nil, fmt.Errorf("unsupported history backend: %s", historyCfg.Backend)
	}
}
