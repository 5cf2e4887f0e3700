package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/phishguard/phishguard/internal/adapters/truststore"
	"github.com/phishguard/phishguard/internal/config"
	"github.com/phishguard/phishguard/internal/core"
	"go.uber.org/zap"
)

// TrustStoreFactory creates trust stores based on configuration
type TrustStoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewTrustStoreFactory creates a new trust store factory
func NewTrustStoreFactory(cfg *config.Config, logger *zap.Logger) *TrustStoreFactory {
	return &TrustStoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTrustStore creates a trust store based on the configuration
func (f *TrustStoreFactory) CreateTrustStore() (core.TrustStore, error) {
	trustCfg := f.cfg.GetTrust()
	threshold := f.cfg.GetInt("engine.trusted_threshold")

	switch trustCfg.StoreType {
	case "memory":
		return truststore.NewMemoryStore(f.logger, threshold), nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(trustCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return truststore.NewSQLiteStore(trustCfg.SQLitePath, f.logger, threshold)
	default:
		return nil, fmt.Errorf("unsupported trust store type: %s", trustCfg.StoreType)
	}
}
