package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/phishguard/phishguard/internal/analysis"
	"github.com/phishguard/phishguard/internal/config"
	"github.com/phishguard/phishguard/internal/core"
	"github.com/phishguard/phishguard/internal/factory"
	"github.com/phishguard/phishguard/internal/logging"
	"github.com/phishguard/phishguard/internal/ports"
	"github.com/phishguard/phishguard/internal/triage"
	"github.com/phishguard/phishguard/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
// for the filter daemon
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewEngineFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewMLFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTrustStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewHistoryFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register scoring engine
	if err := container.Provide(func(f *factory.EngineFactory) *analysis.Engine {
		return f.CreateEngine()
	}); err != nil {
		return nil, err
	}

	// Register ML classifier (may be nil when no provider is configured)
	if err := container.Provide(func(f *factory.MLFactory) (core.MLClassifier, error) {
		return f.CreateClassifier()
	}); err != nil {
		return nil, err
	}

	// Register trust store
	if err := container.Provide(func(f *factory.TrustStoreFactory) (core.TrustStore, error) {
		return f.CreateTrustStore()
	}); err != nil {
		return nil, err
	}

	// Register history repository
	if err := container.Provide(func(f *factory.HistoryFactory) (core.HistoryRepository, error) {
		return f.CreateHistoryRepository()
	}); err != nil {
		return nil, err
	}

	// Register whitelisted domains
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) []string {
		whitelistedDomains := cfg.GetStringSlice("trust.whitelisted_domains")
		if len(whitelistedDomains) > 0 {
			logger.Info("Loaded whitelisted domains", zap.Strings("domains", whitelistedDomains))
		}
		return whitelistedDomains
	}); err != nil {
		return nil, err
	}

	// Register triage service
	if err := container.Provide(triage.NewService); err != nil {
		return nil, err
	}

	// Register email filter
	if err := container.Provide(func(f *factory.FilterFactory) (ports.EmailFilter, error) {
		return f.CreateEmailFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}
