package factory

import (
	"fmt"

	"github.com/phishguard/phishguard/internal/adapters/filter"
	"github.com/phishguard/phishguard/internal/config"
	"github.com/phishguard/phishguard/internal/ports"
	"github.com/phishguard/phishguard/internal/triage"
	"go.uber.org/zap"
)

// FilterFactory creates email filters based on configuration
type FilterFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *triage.Service
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, service *triage.Service) *FilterFactory {
	return &FilterFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
	}
}

// CreateEmailFilter creates an email filter based on the configuration
func (f *FilterFactory) CreateEmailFilter() (ports.EmailFilter, error) {
	filterType := f.cfg.GetString("server.filter_type")

	switch filterType {
	case "smtp":
		return filter.NewSMTPFilter(
			f.service,
			f.logger,
			f.cfg.GetString("server.listen_address"),
			f.cfg.GetBool("server.block_high_risk"),
			f.cfg.GetString("server.headers.score"),
			f.cfg.GetString("server.headers.level"),
			f.cfg.GetString("server.headers.summary"),
			f.cfg.GetString("server.upstream.address"),
			f.cfg.GetInt("server.upstream.port"),
			f.cfg.GetBool("server.upstream.enabled"),
			f.cfg.GetString("server.subject_prefix"),
			f.cfg.GetBool("server.modify_subject"),
		), nil
	case "cli":
		return filter.NewCLIFilter(
			f.service,
			f.logger,
			f.cfg.GetBool("cli.verbose"),
			f.cfg.GetBool("cli.json"),
		)
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", filterType)
	}
}
