package factory

import (
	"github.com/phishguard/phishguard/internal/analysis"
	"github.com/phishguard/phishguard/internal/config"
	"go.uber.org/zap"
)

// EngineFactory creates scoring engines from configuration
type EngineFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewEngineFactory creates a new engine factory
func NewEngineFactory(cfg *config.Config, logger *zap.Logger) *EngineFactory {
	return &EngineFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateEngine creates a scoring engine with the configured tuning values
func (f *EngineFactory) CreateEngine() *analysis.Engine {
	engineCfg := f.cfg.GetEngine()

	cfg := analysis.DefaultConfig()
	cfg.Weights = analysis.Weights{
		Rules:      engineCfg.RulesWeight,
		Headers:    engineCfg.HeadersWeight,
		Reputation: engineCfg.ReputationWeight,
		Behavior:   engineCfg.BehaviorWeight,
		ML:         engineCfg.MLWeight,
	}
	cfg.RuleSoftKnee = engineCfg.RuleSoftKnee
	cfg.AuthFullPassBonus = engineCfg.AuthFullPassBonus
	cfg.TrustedSenderBonus = engineCfg.TrustedSenderBonus
	cfg.FirstContactPenalty = engineCfg.FirstContactPenalty
	cfg.TrustedThreshold = engineCfg.TrustedThreshold
	cfg.MLConfidenceFloor = engineCfg.MLConfidenceFloor
	cfg.MaxReceivedHops = engineCfg.MaxReceivedHops
	if len(engineCfg.Brands) > 0 {
		cfg.Brands = engineCfg.Brands
	}

	f.logger.Debug("Created scoring engine",
		zap.Float64("rules_weight", cfg.Weights.Rules),
		zap.Float64("headers_weight", cfg.Weights.Headers),
		zap.Float64("reputation_weight", cfg.Weights.Reputation),
		zap.Float64("behavior_weight", cfg.Weights.Behavior),
		zap.Float64("ml_weight", cfg.Weights.ML),
		zap.Int("brand_count", len(cfg.Brands)))

	return analysis.NewEngine(cfg)
}
