package factory

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	openaiapi "github.com/sashabaranov/go-openai"

	"github.com/phishguard/phishguard/internal/adapters/bedrock"
	"github.com/phishguard/phishguard/internal/adapters/gemini"
	"github.com/phishguard/phishguard/internal/adapters/openai"
	"github.com/phishguard/phishguard/internal/config"
	"github.com/phishguard/phishguard/internal/core"
	"github.com/phishguard/phishguard/internal/utils"
	"go.uber.org/zap"
)

// MLFactory creates ML classifiers based on configuration
type MLFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewMLFactory creates a new ML factory
func NewMLFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *MLFactory {
	return &MLFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClassifier creates an ML classifier based on the configuration.
// It returns nil when no provider is configured; the triage service then
// runs with the ML signal degraded.
func (f *MLFactory) CreateClassifier() (core.MLClassifier, error) {
	mlCfg := f.cfg.GetML()

	switch mlCfg.Provider {
	case "none", "":
		f.logger.Info("No ML provider configured, classifier signal disabled")
		return nil, nil
	case "openai":
		return f.createOpenAI()
	case "bedrock":
		return f.createBedrock()
	case "gemini":
		return f.createGemini()
	default:
		return nil, fmt.Errorf("unsupported ML provider: %s", mlCfg.Provider)
	}
}

func (f *MLFactory) createOpenAI() (core.MLClassifier, error) {
	openaiCfg := f.cfg.GetOpenAI()
	if openaiCfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	client := openaiapi.NewClient(openaiCfg.APIKey)
	return openai.NewOpenAIClient(
		client,
		openaiCfg.ModelName,
		openaiCfg.MaxTokens,
		openaiCfg.Temperature,
		openaiCfg.TopP,
		openaiCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	), nil
}

func (f *MLFactory) createBedrock() (core.MLClassifier, error) {
	bedrockCfg := f.cfg.GetBedrock()

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(bedrockCfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	bedrockClient := bedrockruntime.NewFromConfig(awsCfg)
	return bedrock.NewBedrockClient(
		bedrockClient,
		bedrockCfg.ModelID,
		bedrockCfg.MaxTokens,
		bedrockCfg.Temperature,
		bedrockCfg.TopP,
		bedrockCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	), nil
}

func (f *MLFactory) createGemini() (core.MLClassifier, error) {
	geminiCfg := f.cfg.GetGemini()
	if geminiCfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	return gemini.NewGeminiClient(
		geminiCfg.APIKey,
		geminiCfg.ModelName,
		geminiCfg.MaxTokens,
		geminiCfg.Temperature,
		geminiCfg.TopP,
		geminiCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	)
}
