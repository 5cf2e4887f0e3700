package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/phishguard/phishguard/internal/core"
	"github.com/phishguard/phishguard/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiClient is an implementation of the MLClassifier interface using Google Gemini
type GeminiClient struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	promptFormat  string
	textProcessor *utils.TextProcessor
}

// PhishAnalysisResponse represents the structured response from the model
type PhishAnalysisResponse struct {
	Score       float64 `json:"score"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// NewGeminiClient creates a new Gemini classifier
func NewGeminiClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*GeminiClient, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &GeminiClient{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
		promptFormat: `You are a phishing detection system. Analyze the following email and rate how likely it is to be a phishing attempt.
Respond with a JSON object containing:
- score: number between 0 and 100 (higher means more likely phishing)
- confidence: number between 0 and 1 (how confident you are in your assessment)
- explanation: string (brief explanation of your rating)

Email:
From: %s
Subject: %s
Body:
%s

Respond only with the JSON object and nothing else.`,
	}, nil
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// ClassifyEmail returns the model's phishing score for an email
func (c *GeminiClient) ClassifyEmail(ctx context.Context, email *core.EmailInput) (*core.MLOutput, error) {
	processedBody := c.textProcessor.ProcessText(email.Body, c.maxBodySize)
	prompt := fmt.Sprintf(c.promptFormat, email.From, email.Subject, processedBody)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	responseText := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])

	analysis, err := parseAnalysisResponse(responseText)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Gemini classification complete",
		zap.Float64("score", analysis.Score),
		zap.Float64("confidence", analysis.Confidence),
		zap.String("model", c.modelName))

	return &core.MLOutput{
		Score:      analysis.Score,
		Confidence: analysis.Confidence,
		ModelUsed:  c.modelName,
	}, nil
}

func parseAnalysisResponse(responseText string) (*PhishAnalysisResponse, error) {
	var analysis PhishAnalysisResponse
	if err := json.Unmarshal([]byte(responseText), &analysis); err == nil {
		return &analysis, nil
	}

	jsonStart := strings.IndexByte(responseText, '{')
	jsonEnd := strings.LastIndexByte(responseText, '}') + 1
	if jsonStart < 0 || jsonStart >= jsonEnd {
		return nil, fmt.Errorf("failed to extract JSON from model response")
	}
	if err := json.Unmarshal([]byte(responseText[jsonStart:jsonEnd]), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse model response as JSON: %w", err)
	}
	return &analysis, nil
}
