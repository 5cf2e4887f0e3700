package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/phishguard/phishguard/internal/core"
	"github.com/phishguard/phishguard/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient is an implementation of the MLClassifier interface using OpenAI
type OpenAIClient struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
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

// NewOpenAIClient creates a new OpenAI classifier
func NewOpenAIClient(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *OpenAIClient {
	return &OpenAIClient{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
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
	}
}

// ClassifyEmail returns the model's phishing score for an email
func (c *OpenAIClient) ClassifyEmail(ctx context.Context, email *core.EmailInput) (*core.MLOutput, error) {
	processedBody := c.textProcessor.ProcessText(email.Body, c.maxBodySize)
	prompt := fmt.Sprintf(c.promptFormat, email.From, email.Subject, processedBody)

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a phishing detection system. Respond only with JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}
	req.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: "json",
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}

	analysis, err := parseAnalysisResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("OpenAI classification complete",
		zap.Float64("score", analysis.Score),
		zap.Float64("confidence", analysis.Confidence),
		zap.String("model", c.modelName))

	return &core.MLOutput{
		Score:      analysis.Score,
		Confidence: analysis.Confidence,
		ModelUsed:  c.modelName,
	}, nil
}

// parseAnalysisResponse parses the model's JSON reply, tolerating
// surrounding prose by extracting the outermost JSON object
func parseAnalysisResponse(responseText string) (*PhishAnalysisResponse, error) {
	var analysis PhishAnalysisResponse
	if err := json.Unmarshal([]byte(responseText), &analysis); err == nil {
		return &analysis, nil
	}

	jsonStart := -1
	jsonEnd := -1
	for i := 0; i < len(responseText); i++ {
		if responseText[i] == '{' {
			jsonStart = i
			break
		}
	}
	for i := len(responseText) - 1; i >= 0; i-- {
		if responseText[i] == '}' {
			jsonEnd = i + 1
			break
		}
	}
	if jsonStart < 0 || jsonStart >= jsonEnd {
		return nil, fmt.Errorf("failed to extract JSON from model response")
	}
	if err := json.Unmarshal([]byte(responseText[jsonStart:jsonEnd]), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse model response as JSON: %w", err)
	}
	return &analysis, nil
}
