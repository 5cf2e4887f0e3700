package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/phishguard/phishguard/internal/core"
	"github.com/phishguard/phishguard/internal/triage"
	"go.uber.org/zap"
)

// CLIFilter triages a single email and renders the result to stdout
type CLIFilter struct {
	service    *triage.Service
	logger     *zap.Logger
	verbose    bool
	jsonOutput bool
}

// NewCLIFilter creates a new CLI filter
func NewCLIFilter(service *triage.Service, logger *zap.Logger, verbose bool, jsonOutput bool) (*CLIFilter, error) {
	return &CLIFilter{
		service:    service,
		logger:     logger,
		verbose:    verbose,
		jsonOutput: jsonOutput,
	}, nil
}

// ProcessEmail triages an email and displays the results
func (f *CLIFilter) ProcessEmail(ctx context.Context, email *core.EmailInput) (*core.AnalysisResult, error) {
	f.logger.Debug("Processing email", zap.String("sender", email.From))

	result, err := f.service.AnalyzeEmail(ctx, email)
	if err != nil {
		f.logger.Error("Failed to analyze email", zap.Error(err))
		return nil, err
	}

	if f.jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return nil, fmt.Errorf("failed to encode result: %w", err)
		}
		return result, nil
	}

	f.printReport(email, result)
	return result, nil
}

func (f *CLIFilter) printReport(email *core.EmailInput, result *core.AnalysisResult) {
	bold := color.New(color.Bold)

	bold.Println("\n=== Email ===")
	fmt.Printf("From:    %s\n", email.From)
	fmt.Printf("Subject: %s\n", email.Subject)
	if f.verbose {
		preview := email.Body
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Printf("\nBody preview:\n%s\n", preview)
	}

	bold.Println("\n=== Verdict ===")
	fmt.Printf("Score:   %s\n", riskColor(result.RiskLevel).Sprintf("%d / 100", result.Score))
	fmt.Printf("Level:   %s\n", riskColor(result.RiskLevel).Sprint(result.RiskLevel))
	fmt.Printf("Summary: %s\n", result.Summary)

	if len(result.Findings) > 0 {
		bold.Println("\n=== Findings ===")
		for _, finding := range result.Findings {
			fmt.Printf("  %s %-22s %s\n",
				severityColor(finding.Severity).Sprintf("[%s]", finding.Severity),
				finding.Category,
				finding.Text)
		}
	}

	bold.Println("\n=== Breakdown ===")
	printSubScore("rules", result.Breakdown.Rules)
	printSubScore("headers", result.Breakdown.Headers)
	printSubScore("reputation", result.Breakdown.Reputation)
	printSubScore("behavior", result.Breakdown.Behavior)
	printSubScore("ml", result.Breakdown.ML)
	printSubScore("adjustments", result.Breakdown.Misc)

	fmt.Printf("\nProcessing time: %dms\n", result.ProcessingTime)
}

func printSubScore(name string, sub core.SubScore) {
	fmt.Printf("  %-12s raw %6.1f  contributes %+6.2f\n", name, sub.Score, sub.Percentage)
}

func riskColor(level core.RiskLevel) *color.Color {
	switch level {
	case core.RiskHigh:
		return color.New(color.FgRed, color.Bold)
	case core.RiskMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

func severityColor(severity core.Severity) *color.Color {
	switch severity {
	case core.SeverityHigh:
		return color.New(color.FgRed)
	case core.SeverityMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}

// Start is a no-op for the CLI filter
func (f *CLIFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CLIFilter) Stop() error {
	return nil
}
