package triage

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phishguard/phishguard/internal/analysis"
	"github.com/phishguard/phishguard/internal/core"
	"go.uber.org/zap"
)

// Service orchestrates a full triage pass: it gathers the sender's
// history and the external classifier's vote, runs the scoring engine,
// and persists a scan record.
type Service struct {
	engine             *analysis.Engine
	trustStore         core.TrustStore
	mlClassifier       core.MLClassifier
	history            core.HistoryRepository
	logger             *zap.Logger
	whitelistedDomains []string
}

// NewService creates a new triage service. mlClassifier may be nil when
// no external model is configured.
func NewService(
	engine *analysis.Engine,
	trustStore core.TrustStore,
	mlClassifier core.MLClassifier,
	history core.HistoryRepository,
	logger *zap.Logger,
	whitelistedDomains []string,
) *Service {
	return &Service{
		engine:             engine,
		trustStore:         trustStore,
		mlClassifier:       mlClassifier,
		history:            history,
		logger:             logger,
		whitelistedDomains: whitelistedDomains,
	}
}

// isDomainWhitelisted checks if the sender's domain is in the whitelist
func (s *Service) isDomainWhitelisted(from string) bool {
	at := strings.LastIndex(from, "@")
	if at < 0 || at == len(from)-1 {
		return false
	}
	domain := strings.Trim(from[at+1:], "> \t")

	for _, whitelistedDomain := range s.whitelistedDomains {
		if strings.EqualFold(domain, whitelistedDomain) {
			return true
		}
	}
	return false
}

// AnalyzeEmail runs the full triage pipeline for one email
func (s *Service) AnalyzeEmail(ctx context.Context, email *core.EmailInput) (*core.AnalysisResult, error) {
	// Check whitelist first
	if s.isDomainWhitelisted(email.From) {
		s.logger.Info("Skipping triage for whitelisted domain",
			zap.String("sender", email.From),
			zap.String("action", "whitelist_bypass"))

		return &core.AnalysisResult{
			Score:     0,
			RiskLevel: core.RiskLow,
			Summary:   "Sender domain is whitelisted",
			Findings:  []core.Finding{},
		}, nil
	}

	snapshot, err := s.trustStore.GetBehaviorSnapshot(ctx, email.From)
	if err != nil {
		// History is advisory; the engine treats a missing snapshot
		// as first contact.
		s.logger.Error("Failed to load sender history", zap.Error(err))
		snapshot = nil
	}

	var mlOutput *core.MLOutput
	if s.mlClassifier != nil {
		mlOutput, err = s.mlClassifier.ClassifyEmail(ctx, email)
		if err != nil {
			s.logger.Error("ML classification failed, continuing without it", zap.Error(err))
			mlOutput = nil
		}
	}

	result, err := s.engine.Analyze(email, snapshot, mlOutput)
	if err != nil {
		return nil, err
	}

	if err := s.saveScan(ctx, email, result, mlOutput); err != nil {
		s.logger.Error("Failed to save scan record", zap.Error(err))
	}

	return result, nil
}

// MarkSenderSafe records a reviewed-safe interaction with the sender
func (s *Service) MarkSenderSafe(ctx context.Context, sender string) error {
	return s.trustStore.RecordInteraction(ctx, sender, domainOf(sender), "safe")
}

// MarkSenderPhishing records a confirmed-phishing interaction with the sender
func (s *Service) MarkSenderPhishing(ctx context.Context, sender string) error {
	return s.trustStore.RecordInteraction(ctx, sender, domainOf(sender), "phishing")
}

// MarkSenderSuspicious records an unresolved-suspicious interaction with the sender
func (s *Service) MarkSenderSuspicious(ctx context.Context, sender string) error {
	return s.trustStore.RecordInteraction(ctx, sender, domainOf(sender), "suspicious")
}

// RecentScans returns the most recent persisted scan records
func (s *Service) RecentScans(ctx context.Context, limit int) ([]core.ScanRecord, error) {
	return s.history.RecentScans(ctx, limit)
}

func (s *Service) saveScan(ctx context.Context, email *core.EmailInput, result *core.AnalysisResult, mlOutput *core.MLOutput) error {
	rec := &core.ScanRecord{
		ID:        uuid.New().String(),
		Subject:   email.Subject,
		FromEmail: email.From,
		RiskScore: result.Score,
		Verdict:   string(result.RiskLevel),
		CreatedAt: time.Now(),
	}
	if mlOutput != nil {
		rec.MLConfidence = mlOutput.Confidence
	}
	for _, f := range result.Findings {
		if isLinkCategory(f.Category) {
			rec.Links = append(rec.Links, f.Text)
		} else {
			rec.Keywords = append(rec.Keywords, f.Text)
		}
	}
	return s.history.SaveScan(ctx, rec)
}

func isLinkCategory(category string) bool {
	switch category {
	case "url_shortener", "ip_literal_link", "link_text_mismatch":
		return true
	}
	return false
}

func domainOf(sender string) string {
	at := strings.LastIndex(sender, "@")
	if at < 0 || at == len(sender)-1 {
		return ""
	}
	return strings.ToLower(strings.Trim(sender[at+1:], "> \t"))
}
