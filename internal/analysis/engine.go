package analysis

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/phishguard/phishguard/internal/core"
)

// Engine fuses the five detector signals into one AnalysisResult. It is a
// pure computation: detectors run over immutable inputs, share no state,
// and perform no I/O, so concurrent Analyze calls need no synchronization.
type Engine struct {
	cfg        Config
	rules      *ruleDetector
	headers    *headerAuthenticator
	reputation *reputationAnalyzer
	behavior   *behaviorTracker
	ml         *mlAdapter
}

// NewEngine creates an engine with the given configuration. Pattern tables
// and brand lists are loaded once here and shared read-only across calls.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:        cfg,
		rules:      newRuleDetector(cfg.RuleCategories, cfg.RuleSoftKnee),
		headers:    newHeaderAuthenticator(cfg.AuthFullPassBonus, cfg.MaxReceivedHops),
		reputation: newReputationAnalyzer(cfg.Brands),
		behavior:   newBehaviorTracker(cfg.TrustedThreshold, cfg.TrustedSenderBonus, cfg.FirstContactPenalty),
		ml:         newMLAdapter(cfg.MLConfidenceFloor),
	}
}

// Analyze runs all detectors over the email and combines their sub-scores
// under the configured weights. snapshot and mlOutput may be nil; the
// corresponding detectors degrade to explained zero/neutral contributions.
// The only fatal condition is an email with neither subject nor body.
func (e *Engine) Analyze(email *core.EmailInput, snapshot *core.BehaviorSnapshot, mlOutput *core.MLOutput) (*core.AnalysisResult, error) {
	if email == nil || (strings.TrimSpace(email.Subject) == "" && strings.TrimSpace(email.Body) == "") {
		return nil, core.ErrEmptyEmail
	}
	start := time.Now()

	// Fan-out: detectors are independent, so run them concurrently and
	// join before combining.
	var (
		wg sync.WaitGroup

		ruleScore, headerScore, repScore, behaviorScore core.SubScore
		ruleFindings, headerFindings                    []core.Finding
		repFindings, behaviorFindings                   []core.Finding
	)
	wg.Add(4)
	go func() {
		defer wg.Done()
		ruleScore, ruleFindings = e.rules.evaluate(email)
	}()
	go func() {
		defer wg.Done()
		headerScore, headerFindings = e.headers.evaluate(email)
	}()
	go func() {
		defer wg.Done()
		repScore, repFindings = e.reputation.evaluate(email)
	}()
	go func() {
		defer wg.Done()
		behaviorScore, behaviorFindings = e.behavior.evaluate(email, snapshot)
	}()
	mlScore := e.ml.evaluate(mlOutput)
	wg.Wait()

	w := e.cfg.Weights
	ruleScore.Percentage = ruleScore.Score * w.Rules / 100
	headerScore.Percentage = headerScore.Score * w.Headers / 100
	repScore.Percentage = repScore.Score * w.Reputation / 100
	behaviorScore.Percentage = behaviorScore.Score * w.Behavior / 100
	// A low-confidence model vote counts less than a confident one.
	if det, ok := mlScore.Details.(core.MLDetails); ok && det.Reason == "" {
		mlScore.Percentage = mlScore.Score * w.ML / 100 * det.Confidence
	}

	// Cross-cutting adjustments, applied in fixed order: authentication
	// relief first, then trust relief / first-contact suspicion.
	authAdjust := 0.0
	if det, ok := headerScore.Details.(core.HeaderDetails); ok {
		authAdjust = -det.AuthPositiveBonus
	}
	trustAdjust := 0.0
	if det, ok := behaviorScore.Details.(core.BehaviorDetails); ok {
		trustAdjust = det.Bonus
	}
	miscScore := core.SubScore{
		Percentage: authAdjust + trustAdjust,
		Details: core.MiscDetails{
			AuthAdjustment:  authAdjust,
			TrustAdjustment: trustAdjust,
		},
	}

	total := ruleScore.Percentage + headerScore.Percentage + repScore.Percentage +
		behaviorScore.Percentage + mlScore.Percentage
	final := int(math.Round(total + authAdjust + trustAdjust))
	if final < 0 {
		final = 0
	}
	if final > 100 {
		final = 100
	}

	findings := make([]core.Finding, 0,
		len(ruleFindings)+len(headerFindings)+len(repFindings)+len(behaviorFindings))
	findings = append(findings, ruleFindings...)
	findings = append(findings, headerFindings...)
	findings = append(findings, repFindings...)
	findings = append(findings, behaviorFindings...)

	breakdown := core.Breakdown{
		Rules:      ruleScore,
		Headers:    headerScore,
		Reputation: repScore,
		Behavior:   behaviorScore,
		ML:         mlScore,
		Misc:       miscScore,
	}

	result := &core.AnalysisResult{
		Score:          final,
		RiskLevel:      core.RiskLevelForScore(final),
		Summary:        buildSummary(final, findings, breakdown, authAdjust, trustAdjust),
		Findings:       findings,
		Breakdown:      breakdown,
		ProcessingTime: time.Since(start).Milliseconds(),
	}
	return result, nil
}

// buildSummary produces the short templated verdict naming the dominant
// contributing factor and any adjustment that moved the score
func buildSummary(score int, findings []core.Finding, b core.Breakdown, authAdjust, trustAdjust float64) string {
	var sb strings.Builder
	switch core.RiskLevelForScore(score) {
	case core.RiskHigh:
		sb.WriteString("High risk")
	case core.RiskMedium:
		sb.WriteString("Medium risk")
	default:
		sb.WriteString("Low risk")
	}
	fmt.Fprintf(&sb, " (score %d)", score)

	if len(findings) == 0 {
		sb.WriteString(": no suspicious indicators found")
	} else {
		fmt.Fprintf(&sb, ": %d finding(s)", len(findings))
		if name := dominantFactor(b, authAdjust); name != "" {
			fmt.Fprintf(&sb, "; dominant signal: %s", name)
		}
	}
	if authAdjust < 0 {
		sb.WriteString("; strong authentication relief applied")
	}
	if trustAdjust < 0 {
		sb.WriteString("; trusted sender relief applied")
	}
	if trustAdjust > 0 {
		sb.WriteString("; first contact with this sender")
	}
	return sb.String()
}

func dominantFactor(b core.Breakdown, authAdjust float64) string {
	names := []string{"rule matches", "header authentication", "sender reputation", "sender history", "ml classifier"}
	scores := []float64{b.Rules.Percentage, b.Headers.Percentage, b.Reputation.Percentage, b.Behavior.Percentage, b.ML.Percentage}
	best, bestVal := "", 0.0
	for i, v := range scores {
		if v > bestVal {
			best, bestVal = names[i], v
		}
	}
	if bestVal <= 0 && authAdjust < 0 {
		return "strong authentication"
	}
	return best
}
