package analysis

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phishguard/phishguard/internal/core"
)

func newTestEngine() *Engine {
	return NewEngine(DefaultConfig())
}

func TestEngine_EmptyEmailIsAnError(t *testing.T) {
	engine := newTestEngine()

	result, err := engine.Analyze(&core.EmailInput{From: "a@b.com"}, nil, nil)
	assert.ErrorIs(t, err, core.ErrEmptyEmail)
	assert.Nil(t, result)

	_, err = engine.Analyze(nil, nil, nil)
	assert.ErrorIs(t, err, core.ErrEmptyEmail)
}

func TestEngine_LookalikeShortenerScenario(t *testing.T) {
	engine := newTestEngine()

	result, err := engine.Analyze(&core.EmailInput{
		From: "security@paypal-support.com",
		Body: "Please verify your account now: http://bit.ly/xyz",
	}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, core.RiskHigh, result.RiskLevel)
	assert.GreaterOrEqual(t, result.Score, core.HighRiskThreshold)

	categories := make(map[string]bool)
	for _, f := range result.Findings {
		categories[f.Category] = true
	}
	assert.True(t, categories["url_shortener"], "expected a URL-shortener finding")
	assert.True(t, categories["lookalike_domain"], "expected a lookalike-domain finding")
}

func TestEngine_FirstContactScenario(t *testing.T) {
	engine := newTestEngine()

	result, err := engine.Analyze(&core.EmailInput{
		From:    "alice@newpartner.example",
		Subject: "Following up from the conference",
		Body:    "Hi, great meeting you last week. Here are the notes I promised.",
	}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, core.RiskMedium, result.RiskLevel)

	rules := result.Breakdown.Rules
	assert.Zero(t, rules.Score, "neutral content should produce no rule findings")
	behavior := result.Breakdown.Behavior.Details.(core.BehaviorDetails)
	assert.True(t, behavior.IsFirstInteraction)
	assert.Positive(t, behavior.Bonus)
	assert.Contains(t, result.Summary, "first contact")
}

func TestEngine_TrustedSenderScenario(t *testing.T) {
	engine := newTestEngine()
	now := time.Now()
	lastSeen := now.AddDate(0, 0, -2)
	firstSeen := now.AddDate(-1, 0, 0)

	result, err := engine.Analyze(&core.EmailInput{
		From:       "news@bigcorp.example",
		Subject:    "Quarterly update",
		Body:       "Here is our quarterly newsletter.",
		Headers:    passingHeaders,
		AnalyzedAt: now,
	}, &core.BehaviorSnapshot{
		Sender:    "news@bigcorp.example",
		Domain:    "bigcorp.example",
		Total:     50,
		Safe:      50,
		FirstSeen: &firstSeen,
		LastSeen:  &lastSeen,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, core.RiskLow, result.RiskLevel)

	behavior := result.Breakdown.Behavior.Details.(core.BehaviorDetails)
	assert.True(t, behavior.TrustedSender)
	headers := result.Breakdown.Headers.Details.(core.HeaderDetails)
	assert.Positive(t, headers.AuthPositiveBonus)

	misc := result.Breakdown.Misc.Details.(core.MiscDetails)
	assert.Negative(t, misc.AuthAdjustment)
	assert.Negative(t, misc.TrustAdjustment)
}

func TestEngine_AuthenticationRelief(t *testing.T) {
	engine := newTestEngine()
	base := core.EmailInput{
		From:    "news@example.com",
		Subject: "Weekly digest",
		Body:    "All quiet this week.",
	}

	passing := base
	passing.Headers = passingHeaders
	failing := base
	failing.Headers = failingHeaders

	passResult, err := engine.Analyze(&passing, nil, nil)
	require.NoError(t, err)
	failResult, err := engine.Analyze(&failing, nil, nil)
	require.NoError(t, err)

	assert.Less(t, passResult.Score, failResult.Score)
}

func TestEngine_TrustReliefIsBounded(t *testing.T) {
	engine := newTestEngine()
	now := time.Now()
	lastSeen := now.AddDate(0, 0, -1)

	// Hard rule and authentication failures contributing well past the
	// trust bonus: the bonus reduces the score but cannot zero it.
	email := &core.EmailInput{
		From:    "security@paypa1.com",
		Subject: "Account suspended",
		Body:    "Your account suspended. Verify your account at http://bit.ly/x and run update.exe from http://10.0.0.1/u",
		Headers: failingHeaders,
	}
	trusted := &core.BehaviorSnapshot{
		Sender:   "security@paypa1.com",
		Total:    20,
		Safe:     20,
		LastSeen: &lastSeen,
	}

	withTrust, err := engine.Analyze(email, trusted, nil)
	require.NoError(t, err)
	withoutTrust, err := engine.Analyze(email, nil, nil)
	require.NoError(t, err)

	assert.Less(t, withTrust.Score, withoutTrust.Score)
	assert.GreaterOrEqual(t, withTrust.Score, core.MediumRiskThreshold,
		"trust relief must not override hard failures")
	misc := withTrust.Breakdown.Misc.Details.(core.MiscDetails)
	assert.Equal(t, -DefaultTrustedSenderBonus, misc.TrustAdjustment)
}

func TestEngine_MonotonicUnderNewHighSeverityMatch(t *testing.T) {
	engine := newTestEngine()
	base := &core.EmailInput{
		From: "x@y.example",
		Body: "Please verify your account today.",
	}
	worse := &core.EmailInput{
		From: "x@y.example",
		Body: "Please verify your account today. Your account has been locked.",
	}

	baseResult, err := engine.Analyze(base, nil, nil)
	require.NoError(t, err)
	worseResult, err := engine.Analyze(worse, nil, nil)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, worseResult.Score, baseResult.Score)
}

func TestEngine_Idempotent(t *testing.T) {
	engine := newTestEngine()
	now := time.Now()
	email := &core.EmailInput{
		From:       "security@paypal-support.com",
		Subject:    "Urgent",
		Body:       "verify your account http://bit.ly/x",
		Headers:    failingHeaders,
		AnalyzedAt: now,
	}
	ml := &core.MLOutput{Score: 81, Confidence: 0.9, ModelUsed: "test-model"}

	first, err := engine.Analyze(email, nil, ml)
	require.NoError(t, err)
	second, err := engine.Analyze(email, nil, ml)
	require.NoError(t, err)

	first.ProcessingTime = 0
	second.ProcessingTime = 0
	assert.Equal(t, first, second)
}

func TestEngine_ScoreAlwaysInRangeAndConsistent(t *testing.T) {
	engine := newTestEngine()
	inputs := []*core.EmailInput{
		{From: "a@b.example", Body: "hello"},
		{From: "security@paypa1.com", Body: "verify your account urgent wire transfer bitcoin http://bit.ly/x http://1.2.3.4/x run setup.exe now", Headers: failingHeaders},
		{Subject: "just a subject"},
		{From: "support@paypal.com", Body: "Thanks for your order", Headers: passingHeaders},
	}
	for _, in := range inputs {
		result, err := engine.Analyze(in, nil, &core.MLOutput{Score: 100, Confidence: 1, ModelUsed: "m"})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.Score, 0)
		assert.LessOrEqual(t, result.Score, 100)
		assert.Equal(t, core.RiskLevelForScore(result.Score), result.RiskLevel)
	}
}

func TestEngine_MLContributionScalesWithConfidence(t *testing.T) {
	engine := newTestEngine()
	email := &core.EmailInput{From: "a@b.example", Body: "hello there"}

	confident, err := engine.Analyze(email, nil, &core.MLOutput{Score: 90, Confidence: 1.0, ModelUsed: "m"})
	require.NoError(t, err)
	hesitant, err := engine.Analyze(email, nil, &core.MLOutput{Score: 90, Confidence: 0.6, ModelUsed: "m"})
	require.NoError(t, err)

	assert.Greater(t, confident.Breakdown.ML.Percentage, hesitant.Breakdown.ML.Percentage)
	assert.InDelta(t, 90*DefaultMLWeight/100, confident.Breakdown.ML.Percentage, 0.01)
}

func TestEngine_ConcurrentCallsAreIndependent(t *testing.T) {
	engine := newTestEngine()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := engine.Analyze(&core.EmailInput{
				From: "security@paypal-support.com",
				Body: "verify your account http://bit.ly/x",
			}, nil, nil)
			assert.NoError(t, err)
			assert.Equal(t, core.RiskHigh, result.RiskLevel)
		}()
	}
	wg.Wait()
}

func TestRiskLevelForScore(t *testing.T) {
	tests := []struct {
		score int
		want  core.RiskLevel
	}{
		{0, core.RiskLow},
		{34, core.RiskLow},
		{35, core.RiskMedium},
		{59, core.RiskMedium},
		{60, core.RiskHigh},
		{100, core.RiskHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, core.RiskLevelForScore(tt.score), "score %d", tt.score)
	}
}
