package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phishguard/phishguard/internal/core"
)

func TestRuleDetector_Evaluate(t *testing.T) {
	detector := newRuleDetector(DefaultRuleCategories(), DefaultRuleSoftKnee)

	tests := []struct {
		name           string
		subject        string
		body           string
		wantCategories []string
		wantScore      float64
	}{
		{
			name:           "Empty body - no matches, no findings",
			subject:        "hello",
			body:           "",
			wantCategories: []string{},
			wantScore:      0,
		},
		{
			name:           "Credential phishing plus shortener",
			body:           "Please verify your account now: http://bit.ly/xyz",
			wantCategories: []string{"credential_phishing", "url_shortener"},
			// raw 18 + 22 = 40, saturated: 100*40/(40+40)
			wantScore: 50,
		},
		{
			name:           "IP literal link",
			body:           "Download from http://192.168.10.5/update",
			wantCategories: []string{"ip_literal_link"},
			wantScore:      100 * 20 / (20 + DefaultRuleSoftKnee),
		},
		{
			name:           "Dangerous attachment reference",
			body:           "See attached invoice.pdf.exe for details",
			wantCategories: []string{"dangerous_attachment"},
			wantScore:      100 * 20 / (20 + DefaultRuleSoftKnee),
		},
		{
			name:           "Hidden text obfuscation",
			body:           `<span style="display:none">unsubscribe</span> urgent`,
			wantCategories: []string{"urgency", "html_obfuscation"},
			wantScore:      100 * 23 / (23 + DefaultRuleSoftKnee),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, findings := detector.evaluate(&core.EmailInput{Subject: tt.subject, Body: tt.body})
			details, ok := sub.Details.(core.RuleDetails)
			require.True(t, ok)

			assert.ElementsMatch(t, tt.wantCategories, details.MatchedCategories)
			assert.InDelta(t, tt.wantScore, sub.Score, 0.01)
			if len(tt.wantCategories) == 0 {
				assert.Empty(t, findings)
			} else {
				assert.NotEmpty(t, findings)
			}
		})
	}
}

func TestRuleDetector_FindingOffsets(t *testing.T) {
	detector := newRuleDetector(DefaultRuleCategories(), DefaultRuleSoftKnee)
	body := "Please verify your account today"

	_, findings := detector.evaluate(&core.EmailInput{Body: body})
	require.Len(t, findings, 1)
	assert.Equal(t, "credential_phishing", findings[0].Category)
	assert.Equal(t, core.SeverityHigh, findings[0].Severity)
	// StartIndex points into the body for UI highlighting.
	assert.Equal(t, 7, findings[0].StartIndex)
}

func TestRuleDetector_MatchCapLimitsRepeats(t *testing.T) {
	detector := newRuleDetector(DefaultRuleCategories(), DefaultRuleSoftKnee)

	once, _ := detector.evaluate(&core.EmailInput{Body: "urgent"})
	spammed, _ := detector.evaluate(&core.EmailInput{
		Body: "urgent immediately act now final notice expires today limited time",
	})

	// The cap bounds the raw weight, and saturation bounds the score, so a
	// keyword-riddled body cannot run away.
	assert.Greater(t, spammed.Score, once.Score)
	capped := 100 * (8.0 * DefaultRuleMatchCap) / (8.0*DefaultRuleMatchCap + DefaultRuleSoftKnee)
	assert.InDelta(t, capped, spammed.Score, 0.01)
}

func TestRuleDetector_DuplicateCategoriesNotDoubleCounted(t *testing.T) {
	cat := RuleCategory{
		Name:     "urgency",
		Weight:   8,
		Severity: core.SeverityMedium,
		Patterns: []string{"urgent"},
	}
	detector := newRuleDetector([]RuleCategory{cat, cat}, DefaultRuleSoftKnee)

	sub, _ := detector.evaluate(&core.EmailInput{Body: "this is urgent"})
	details := sub.Details.(core.RuleDetails)
	assert.Equal(t, []string{"urgency"}, details.MatchedCategories)
	assert.InDelta(t, 8.0, details.RawWeight, 0.01)
}

func TestRuleDetector_AnchorTextMismatch(t *testing.T) {
	detector := newRuleDetector(DefaultRuleCategories(), DefaultRuleSoftKnee)
	body := `Click <a href="http://evil.example.net/login">https://paypal.com/account</a>`

	sub, findings := detector.evaluate(&core.EmailInput{Body: body})
	details := sub.Details.(core.RuleDetails)

	assert.Contains(t, details.MatchedCategories, "link_text_mismatch")
	found := false
	for _, f := range findings {
		if f.Category == "link_text_mismatch" {
			found = true
			assert.Equal(t, core.SeverityHigh, f.Severity)
		}
	}
	assert.True(t, found, "expected a link_text_mismatch finding")
}

func TestRuleDetector_NoCategoriesDegrades(t *testing.T) {
	detector := newRuleDetector(nil, DefaultRuleSoftKnee)

	sub, findings := detector.evaluate(&core.EmailInput{Body: "verify your account"})
	details := sub.Details.(core.RuleDetails)

	assert.Zero(t, sub.Score)
	assert.Empty(t, findings)
	assert.NotEmpty(t, details.Reason)
}
