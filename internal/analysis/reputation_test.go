package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phishguard/phishguard/internal/core"
)

func TestReputationAnalyzer_Lookalike(t *testing.T) {
	analyzer := newReputationAnalyzer(DefaultBrands())

	tests := []struct {
		name         string
		from         string
		wantBrand    string
		wantDistance int
		wantFlag     bool
	}{
		{
			name:         "Exact brand domain is known-safe",
			from:         "support@paypal.com",
			wantBrand:    "paypal.com",
			wantDistance: 0,
			wantFlag:     false,
		},
		{
			name:         "Digit substitution lookalike",
			from:         "security@paypa1.com",
			wantBrand:    "paypal.com",
			wantDistance: 1,
			wantFlag:     true,
		},
		{
			name:         "Adjacent transposition lookalike",
			from:         "it@microsfot.com",
			wantBrand:    "microsoft.com",
			wantDistance: 1,
			wantFlag:     true,
		},
		{
			name:      "Brand token buried in unrelated domain",
			from:      "security@paypal-support.com",
			wantBrand: "paypal.com",
			wantFlag:  true,
		},
		{
			name:     "Unrelated domain is clean",
			from:     "alice@newpartner.example",
			wantFlag: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, findings := analyzer.evaluate(&core.EmailInput{From: tt.from})
			details, ok := sub.Details.(core.ReputationDetails)
			require.True(t, ok)

			if tt.wantBrand != "" {
				assert.Equal(t, tt.wantBrand, details.MatchedBrand)
			}
			if tt.wantDistance > 0 {
				assert.Equal(t, tt.wantDistance, details.LookalikeDistance)
			}
			if tt.wantFlag {
				assert.GreaterOrEqual(t, sub.Score, brandTokenScore)
				found := false
				for _, f := range findings {
					if f.Category == "lookalike_domain" {
						found = true
					}
				}
				assert.True(t, found, "expected a lookalike_domain finding")
			} else {
				assert.Zero(t, sub.Score)
				assert.Empty(t, findings)
			}
		})
	}
}

func TestReputationAnalyzer_DisplayNameImpersonation(t *testing.T) {
	analyzer := newReputationAnalyzer(DefaultBrands())

	sub, findings := analyzer.evaluate(&core.EmailInput{
		From: `"PayPal Billing" <billing@secure-pay.example.net>`,
	})
	details := sub.Details.(core.ReputationDetails)

	assert.Equal(t, "PayPal Billing", details.DisplayName)
	assert.Equal(t, "billing@secure-pay.example.net", details.EmailAddress)
	require.NotEmpty(t, details.SuspiciousTokens)
	assert.Contains(t, details.SuspiciousTokens[0], "paypal")
	assert.InDelta(t, displayBrandScore, sub.Score, 0.01)

	found := false
	for _, f := range findings {
		if f.Category == "brand_impersonation" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestReputationAnalyzer_MixedScriptDomain(t *testing.T) {
	analyzer := newReputationAnalyzer(DefaultBrands())

	// Cyrillic "а" in place of Latin "a".
	sub, findings := analyzer.evaluate(&core.EmailInput{From: "user@pаypal.com"})
	details := sub.Details.(core.ReputationDetails)

	assert.Contains(t, details.SuspiciousTokens, "mixed-script characters in domain")
	assert.NotEmpty(t, findings)
	assert.Greater(t, sub.Score, mixedScriptScore-1)
}

func TestReputationAnalyzer_NoisyDomain(t *testing.T) {
	analyzer := newReputationAnalyzer(DefaultBrands())

	sub, _ := analyzer.evaluate(&core.EmailInput{From: "x@win-free-cash-2024x9999.example"})
	details := sub.Details.(core.ReputationDetails)

	assert.Contains(t, details.SuspiciousTokens, "excessive hyphens or digits in domain")
	assert.GreaterOrEqual(t, sub.Score, noisyDomainScore)
}

func TestReputationAnalyzer_DegradesWithoutAddress(t *testing.T) {
	analyzer := newReputationAnalyzer(DefaultBrands())

	sub, findings := analyzer.evaluate(&core.EmailInput{From: "not an address"})
	details := sub.Details.(core.ReputationDetails)

	assert.Zero(t, sub.Score)
	assert.Empty(t, findings)
	assert.Equal(t, "no sender address", details.Reason)
}

func TestReputationAnalyzer_Deterministic(t *testing.T) {
	analyzer := newReputationAnalyzer(DefaultBrands())
	email := &core.EmailInput{From: `"PayPal" <a@paypa1.com>`}

	first, _ := analyzer.evaluate(email)
	second, _ := analyzer.evaluate(email)
	assert.Equal(t, first, second)
}

func TestDamerauLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"paypal.com", "paypal.com", 0},
		{"paypa1.com", "paypal.com", 1},
		{"microsfot.com", "microsoft.com", 1},
		{"micros0ft.com", "microsoft.com", 1},
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, damerauLevenshtein(tt.a, tt.b), "%s vs %s", tt.a, tt.b)
	}
}
