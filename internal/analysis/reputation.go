package analysis

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/phishguard/phishguard/internal/core"
)

// Reputation risk contributions. Additive, capped at 100.
const (
	lookalikeScore      = 90.0
	brandTokenScore     = 85.0
	displayBrandScore   = 35.0
	mixedScriptScore    = 40.0
	noisyDomainScore    = 20.0
	lookalikeMaxDist    = 2
	minBrandTokenLength = 5
)

// reputationAnalyzer compares the sender against a curated brand list and
// flags lookalike domains and suspicious token patterns
type reputationAnalyzer struct {
	brands []string
}

func newReputationAnalyzer(brands []string) *reputationAnalyzer {
	normalized := make([]string, 0, len(brands))
	for _, b := range brands {
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(b)))
	}
	return &reputationAnalyzer{brands: normalized}
}

func (d *reputationAnalyzer) evaluate(email *core.EmailInput) (core.SubScore, []core.Finding) {
	displayName, address := parseSender(email.From)
	details := core.ReputationDetails{
		EmailAddress: address,
		DisplayName:  displayName,
	}
	if address == "" {
		details.Reason = "no sender address"
		return core.SubScore{Details: details}, nil
	}
	domain := extractDomain(address)
	details.Domain = domain
	if domain == "" {
		details.Reason = "sender address has no domain"
		return core.SubScore{Details: details}, nil
	}

	var findings []core.Finding
	score := 0.0

	nearest, distance := d.nearestBrand(domain)
	details.LookalikeDistance = distance

	switch {
	case nearest != "" && distance == 0:
		// Exact match with a known-safe brand domain lowers risk.
		details.MatchedBrand = nearest
		score = 0
	case nearest != "" && distance <= lookalikeMaxDist:
		details.MatchedBrand = nearest
		score += lookalikeScore
		findings = append(findings, core.Finding{
			Text:     fmt.Sprintf("Lookalike domain: %q is %d edit(s) away from %q", domain, distance, nearest),
			Severity: core.SeverityHigh,
			Category: "lookalike_domain",
		})
	default:
		// A brand name buried inside an unrelated domain is the other
		// common impersonation shape (paypal-support.com).
		if brand, token := d.brandTokenIn(domain); brand != "" {
			details.MatchedBrand = brand
			score += brandTokenScore
			findings = append(findings, core.Finding{
				Text:     fmt.Sprintf("Lookalike domain: %q embeds brand name %q but is not %q", domain, token, brand),
				Severity: core.SeverityHigh,
				Category: "lookalike_domain",
			})
		}
	}

	if distance != 0 && displayName != "" {
		if brand, token := d.brandTokenIn(strings.ToLower(displayName)); brand != "" && brand != domain {
			score += displayBrandScore
			details.SuspiciousTokens = append(details.SuspiciousTokens,
				fmt.Sprintf("display name mentions %q", token))
			findings = append(findings, core.Finding{
				Text:     fmt.Sprintf("Display name %q references %q but sender domain is %q", displayName, brand, domain),
				Severity: core.SeverityHigh,
				Category: "brand_impersonation",
			})
		}
	}

	if hasMixedScript(domain) {
		score += mixedScriptScore
		details.SuspiciousTokens = append(details.SuspiciousTokens, "mixed-script characters in domain")
		findings = append(findings, core.Finding{
			Text:     fmt.Sprintf("Domain %q mixes Unicode scripts (possible homoglyph attack)", domain),
			Severity: core.SeverityHigh,
			Category: "homoglyph",
		})
	}

	if isNoisyDomain(domain) {
		score += noisyDomainScore
		details.SuspiciousTokens = append(details.SuspiciousTokens, "excessive hyphens or digits in domain")
		findings = append(findings, core.Finding{
			Text:     fmt.Sprintf("Domain %q has an unusual density of hyphens or digits", domain),
			Severity: core.SeverityLow,
			Category: "noisy_domain",
		})
	}

	return core.SubScore{Score: clampScore(score), Details: details}, findings
}

// nearestBrand returns the closest brand domain by Damerau-Levenshtein
// distance. Deterministic: ties keep the earlier brand in the list.
func (d *reputationAnalyzer) nearestBrand(domain string) (string, int) {
	best := ""
	bestDist := -1
	for _, brand := range d.brands {
		dist := damerauLevenshtein(domain, brand)
		if bestDist < 0 || dist < bestDist {
			best, bestDist = brand, dist
		}
	}
	return best, bestDist
}

// brandTokenIn reports the first brand whose name (label before the TLD)
// appears as a token inside s without s being the brand domain itself
func (d *reputationAnalyzer) brandTokenIn(s string) (brand, token string) {
	for _, b := range d.brands {
		name := strings.SplitN(b, ".", 2)[0]
		if len(name) < minBrandTokenLength {
			continue
		}
		if s != b && strings.Contains(s, name) {
			return b, name
		}
	}
	return "", ""
}

// hasMixedScript reports whether a domain combines Latin letters with
// letters from another script after NFKC folding, the homoglyph trick
func hasMixedScript(domain string) bool {
	folded := norm.NFKC.String(domain)
	var hasLatin, hasOther bool
	for _, r := range folded {
		if !unicode.IsLetter(r) {
			continue
		}
		if r < 128 || unicode.Is(unicode.Latin, r) {
			hasLatin = true
		} else {
			hasOther = true
		}
	}
	return hasLatin && hasOther
}

func isNoisyDomain(domain string) bool {
	label := strings.SplitN(domain, ".", 2)[0]
	hyphens := strings.Count(label, "-")
	digits := 0
	for _, r := range label {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return hyphens >= 3 || digits >= 4
}
