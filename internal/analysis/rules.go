package analysis

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/phishguard/phishguard/internal/core"
)

// RuleCategory is one family of textual indicators with a shared weight
// and severity. Patterns are plain lowercase substrings unless Regexps is
// set, in which case the compiled expressions are used instead.
type RuleCategory struct {
	Name     string
	Weight   float64
	Severity core.Severity
	Patterns []string
	Regexps  []*regexp.Regexp
	MatchCap int
}

var (
	urlShortenerRe = regexp.MustCompile(`(?i)https?://(?:www\.)?(bit\.ly|tinyurl\.com|goo\.gl|t\.co|is\.gd|ow\.ly|rb\.gy|cutt\.ly|buff\.ly)/\S+`)
	ipLiteralURLRe = regexp.MustCompile(`(?i)https?://\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}(?::\d+)?\S*`)
	attachmentRe   = regexp.MustCompile(`(?i)\b[\w.\-]+\.(exe|scr|bat|cmd|pif|vbs|jar|msi|hta|ps1)\b`)
	hiddenStyleRe  = regexp.MustCompile(`(?i)(display\s*:\s*none|visibility\s*:\s*hidden|font-size\s*:\s*0)`)
	anchorRe       = regexp.MustCompile(`(?is)<a\s+[^>]*href\s*=\s*["'](https?://[^"']+)["'][^>]*>(.*?)</a>`)
)

// DefaultRuleCategories returns the standard indicator table
func DefaultRuleCategories() []RuleCategory {
	return []RuleCategory{
		{
			Name:     "credential_phishing",
			Weight:   18,
			Severity: core.SeverityHigh,
			MatchCap: DefaultRuleMatchCap,
			Patterns: []string{
				"verify your account",
				"confirm your password",
				"confirm your identity",
				"account suspended",
				"account has been locked",
				"unusual sign-in activity",
				"update your payment information",
				"reset your password",
			},
		},
		{
			Name:     "urgency",
			Weight:   8,
			Severity: core.SeverityMedium,
			MatchCap: DefaultRuleMatchCap,
			Patterns: []string{
				"urgent",
				"immediately",
				"act now",
				"final notice",
				"expires today",
				"within 24 hours",
				"limited time",
			},
		},
		{
			Name:     "financial_lure",
			Weight:   7,
			Severity: core.SeverityMedium,
			MatchCap: DefaultRuleMatchCap,
			Patterns: []string{
				"wire transfer",
				"bank account",
				"gift card",
				"bitcoin",
				"you have won",
				"claim your prize",
				"invoice attached",
			},
		},
		{
			Name:     "url_shortener",
			Weight:   22,
			Severity: core.SeverityHigh,
			MatchCap: 2,
			Regexps:  []*regexp.Regexp{urlShortenerRe},
		},
		{
			Name:     "ip_literal_link",
			Weight:   20,
			Severity: core.SeverityHigh,
			MatchCap: 2,
			Regexps:  []*regexp.Regexp{ipLiteralURLRe},
		},
		{
			Name:     "dangerous_attachment",
			Weight:   20,
			Severity: core.SeverityHigh,
			MatchCap: 2,
			Regexps:  []*regexp.Regexp{attachmentRe},
		},
		{
			Name:     "html_obfuscation",
			Weight:   15,
			Severity: core.SeverityMedium,
			MatchCap: 2,
			Regexps:  []*regexp.Regexp{hiddenStyleRe},
		},
	}
}

// ruleDetector scans subject and body against the category table
type ruleDetector struct {
	categories []RuleCategory
	softKnee   float64
}

func newRuleDetector(categories []RuleCategory, softKnee float64) *ruleDetector {
	// Drop duplicate category names so a misconfigured table cannot
	// double-count weight.
	seen := make(map[string]bool, len(categories))
	deduped := make([]RuleCategory, 0, len(categories))
	for _, cat := range categories {
		if seen[cat.Name] {
			continue
		}
		seen[cat.Name] = true
		if cat.MatchCap <= 0 {
			cat.MatchCap = DefaultRuleMatchCap
		}
		deduped = append(deduped, cat)
	}
	if softKnee <= 0 {
		softKnee = DefaultRuleSoftKnee
	}
	return &ruleDetector{categories: deduped, softKnee: softKnee}
}

type ruleMatch struct {
	category   RuleCategory
	matched    string
	startIndex int
}

func (d *ruleDetector) evaluate(email *core.EmailInput) (core.SubScore, []core.Finding) {
	details := core.RuleDetails{}
	if len(d.categories) == 0 {
		details.Reason = "no rule categories configured"
		return core.SubScore{Details: details}, nil
	}

	text := email.Subject + "\n" + email.Body
	lower := strings.ToLower(text)
	// Offsets into the body for highlighting: matches inside the subject
	// report StartIndex 0.
	bodyOffset := len(email.Subject) + 1

	var matches []ruleMatch
	rawWeight := 0.0
	matchedCategories := make([]string, 0, len(d.categories))

	for _, cat := range d.categories {
		catMatches := d.matchCategory(cat, text, lower)
		if len(catMatches) == 0 {
			continue
		}
		matchedCategories = append(matchedCategories, cat.Name)
		counted := len(catMatches)
		if counted > cat.MatchCap {
			counted = cat.MatchCap
		}
		rawWeight += cat.Weight * float64(counted)
		matches = append(matches, catMatches...)
	}

	// Mismatched href vs anchor text is matched separately because it
	// needs both halves of the anchor, not a single pattern.
	if anchors := d.matchAnchorMismatch(text); len(anchors) > 0 {
		matchedCategories = append(matchedCategories, "link_text_mismatch")
		counted := len(anchors)
		if counted > 2 {
			counted = 2
		}
		rawWeight += 16 * float64(counted)
		matches = append(matches, anchors...)
	}

	findings := make([]core.Finding, 0, len(matches))
	seenText := make(map[string]bool, len(matches))
	for _, m := range matches {
		key := m.category.Name + "|" + m.matched
		if seenText[key] {
			continue
		}
		seenText[key] = true
		start := m.startIndex - bodyOffset
		if start < 0 {
			start = 0
		}
		findings = append(findings, core.Finding{
			Text:       fmt.Sprintf("Suspicious %s indicator: %s", strings.ReplaceAll(m.category.Name, "_", " "), m.matched),
			Severity:   m.category.Severity,
			Category:   m.category.Name,
			StartIndex: start,
		})
	}
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].StartIndex < findings[j].StartIndex
	})

	details.MatchedCategories = matchedCategories
	details.MatchCount = len(findings)
	details.RawWeight = rawWeight

	score := saturate(rawWeight, d.softKnee)
	return core.SubScore{Score: score, Details: details}, findings
}

func (d *ruleDetector) matchCategory(cat RuleCategory, text, lower string) []ruleMatch {
	var out []ruleMatch
	for _, p := range cat.Patterns {
		idx := strings.Index(lower, strings.ToLower(p))
		if idx < 0 {
			continue
		}
		out = append(out, ruleMatch{category: cat, matched: p, startIndex: idx})
	}
	for _, re := range cat.Regexps {
		for _, loc := range re.FindAllStringIndex(text, cat.MatchCap) {
			out = append(out, ruleMatch{
				category:   cat,
				matched:    text[loc[0]:loc[1]],
				startIndex: loc[0],
			})
		}
	}
	return out
}

func (d *ruleDetector) matchAnchorMismatch(text string) []ruleMatch {
	cat := RuleCategory{Name: "link_text_mismatch", Severity: core.SeverityHigh}
	var out []ruleMatch
	for _, loc := range anchorRe.FindAllStringSubmatchIndex(text, 4) {
		href := text[loc[2]:loc[3]]
		anchor := strings.TrimSpace(text[loc[4]:loc[5]])
		if !strings.HasPrefix(strings.ToLower(anchor), "http") {
			continue
		}
		if hostOf(anchor) != "" && hostOf(anchor) != hostOf(href) {
			out = append(out, ruleMatch{
				category:   cat,
				matched:    fmt.Sprintf("link text %q points to %q", anchor, href),
				startIndex: loc[0],
			})
		}
	}
	return out
}

// saturate maps an unbounded raw weight onto 0-100 with diminishing
// returns: 100 * raw / (raw + knee)
func saturate(raw, knee float64) float64 {
	if raw <= 0 {
		return 0
	}
	return 100 * raw / (raw + knee)
}
