package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phishguard/phishguard/internal/core"
)

var (
	spfResultRe   = regexp.MustCompile(`(?im)^received-spf:\s*(\w+)`)
	authSPFRe     = regexp.MustCompile(`(?i)\bspf=(\w+)`)
	authDKIMRe    = regexp.MustCompile(`(?i)\bdkim=(\w+)`)
	authDMARCRe   = regexp.MustCompile(`(?i)\bdmarc=(\w+)`)
	receivedRe    = regexp.MustCompile(`(?im)^received:`)
	returnPathRe  = regexp.MustCompile(`(?im)^return-path:\s*<?([^>\s]+@[^>\s]+)>?`)
	fromHeaderRe  = regexp.MustCompile(`(?im)^from:\s*(.+)$`)
	replyToHdrRe  = regexp.MustCompile(`(?im)^reply-to:\s*(.+)$`)
)

// Per-mechanism risk contributions. A hard fail is penalized sharply; a
// missing or "none" record is weak-neutral because many legitimate senders
// still omit these records.
const (
	authFailScore    = 35.0
	authSoftScore    = 20.0
	authNeutralScore = 25.0

	hopCountScore        = 10.0
	returnPathScore      = 15.0
	replyToMismatchScore = 10.0
)

// headerAuthenticator parses SPF/DKIM/DMARC outcomes and routing hints
// from the raw header block
type headerAuthenticator struct {
	fullPassBonus float64
	maxHops       int
}

func newHeaderAuthenticator(fullPassBonus float64, maxHops int) *headerAuthenticator {
	if maxHops <= 0 {
		maxHops = DefaultMaxReceivedHops
	}
	return &headerAuthenticator{fullPassBonus: fullPassBonus, maxHops: maxHops}
}

func (d *headerAuthenticator) evaluate(email *core.EmailInput) (core.SubScore, []core.Finding) {
	raw := email.Headers
	details := core.HeaderDetails{
		SPFStatus:   core.AuthUndefined,
		DKIMStatus:  core.AuthUndefined,
		DMARCStatus: core.AuthUndefined,
	}

	if strings.TrimSpace(raw) == "" {
		// Absent headers are weak-neutral, not a hard fail: score as if
		// every mechanism were missing, and say so.
		details.Reason = "no headers supplied"
		details.AuthSummary = "SPF: undefined, DKIM: undefined, DMARC: undefined"
		score := clampScore(3 * authNeutralScore)
		return core.SubScore{Score: score, Details: details}, nil
	}

	details.SPFStatus = parseAuthToken(raw, authSPFRe, spfResultRe)
	details.DKIMStatus = parseAuthToken(raw, authDKIMRe, nil)
	details.DMARCStatus = parseAuthToken(raw, authDMARCRe, nil)
	details.ReceivedCount = len(receivedRe.FindAllStringIndex(raw, -1))

	var findings []core.Finding
	score := 0.0
	for _, status := range []core.AuthStatus{details.SPFStatus, details.DKIMStatus, details.DMARCStatus} {
		score += mechanismScore(status)
	}

	if details.SPFStatus == core.AuthFail || details.DKIMStatus == core.AuthFail || details.DMARCStatus == core.AuthFail {
		findings = append(findings, core.Finding{
			Text:     fmt.Sprintf("Authentication failure: SPF=%s DKIM=%s DMARC=%s", details.SPFStatus, details.DKIMStatus, details.DMARCStatus),
			Severity: core.SeverityHigh,
			Category: "header_auth",
		})
	}

	if details.ReceivedCount > d.maxHops {
		details.SuspiciousHeaders = append(details.SuspiciousHeaders,
			fmt.Sprintf("unusually long delivery path (%d Received hops)", details.ReceivedCount))
		score += hopCountScore
	}

	// Spoofing hint: the envelope sender disagreeing with the From domain
	// is the classic forged-sender shape.
	fromDomain := extractDomain(fromAddressIn(raw, email.From))
	if m := returnPathRe.FindStringSubmatch(raw); m != nil && fromDomain != "" {
		if rp := extractDomain(m[1]); rp != "" && rp != fromDomain {
			details.SuspiciousHeaders = append(details.SuspiciousHeaders,
				fmt.Sprintf("Return-Path domain %q does not match From domain %q", rp, fromDomain))
			score += returnPathScore
		}
	}
	if m := replyToHdrRe.FindStringSubmatch(raw); m != nil && fromDomain != "" {
		if _, addr := parseSender(m[1]); addr != "" {
			if rt := extractDomain(addr); rt != "" && rt != fromDomain {
				details.SuspiciousHeaders = append(details.SuspiciousHeaders,
					fmt.Sprintf("Reply-To domain %q does not match From domain %q", rt, fromDomain))
				score += replyToMismatchScore
			}
		}
	}
	for _, h := range details.SuspiciousHeaders {
		findings = append(findings, core.Finding{
			Text:     "Suspicious header: " + h,
			Severity: core.SeverityMedium,
			Category: "header_auth",
		})
	}

	if details.SPFStatus == core.AuthPass && details.DKIMStatus == core.AuthPass && details.DMARCStatus == core.AuthPass {
		details.AuthPositiveBonus = d.fullPassBonus
	}

	details.AuthSummary = fmt.Sprintf("SPF: %s, DKIM: %s, DMARC: %s",
		details.SPFStatus, details.DKIMStatus, details.DMARCStatus)
	if details.AuthPositiveBonus > 0 {
		details.AuthSummary += fmt.Sprintf(" (full pass, -%.0f bonus)", details.AuthPositiveBonus)
	}

	return core.SubScore{Score: clampScore(score), Details: details}, findings
}

// fromAddressIn prefers the From header inside the raw block and falls
// back to the envelope From of the input
func fromAddressIn(raw, fallback string) string {
	if m := fromHeaderRe.FindStringSubmatch(raw); m != nil {
		if _, addr := parseSender(m[1]); addr != "" {
			return addr
		}
	}
	_, addr := parseSender(fallback)
	return addr
}

// parseAuthToken extracts a mechanism result from Authentication-Results,
// falling back to a secondary pattern (Received-SPF) when present
func parseAuthToken(raw string, primary, fallback *regexp.Regexp) core.AuthStatus {
	m := primary.FindStringSubmatch(raw)
	if m == nil && fallback != nil {
		m = fallback.FindStringSubmatch(raw)
	}
	if m == nil {
		return core.AuthUndefined
	}
	switch strings.ToLower(m[1]) {
	case "pass":
		return core.AuthPass
	case "fail", "hardfail", "permerror":
		return core.AuthFail
	case "softfail", "neutral":
		return core.AuthSoftFail
	case "none":
		return core.AuthNone
	default:
		return core.AuthUndefined
	}
}

func mechanismScore(status core.AuthStatus) float64 {
	switch status {
	case core.AuthPass:
		return 0
	case core.AuthFail:
		return authFailScore
	case core.AuthSoftFail:
		return authSoftScore
	default:
		return authNeutralScore
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
