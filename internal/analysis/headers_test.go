package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phishguard/phishguard/internal/core"
)

const passingHeaders = `Received: from mail.example.com (mail.example.com [203.0.113.5]) by mx.local
Received: from internal (internal [10.0.0.1]) by mail.example.com
Received-SPF: pass (example.com: sender authorized)
Authentication-Results: mx.local; spf=pass; dkim=pass header.d=example.com; dmarc=pass
Return-Path: <news@example.com>
From: News <news@example.com>
Subject: hi
`

const failingHeaders = `Received: from shady.example.net by mx.local
Authentication-Results: mx.local; spf=fail; dkim=fail; dmarc=fail
Return-Path: <bounce@elsewhere.example.org>
From: News <news@example.com>
`

func TestHeaderAuthenticator_FullPass(t *testing.T) {
	auth := newHeaderAuthenticator(DefaultAuthFullPassBonus, DefaultMaxReceivedHops)

	sub, findings := auth.evaluate(&core.EmailInput{Headers: passingHeaders})
	details, ok := sub.Details.(core.HeaderDetails)
	require.True(t, ok)

	assert.Equal(t, core.AuthPass, details.SPFStatus)
	assert.Equal(t, core.AuthPass, details.DKIMStatus)
	assert.Equal(t, core.AuthPass, details.DMARCStatus)
	assert.Equal(t, 2, details.ReceivedCount)
	assert.Empty(t, details.SuspiciousHeaders)
	assert.Equal(t, DefaultAuthFullPassBonus, details.AuthPositiveBonus)
	assert.Zero(t, sub.Score)
	assert.Empty(t, findings)
	assert.Contains(t, details.AuthSummary, "SPF: pass")
}

func TestHeaderAuthenticator_HardFail(t *testing.T) {
	auth := newHeaderAuthenticator(DefaultAuthFullPassBonus, DefaultMaxReceivedHops)

	sub, findings := auth.evaluate(&core.EmailInput{Headers: failingHeaders})
	details := sub.Details.(core.HeaderDetails)

	assert.Equal(t, core.AuthFail, details.SPFStatus)
	assert.Equal(t, core.AuthFail, details.DKIMStatus)
	assert.Equal(t, core.AuthFail, details.DMARCStatus)
	assert.Zero(t, details.AuthPositiveBonus)
	// Three hard fails plus a Return-Path mismatch saturate the sub-score.
	assert.Equal(t, 100.0, sub.Score)
	assert.NotEmpty(t, findings)
	require.NotEmpty(t, details.SuspiciousHeaders)
	assert.Contains(t, details.SuspiciousHeaders[0], "Return-Path")
}

func TestHeaderAuthenticator_MissingHeadersAreWeakNeutral(t *testing.T) {
	auth := newHeaderAuthenticator(DefaultAuthFullPassBonus, DefaultMaxReceivedHops)

	sub, findings := auth.evaluate(&core.EmailInput{Headers: ""})
	details := sub.Details.(core.HeaderDetails)

	assert.Equal(t, core.AuthUndefined, details.SPFStatus)
	assert.Equal(t, core.AuthUndefined, details.DKIMStatus)
	assert.Equal(t, core.AuthUndefined, details.DMARCStatus)
	assert.Equal(t, "no headers supplied", details.Reason)
	assert.Empty(t, findings)
	// Absent records are a small risk increment, not a hard fail.
	assert.InDelta(t, 3*authNeutralScore, sub.Score, 0.01)
	assert.Less(t, sub.Score, 3*authFailScore)
}

func TestHeaderAuthenticator_ReceivedSPFFallback(t *testing.T) {
	auth := newHeaderAuthenticator(DefaultAuthFullPassBonus, DefaultMaxReceivedHops)

	sub, _ := auth.evaluate(&core.EmailInput{Headers: "Received-SPF: softfail (transitioning)\n"})
	details := sub.Details.(core.HeaderDetails)

	assert.Equal(t, core.AuthSoftFail, details.SPFStatus)
	assert.Equal(t, core.AuthUndefined, details.DKIMStatus)
}

func TestHeaderAuthenticator_ExcessiveHops(t *testing.T) {
	auth := newHeaderAuthenticator(DefaultAuthFullPassBonus, 3)

	raw := strings.Repeat("Received: from hop by next\n", 5) +
		"Authentication-Results: mx; spf=pass; dkim=pass; dmarc=pass\n"
	sub, _ := auth.evaluate(&core.EmailInput{Headers: raw})
	details := sub.Details.(core.HeaderDetails)

	assert.Equal(t, 5, details.ReceivedCount)
	require.NotEmpty(t, details.SuspiciousHeaders)
	assert.Contains(t, details.SuspiciousHeaders[0], "Received hops")
	assert.InDelta(t, hopCountScore, sub.Score, 0.01)
}

func TestHeaderAuthenticator_ReplyToMismatch(t *testing.T) {
	auth := newHeaderAuthenticator(DefaultAuthFullPassBonus, DefaultMaxReceivedHops)

	raw := `From: Boss <boss@company.example.com>
Reply-To: attacker@gmail.example.org
Authentication-Results: mx; spf=pass; dkim=pass; dmarc=pass
`
	sub, findings := auth.evaluate(&core.EmailInput{Headers: raw})
	details := sub.Details.(core.HeaderDetails)

	require.Len(t, details.SuspiciousHeaders, 1)
	assert.Contains(t, details.SuspiciousHeaders[0], "Reply-To")
	assert.Len(t, findings, 1)
	assert.InDelta(t, replyToMismatchScore, sub.Score, 0.01)
}
