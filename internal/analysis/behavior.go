package analysis

import (
	"fmt"
	"time"

	"github.com/phishguard/phishguard/internal/core"
)

// Behavior risk contributions
const (
	firstContactScore  = 80.0
	phishingFloorScore = 50.0
	knownNeutralScore  = 25.0
)

// behaviorTracker derives a trust adjustment from the sender's interaction
// history. It holds no state: the snapshot is passed in by the caller.
type behaviorTracker struct {
	trustedThreshold    int
	trustedBonus        float64
	firstContactPenalty float64
}

func newBehaviorTracker(trustedThreshold int, trustedBonus, firstContactPenalty float64) *behaviorTracker {
	if trustedThreshold <= 0 {
		trustedThreshold = DefaultTrustedThreshold
	}
	return &behaviorTracker{
		trustedThreshold:    trustedThreshold,
		trustedBonus:        trustedBonus,
		firstContactPenalty: firstContactPenalty,
	}
}

func (d *behaviorTracker) evaluate(email *core.EmailInput, snapshot *core.BehaviorSnapshot) (core.SubScore, []core.Finding) {
	now := email.AnalyzedAt
	if now.IsZero() {
		now = time.Now()
	}

	if snapshot == nil || snapshot.Total == 0 {
		// No history is "no signal", not "bad signal": a small positive
		// adjustment, well short of a phishing verdict on its own.
		details := core.BehaviorDetails{
			IsFirstInteraction: true,
			Bonus:              d.firstContactPenalty,
			Reason:             "no prior interactions with this sender",
		}
		finding := core.Finding{
			Text:     "First contact: no prior interactions with this sender",
			Severity: core.SeverityLow,
			Category: "sender_behavior",
		}
		return core.SubScore{Score: firstContactScore, Details: details}, []core.Finding{finding}
	}

	details := core.BehaviorDetails{
		TotalInteractions:      snapshot.Total,
		PhishingInteractions:   snapshot.Phishing,
		SafeInteractions:       snapshot.Safe,
		SuspiciousInteractions: snapshot.Suspicious,
		FirstSeen:              snapshot.FirstSeen,
		LastSeen:               snapshot.LastSeen,
	}
	if snapshot.LastSeen != nil {
		details.DaysSinceLastInteraction = int(now.Sub(*snapshot.LastSeen).Hours() / 24)
	}

	var findings []core.Finding
	var score float64

	switch {
	case snapshot.Phishing > 0:
		// Risk proportional to the phishing share of all interactions,
		// never below the floor: one confirmed phish is a strong signal.
		ratio := float64(snapshot.Phishing) / float64(snapshot.Total)
		score = clampScore(100 * ratio)
		if score < phishingFloorScore {
			score = phishingFloorScore
		}
		findings = append(findings, core.Finding{
			Text:     fmt.Sprintf("Sender history: %d of %d prior emails were flagged as phishing", snapshot.Phishing, snapshot.Total),
			Severity: core.SeverityHigh,
			Category: "sender_behavior",
		})
	case snapshot.Safe == snapshot.Total && snapshot.Safe >= d.trustedThreshold:
		details.TrustedSender = true
		details.Bonus = -d.trustedBonus
		score = 0
	default:
		score = knownNeutralScore
		if snapshot.Suspicious > 0 {
			score += 25 * float64(snapshot.Suspicious) / float64(snapshot.Total)
			findings = append(findings, core.Finding{
				Text:     fmt.Sprintf("Sender history: %d of %d prior emails were marked suspicious", snapshot.Suspicious, snapshot.Total),
				Severity: core.SeverityMedium,
				Category: "sender_behavior",
			})
		}
	}

	return core.SubScore{Score: clampScore(score), Details: details}, findings
}
