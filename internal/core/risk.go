package core

// RiskLevel is the categorical verdict derived from the final score
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Fixed score thresholds. Any consumer re-deriving a risk level from a
// stored score must go through RiskLevelForScore so these stay the single
// source of truth.
const (
	MediumRiskThreshold = 35
	HighRiskThreshold   = 60
)

// RiskLevelForScore maps a 0-100 score to its risk level
func RiskLevelForScore(score int) RiskLevel {
	switch {
	case score >= HighRiskThreshold:
		return RiskHigh
	case score >= MediumRiskThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}
