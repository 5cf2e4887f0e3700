package core

import (
	"errors"
	"time"
)

// ErrEmptyEmail is returned when an email has neither a subject nor a body.
// It is the only error that aborts an analysis; everything else degrades.
var ErrEmptyEmail = errors.New("email has no subject and no body")

// EmailInput represents a raw email submitted for analysis
type EmailInput struct {
	From       string    `json:"from"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	Headers    string    `json:"headers,omitempty"`
	AnalyzedAt time.Time `json:"analyzedAt"`
}

// Severity classifies how strongly a finding indicates phishing
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Finding is a single piece of evidence supporting the risk score
type Finding struct {
	Text       string   `json:"text"`
	Severity   Severity `json:"severity"`
	Category   string   `json:"category"`
	StartIndex int      `json:"startIndex,omitempty"`
}

// SubScore is one detector's contribution to the final score.
// Score is the detector's raw 0-100 value; Percentage is the number of
// points of the final 100-point total it actually contributes.
type SubScore struct {
	Score      float64 `json:"score"`
	Percentage float64 `json:"percentage"`
	Details    any     `json:"details"`
}

// RuleDetails describes the rule detector's matches
type RuleDetails struct {
	MatchedCategories []string `json:"matchedCategories"`
	MatchCount        int      `json:"matchCount"`
	RawWeight         float64  `json:"rawWeight"`
	Reason            string   `json:"reason,omitempty"`
}

// AuthStatus is the outcome of a single authentication mechanism
type AuthStatus string

const (
	AuthPass      AuthStatus = "pass"
	AuthFail      AuthStatus = "fail"
	AuthSoftFail  AuthStatus = "softfail"
	AuthNone      AuthStatus = "none"
	AuthUndefined AuthStatus = "undefined"
)

// HeaderDetails describes the header authenticator's outcome
type HeaderDetails struct {
	SPFStatus         AuthStatus `json:"spfStatus"`
	DKIMStatus        AuthStatus `json:"dkimStatus"`
	DMARCStatus       AuthStatus `json:"dmarcStatus"`
	ReceivedCount     int        `json:"receivedCount"`
	SuspiciousHeaders []string   `json:"suspiciousHeaders,omitempty"`
	AuthPositiveBonus float64    `json:"authPositiveBonus"`
	AuthSummary       string     `json:"authSummary"`
	Reason            string     `json:"reason,omitempty"`
}

// ReputationDetails describes the sender reputation analysis
type ReputationDetails struct {
	EmailAddress      string   `json:"emailAddress"`
	Domain            string   `json:"domain"`
	DisplayName       string   `json:"displayName,omitempty"`
	MatchedBrand      string   `json:"matchedBrand,omitempty"`
	LookalikeDistance int      `json:"lookalikeDistance"`
	SuspiciousTokens  []string `json:"suspiciousTokens,omitempty"`
	Reason            string   `json:"reason,omitempty"`
}

// BehaviorDetails describes historical sender behavior.
// Bonus is the signed trust adjustment added to the final score:
// negative for trusted senders, positive for first contact.
type BehaviorDetails struct {
	TotalInteractions        int        `json:"totalInteractions"`
	PhishingInteractions     int        `json:"phishingInteractions"`
	SafeInteractions         int        `json:"safeInteractions"`
	SuspiciousInteractions   int        `json:"suspiciousInteractions"`
	DaysSinceLastInteraction int        `json:"daysSinceLastInteraction"`
	IsFirstInteraction       bool       `json:"isFirstInteraction"`
	FirstSeen                *time.Time `json:"firstSeen,omitempty"`
	LastSeen                 *time.Time `json:"lastSeen,omitempty"`
	TrustedSender            bool       `json:"trustedSender"`
	Bonus                    float64    `json:"bonus"`
	Reason                   string     `json:"reason,omitempty"`
}

// MLDetails describes the external classifier signal
type MLDetails struct {
	Confidence float64 `json:"confidence"`
	ModelUsed  string  `json:"modelUsed"`
	Reason     string  `json:"reason,omitempty"`
}

// MiscDetails records the cross-cutting adjustments applied after weighting
type MiscDetails struct {
	AuthAdjustment  float64 `json:"authAdjustment"`
	TrustAdjustment float64 `json:"trustAdjustment"`
	Reason          string  `json:"reason,omitempty"`
}

// Breakdown exposes every detector's sub-score to consumers.
// Field names and units are a compatibility contract with report export.
type Breakdown struct {
	Rules      SubScore `json:"rules"`
	Headers    SubScore `json:"headers"`
	Reputation SubScore `json:"reputation"`
	Behavior   SubScore `json:"behavior"`
	ML         SubScore `json:"ml"`
	Misc       SubScore `json:"misc"`
}

// AnalysisResult is the final verdict for one email
type AnalysisResult struct {
	Score          int       `json:"score"`
	RiskLevel      RiskLevel `json:"riskLevel"`
	Summary        string    `json:"summary"`
	Findings       []Finding `json:"findings"`
	Breakdown      Breakdown `json:"breakdown"`
	ProcessingTime int64     `json:"processingTime"`
}

// MLOutput is the external classifier's vote, already on the 0-100 scale
type MLOutput struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	ModelUsed  string  `json:"modelUsed"`
}

// BehaviorSnapshot is the aggregate interaction history for a sender,
// read from the trust store by the caller and passed in as a plain value
type BehaviorSnapshot struct {
	Sender     string     `json:"sender"`
	Domain     string     `json:"domain"`
	Total      int        `json:"total"`
	Phishing   int        `json:"phishing"`
	Safe       int        `json:"safe"`
	Suspicious int        `json:"suspicious"`
	FirstSeen  *time.Time `json:"firstSeen,omitempty"`
	LastSeen   *time.Time `json:"lastSeen,omitempty"`
}

// ScanRecord is the persisted summary of one analysis, consumed by the
// scan-history collaborator
type ScanRecord struct {
	ID           string    `json:"id"`
	Subject      string    `json:"subject"`
	FromEmail    string    `json:"fromEmail,omitempty"`
	RiskScore    int       `json:"riskScore"`
	Verdict      string    `json:"verdict"`
	Keywords     []string  `json:"keywords,omitempty"`
	Links        []string  `json:"links,omitempty"`
	MLConfidence float64   `json:"mlConfidence,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
