package analysis

// Default tuning constants. All of these are product-tuning knobs and can
// be overridden through configuration; tests assert against the defaults.
const (
	// Base weights: how many points of the 100-point total each detector
	// can contribute at a raw score of 100. They sum to 95, leaving
	// headroom for the additive adjustments below.
	DefaultRulesWeight      = 30.0
	DefaultHeadersWeight    = 20.0
	DefaultReputationWeight = 20.0
	DefaultBehaviorWeight   = 15.0
	DefaultMLWeight         = 10.0

	// DefaultRuleSoftKnee controls the saturation curve for rule scores:
	// normalized = 100 * raw / (raw + knee). Monotonic with diminishing
	// returns, so repeated keywords cannot exceed the rule ceiling.
	DefaultRuleSoftKnee = 40.0

	// DefaultRuleMatchCap bounds how often a single category counts.
	DefaultRuleMatchCap = 3

	// DefaultAuthFullPassBonus is subtracted from the final score when
	// SPF, DKIM and DMARC all pass.
	DefaultAuthFullPassBonus = 12.0

	// DefaultTrustedSenderBonus is the maximum relief a trusted sender can
	// earn. It is capped so trust alone can never erase a hard failure.
	DefaultTrustedSenderBonus = 15.0

	// DefaultFirstContactPenalty is added when the sender has no history.
	// Unknown is "no signal", not "bad signal", so it stays small.
	DefaultFirstContactPenalty = 8.0

	// DefaultTrustedThreshold is the number of safe-only interactions
	// required before a sender counts as trusted.
	DefaultTrustedThreshold = 5

	// DefaultMLConfidenceFloor is the minimum classifier confidence for
	// the ML signal to contribute at all.
	DefaultMLConfidenceFloor = 0.5

	// DefaultMaxReceivedHops is the hop count above which routing looks
	// suspicious.
	DefaultMaxReceivedHops = 8
)

// Weights holds the per-detector share of the 100-point total
type Weights struct {
	Rules      float64
	Headers    float64
	Reputation float64
	Behavior   float64
	ML         float64
}

// DefaultWeights returns the standard weight distribution
func DefaultWeights() Weights {
	return Weights{
		Rules:      DefaultRulesWeight,
		Headers:    DefaultHeadersWeight,
		Reputation: DefaultReputationWeight,
		Behavior:   DefaultBehaviorWeight,
		ML:         DefaultMLWeight,
	}
}

// Config carries every tunable the engine needs. Pattern tables and brand
// lists are loaded once at construction and shared immutably across calls.
type Config struct {
	Weights             Weights
	RuleCategories      []RuleCategory
	RuleSoftKnee        float64
	Brands              []string
	AuthFullPassBonus   float64
	TrustedSenderBonus  float64
	FirstContactPenalty float64
	TrustedThreshold    int
	MLConfidenceFloor   float64
	MaxReceivedHops     int
}

// DefaultConfig returns a fully populated engine configuration
func DefaultConfig() Config {
	return Config{
		Weights:             DefaultWeights(),
		RuleCategories:      DefaultRuleCategories(),
		RuleSoftKnee:        DefaultRuleSoftKnee,
		Brands:              DefaultBrands(),
		AuthFullPassBonus:   DefaultAuthFullPassBonus,
		TrustedSenderBonus:  DefaultTrustedSenderBonus,
		FirstContactPenalty: DefaultFirstContactPenalty,
		TrustedThreshold:    DefaultTrustedThreshold,
		MLConfidenceFloor:   DefaultMLConfidenceFloor,
		MaxReceivedHops:     DefaultMaxReceivedHops,
	}
}

// DefaultBrands is the curated brand/domain list used for lookalike
// detection. Order matters only for tie-breaking: the first closest brand
// wins, so keep the list stable.
func DefaultBrands() []string {
	return []string{
		"paypal.com",
		"google.com",
		"microsoft.com",
		"apple.com",
		"amazon.com",
		"netflix.com",
		"facebook.com",
		"instagram.com",
		"linkedin.com",
		"dropbox.com",
		"docusign.com",
		"chase.com",
		"wellsfargo.com",
		"bankofamerica.com",
	}
}
