package analysis

import (
	"github.com/phishguard/phishguard/internal/core"
)

// mlAdapter normalizes an external classifier's vote into the common
// sub-score shape. It contributes nothing when no model ran or when the
// model was not confident enough.
type mlAdapter struct {
	confidenceFloor float64
}

func newMLAdapter(confidenceFloor float64) *mlAdapter {
	return &mlAdapter{confidenceFloor: confidenceFloor}
}

func (d *mlAdapter) evaluate(output *core.MLOutput) core.SubScore {
	if output == nil {
		return core.SubScore{Details: core.MLDetails{ModelUsed: "unavailable", Reason: "no model output supplied"}}
	}
	if output.Confidence < d.confidenceFloor {
		return core.SubScore{Details: core.MLDetails{
			Confidence: output.Confidence,
			ModelUsed:  "low-confidence",
			Reason:     "model confidence below floor",
		}}
	}
	return core.SubScore{
		Score: clampScore(output.Score),
		Details: core.MLDetails{
			Confidence: output.Confidence,
			ModelUsed:  output.ModelUsed,
		},
	}
}
