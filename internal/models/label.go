package models

// Label is the coarse sentiment class derived from a numeric score.
type Label string

const (
	// LabelNegative covers scores at or below -1.
	LabelNegative Label = "negative"
	// LabelNeutral covers scores strictly between -1 and 1.
	LabelNeutral Label = "neutral"
	// LabelPositive covers scores at or above 1.
	LabelPositive Label = "positive"
)

const (
	// ScoreMin is the lower bound of the documented upstream score range.
	ScoreMin = -5.0
	// ScoreMax is the upper bound of the documented upstream score range.
	ScoreMax = 5.0
)

// Labels lists every valid label in ascending sentiment order.
var Labels = []Label{LabelNegative, LabelNeutral, LabelPositive}

// Classify maps a score onto a label. The boundaries -1 and 1 belong to the
// negative and positive buckets respectively.
func Classify(score float64) Label {
	if score <= -1 {
		return LabelNegative
	}
	if score >= 1 {
		return LabelPositive
	}
	return LabelNeutral
}

// ParseLabel matches raw against the known labels exactly.
func ParseLabel(raw string) (Label, bool) {
	for _, label := range Labels {
		if string(label) == raw {
			return label, true
		}
	}
	return "", false
}

// InRange reports whether score lies inside the documented [ScoreMin, ScoreMax] range.
func InRange(score float64) bool {
	return score >= ScoreMin && score <= ScoreMax
}
