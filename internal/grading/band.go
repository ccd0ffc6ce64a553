package grading

// Band is a coarse score bracket used for the results banner.
type Band string

const (
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandPractice  Band = "practice"
	BandReview    Band = "review"
)

// BandFor buckets a percentage: >=90 excellent, >=80 good, >=70 practice.
func BandFor(pct float64) Band {
	switch {
	case pct >= 90:
		return BandExcellent
	case pct >= 80:
		return BandGood
	case pct >= 70:
		return BandPractice
	default:
		return BandReview
	}
}

func (b Band) Message() string {
	switch b {
	case BandExcellent:
		return "Excellent!"
	case BandGood:
		return "Good job!"
	case BandPractice:
		return "Keep practicing"
	default:
		return "More review needed"
	}
}
