package score

// Tier is the qualification tier derived from a total score.
type Tier string

const (
	TierExceptional Tier = "exceptional"
	TierQualified   Tier = "qualified"
	TierDeveloping  Tier = "developing"
	TierPending     Tier = "pending"
)

// Tier thresholds, inclusive lower bounds.
const (
	ExceptionalMin = 30
	QualifiedMin   = 25
	DevelopingMin  = 15
)

// Qualify maps a total score to its tier. Never stored; always recomputed.
func Qualify(total int) Tier {
	switch {
	case total >= ExceptionalMin:
		return TierExceptional
	case total >= QualifiedMin:
		return TierQualified
	case total >= DevelopingMin:
		return TierDeveloping
	default:
		return TierPending
	}
}
