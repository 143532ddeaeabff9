package prediction

// Performance classes, ordinal low to high.
const (
	ClassPIP              = 1
	ClassNeedsImprovement = 2
	ClassFullyMeets       = 3
	ClassExceeds          = 4
)

// surveyDelta maps a 1-5 survey score onto its rule-score contribution.
// Engagement and satisfaction share the same thresholds.
func surveyDelta(v float64) float64 {
	switch {
	case v < 2.0:
		return -3.0
	case v < 3.0:
		return -1.5
	case v >= 4.5:
		return 2.0
	case v >= 3.5:
		return 1.0
	}
	return 0
}

func absencesDelta(absences float64) float64 {
	switch {
	case absences > 10:
		return -4.0
	case absences > 7:
		return -3.0
	case absences > 5:
		return -2.0
	case absences > 3:
		return -1.0
	case absences <= 1:
		return 0.5
	}
	return 0
}

func daysLateDelta(daysLate float64) float64 {
	switch {
	case daysLate > 7:
		return -3.0
	case daysLate > 5:
		return -2.0
	case daysLate > 3:
		return -1.0
	case daysLate > 1:
		return -0.5
	case daysLate == 0:
		return 0.5
	}
	return 0
}

// ruleScore computes the weighted-threshold score backing the rule-based
// classifier.
func ruleScore(f FeatureSet) float64 {
	score := surveyDelta(f.Engagement) + surveyDelta(f.Satisfaction)
	score += absencesDelta(f.Absences)
	score += daysLateDelta(f.DaysLate)
	score += f.SpecialProjects * 0.4

	// Compounding attendance and morale penalties.
	if f.Absences > 5 && f.DaysLate > 3 {
		score -= 1.0
	}
	if f.Engagement < 3.0 && f.Satisfaction < 3.0 {
		score -= 1.0
	}

	return score
}

// RulesBasedClass classifies features without any trained model. It is
// deterministic and total: every feature set maps to a class in 1..4.
func RulesBasedClass(f FeatureSet) int {
	score := ruleScore(f)
	switch {
	case score <= -3.0:
		return ClassPIP
	case score < 0:
		return ClassNeedsImprovement
	case score < 2.5:
		return ClassFullyMeets
	}
	return ClassExceeds
}
