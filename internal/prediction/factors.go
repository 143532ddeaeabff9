package prediction

// KeyFactors lists the human-readable signals behind a classification. The
// order follows the fixed per-class rule order, not significance. It is a
// total function: when no specific rule fires it returns a single generic
// factor.
func KeyFactors(f FeatureSet, class int) []string {
	var factors []string

	switch class {
	case ClassExceeds:
		if f.Engagement >= 4.5 {
			factors = append(factors, "Very high engagement score")
		} else if f.Engagement >= 4.0 {
			factors = append(factors, "High engagement score")
		}
		if f.Satisfaction >= 4.5 {
			factors = append(factors, "Very high job satisfaction")
		} else if f.Satisfaction >= 4.0 {
			factors = append(factors, "High job satisfaction")
		}
		if f.SpecialProjects >= 3 {
			factors = append(factors, "High number of special projects")
		}
		if f.Absences <= 1 && f.DaysLate <= 1 {
			factors = append(factors, "Excellent attendance record")
		}

	case ClassFullyMeets:
		if f.Engagement >= 3.5 && f.Engagement < 4.5 {
			factors = append(factors, "Good engagement score")
		}
		if f.SpecialProjects >= 1 && f.SpecialProjects < 3 {
			factors = append(factors, "Contributes to special projects")
		}
		if f.Satisfaction >= 3 && f.Satisfaction < 4 {
			factors = append(factors, "Satisfactory job satisfaction")
		}
		if f.Absences <= 3 && f.DaysLate <= 3 {
			factors = append(factors, "Good attendance record")
		}

	case ClassNeedsImprovement:
		if f.Engagement < 3 {
			factors = append(factors, "Below average engagement")
		}
		if f.Satisfaction < 3 {
			factors = append(factors, "Below average job satisfaction")
		}
		if f.Absences > 5 {
			factors = append(factors, "Higher than average absences")
		}
		if f.DaysLate > 3 {
			factors = append(factors, "Punctuality issues")
		}
		if f.SpecialProjects < 1 {
			factors = append(factors, "Limited contribution to special projects")
		}

	case ClassPIP:
		if f.Engagement < 2 {
			factors = append(factors, "Very low engagement")
		}
		if f.Satisfaction < 2 {
			factors = append(factors, "Very low job satisfaction")
		}
		if f.Absences > 10 {
			factors = append(factors, "Excessive absences")
		}
		if f.DaysLate > 5 {
			factors = append(factors, "Serious punctuality issues")
		}
		if f.SpecialProjects == 0 {
			factors = append(factors, "No participation in special projects")
		}
	}

	if len(factors) == 0 {
		if class >= ClassFullyMeets {
			factors = append(factors, "Multiple positive factors")
		} else {
			factors = append(factors, "Multiple areas needing improvement")
		}
	}

	return factors
}
