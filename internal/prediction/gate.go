package prediction

// DetectClearIssue short-circuits the classifiers when the features carry an
// unambiguous poor-performance signal. When it fires, the returned class is
// definitive: neither the model nor the rule classifier runs.
func DetectClearIssue(f FeatureSet) (int, bool) {
	if f.Engagement < 1.8 || f.Satisfaction < 1.8 || f.Absences > 12 || f.DaysLate > 8 {
		return ClassPIP, true
	}
	if f.Engagement < 2.5 || f.Satisfaction < 2.5 || f.Absences > 7 || f.DaysLate > 5 ||
		(f.Absences > 5 && f.DaysLate > 3) {
		return ClassNeedsImprovement, true
	}
	return 0, false
}
