package prediction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleScore(t *testing.T) {
	tests := []struct {
		name     string
		features FeatureSet
		expected float64
	}{
		{
			name: "neutral features score zero",
			// Surveys at 3.0 carry no delta; absences 2 and days_late 1 sit in
			// the dead zones of their threshold tables.
			features: FeatureSet{Engagement: 3.0, Satisfaction: 3.0, Absences: 2, DaysLate: 1},
			expected: 0,
		},
		{
			name: "zero-valued attendance earns both bonuses",
			// Absences 0 (<=1) and days_late 0 each add 0.5.
			features: FeatureSet{Engagement: 3.0, Satisfaction: 3.0},
			expected: 1.0,
		},
		{
			name: "solid contributor",
			features: FeatureSet{
				Engagement:      4.0,
				Satisfaction:    4.0,
				Absences:        3,
				DaysLate:        1,
				SpecialProjects: 2,
			},
			// +1.0 engagement, +1.0 satisfaction, absences 3 no delta,
			// days_late 1 no delta, +0.8 projects.
			expected: 2.8,
		},
		{
			name: "compounding penalties",
			features: FeatureSet{
				Engagement:   2.2,
				Satisfaction: 2.8,
				Absences:     6,
				DaysLate:     4,
			},
			// -1.5 -1.5 -2.0 -1.0 -1.0 (attendance combo) -1.0 (morale combo)
			expected: -8.0,
		},
		{
			name: "perfect attendance bonus",
			features: FeatureSet{
				Engagement:   3.0,
				Satisfaction: 3.0,
				Absences:     0,
				DaysLate:     0,
			},
			expected: 1.0, // +0.5 absences<=1, +0.5 days_late==0
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ruleScore(tt.features), 1e-9)
		})
	}
}

func TestRulesBasedClass(t *testing.T) {
	tests := []struct {
		name     string
		features FeatureSet
		expected int
	}{
		{
			name: "high performer exceeds",
			features: FeatureSet{
				Engagement:      4.0,
				Satisfaction:    4.0,
				Absences:        3,
				DaysLate:        1,
				SpecialProjects: 2,
			},
			expected: ClassExceeds, // score 2.8 >= 2.5
		},
		{
			name:     "defaults fully meet",
			features: FeatureSet{Engagement: 3.0, Satisfaction: 3.0},
			expected: ClassFullyMeets,
		},
		{
			name: "mild negatives need improvement",
			features: FeatureSet{
				Engagement:   2.8,
				Satisfaction: 3.2,
				Absences:     4,
				DaysLate:     2,
			},
			// -1.5 + 0 - 1.0 - 0.5 = -3.0... boundary: score <= -3.0 is PIP
			expected: ClassPIP,
		},
		{
			name: "slightly negative score needs improvement",
			features: FeatureSet{
				Engagement:   3.2,
				Satisfaction: 3.0,
				Absences:     4,
				DaysLate:     2,
			},
			// 0 + 0 - 1.0 - 0.5 = -1.5
			expected: ClassNeedsImprovement,
		},
		{
			name: "deep negatives PIP",
			features: FeatureSet{
				Engagement:   1.5,
				Satisfaction: 1.5,
				Absences:     11,
				DaysLate:     8,
			},
			expected: ClassPIP,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RulesBasedClass(tt.features))
		})
	}
}

func TestRulesBasedClass_Boundaries(t *testing.T) {
	// The class cutoffs are exact: <=-3.0 -> 1, <0 -> 2, <2.5 -> 3, else 4.
	tests := []struct {
		name     string
		features FeatureSet
		expected int
	}{
		{
			name: "score exactly zero fully meets",
			// engagement 3.5 (+1.0), satisfaction 2.0 (-1.5), days_late 2 (-0.5),
			// absences 2 (0), projects 2.5 (+1.0): total 0.
			features: FeatureSet{
				Engagement:      3.5,
				Satisfaction:    2.0,
				Absences:        2,
				DaysLate:        2,
				SpecialProjects: 2.5,
			},
			expected: ClassFullyMeets,
		},
		{
			name: "score exactly 2.5 exceeds",
			// engagement 4.5 (+2.0), satisfaction 3.0 (0), days_late 0 (+0.5),
			// absences 2 (0): total 2.5.
			features: FeatureSet{
				Engagement:   4.5,
				Satisfaction: 3.0,
				Absences:     2,
				DaysLate:     0,
			},
			expected: ClassExceeds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RulesBasedClass(tt.features))
		})
	}
}
