package prediction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyFactors(t *testing.T) {
	tests := []struct {
		name     string
		features FeatureSet
		class    int
		expected []string
	}{
		{
			name: "exceeds with strong signals",
			features: FeatureSet{
				Engagement:      4.7,
				Satisfaction:    4.2,
				Absences:        1,
				DaysLate:        0,
				SpecialProjects: 4,
			},
			class: ClassExceeds,
			expected: []string{
				"Very high engagement score",
				"High job satisfaction",
				"High number of special projects",
				"Excellent attendance record",
			},
		},
		{
			name: "fully meets with typical signals",
			features: FeatureSet{
				Engagement:      3.8,
				Satisfaction:    3.2,
				Absences:        2,
				DaysLate:        1,
				SpecialProjects: 1,
			},
			class: ClassFullyMeets,
			expected: []string{
				"Good engagement score",
				"Contributes to special projects",
				"Satisfactory job satisfaction",
				"Good attendance record",
			},
		},
		{
			name: "needs improvement signals",
			features: FeatureSet{
				Engagement:      2.6,
				Satisfaction:    2.8,
				Absences:        6,
				DaysLate:        4,
				SpecialProjects: 0,
			},
			class: ClassNeedsImprovement,
			expected: []string{
				"Below average engagement",
				"Below average job satisfaction",
				"Higher than average absences",
				"Punctuality issues",
				"Limited contribution to special projects",
			},
		},
		{
			name: "pip signals",
			features: FeatureSet{
				Engagement:      1.5,
				Satisfaction:    1.8,
				Absences:        12,
				DaysLate:        7,
				SpecialProjects: 0,
			},
			class: ClassPIP,
			expected: []string{
				"Very low engagement",
				"Very low job satisfaction",
				"Excessive absences",
				"Serious punctuality issues",
				"No participation in special projects",
			},
		},
		{
			name: "generic positive fallback",
			features: FeatureSet{
				Engagement:      3.0,
				Satisfaction:    4.5,
				Absences:        5,
				DaysLate:        4,
				SpecialProjects: 2,
			},
			class:    ClassExceeds,
			expected: []string{"Very high job satisfaction"},
		},
		{
			name: "generic negative fallback",
			features: FeatureSet{
				Engagement:      3.5,
				Satisfaction:    3.5,
				Absences:        2,
				DaysLate:        1,
				SpecialProjects: 2,
			},
			class:    ClassNeedsImprovement,
			expected: []string{"Multiple areas needing improvement"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KeyFactors(tt.features, tt.class))
		})
	}
}

func TestKeyFactors_NeverEmpty(t *testing.T) {
	for class := ClassPIP; class <= ClassExceeds; class++ {
		factors := KeyFactors(FeatureSet{Engagement: 3.25, Satisfaction: 4.2, Absences: 4, DaysLate: 2, SpecialProjects: 3}, class)
		assert.NotEmptyf(t, factors, "class %d returned no factors", class)
	}
}
