package prediction

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentwatch/perfpredict/internal/types"
)

// stubClassifier drives the model path from tests.
type stubClassifier struct {
	class int
	err   error
	probs map[int]float64
	panic bool
}

func (s *stubClassifier) Predict(vec []float64) (int, error) {
	if s.panic {
		panic("stub classifier exploded")
	}
	return s.class, s.err
}

func (s *stubClassifier) PredictProba(vec []float64) (map[int]float64, error) {
	if s.probs == nil {
		return nil, errors.New("probabilities not supported")
	}
	return s.probs, nil
}

func newRulePredictor(t *testing.T) *Predictor {
	t.Helper()
	return NewPredictor(NewEncodingStore(t.TempDir()), nil)
}

func assertWellFormed(t *testing.T, res Result) {
	t.Helper()
	require.GreaterOrEqual(t, res.Prediction, ClassPIP)
	require.LessOrEqual(t, res.Prediction, ClassExceeds)
	assert.Equal(t, Label(res.Prediction), res.PredictionLabel)
	require.Len(t, res.Probabilities, 4)

	total := 0.0
	for class := ClassPIP; class <= ClassExceeds; class++ {
		p, ok := res.Probabilities[class]
		require.Truef(t, ok, "missing probability for class %d", class)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
		total += p
	}
	assert.InDelta(t, 1.0, total, 1e-6)
	assert.NotEmpty(t, res.KeyFactors)
}

func TestPredictWithProbability_RuleFallbackScenarios(t *testing.T) {
	p := newRulePredictor(t)

	tests := []struct {
		name          string
		record        types.EmployeeRecord
		expectedClass int
	}{
		{
			name: "solid contributor exceeds",
			record: types.EmployeeRecord{
				"engagement_survey":      4.0,
				"emp_satisfaction":       4,
				"absences":               3,
				"days_late_last_30":      1,
				"special_projects_count": 2,
			},
			expectedClass: ClassExceeds,
		},
		{
			name:          "empty record fully meets",
			record:        types.EmployeeRecord{},
			expectedClass: ClassFullyMeets,
		},
		{
			name:          "nil record fully meets",
			record:        nil,
			expectedClass: ClassFullyMeets,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := p.PredictWithProbability(tt.record)

			assertWellFormed(t, res)
			assert.Equal(t, tt.expectedClass, res.Prediction)
			assert.Equal(t, MethodRules, res.Method)
			for class, p := range res.Probabilities {
				if class != tt.expectedClass {
					assert.Greater(t, res.Probabilities[tt.expectedClass], p)
				}
			}
		})
	}
}

func TestPredictWithProbability_GateBypassesModel(t *testing.T) {
	// The model would confidently say Exceeds; the gate must win.
	model := &stubClassifier{
		class: ClassExceeds,
		probs: map[int]float64{1: 0.0, 2: 0.0, 3: 0.0, 4: 1.0},
	}
	p := NewPredictor(NewEncodingStore(t.TempDir()), model)

	res := p.PredictWithProbability(types.EmployeeRecord{
		"engagement_survey": 1.0,
		"emp_satisfaction":  1,
		"absences":          15,
		"days_late_last_30": 10,
	})

	assertWellFormed(t, res)
	assert.Equal(t, ClassPIP, res.Prediction)
	assert.Equal(t, "PIP / Performance Improvement Plan", res.PredictionLabel)
	assert.Equal(t, MethodClearIssue, res.Method)
	assert.InDelta(t, 0.7, res.Probabilities[ClassPIP], 1e-9)
	assert.InDelta(t, 0.1, res.Probabilities[ClassExceeds], 1e-9)
}

func TestPredictWithProbability_ModelPath(t *testing.T) {
	record := types.EmployeeRecord{
		"engagement_survey": 3.5,
		"emp_satisfaction":  3,
		"absences":          2,
		"days_late_last_30": 1,
	}

	t.Run("model class and probabilities pass through", func(t *testing.T) {
		model := &stubClassifier{
			class: ClassNeedsImprovement,
			probs: map[int]float64{1: 0.05, 2: 0.80, 3: 0.10, 4: 0.05},
		}
		p := NewPredictor(NewEncodingStore(t.TempDir()), model)

		res := p.PredictWithProbability(record)

		assertWellFormed(t, res)
		assert.Equal(t, ClassNeedsImprovement, res.Prediction)
		assert.Equal(t, "Needs Improvement", res.PredictionLabel)
		assert.Equal(t, MethodModel, res.Method)
		assert.InDelta(t, 0.80, res.Probabilities[ClassNeedsImprovement], 1e-9)
		assert.InDelta(t, 0.05, res.Probabilities[ClassPIP], 1e-9)
	})

	t.Run("model without probabilities gets synthetic distribution", func(t *testing.T) {
		model := &stubClassifier{class: ClassExceeds}
		p := NewPredictor(NewEncodingStore(t.TempDir()), model)

		res := p.PredictWithProbability(record)

		assertWellFormed(t, res)
		assert.Equal(t, ClassExceeds, res.Prediction)
		assert.Equal(t, MethodModel, res.Method)
	})

	t.Run("invalid model distribution gets replaced", func(t *testing.T) {
		model := &stubClassifier{
			class: ClassFullyMeets,
			probs: map[int]float64{3: 1.0}, // missing classes
		}
		p := NewPredictor(NewEncodingStore(t.TempDir()), model)

		res := p.PredictWithProbability(record)

		assertWellFormed(t, res)
		assert.Equal(t, ClassFullyMeets, res.Prediction)
	})

	t.Run("model error falls back to rules", func(t *testing.T) {
		model := &stubClassifier{err: errors.New("artifact exploded")}
		p := NewPredictor(NewEncodingStore(t.TempDir()), model)

		res := p.PredictWithProbability(record)

		assertWellFormed(t, res)
		assert.Equal(t, MethodRules, res.Method)
	})

	t.Run("out-of-range model class falls back to rules", func(t *testing.T) {
		model := &stubClassifier{class: 9}
		p := NewPredictor(NewEncodingStore(t.TempDir()), model)

		res := p.PredictWithProbability(record)

		assertWellFormed(t, res)
		assert.Equal(t, MethodRules, res.Method)
	})

	t.Run("panicking model yields safe default", func(t *testing.T) {
		model := &stubClassifier{panic: true}
		p := NewPredictor(NewEncodingStore(t.TempDir()), model)

		res := p.PredictWithProbability(record)

		assertWellFormed(t, res)
		assert.Equal(t, ClassFullyMeets, res.Prediction)
		assert.Equal(t, MethodDefault, res.Method)
		assert.Equal(t, []string{"Unable to analyze factors"}, res.KeyFactors)
	})
}

func TestPredictWithProbability_Idempotent(t *testing.T) {
	p := newRulePredictor(t)
	record := types.EmployeeRecord{
		"engagement_survey":      2.9,
		"emp_satisfaction":       3,
		"absences":               4,
		"days_late_last_30":      2,
		"special_projects_count": 1,
		"position":               "Support Technician",
		"marital_status":         "Single",
	}

	first := p.PredictWithProbability(record)
	second := p.PredictWithProbability(record)

	assert.Equal(t, first.Prediction, second.Prediction)
	assert.Equal(t, first.PredictionLabel, second.PredictionLabel)
	assert.Equal(t, first.KeyFactors, second.KeyFactors)
	assert.Equal(t, first.Probabilities, second.Probabilities)
}

func TestPredict_ReturnsClassOnly(t *testing.T) {
	p := newRulePredictor(t)

	class := p.Predict(types.EmployeeRecord{
		"engagement_survey": 1.0,
		"absences":          15,
	})

	assert.Equal(t, ClassPIP, class)
}

func TestResult_JSONRoundTrip(t *testing.T) {
	p := newRulePredictor(t)
	res := p.PredictWithProbability(types.EmployeeRecord{
		"engagement_survey":      4.6,
		"emp_satisfaction":       5,
		"special_projects_count": 4,
	})

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded Result
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, res.Prediction, decoded.Prediction)
	assert.Equal(t, res.PredictionLabel, decoded.PredictionLabel)
	assert.Equal(t, res.KeyFactors, decoded.KeyFactors)
	assert.Equal(t, res.Method, decoded.Method)
	require.Len(t, decoded.Probabilities, 4)
	for class, prob := range res.Probabilities {
		assert.InDelta(t, prob, decoded.Probabilities[class], 1e-9)
	}
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "PIP / Performance Improvement Plan", Label(1))
	assert.Equal(t, "Needs Improvement", Label(2))
	assert.Equal(t, "Fully Meets Expectations", Label(3))
	assert.Equal(t, "Exceeds Expectations", Label(4))
	assert.Equal(t, "Unknown", Label(0))
}

func TestNewFromDirs_NoArtifacts(t *testing.T) {
	p := NewFromDirs(t.TempDir())

	assert.False(t, p.ModelLoaded())
	assert.Empty(t, p.ModelVersion())
	assert.False(t, p.EncodingsFromArtifact())

	res := p.PredictWithProbability(types.EmployeeRecord{})
	assertWellFormed(t, res)
	assert.Equal(t, ClassFullyMeets, res.Prediction)
}
