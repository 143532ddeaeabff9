package prediction

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
)

// Classifier is the capability a trained model artifact must expose: map the
// fixed-order feature vector to a performance class.
type Classifier interface {
	Predict(vec []float64) (int, error)
}

// ProbabilityClassifier optionally adds calibrated per-class probabilities.
type ProbabilityClassifier interface {
	Classifier
	PredictProba(vec []float64) (map[int]float64, error)
}

// Artifact filenames searched in order within each candidate directory.
var modelFiles = []string{
	"perf_model_enhanced.json",
	"perf_model.json",
	"best_perf_model.json",
}

// LinearModel is a multinomial linear classifier serialized as JSON by the
// offline training job: one weight row and bias per class over the fixed
// feature vector, argmax prediction, softmax probabilities.
type LinearModel struct {
	Version string      `json:"version"`
	Classes []int       `json:"classes"`
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

// Validate checks the artifact's internal consistency.
func (m *LinearModel) Validate() error {
	if len(m.Classes) == 0 {
		return fmt.Errorf("model has no classes")
	}
	if len(m.Weights) != len(m.Classes) {
		return fmt.Errorf("model has %d weight rows for %d classes", len(m.Weights), len(m.Classes))
	}
	if len(m.Bias) != len(m.Classes) {
		return fmt.Errorf("model has %d bias terms for %d classes", len(m.Bias), len(m.Classes))
	}
	for i, row := range m.Weights {
		if len(row) != FeatureCount {
			return fmt.Errorf("weight row %d has %d features, want %d", i, len(row), FeatureCount)
		}
	}
	return nil
}

// scores computes the per-class decision values for a feature vector.
func (m *LinearModel) scores(vec []float64) ([]float64, error) {
	if len(vec) != FeatureCount {
		return nil, fmt.Errorf("feature vector has %d features, want %d", len(vec), FeatureCount)
	}
	out := make([]float64, len(m.Classes))
	for i, row := range m.Weights {
		s := m.Bias[i]
		for j, w := range row {
			s += w * vec[j]
		}
		out[i] = s
	}
	return out, nil
}

// Predict returns the class with the highest decision value.
func (m *LinearModel) Predict(vec []float64) (int, error) {
	scores, err := m.scores(vec)
	if err != nil {
		return 0, err
	}
	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}
	return m.Classes[best], nil
}

// PredictProba returns softmax probabilities over the model's classes.
func (m *LinearModel) PredictProba(vec []float64) (map[int]float64, error) {
	scores, err := m.scores(vec)
	if err != nil {
		return nil, err
	}

	// Subtract the max for numerical stability.
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	total := 0.0
	exps := make([]float64, len(scores))
	for i, s := range scores {
		exps[i] = math.Exp(s - max)
		total += exps[i]
	}

	probs := make(map[int]float64, len(m.Classes))
	for i, cls := range m.Classes {
		probs[cls] = exps[i] / total
	}
	return probs, nil
}

// LoadModel searches the candidate directories for the first loadable model
// artifact. Absence or corruption is not an error to the caller: the result
// is simply nil and the pipeline stays on the rule-based path.
func LoadModel(dirs ...string) *LinearModel {
	for _, file := range modelFiles {
		for _, dir := range dirs {
			path := filepath.Join(dir, file)

			data, err := os.ReadFile(path)
			if err != nil {
				if !os.IsNotExist(err) {
					slog.Warn("failed to read model artifact", "path", path, "error", err)
				}
				continue
			}

			var m LinearModel
			if err := json.Unmarshal(data, &m); err != nil {
				slog.Warn("failed to decode model artifact", "path", path, "error", err)
				continue
			}
			if err := m.Validate(); err != nil {
				slog.Warn("model artifact is inconsistent", "path", path, "error", err)
				continue
			}

			slog.Info("model loaded", "path", path, "version", m.Version)
			return &m
		}
	}

	slog.Info("no model artifact found, rule-based fallback active")
	return nil
}
