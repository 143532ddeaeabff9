package prediction

import (
	"log/slog"
	"math"

	"github.com/talentwatch/perfpredict/internal/types"
)

// Prediction methods recorded on each result.
const (
	MethodClearIssue = "clear_issue"
	MethodModel      = "model"
	MethodRules      = "rules_fallback"
	MethodDefault    = "default"
)

var classLabels = map[int]string{
	ClassPIP:              "PIP / Performance Improvement Plan",
	ClassNeedsImprovement: "Needs Improvement",
	ClassFullyMeets:       "Fully Meets Expectations",
	ClassExceeds:          "Exceeds Expectations",
}

// Label returns the reporting label for a performance class.
func Label(class int) string {
	if l, ok := classLabels[class]; ok {
		return l
	}
	return "Unknown"
}

// Result is the outcome of one prediction call. It is assembled fresh per
// call and immutable once returned; the caller decides whether to persist it.
type Result struct {
	Prediction      int             `json:"prediction"`
	PredictionLabel string          `json:"prediction_label"`
	Probabilities   map[int]float64 `json:"probabilities"`
	KeyFactors      []string        `json:"key_factors"`
	Method          string          `json:"prediction_method"`
}

// Predictor runs the cascading prediction pipeline: normalize, anomaly gate,
// model when available, rule fallback otherwise. From the caller's
// perspective it never fails: every record, however malformed, produces a
// well-formed Result.
type Predictor struct {
	normalizer *Normalizer
	model      Classifier
}

// NewPredictor builds a predictor around the given encoding store and an
// optional model. A nil model means the rule-based path handles everything
// the gate does not.
func NewPredictor(encodings *EncodingStore, model Classifier) *Predictor {
	return &Predictor{
		normalizer: NewNormalizer(encodings),
		model:      model,
	}
}

// NewFromDirs is the production wiring: encoding maps and model artifacts are
// searched under the given directories in order.
func NewFromDirs(dirs ...string) *Predictor {
	var model Classifier
	if lm := LoadModel(dirs...); lm != nil {
		model = lm
	}
	return NewPredictor(NewEncodingStore(dirs...), model)
}

// ModelLoaded reports whether a model-backed path is available.
func (p *Predictor) ModelLoaded() bool {
	return p.model != nil
}

// ModelVersion returns the loaded artifact's version, if the model carries
// one.
func (p *Predictor) ModelVersion() string {
	if lm, ok := p.model.(*LinearModel); ok && lm != nil {
		return lm.Version
	}
	return ""
}

// EncodingsFromArtifact reports whether the encoding maps were loaded from a
// persisted artifact rather than the hard-coded defaults.
func (p *Predictor) EncodingsFromArtifact() bool {
	return p.normalizer.encodings.FromArtifact()
}

// Predict returns the performance class alone.
func (p *Predictor) Predict(raw types.EmployeeRecord) int {
	return p.PredictWithProbability(raw).Prediction
}

// PredictWithProbability runs the full pipeline and returns the class, label,
// probability distribution and key factors. Any unexpected failure is
// absorbed here and converted into the safe default result.
func (p *Predictor) PredictWithProbability(raw types.EmployeeRecord) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("prediction pipeline failure, returning default result", "panic", r)
			res = defaultResult()
		}
	}()

	f := p.normalizer.Normalize(raw)

	if class, ok := DetectClearIssue(f); ok {
		return finalize(f, class, gateDistribution(class), MethodClearIssue)
	}

	if p.model != nil {
		if res, ok := p.tryModel(f); ok {
			return res
		}
	}

	class := RulesBasedClass(f)
	return finalize(f, class, skewedDistribution(class), MethodRules)
}

// tryModel attempts the model-backed path. Any failure, including an
// out-of-range class, merely reports the path unavailable for this call.
func (p *Predictor) tryModel(f FeatureSet) (Result, bool) {
	vec := f.Vector()

	class, err := p.model.Predict(vec)
	if err != nil {
		slog.Warn("model prediction failed, falling back to rules", "error", err)
		return Result{}, false
	}
	if class < ClassPIP || class > ClassExceeds {
		slog.Warn("model returned out-of-range class, falling back to rules", "class", class)
		return Result{}, false
	}

	var probs map[int]float64
	if pc, ok := p.model.(ProbabilityClassifier); ok {
		mp, err := pc.PredictProba(vec)
		switch {
		case err != nil:
			slog.Warn("model probabilities unavailable", "error", err)
		case validDistribution(mp):
			probs = mp
		default:
			slog.Warn("model returned an invalid probability distribution")
		}
	}
	if probs == nil {
		probs = skewedDistribution(class)
	}

	return finalize(f, class, probs, MethodModel), true
}

func finalize(f FeatureSet, class int, probs map[int]float64, method string) Result {
	return Result{
		Prediction:      class,
		PredictionLabel: Label(class),
		Probabilities:   probs,
		KeyFactors:      KeyFactors(f, class),
		Method:          method,
	}
}

// defaultResult is the last-resort safe answer when the pipeline itself
// fails.
func defaultResult() Result {
	return Result{
		Prediction:      ClassFullyMeets,
		PredictionLabel: Label(ClassFullyMeets),
		Probabilities:   gateDistribution(ClassFullyMeets),
		KeyFactors:      []string{"Unable to analyze factors"},
		Method:          MethodDefault,
	}
}

// gateDistribution weights the selected class 0.7 and the other three 0.1
// each.
func gateDistribution(class int) map[int]float64 {
	d := map[int]float64{
		ClassPIP:              0.1,
		ClassNeedsImprovement: 0.1,
		ClassFullyMeets:       0.1,
		ClassExceeds:          0.1,
	}
	d[class] = 0.7
	return d
}

// skewedDistribution starts from a low-information prior, pins the selected
// class at 0.7 and renormalizes so the mass sums to 1.
func skewedDistribution(class int) map[int]float64 {
	d := map[int]float64{
		ClassPIP:              0.1,
		ClassNeedsImprovement: 0.2,
		ClassFullyMeets:       0.4,
		ClassExceeds:          0.3,
	}
	d[class] = 0.7

	total := 0.0
	for _, v := range d {
		total += v
	}
	for k := range d {
		d[k] /= total
	}
	return d
}

// validDistribution checks that a model-supplied distribution covers all four
// classes with probabilities in [0,1] summing to 1.
func validDistribution(probs map[int]float64) bool {
	if len(probs) != 4 {
		return false
	}
	total := 0.0
	for class := ClassPIP; class <= ClassExceeds; class++ {
		p, ok := probs[class]
		if !ok || p < 0 || p > 1 || math.IsNaN(p) {
			return false
		}
		total += p
	}
	return math.Abs(total-1) < 1e-6
}
