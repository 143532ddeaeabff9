package prediction

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/talentwatch/perfpredict/internal/types"
)

// Feature defaults applied whenever a field is missing or cannot be coerced.
const (
	defaultEngagement      = 3.0
	defaultSatisfaction    = 3.0
	defaultAbsences        = 0.0
	defaultDaysLate        = 0.0
	defaultSpecialProjects = 0.0
	defaultSalary          = 60000.0
	defaultTenureYears     = 5.0
	defaultSexEncoded      = 0.0
)

// FeatureCount is the length of the fixed-order vector consumed by
// model-backed classifiers.
const FeatureCount = 10

// FeatureSet is the fixed-shape numeric encoding of one employee record.
// After Normalize every field is populated and finite; no NaN or missing
// value ever reaches a classifier.
type FeatureSet struct {
	Engagement      float64
	Satisfaction    float64
	Absences        float64
	DaysLate        float64
	SpecialProjects float64
	Salary          float64
	TenureYears     float64
	SexEncoded      float64
	PositionEncoded float64
	MaritalEncoded  float64

	// Categorical groups retained for diagnostics and explanations.
	PositionGroup string
	MaritalGroup  string
}

// Vector returns the fixed-order feature vector: Absences, DaysLateLast30,
// EmpSatisfaction, EngagementSurvey, Salary, TenureYears,
// SpecialProjectsCount, MaritalEncoded, PositionEncoded, SexEncoded.
// Model artifacts are trained against exactly this order.
func (f FeatureSet) Vector() []float64 {
	return []float64{
		f.Absences,
		f.DaysLate,
		f.Satisfaction,
		f.Engagement,
		f.Salary,
		f.TenureYears,
		f.SpecialProjects,
		f.MaritalEncoded,
		f.PositionEncoded,
		f.SexEncoded,
	}
}

// Field aliases accepted for each canonical feature. Earlier names win.
var (
	engagementKeys   = []string{"engagement_survey", "EngagementSurvey", "engagement"}
	satisfactionKeys = []string{"emp_satisfaction", "EmpSatisfaction", "satisfaction"}
	absencesKeys     = []string{"absences", "Absences"}
	daysLateKeys     = []string{"days_late_last_30", "DaysLateLast30", "days_late"}
	projectsKeys     = []string{"special_projects_count", "SpecialProjectsCount", "special_projects"}
	salaryKeys       = []string{"salary", "Salary"}
	sexKeys          = []string{"gender", "sex", "Gender", "Sex"}
	maritalKeys      = []string{"marital_status", "MaritalDesc", "marital_desc"}
	positionKeys     = []string{"position", "Position"}
	hireDateKeys     = []string{"date_of_hire", "DateofHire", "hire_date"}
)

// Position keyword sets, matched case-insensitively in priority order.
var (
	technicalKeywords = []string{
		"technician", "engineer", "developer", "analyst",
		"dba", "architect", "database", "programmer", "specialist",
	}
	managementKeywords = []string{
		"manager", "director", "ceo", "president", "cio",
		"supervisor", "lead", "head", "chief",
	}
	adminKeywords = []string{
		"admin", "accountant", "support", "assistant",
		"coordinator", "clerk", "secretary",
	}
)

// Normalizer converts raw employee records into FeatureSets. It is a total
// function: every coercion failure maps to the field's documented default and
// nothing propagates to the caller.
type Normalizer struct {
	encodings *EncodingStore
	now       func() time.Time
}

// NewNormalizer creates a normalizer backed by the given encoding store.
func NewNormalizer(encodings *EncodingStore) *Normalizer {
	return &Normalizer{encodings: encodings, now: time.Now}
}

// Normalize maps a raw record onto the fixed feature set.
func (n *Normalizer) Normalize(raw types.EmployeeRecord) FeatureSet {
	maps := n.encodings.Maps()

	f := FeatureSet{
		Engagement:      defaultEngagement,
		Satisfaction:    defaultSatisfaction,
		Absences:        defaultAbsences,
		DaysLate:        defaultDaysLate,
		SpecialProjects: defaultSpecialProjects,
		Salary:          defaultSalary,
		TenureYears:     defaultTenureYears,
		SexEncoded:      defaultSexEncoded,
		PositionGroup:   "Other",
		MaritalGroup:    "Other",
		PositionEncoded: maps.PositionScore("Other"),
		MaritalEncoded:  maps.MaritalScore("Other"),
	}

	if raw == nil {
		return f
	}

	assignNumber(raw, &f.Engagement, engagementKeys...)
	assignNumber(raw, &f.Satisfaction, satisfactionKeys...)
	assignNumber(raw, &f.Absences, absencesKeys...)
	assignNumber(raw, &f.DaysLate, daysLateKeys...)
	assignNumber(raw, &f.SpecialProjects, projectsKeys...)
	assignNumber(raw, &f.Salary, salaryKeys...)

	if v, ok := lookup(raw, positionKeys...); ok {
		f.PositionGroup = CategorizePosition(asString(v))
		f.PositionEncoded = maps.PositionScore(f.PositionGroup)
	}

	if v, ok := lookup(raw, maritalKeys...); ok {
		f.MaritalGroup = SimplifyMaritalStatus(asString(v))
		f.MaritalEncoded = maps.MaritalScore(f.MaritalGroup)
	}

	if v, ok := lookup(raw, sexKeys...); ok {
		f.SexEncoded = encodeSex(asString(v))
	}

	if v, ok := lookup(raw, hireDateKeys...); ok {
		if hired, ok := parseDate(v); ok {
			f.TenureYears = n.tenureYears(hired)
		}
	}

	return f
}

// tenureYears derives years of service, clamped at zero for future hire dates.
func (n *Normalizer) tenureYears(hired time.Time) float64 {
	days := n.now().Sub(hired).Hours() / 24
	return math.Max(0, days/365.25)
}

// CategorizePosition buckets a job title into Technical, Management,
// Administrative or Other by case-insensitive substring match. The first
// matching set wins.
func CategorizePosition(position string) string {
	p := strings.ToLower(strings.TrimSpace(position))
	if p == "" {
		return "Other"
	}

	for _, kw := range technicalKeywords {
		if strings.Contains(p, kw) {
			return "Technical"
		}
	}
	for _, kw := range managementKeywords {
		if strings.Contains(p, kw) {
			return "Management"
		}
	}
	for _, kw := range adminKeywords {
		if strings.Contains(p, kw) {
			return "Administrative"
		}
	}
	return "Other"
}

// SimplifyMaritalStatus collapses marital status text to Married, Single or
// Other. Matching is exact after trimming; divorced, separated and widowed
// all land in Other.
func SimplifyMaritalStatus(status string) string {
	switch strings.TrimSpace(status) {
	case "Married":
		return "Married"
	case "Single":
		return "Single"
	default:
		return "Other"
	}
}

// encodeSex returns 1 when the value denotes female ("F", "Female", "f"),
// otherwise 0.
func encodeSex(sex string) float64 {
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(sex)), "F") {
		return 1
	}
	return 0
}

// lookup returns the first present, non-nil alias value, unwrapped when it
// arrives as a single-element list.
func lookup(raw types.EmployeeRecord, keys ...string) (interface{}, bool) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		if u := unwrap(v); u != nil {
			return u, true
		}
	}
	return nil, false
}

// unwrap reduces a single-element list to its scalar; empty lists collapse to
// nil so the field falls back to its default.
func unwrap(v interface{}) interface{} {
	switch s := v.(type) {
	case []interface{}:
		if len(s) == 0 {
			return nil
		}
		return s[0]
	case []string:
		if len(s) == 0 {
			return nil
		}
		return s[0]
	case []float64:
		if len(s) == 0 {
			return nil
		}
		return s[0]
	case []int:
		if len(s) == 0 {
			return nil
		}
		return s[0]
	}
	return v
}

// assignNumber overwrites dst with the first alias value that coerces to a
// finite number; otherwise dst keeps its default.
func assignNumber(raw types.EmployeeRecord, dst *float64, keys ...string) {
	v, ok := lookup(raw, keys...)
	if !ok {
		return
	}
	if x, ok := toFloat(v); ok {
		*dst = x
	}
}

// toFloat coerces the common scalar shapes to a finite float64.
func toFloat(v interface{}) (float64, bool) {
	var x float64
	switch t := v.(type) {
	case float64:
		x = t
	case float32:
		x = float64(t)
	case int:
		x = float64(t)
	case int32:
		x = float64(t)
	case int64:
		x = float64(t)
	case uint:
		x = float64(t)
	case uint64:
		x = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		x = parsed
	default:
		return 0, false
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	return x, true
}

// asString renders a scalar for categorical matching.
func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Accepted hire-date layouts, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
}

// parseDate accepts time.Time values or date strings in the known layouts.
func parseDate(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}
