package prediction

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// encodingMapsFile is the artifact name produced by the offline training job.
const encodingMapsFile = "encoding_maps.json"

// Category scores applied when a group is missing from the loaded maps.
const (
	defaultPositionScore = 2.5
	defaultMaritalScore  = 2.9
)

// EncodingMaps translate categorical groups into mean-performance scores used
// as engineered features by the model-backed path. The rule-based path does
// not consult them.
type EncodingMaps struct {
	PositionEncoding map[string]float64 `json:"position_encoding"`
	MaritalEncoding  map[string]float64 `json:"marital_encoding"`
}

// PositionScore looks up the score for a position group, defaulting to the
// "Other" score for unknown groups.
func (m EncodingMaps) PositionScore(group string) float64 {
	if s, ok := m.PositionEncoding[group]; ok {
		return s
	}
	return defaultPositionScore
}

// MaritalScore looks up the score for a marital group, defaulting to the
// "Other" score for unknown groups.
func (m EncodingMaps) MaritalScore(group string) float64 {
	if s, ok := m.MaritalEncoding[group]; ok {
		return s
	}
	return defaultMaritalScore
}

// DefaultEncodingMaps returns the hard-coded maps used when no artifact is
// available.
func DefaultEncodingMaps() EncodingMaps {
	return EncodingMaps{
		PositionEncoding: map[string]float64{
			"Technical":      3.0,
			"Management":     3.2,
			"Administrative": 2.8,
			"Other":          2.5,
		},
		MaritalEncoding: map[string]float64{
			"Married": 3.0,
			"Single":  2.8,
			"Other":   2.9,
		},
	}
}

// EncodingStore loads encoding maps from the first readable artifact among
// its candidate directories, falling back to the hard-coded defaults. The
// load happens once; the maps are read-only afterwards and safe to share
// across concurrent predictions.
type EncodingStore struct {
	dirs []string

	once         sync.Once
	maps         EncodingMaps
	fromArtifact bool
}

// NewEncodingStore creates a store searching the given directories in order.
func NewEncodingStore(dirs ...string) *EncodingStore {
	return &EncodingStore{dirs: dirs}
}

// Maps returns the loaded encoding maps, loading them on first use.
func (s *EncodingStore) Maps() EncodingMaps {
	s.once.Do(s.load)
	return s.maps
}

// FromArtifact reports whether the maps came from a persisted artifact rather
// than the defaults.
func (s *EncodingStore) FromArtifact() bool {
	s.once.Do(s.load)
	return s.fromArtifact
}

func (s *EncodingStore) load() {
	s.maps = DefaultEncodingMaps()

	for _, dir := range s.dirs {
		path := filepath.Join(dir, encodingMapsFile)

		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				slog.Warn("failed to read encoding maps", "path", path, "error", err)
			}
			continue
		}

		var m EncodingMaps
		if err := json.Unmarshal(data, &m); err != nil {
			slog.Warn("failed to decode encoding maps", "path", path, "error", err)
			continue
		}
		if len(m.PositionEncoding) == 0 || len(m.MaritalEncoding) == 0 {
			slog.Warn("encoding maps artifact is incomplete", "path", path)
			continue
		}

		s.maps = m
		s.fromArtifact = true
		slog.Info("encoding maps loaded", "path", path)
		return
	}

	slog.Info("using default encoding maps")
}
