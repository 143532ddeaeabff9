package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/talentwatch/perfpredict/internal/prediction"
)

// Entry is one persisted prediction. The engine itself never persists
// anything; the HTTP shell records each result here so dashboards can read
// recent activity back.
type Entry struct {
	ID            int64           `json:"id"`
	Subject       string          `json:"subject"`
	Prediction    int             `json:"prediction"`
	Label         string          `json:"label"`
	Probabilities map[int]float64 `json:"probabilities"`
	KeyFactors    []string        `json:"key_factors"`
	Method        string          `json:"method"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Store persists prediction results in SQLite.
type Store struct {
	db *sql.DB
}

// Open creates (or reuses) the history database under dataDir.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "prediction_history.db")
	connStr := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}

	slog.Info("prediction history store ready", "path", dbPath)
	return store, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS predictions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subject TEXT NOT NULL,
		prediction INTEGER NOT NULL,
		label TEXT NOT NULL,
		probabilities TEXT NOT NULL,
		key_factors TEXT NOT NULL,
		method TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_predictions_created_at
		ON predictions(created_at DESC)`)
	return err
}

// Save records one prediction result. Subject is whatever identifier the
// caller has (employee id, request id); it is stored opaquely.
func (s *Store) Save(subject string, res prediction.Result) (int64, error) {
	probs, err := json.Marshal(res.Probabilities)
	if err != nil {
		return 0, fmt.Errorf("failed to encode probabilities: %w", err)
	}
	factors, err := json.Marshal(res.KeyFactors)
	if err != nil {
		return 0, fmt.Errorf("failed to encode key factors: %w", err)
	}

	result, err := s.db.Exec(`INSERT INTO predictions
		(subject, prediction, label, probabilities, key_factors, method, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		subject, res.Prediction, res.PredictionLabel, string(probs), string(factors),
		res.Method, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert prediction: %w", err)
	}
	return result.LastInsertId()
}

// Recent returns the most recent entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`SELECT id, subject, prediction, label, probabilities,
		key_factors, method, created_at
		FROM predictions ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var probs, factors string
		if err := rows.Scan(&e.ID, &e.Subject, &e.Prediction, &e.Label,
			&probs, &factors, &e.Method, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan prediction row: %w", err)
		}
		if err := json.Unmarshal([]byte(probs), &e.Probabilities); err != nil {
			slog.Warn("corrupt probabilities blob in history", "id", e.ID, "error", err)
		}
		if err := json.Unmarshal([]byte(factors), &e.KeyFactors); err != nil {
			slog.Warn("corrupt key factors blob in history", "id", e.ID, "error", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountByClass aggregates stored predictions per performance class.
func (s *Store) CountByClass() (map[int]int64, error) {
	rows, err := s.db.Query(`SELECT prediction, COUNT(*) FROM predictions GROUP BY prediction`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate predictions: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int64)
	for rows.Next() {
		var class int
		var count int64
		if err := rows.Scan(&class, &count); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate row: %w", err)
		}
		counts[class] = count
	}
	return counts, rows.Err()
}
