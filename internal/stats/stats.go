// Package stats keeps local usage statistics in SQLite.
//
// This is telemetry kept on the user's machine only: daily counters
// for hotkey activations, strokes per tool, undos, clears, and saved
// screenshots. Recording is asynchronous and never sits on a hook
// callback path.
package stats

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"glassmark/internal/logging"
	"glassmark/internal/tools"
)

// Metric names.
const (
	MetricActivations = "activations"
	MetricUndos       = "undos"
	MetricClears      = "clears"
	MetricScreenshots = "screenshots"
	MetricRecordings  = "recordings"
)

// StrokeMetric returns the per-tool stroke metric name.
func StrokeMetric(tool tools.Kind) string {
	return "strokes." + tool.String()
}

const schema = `
CREATE TABLE IF NOT EXISTS usage_stats (
	day    TEXT NOT NULL,
	metric TEXT NOT NULL,
	count  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (day, metric)
);
`

// Store persists usage counters.
type Store struct {
	db  *sql.DB
	log *logging.Logger

	mu     sync.Mutex
	queue  chan string
	done   chan struct{}
	closed bool
}

// queueSize bounds the async recorder; increments beyond it are
// dropped rather than ever blocking the caller.
const queueSize = 256

// Open opens (or creates) the stats database and starts the async
// recorder.
func Open(path string, log *logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("create stats dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open stats db: %w", err)
	}
	// One writer keeps SQLite happy under WAL.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create stats schema: %w", err)
	}

	s := &Store{
		db:    db,
		log:   log.WithComponent("stats"),
		queue: make(chan string, queueSize),
		done:  make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Record increments a metric asynchronously. Never blocks; if the
// queue is full the increment is dropped.
func (s *Store) Record(metric string) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	select {
	case s.queue <- metric:
	default:
	}
}

func (s *Store) run() {
	defer close(s.done)
	for metric := range s.queue {
		if err := s.increment(metric); err != nil {
			s.log.Warn("stats write failed", "metric", metric, "error", err)
		}
	}
}

func (s *Store) increment(metric string) error {
	day := time.Now().Format("2006-01-02")
	_, err := s.db.Exec(`
		INSERT INTO usage_stats (day, metric, count) VALUES (?, ?, 1)
		ON CONFLICT (day, metric) DO UPDATE SET count = count + 1`,
		day, metric)
	return err
}

// CountFor returns one metric's count for a day (YYYY-MM-DD).
func (s *Store) CountFor(day, metric string) (int64, error) {
	var count int64
	err := s.db.QueryRow(
		`SELECT count FROM usage_stats WHERE day = ? AND metric = ?`,
		day, metric).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return count, err
}

// Totals returns the all-time count per metric.
func (s *Store) Totals() (map[string]int64, error) {
	rows, err := s.db.Query(
		`SELECT metric, SUM(count) FROM usage_stats GROUP BY metric`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[string]int64)
	for rows.Next() {
		var metric string
		var count int64
		if err := rows.Scan(&metric, &count); err != nil {
			return nil, err
		}
		totals[metric] = count
	}
	return totals, rows.Err()
}

// Close drains pending increments and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.queue)
	<-s.done
	return s.db.Close()
}
