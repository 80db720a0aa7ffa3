// Package history keeps a local record of filter runs.
package history

import (
	"crypto/sha256"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rebeliceyang/lazycrm/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// DefaultMaxEntries bounds the table when no limit is configured
const DefaultMaxEntries = 1000

// RunEntry is one recorded filter run
type RunEntry struct {
	ID           int
	RunID        string
	Tenant       string
	Fingerprint  string
	Summary      string
	ExecutedAt   time.Time
	Duration     time.Duration
	Queries      int
	Rows         int
	Total        int
	Success      bool
	ErrorMessage string
}

// Recorder receives finished runs
type Recorder interface {
	Add(entry RunEntry) error
}

// Store manages run history persistence
type Store struct {
	db         *sql.DB
	maxEntries int
}

// NewStore opens or creates the history database at path
func NewStore(path string, maxEntries int) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Create schema
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Store{db: db, maxEntries: maxEntries}, nil
}

// Add records a run and trims the oldest entries past the limit
func (s *Store) Add(entry RunEntry) error {
	executedAt := entry.ExecutedAt
	if executedAt.IsZero() {
		executedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO filter_runs
		(run_id, tenant, fingerprint, summary, executed_at, duration_ms, queries, rows_returned, total, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Tenant,
		entry.Fingerprint,
		entry.Summary,
		executedAt.UTC(),
		entry.Duration.Milliseconds(),
		entry.Queries,
		entry.Rows,
		entry.Total,
		entry.Success,
		entry.ErrorMessage,
	)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		DELETE FROM filter_runs
		WHERE id NOT IN (SELECT id FROM filter_runs ORDER BY id DESC LIMIT ?)`, s.maxEntries)
	return err
}

// GetRecent retrieves the most recent runs, newest first
func (s *Store) GetRecent(limit int) ([]RunEntry, error) {
	return s.query(`
		SELECT id, run_id, tenant, fingerprint, summary, executed_at,
		       duration_ms, queries, rows_returned, total, success, error_message
		FROM filter_runs
		ORDER BY id DESC
		LIMIT ?`, limit)
}

// Search finds runs whose summary contains text
func (s *Store) Search(text string, limit int) ([]RunEntry, error) {
	return s.query(`
		SELECT id, run_id, tenant, fingerprint, summary, executed_at,
		       duration_ms, queries, rows_returned, total, success, error_message
		FROM filter_runs
		WHERE summary LIKE ?
		ORDER BY id DESC
		LIMIT ?`, "%"+text+"%", limit)
}

// ByFingerprint returns the runs of one filter state
func (s *Store) ByFingerprint(fingerprint string, limit int) ([]RunEntry, error) {
	return s.query(`
		SELECT id, run_id, tenant, fingerprint, summary, executed_at,
		       duration_ms, queries, rows_returned, total, success, error_message
		FROM filter_runs
		WHERE fingerprint = ?
		ORDER BY id DESC
		LIMIT ?`, fingerprint, limit)
}

func (s *Store) query(q string, args ...any) ([]RunEntry, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []RunEntry
	for rows.Next() {
		var e RunEntry
		var durationMs int64
		var executedAt string

		err := rows.Scan(
			&e.ID,
			&e.RunID,
			&e.Tenant,
			&e.Fingerprint,
			&e.Summary,
			&executedAt,
			&durationMs,
			&e.Queries,
			&e.Rows,
			&e.Total,
			&e.Success,
			&e.ErrorMessage,
		)
		if err != nil {
			return nil, err
		}

		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.ExecutedAt = parseTimestamp(executedAt)

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// parseTimestamp accepts the layouts the sqlite driver produces
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Fingerprint identifies a filter state independently of rule ids,
// pagination and ordering
func Fingerprint(state models.FilterState) string {
	type key struct {
		Search      string              `json:"s"`
		Rules       []string            `json:"r"`
		Unread      models.UnreadFilter `json:"u"`
		LastMessage models.WindowFilter `json:"m"`
	}
	k := key{Search: strings.TrimSpace(state.Search), Unread: state.Unread, LastMessage: state.LastMessage}
	if rules, err := state.AllRules(); err == nil {
		for _, r := range rules {
			k.Rules = append(k.Rules, describeRule(r))
		}
	}
	data, _ := json.Marshal(k)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// Summary renders a state as one readable line
func Summary(state models.FilterState) string {
	var parts []string
	if s := strings.TrimSpace(state.Search); s != "" {
		parts = append(parts, fmt.Sprintf("search=%q", s))
	}
	if rules, err := state.AllRules(); err == nil {
		for _, r := range rules {
			parts = append(parts, describeRule(r))
		}
	}
	if state.Unread != "" && state.Unread != models.UnreadAll {
		parts = append(parts, "unread="+string(state.Unread))
	}
	if state.LastMessage != "" && state.LastMessage != models.WindowAll {
		parts = append(parts, "last_message="+string(state.LastMessage))
	}
	if len(parts) == 0 {
		return "(no filters)"
	}
	return strings.Join(parts, " AND ")
}

func describeRule(r models.Rule) string {
	return fmt.Sprintf("%s %s %s", r.Field, r.Operator.Symbol(), strings.Join(r.Value.Strings(), ","))
}
