// Package analytics keeps a privacy-conscious log of page visits in SQLite.
// Client IPs are never stored; only a salted, truncated hash is kept.
package analytics

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/kataras/golog"
	"github.com/pkg/errors"

	_ "modernc.org/sqlite"
)

// Visit is one recorded page view.
type Visit struct {
	ID        int64     `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Language  string    `json:"language,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// LanguageCount is the number of visits rendered in one language.
type LanguageCount struct {
	Language string `json:"language"`
	Visits   int64  `json:"visits"`
}

// Stats summarises the visit log for the admin dashboard.
type Stats struct {
	TotalVisitors    int64           `json:"total_visitors"`
	UniqueVisitors   int64           `json:"unique_visitors"`
	VisitorsToday    int64           `json:"visitors_today"`
	VisitorsThisWeek int64           `json:"visitors_this_week"`
	ByLanguage       []LanguageCount `json:"by_language"`
	RecentVisitors   []Visit         `json:"recent_visitors"`
}

// Store is the SQLite-backed visit log.
type Store struct {
	db   *sql.DB
	salt string
	log  *golog.Logger
	now  func() time.Time

	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

// Open opens (creating if needed) the database at path. Use ":memory:" for a throwaway store.
func Open(ctx context.Context, path string, logger *golog.Logger) (store *Store, err error) {
	var db *sql.DB
	db, err = sql.Open("sqlite", path)
	if err != nil {
		err = errors.Wrapf(err, "failed to open analytics database: %s", path)
		return store, err
	}
	// One connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	var salt string
	salt, err = randomHex(32)
	if err != nil {
		db.Close()
		return nil, err
	}

	store = &Store{
		db:   db,
		salt: salt,
		log:  logger,
		now:  time.Now,
	}

	err = store.migrate(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, err
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS visitors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hashed_ip TEXT NOT NULL,
		user_agent TEXT,
		path TEXT,
		visited_at INTEGER NOT NULL
	)`)
	if err != nil {
		return errors.Wrap(err, "failed to create visitors table")
	}

	// Databases created before per-language stats lack this column.
	_, err = s.db.ExecContext(ctx, `ALTER TABLE visitors ADD COLUMN language TEXT`)
	if err != nil && !strings.Contains(err.Error(), "duplicate column") {
		return errors.Wrap(err, "failed to add language column")
	}

	_, err = s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS visitors_visited_at ON visitors (visited_at)`)
	if err != nil {
		return errors.Wrap(err, "failed to create visitors index")
	}
	return nil
}

// HashIP returns the salted hash stored in place of an IP address.
// The salt lives only in memory, so hashes are stable for one process lifetime.
func (s *Store) HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip + s.salt))
	return hex.EncodeToString(sum[:])[:16]
}

// Record stores a visit. ip is hashed before it reaches the database.
func (s *Store) Record(ctx context.Context, ip, userAgent, path, language string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO visitors (hashed_ip, user_agent, path, language, visited_at)
		VALUES (?, ?, ?, ?, ?)
	`, s.HashIP(ip), userAgent, path, language, s.now().Unix())
	if err != nil {
		return errors.Wrap(err, "failed to record visit")
	}
	return nil
}

// RecordAsync records in the background; failures are logged. Close waits for pending writes.
func (s *Store) RecordAsync(ip, userAgent, path, language string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Record(ctx, ip, userAgent, path, language); err != nil && s.log != nil {
			s.log.Errorf("Error recording visitor: %v", err)
		}
	}()
}

// Flush waits for background writes started so far.
func (s *Store) Flush() {
	s.wg.Wait()
}

// Recent returns the latest visits, newest first.
func (s *Store) Recent(ctx context.Context, limit int) (visits []Visit, err error) {
	var rows *sql.Rows
	rows, err = s.db.QueryContext(ctx, `
		SELECT id, hashed_ip, COALESCE(user_agent, ''), COALESCE(path, ''), COALESCE(language, ''), visited_at
		FROM visitors
		ORDER BY visited_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		err = errors.Wrap(err, "failed to query recent visitors")
		return visits, err
	}
	defer rows.Close()

	for rows.Next() {
		var v Visit
		var unix int64
		err = rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &v.Language, &unix)
		if err != nil {
			err = errors.Wrap(err, "failed to scan visitor")
			return visits, err
		}
		v.Timestamp = time.Unix(unix, 0).UTC()
		visits = append(visits, v)
	}
	err = rows.Err()
	return visits, err
}

// Stats computes the dashboard summary.
func (s *Store) Stats(ctx context.Context) (stats *Stats, err error) {
	stats = &Stats{}
	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekAgo := now.Add(-7 * 24 * time.Hour)

	counts := []struct {
		dst   *int64
		query string
		args  []any
	}{
		{&stats.TotalVisitors, `SELECT COUNT(*) FROM visitors`, nil},
		{&stats.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM visitors`, nil},
		{&stats.VisitorsToday, `SELECT COUNT(*) FROM visitors WHERE visited_at >= ?`, []any{startOfDay.Unix()}},
		{&stats.VisitorsThisWeek, `SELECT COUNT(*) FROM visitors WHERE visited_at >= ?`, []any{weekAgo.Unix()}},
	}
	for _, c := range counts {
		err = s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dst)
		if err != nil {
			err = errors.Wrapf(err, "failed to run %q", c.query)
			return nil, err
		}
	}

	var rows *sql.Rows
	rows, err = s.db.QueryContext(ctx, `
		SELECT language, COUNT(*) FROM visitors
		WHERE language IS NOT NULL AND language != ''
		GROUP BY language
		ORDER BY COUNT(*) DESC, language
	`)
	if err != nil {
		err = errors.Wrap(err, "failed to count visits by language")
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var lc LanguageCount
		err = rows.Scan(&lc.Language, &lc.Visits)
		if err != nil {
			err = errors.Wrap(err, "failed to scan language count")
			return nil, err
		}
		stats.ByLanguage = append(stats.ByLanguage, lc)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	stats.RecentVisitors, err = s.Recent(ctx, 50)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Cleanup deletes visits older than maxAge and returns how many were removed.
func (s *Store) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := s.now().Add(-maxAge).Unix()
	result, err := s.db.ExecContext(ctx, `DELETE FROM visitors WHERE visited_at < ?`, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "failed to clean up old visitor data")
	}
	deleted, _ := result.RowsAffected()
	if deleted > 0 && s.log != nil {
		s.log.Infof("Privacy cleanup: removed %d visitor records older than %s", deleted, maxAge)
	}
	return deleted, nil
}

// Close stops accepting background writes, waits for pending ones and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.wg.Wait()
	return s.db.Close()
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to generate random token")
	}
	return hex.EncodeToString(buf), nil
}
