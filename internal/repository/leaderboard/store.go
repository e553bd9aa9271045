// Package leaderboard persists which entities appeared in search results
// and serves aggregated leaderboards. SQLite in WAL mode keeps concurrent
// request handlers from serializing on the writer.
package leaderboard

import (
	"context"
	"crypto/md5" //nolint:gosec // non-cryptographic dedup key, mirrors the analytics hash
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kailas-cloud/facedex/internal/domain/search/result"
)

const schema = `
CREATE TABLE IF NOT EXISTS query_appearances (
	query_hash  TEXT NOT NULL,
	entity_id   TEXT NOT NULL,
	first_name  TEXT,
	last_name   TEXT,
	image_url   TEXT,
	grp         TEXT,
	cohort_year INTEGER,
	first_seen  INTEGER NOT NULL,
	PRIMARY KEY (query_hash, entity_id)
);
CREATE INDEX IF NOT EXISTS idx_appearances_entity ON query_appearances(entity_id);
CREATE INDEX IF NOT EXISTS idx_appearances_group ON query_appearances(grp);
`

// Store is the SQLite-backed leaderboard repository.
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the leaderboard database at path.
// Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open leaderboard db: %w", err)
	}

	// Single writer; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=30000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply leaderboard schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close() //nolint:wrapcheck // delegating close
}

// RecordAppearances stores one row per (query, entity) pair, counting
// each pair at most once across repeated identical queries.
// Returns the number of newly recorded pairs.
func (s *Store) RecordAppearances(ctx context.Context, queryText string, results []result.Result) (int, error) {
	if len(results) == 0 {
		return 0, nil
	}

	queryHash := hashQuery(queryText)
	now := time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO query_appearances
		(query_hash, entity_id, first_name, last_name, image_url, grp, cohort_year, first_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	recorded := 0
	for i := range results {
		r := &results[i]
		res, err := stmt.ExecContext(ctx,
			queryHash, r.EntityID(), r.FirstName(), r.LastName(), r.ImageURL(),
			r.Group(), nullableYear(r.CohortYear()), now,
		)
		if err != nil {
			return 0, fmt.Errorf("record appearance %q: %w", r.EntityID(), err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			recorded++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit appearances: %w", err)
	}
	return recorded, nil
}

// Entry is one individual leaderboard row.
type Entry struct {
	EntityID        string
	FirstName       string
	LastName        string
	ImageURL        string
	Group           string
	CohortYear      int
	AppearanceCount int
}

// TopEntities returns individuals ranked by the number of distinct
// queries they appeared in.
func (s *Store) TopEntities(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT entity_id, first_name, last_name, image_url, grp,
		       COALESCE(cohort_year, 0),
		       COUNT(DISTINCT query_hash) AS appearance_count
		FROM query_appearances
		GROUP BY entity_id
		ORDER BY appearance_count DESC, first_name ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top entities: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.EntityID, &e.FirstName, &e.LastName, &e.ImageURL,
			&e.Group, &e.CohortYear, &e.AppearanceCount,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err() //nolint:wrapcheck // rows.Err carries enough context
}

// GroupEntry is one group leaderboard row.
type GroupEntry struct {
	Group            string
	TotalAppearances int
	UniqueMembers    int
}

// TopGroups returns groups ranked by the total appearances of their members.
func (s *Store) TopGroups(ctx context.Context) ([]GroupEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT grp,
		       SUM(member_appearances) AS total_appearances,
		       COUNT(*) AS unique_members
		FROM (
			SELECT entity_id, grp, COUNT(DISTINCT query_hash) AS member_appearances
			FROM query_appearances
			WHERE grp IS NOT NULL AND grp != ''
			GROUP BY entity_id, grp
		)
		GROUP BY grp
		ORDER BY total_appearances DESC`)
	if err != nil {
		return nil, fmt.Errorf("query top groups: %w", err)
	}
	defer rows.Close()

	var entries []GroupEntry
	for rows.Next() {
		var e GroupEntry
		if err := rows.Scan(&e.Group, &e.TotalAppearances, &e.UniqueMembers); err != nil {
			return nil, fmt.Errorf("scan group entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err() //nolint:wrapcheck // rows.Err carries enough context
}

// Stats holds overall leaderboard counters.
type Stats struct {
	UniqueQueries    int
	UniqueEntities   int
	TotalAppearances int
}

// GetStats returns overall leaderboard statistics.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	var st Stats
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT query_hash), COUNT(DISTINCT entity_id), COUNT(*)
		FROM query_appearances`)
	if err := row.Scan(&st.UniqueQueries, &st.UniqueEntities, &st.TotalAppearances); err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	return st, nil
}

// Clear removes all leaderboard data.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM query_appearances"); err != nil {
		return fmt.Errorf("clear leaderboard: %w", err)
	}
	return nil
}

func nullableYear(year int) any {
	if year == 0 {
		return nil
	}
	return year
}

// hashQuery dedups appearances across trivially different spellings of
// the same query.
func hashQuery(queryText string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(queryText)), " ")
	sum := md5.Sum([]byte(normalized)) //nolint:gosec // dedup key only
	return hex.EncodeToString(sum[:])
}
