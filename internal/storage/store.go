// Package storage provides relational persistence for session scores.
// SQLite (pure-Go modernc.org/sqlite, no CGO) is the local default;
// PostgreSQL via pgx serves production deployments.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver registered as "pgx"
	_ "modernc.org/sqlite"             // Pure Go SQLite driver

	"github.com/vovakirdan/tui-flappy/internal/config"
	"github.com/vovakirdan/tui-flappy/internal/core"
	"github.com/vovakirdan/tui-flappy/internal/reporter"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store manages the database connection for score persistence.
type Store struct {
	db     *sql.DB
	driver string
}

// ScoreEntry is one persisted row of the scores table.
type ScoreEntry struct {
	ID           int64     `json:"id"`
	Score        int       `json:"score"`
	Timestamp    string    `json:"timestamp"`
	DurationSecs int       `json:"duration"`
	CreatedAt    time.Time `json:"created_at"`
}

// Stats contains aggregated statistics over all scores.
type Stats struct {
	Games         int       `json:"games"`
	HighScore     int       `json:"high_score"`
	AvgScore      float64   `json:"avg_score"`
	TotalDuration int64     `json:"total_duration"`
	LastPlayed    time.Time `json:"last_played"`
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	return OpenDriver(context.Background(), DriverSQLite, dbPath, 0)
}

// OpenConfig opens the database described by cfg.
func OpenConfig(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	return OpenDriver(ctx, cfg.Driver, cfg.DSN, cfg.MaxOpenConns)
}

// OpenDriver opens a database with an explicit driver and runs migrations.
// For sqlite the dsn is a file path (a leading ~ is expanded).
func OpenDriver(ctx context.Context, driver, dsn string, maxOpenConns int) (*Store, error) {
	var db *sql.DB
	var err error

	switch driver {
	case DriverSQLite, "":
		driver = DriverSQLite
		db, err = openSQLite(dsn)
	case DriverPostgres:
		db, err = sql.Open("pgx", dsn)
		if err == nil && maxOpenConns > 0 {
			db.SetMaxOpenConns(maxOpenConns)
		}
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	if err := runMigrations(ctx, db, driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return &Store{db: db, driver: driver}, nil
}

func openSQLite(dbPath string) (*sql.DB, error) {
	dbPath, err := config.ExpandHome(dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// SQLite allows a single writer; the reporter worker and the HTTP
	// handlers share this pool.
	db.SetMaxOpenConns(1)
	return db, nil
}

// Driver returns the driver name this store was opened with.
func (s *Store) Driver() string {
	return s.driver
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveScore appends a score record. Returns the ID of the inserted row.
func (s *Store) SaveScore(ctx context.Context, rec core.ScoreRecord) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		s.rebind("INSERT INTO scores (score, timestamp, duration) VALUES (?, ?, ?) RETURNING id"),
		rec.Score, rec.Timestamp, rec.DurationSecs,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save score: %w", err)
	}
	return id, nil
}

// Send implements reporter.Sink so the store can receive records from
// the fire-and-forget dispatcher without going through HTTP.
func (s *Store) Send(ctx context.Context, rec core.ScoreRecord) error {
	_, err := s.SaveScore(ctx, rec)
	return err
}

// Ensure Store implements reporter.Sink
var _ reporter.Sink = (*Store)(nil)

// TopScores retrieves the top N scores ordered by score descending.
// Ties keep insertion order.
func (s *Store) TopScores(ctx context.Context, limit int) ([]ScoreEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT id, score, timestamp, duration, created_at
		 FROM scores
		 ORDER BY score DESC, id ASC
		 LIMIT ?`),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query scores: %w", err)
	}
	defer rows.Close()

	var entries []ScoreEntry
	for rows.Next() {
		var e ScoreEntry
		var createdAt any
		if err := rows.Scan(&e.ID, &e.Score, &e.Timestamp, &e.DurationSecs, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// HighScore returns the highest recorded score, or 0 if there are none.
func (s *Store) HighScore(ctx context.Context) (int, error) {
	var score sql.NullInt64
	err := s.db.QueryRowContext(ctx, "SELECT MAX(score) FROM scores").Scan(&score)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot query high score: %w", err)
	}

	if !score.Valid {
		return 0, nil
	}
	return int(score.Int64), nil
}

// Stats retrieves aggregated statistics over all scores.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(MAX(score), 0), COALESCE(AVG(score), 0), COALESCE(SUM(duration), 0)
		 FROM scores`,
	).Scan(&stats.Games, &stats.HighScore, &stats.AvgScore, &stats.TotalDuration)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get stats: %w", err)
	}

	var lastPlayed any
	err = s.db.QueryRowContext(ctx,
		`SELECT created_at FROM scores ORDER BY id DESC LIMIT 1`,
	).Scan(&lastPlayed)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: cannot get last played: %w", err)
	}
	if err == nil {
		stats.LastPlayed = parseTime(lastPlayed)
	}

	return stats, nil
}

// rebind rewrites ? placeholders to $N for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// parseTime handles both time.Time and the SQLite text form of DATETIME.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	case []byte:
		if parsed, err := time.Parse("2006-01-02 15:04:05", string(t)); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
