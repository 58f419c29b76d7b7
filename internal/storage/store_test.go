package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/vovakirdan/tui-flappy/internal/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
	if store.Driver() != DriverSQLite {
		t.Errorf("Driver() = %q, expected sqlite", store.Driver())
	}
}

func TestStoreReopenKeepsRows(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := store.SaveScore(ctx, core.ScoreRecord{Score: 7, Timestamp: "t", DurationSecs: 3}); err != nil {
		t.Fatalf("SaveScore() failed: %v", err)
	}
	store.Close()

	// Migrations must be idempotent
	store, err = Open(dbPath)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer store.Close()

	high, err := store.HighScore(ctx)
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if high != 7 {
		t.Errorf("HighScore() = %d after reopen, expected 7", high)
	}
}

func TestStoreSaveAndRetrieve(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	records := []core.ScoreRecord{
		{Score: 100, Timestamp: "2024-03-01T12:00:00.000Z", DurationSecs: 30},
		{Score: 50, Timestamp: "2024-03-01T12:01:00.000Z", DurationSecs: 12},
		{Score: 200, Timestamp: "2024-03-01T12:02:00.000Z", DurationSecs: 61},
	}
	var lastID int64
	for _, rec := range records {
		id, err := store.SaveScore(ctx, rec)
		if err != nil {
			t.Fatalf("SaveScore() failed: %v", err)
		}
		if id <= lastID {
			t.Errorf("IDs should increase, got %d after %d", id, lastID)
		}
		lastID = id
	}

	scores, err := store.TopScores(ctx, 10)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}

	if len(scores) != 3 {
		t.Fatalf("Expected 3 scores, got %d", len(scores))
	}
	if scores[0].Score != 200 || scores[1].Score != 100 || scores[2].Score != 50 {
		t.Errorf("Scores not in descending order: %+v", scores)
	}
	if scores[0].Timestamp != "2024-03-01T12:02:00.000Z" || scores[0].DurationSecs != 61 {
		t.Errorf("Row fields not persisted: %+v", scores[0])
	}
	if scores[0].CreatedAt.IsZero() {
		t.Error("created_at should be populated")
	}
}

func TestStoreDuplicatesAreSeparateRows(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := core.ScoreRecord{Score: 3, Timestamp: "same", DurationSecs: 5}
	for i := 0; i < 2; i++ {
		if err := store.Send(ctx, rec); err != nil {
			t.Fatalf("Send() failed: %v", err)
		}
	}

	scores, err := store.TopScores(ctx, 10)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}
	if len(scores) != 2 {
		t.Errorf("Expected duplicate submissions to produce 2 rows, got %d", len(scores))
	}
}

func TestStoreTopScoresLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := store.SaveScore(ctx, core.ScoreRecord{Score: (i + 1) * 100, Timestamp: "t"}); err != nil {
			t.Fatalf("SaveScore() failed: %v", err)
		}
	}

	scores, err := store.TopScores(ctx, 3)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}

	if len(scores) != 3 {
		t.Fatalf("Expected 3 scores with limit, got %d", len(scores))
	}
	if scores[0].Score != 500 || scores[1].Score != 400 || scores[2].Score != 300 {
		t.Errorf("Scores not in expected order: %v", scores)
	}
}

func TestStoreHighScore(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	high, err := store.HighScore(ctx)
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if high != 0 {
		t.Errorf("Expected high score of 0 for empty table, got %d", high)
	}

	for _, s := range []int{100, 300, 200} {
		store.SaveScore(ctx, core.ScoreRecord{Score: s, Timestamp: "t"})
	}

	high, err = store.HighScore(ctx)
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if high != 300 {
		t.Errorf("Expected high score of 300, got %d", high)
	}
}

func TestStoreStats(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats.Games != 0 || !stats.LastPlayed.IsZero() {
		t.Errorf("empty stats = %+v", stats)
	}

	store.SaveScore(ctx, core.ScoreRecord{Score: 2, Timestamp: "t", DurationSecs: 10})
	store.SaveScore(ctx, core.ScoreRecord{Score: 4, Timestamp: "t", DurationSecs: 20})

	stats, err = store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats.Games != 2 {
		t.Errorf("Games = %d, expected 2", stats.Games)
	}
	if stats.HighScore != 4 {
		t.Errorf("HighScore = %d, expected 4", stats.HighScore)
	}
	if stats.AvgScore != 3 {
		t.Errorf("AvgScore = %f, expected 3", stats.AvgScore)
	}
	if stats.TotalDuration != 30 {
		t.Errorf("TotalDuration = %d, expected 30", stats.TotalDuration)
	}
	if stats.LastPlayed.IsZero() {
		t.Error("LastPlayed should be set")
	}
}

func TestStoreUnknownDriver(t *testing.T) {
	if _, err := OpenDriver(context.Background(), "mysql", "x", 0); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestStoreExpandHomePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := Open("~/.flappy/scores.db")
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(filepath.Join(home, ".flappy", "scores.db")); err != nil {
		t.Errorf("Database not created under home: %v", err)
	}
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: DriverPostgres}
	lite := &Store{driver: DriverSQLite}
	query := "INSERT INTO scores (score, timestamp, duration) VALUES (?, ?, ?)"

	if got := pg.rebind(query); got != "INSERT INTO scores (score, timestamp, duration) VALUES ($1, $2, $3)" {
		t.Errorf("postgres rebind = %q", got)
	}
	if got := lite.rebind(query); got != query {
		t.Errorf("sqlite rebind should be identity, got %q", got)
	}
}
