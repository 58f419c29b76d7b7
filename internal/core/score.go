package core

import (
	"math"
	"time"
)

// TimestampLayout is the ISO-8601 layout used on the wire: UTC with
// millisecond precision and a literal Z, e.g. 2024-03-01T12:00:00.000Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// ScoreRecord is the immutable result of one run, emitted once on collision.
type ScoreRecord struct {
	Score        int    `json:"score"`
	Timestamp    string `json:"timestamp"`
	DurationSecs int    `json:"duration"`
}

// NewScoreRecord builds the record for a run that started at start and
// ended at end. Duration is rounded to whole seconds, halves away from zero.
func NewScoreRecord(score int, start, end time.Time) ScoreRecord {
	return ScoreRecord{
		Score:        score,
		Timestamp:    FormatTimestamp(end),
		DurationSecs: int(math.Round(end.Sub(start).Seconds())),
	}
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
