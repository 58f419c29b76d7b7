// Package server implements the HTTP score endpoint: it validates submitted
// run records and persists them, and exposes the read side of the score
// table for leaderboards.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-flappy/internal/core"
	"github.com/vovakirdan/tui-flappy/internal/storage"
)

// Response messages. Clients match on these strings.
const (
	MsgSaved            = "Score saved successfully!"
	MsgInvalidData      = "Invalid data"
	MsgMethodNotAllowed = "Method Not Allowed"
	MsgSaveErrorPrefix  = "Error saving score: "
)

// Route paths.
const (
	PathSaveScore       = "/save_score"
	PathSaveScoreLegacy = "/save_score.php"
	PathScores          = "/api/scores"
	PathStats           = "/api/stats"
	PathHealth          = "/healthz"
	PathMetrics         = "/metrics"
)

const (
	maxBodyBytes = 1 << 20
	defaultLimit = 10
	maxLimit     = 100
)

// Store is the persistence the endpoint needs.
type Store interface {
	SaveScore(ctx context.Context, rec core.ScoreRecord) (int64, error)
	TopScores(ctx context.Context, limit int) ([]storage.ScoreEntry, error)
	Stats(ctx context.Context) (*storage.Stats, error)
}

// Ensure *storage.Store satisfies Store
var _ Store = (*storage.Store)(nil)

// Options configures a Server.
type Options struct {
	// Address is the host:port to listen on. Defaults to ":8080".
	Address string

	// Logger receives request outcomes. Nil discards them.
	Logger *log.Logger

	// Metrics, when set, instruments every route and serves /metrics.
	Metrics *Metrics
}

// Server is the score HTTP server.
type Server struct {
	store   Store
	logger  *log.Logger
	metrics *Metrics
	handler http.Handler
	http    *http.Server
}

// New creates a server backed by store.
func New(store Store, opts Options) *Server {
	if opts.Address == "" {
		opts.Address = ":8080"
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	s := &Server{
		store:   store,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(PathSaveScore, s.metrics.instrument(PathSaveScore, s.handleSaveScore))
	mux.HandleFunc(PathSaveScoreLegacy, s.metrics.instrument(PathSaveScore, s.handleSaveScore))
	mux.HandleFunc(PathScores, s.metrics.instrument(PathScores, s.handleTopScores))
	mux.HandleFunc(PathStats, s.metrics.instrument(PathStats, s.handleStats))
	mux.HandleFunc(PathHealth, func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	if s.metrics != nil {
		mux.Handle(PathMetrics, s.metrics.Handler())
	}
	s.handler = mux

	s.http = &http.Server{
		Addr:         opts.Address,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.http.Addr
}

// ListenAndServe serves until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("starting HTTP server", "address", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.http.Shutdown(ctx)
}

// handleSaveScore validates and stores one run record.
func (s *Server) handleSaveScore(w http.ResponseWriter, r *http.Request) {
	setCORS(w)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		writeMessage(w, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
		return
	}

	rec, ok := decodeScore(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if !ok {
		s.logger.Debug("rejected score submission", "remote", r.RemoteAddr)
		writeMessage(w, http.StatusBadRequest, MsgInvalidData)
		return
	}

	id, err := s.store.SaveScore(r.Context(), rec)
	if err != nil {
		s.logger.Error("error saving score", "score", rec.Score, "error", err)
		writeMessage(w, http.StatusInternalServerError, MsgSaveErrorPrefix+err.Error())
		return
	}

	s.metrics.observeSaved(rec.Score)
	s.logger.Info("score saved", "id", id, "score", rec.Score, "duration", rec.DurationSecs)
	writeMessage(w, http.StatusOK, MsgSaved)
}

// handleTopScores lists the best runs, highest first.
func (s *Server) handleTopScores(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method != http.MethodGet {
		writeMessage(w, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
		return
	}

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeMessage(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = min(n, maxLimit)
	}

	scores, err := s.store.TopScores(r.Context(), limit)
	if err != nil {
		s.logger.Error("error listing scores", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error loading scores: "+err.Error())
		return
	}
	if scores == nil {
		scores = []storage.ScoreEntry{}
	}

	writeJSON(w, http.StatusOK, scoresResponse{Scores: scores})
}

// handleStats reports aggregates over all runs.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method != http.MethodGet {
		writeMessage(w, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
		return
	}

	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.logger.Error("error loading stats", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error loading stats: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

type scoresResponse struct {
	Scores []storage.ScoreEntry `json:"scores"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func setCORS(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // Client may have gone away
	json.NewEncoder(w).Encode(v)
}

// numericPattern accepts decimal integers and floats with optional sign and
// exponent. Hex, NaN and Inf are rejected.
var numericPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// decodeScore parses a submission body. score and duration must be JSON
// numbers or numeric strings and are truncated to int; timestamp must be
// present and not null.
func decodeScore(body io.Reader) (core.ScoreRecord, bool) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return core.ScoreRecord{}, false
	}

	score, ok := numericField(raw["score"])
	if !ok {
		return core.ScoreRecord{}, false
	}
	duration, ok := numericField(raw["duration"])
	if !ok {
		return core.ScoreRecord{}, false
	}
	timestamp, ok := timestampField(raw["timestamp"])
	if !ok {
		return core.ScoreRecord{}, false
	}

	return core.ScoreRecord{Score: score, Timestamp: timestamp, DurationSecs: duration}, true
}

func numericField(v any) (int, bool) {
	var text string
	switch n := v.(type) {
	case json.Number:
		text = n.String()
	case string:
		text = strings.TrimSpace(n)
	default:
		return 0, false
	}

	if !numericPattern.MatchString(text) {
		return 0, false
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	// Column type is a 32-bit integer in every dialect
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

func timestampField(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}
