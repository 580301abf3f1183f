package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/daktuslabs/daktus-qa-agent/internal/feedback"

// Config configures the feedback store.
type Config struct {
	// BasePath is the root directory holding monthly session partitions.
	BasePath string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{BasePath: "feedback_sessions"}
}

// Store persists and queries feedback sessions.
//
// Layout on disk is feedback_sessions/<YYYYMM>/session_<id>.json, with the
// partition month taken from the session timestamp.
type Store interface {
	// Save writes a session, assigning session_id and timestamp when the
	// caller did not. Returns the path of the written file.
	Save(ctx context.Context, session Session) (string, error)

	// Load reads stored sessions matching the filter. A month filter
	// naming a missing partition returns an empty slice, not an error.
	Load(ctx context.Context, filter LoadFilter) ([]Session, error)

	// Query loads all sessions and narrows them by verdict, suggestion
	// category, and minimum quality rating. When a suggestion-level
	// filter is set, sessions keep only the matching suggestion feedback
	// and sessions left with none are dropped.
	Query(ctx context.Context, filter QueryFilter) ([]Session, error)

	// Statistics aggregates stored feedback, optionally over one month.
	Statistics(ctx context.Context, period string) (*Statistics, error)

	// Close releases the store. Further calls return ErrStoreClosed.
	Close() error
}

type fileStore struct {
	config *Config
	logger *zap.Logger

	tracer        trace.Tracer
	meter         metric.Meter
	savedCounter  metric.Int64Counter
	loadedCounter metric.Int64Counter

	// now is swapped in tests to pin the session date.
	now func() time.Time

	mu     sync.Mutex
	closed bool
}

// NewStore creates a file-backed feedback store rooted at cfg.BasePath.
func NewStore(cfg *Config, logger *zap.Logger) (Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.BasePath == "" {
		return nil, ErrEmptyBasePath
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(cfg.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create feedback directory: %w", err)
	}

	s := &fileStore{
		config: cfg,
		logger: logger,
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
		now:    time.Now,
	}
	s.initMetrics()

	logger.Info("feedback store initialized", zap.String("base_path", cfg.BasePath))
	return s, nil
}

func (s *fileStore) initMetrics() {
	var err error

	s.savedCounter, err = s.meter.Int64Counter(
		"daktusqa.feedback.sessions_saved_total",
		metric.WithDescription("Total number of feedback sessions saved"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		s.logger.Warn("failed to create saved counter", zap.Error(err))
	}

	s.loadedCounter, err = s.meter.Int64Counter(
		"daktusqa.feedback.sessions_loaded_total",
		metric.WithDescription("Total number of feedback sessions loaded"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		s.logger.Warn("failed to create loaded counter", zap.Error(err))
	}
}

func (s *fileStore) Save(ctx context.Context, session Session) (string, error) {
	_, span := s.tracer.Start(ctx, "feedback.save")
	defer span.End()

	if session == nil {
		return "", ErrNilSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrStoreClosed
	}

	if session.Timestamp() == "" {
		session["timestamp"] = s.now().Format(time.RFC3339)
	}
	ts, err := parseTimestamp(session.Timestamp())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	// The ID scan and the write stay under one lock so two concurrent
	// saves never mint the same sequence number.
	if session.ID() == "" {
		session["session_id"] = s.generateSessionID()
	}

	monthDir := filepath.Join(s.config.BasePath, ts.Format("200601"))
	if err := os.MkdirAll(monthDir, 0o755); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("failed to create month directory: %w", err)
	}

	path := filepath.Join(monthDir, "session_"+session.ID()+".json")
	if err := writeSessionFile(path, session); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("failed to write session: %w", err)
	}

	if s.savedCounter != nil {
		s.savedCounter.Add(ctx, 1)
	}
	s.logger.Info("feedback session saved",
		zap.String("session_id", session.ID()),
		zap.String("path", path),
	)
	span.SetAttributes(attribute.String("session_id", session.ID()))

	return path, nil
}

func (s *fileStore) Load(ctx context.Context, filter LoadFilter) ([]Session, error) {
	_, span := s.tracer.Start(ctx, "feedback.load")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	sessions, err := s.loadLocked(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("sessions", len(sessions)))
	return sessions, nil
}

func (s *fileStore) loadLocked(ctx context.Context, filter LoadFilter) ([]Session, error) {
	var searchDirs []string

	if filter.Month != "" {
		monthDir := filepath.Join(s.config.BasePath, filter.Month)
		if _, err := os.Stat(monthDir); err != nil {
			if os.IsNotExist(err) {
				s.logger.Warn("month directory not found", zap.String("month", filter.Month))
				return []Session{}, nil
			}
			return nil, fmt.Errorf("failed to stat month directory: %w", err)
		}
		searchDirs = []string{monthDir}
	} else {
		entries, err := os.ReadDir(s.config.BasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read feedback directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() && isDigits(entry.Name()) {
				searchDirs = append(searchDirs, filepath.Join(s.config.BasePath, entry.Name()))
			}
		}
	}

	sessions := []Session{}
	for _, dir := range searchDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read month directory: %w", err)
		}
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || !strings.HasPrefix(name, "session_") || !strings.HasSuffix(name, ".json") {
				continue
			}
			path := filepath.Join(dir, name)

			session, err := readSessionFile(path)
			if err != nil {
				// One broken file must not hide the rest of the history.
				s.logger.Error("failed to load session", zap.String("path", path), zap.Error(err))
				continue
			}

			if filter.ProtocolName != "" && session.ProtocolName() != filter.ProtocolName {
				continue
			}
			if filter.ModelUsed != "" && session.ModelUsed() != filter.ModelUsed {
				continue
			}
			sessions = append(sessions, session)
		}
	}

	if s.loadedCounter != nil {
		s.loadedCounter.Add(ctx, int64(len(sessions)))
	}
	s.logger.Info("feedback sessions loaded", zap.Int("count", len(sessions)))
	return sessions, nil
}

func (s *fileStore) Query(ctx context.Context, filter QueryFilter) ([]Session, error) {
	ctx, span := s.tracer.Start(ctx, "feedback.query")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	all, err := s.loadLocked(ctx, LoadFilter{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	narrowSuggestions := filter.Verdict != "" || filter.SuggestionCategory != ""
	results := []Session{}

	for _, session := range all {
		if filter.MinQualityRating != nil {
			rating, ok := session.QualityRating()
			if !ok || rating < *filter.MinQualityRating {
				continue
			}
		}

		if !narrowSuggestions {
			results = append(results, session)
			continue
		}

		var matched []any
		for _, sugFB := range session.SuggestionsFeedback() {
			if filter.Verdict != "" {
				if v, _ := sugFB["user_verdict"].(string); v != filter.Verdict {
					continue
				}
			}
			if filter.SuggestionCategory != "" {
				if c, _ := sugFB["category"].(string); c != filter.SuggestionCategory {
					continue
				}
			}
			matched = append(matched, sugFB)
		}
		if len(matched) == 0 {
			continue
		}

		narrowed := session.clone()
		narrowed["suggestions_feedback"] = matched
		results = append(results, narrowed)
	}

	s.logger.Info("feedback query complete",
		zap.Int("total", len(all)),
		zap.Int("matched", len(results)),
	)
	span.SetAttributes(attribute.Int("matched", len(results)))
	return results, nil
}

func (s *fileStore) Statistics(ctx context.Context, period string) (*Statistics, error) {
	ctx, span := s.tracer.Start(ctx, "feedback.statistics")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	sessions, err := s.loadLocked(ctx, LoadFilter{Month: period})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	stats := &Statistics{MostRejectedCategories: []CategoryCount{}}
	if len(sessions) == 0 {
		return stats, nil
	}
	stats.TotalSessions = len(sessions)

	var ratingSum float64
	var ratingCount int
	var totalSuggestions, relevantCount, irrelevantCount int
	categoryRejections := map[string]int{}
	var categoryOrder []string

	for _, session := range sessions {
		if rating, ok := session.QualityRating(); ok {
			ratingSum += rating
			ratingCount++
		}
		for _, sugFB := range session.SuggestionsFeedback() {
			totalSuggestions++
			verdict, _ := sugFB["user_verdict"].(string)
			switch verdict {
			case VerdictRelevant:
				relevantCount++
			case VerdictIrrelevant:
				irrelevantCount++
				if category, _ := sugFB["category"].(string); category != "" {
					if _, seen := categoryRejections[category]; !seen {
						categoryOrder = append(categoryOrder, category)
					}
					categoryRejections[category]++
				}
			}
		}
	}

	if ratingCount > 0 {
		stats.AvgQualityRating = round2(ratingSum / float64(ratingCount))
	}
	if totalSuggestions > 0 {
		stats.RelevantRate = round2(float64(relevantCount) / float64(totalSuggestions) * 100)
		stats.IrrelevantRate = round2(float64(irrelevantCount) / float64(totalSuggestions) * 100)
	}
	stats.MostRejectedCategories = topCategories(categoryOrder, categoryRejections, 5)

	s.logger.Info("feedback statistics calculated",
		zap.Int("total_sessions", stats.TotalSessions),
		zap.Float64("avg_quality_rating", stats.AvgQualityRating),
		zap.Float64("relevant_rate", stats.RelevantRate),
		zap.Float64("irrelevant_rate", stats.IrrelevantRate),
	)
	return stats, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.closed = true
	s.logger.Info("feedback store closed")
	return nil
}

// generateSessionID mints the next fb-YYYYMMDD-NNN identifier by scanning
// today's month partition for the day's highest sequence number. The ID
// always carries the current date, even when the session itself is
// backdated; only the storage partition follows the session timestamp.
func (s *fileStore) generateSessionID() string {
	now := s.now()
	dateStr := now.Format("20060102")
	prefix := "session_fb-" + dateStr + "-"

	next := 1
	monthDir := filepath.Join(s.config.BasePath, now.Format("200601"))
	if entries, err := os.ReadDir(monthDir); err == nil {
		for _, entry := range entries {
			name := entry.Name()
			if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
				continue
			}
			numStr := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json")
			if num, err := strconv.Atoi(numStr); err == nil && num >= next {
				next = num + 1
			}
		}
	}

	return fmt.Sprintf("fb-%s-%03d", dateStr, next)
}

// parseTimestamp accepts RFC 3339 as well as the zone-less ISO form older
// collectors wrote.
func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04:05.999999999"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid session timestamp %q", value)
}

func readSessionFile(path string) (Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return session, nil
}

func writeSessionFile(path string, session Session) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(session); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// topCategories ranks categories by rejection count. Ties keep the order
// in which the categories were first encountered in the feedback.
func topCategories(order []string, counts map[string]int, limit int) []CategoryCount {
	ranked := make([]CategoryCount, 0, len(order))
	for _, category := range order {
		ranked = append(ranked, CategoryCount{Category: category, Count: counts[category]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
