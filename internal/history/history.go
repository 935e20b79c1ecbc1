package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/krug-analyzer/backend/internal/metrics"
	"github.com/krug-analyzer/backend/internal/storage/models"
	"github.com/krug-analyzer/backend/pkg/logger"
)

const historyKey = "krug_analysis_history"

type Config struct {
	MaxEntries  int
	DedupWindow time.Duration
	Freshness   time.Duration
	NewID       func() string
}

func DefaultConfig() Config {
	return Config{
		MaxEntries:  50,
		DedupWindow: time.Minute,
		Freshness:   5 * time.Minute,
		NewID:       newEntryID,
	}
}

// newEntryID returns a time-ordered UUIDv7.
func newEntryID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Store keeps the most recent analyses as a single JSON list, newest first.
// Every operation is a read-modify-write of the whole list.
type Store struct {
	blobs BlobStore
	cfg   Config
	mu    sync.Mutex
}

func NewStore(blobs BlobStore, cfg Config) *Store {
	def := DefaultConfig()
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = def.MaxEntries
	}
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = def.DedupWindow
	}
	if cfg.Freshness <= 0 {
		cfg.Freshness = def.Freshness
	}
	if cfg.NewID == nil {
		cfg.NewID = def.NewID
	}
	return &Store{blobs: blobs, cfg: cfg}
}

func (s *Store) List(ctx context.Context) ([]models.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) Find(ctx context.Context, id string) (*models.HistoryEntry, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], nil
		}
	}
	return nil, ErrNotFound
}

// Save records report. An entry for the same URL whose timestamp is within
// the dedup window is replaced in place and keeps its id.
func (s *Store) Save(ctx context.Context, report *models.AnalysisReport) (*models.HistoryEntry, error) {
	if report == nil {
		return nil, errors.New("report is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	entry := newEntry(report)

	replaced := false
	for i, existing := range entries {
		if existing.URL == report.URL && absDuration(existing.Timestamp.Sub(report.Timestamp)) <= s.cfg.DedupWindow {
			entry.ID = existing.ID
			entries[i] = entry
			replaced = true
			break
		}
	}

	if !replaced {
		entry.ID = s.cfg.NewID()
		entries = append([]models.HistoryEntry{entry}, entries...)
	}

	if len(entries) > s.cfg.MaxEntries {
		entries = entries[:s.cfg.MaxEntries]
	}

	if err := s.store(ctx, entries); err != nil {
		return nil, err
	}

	logger.Debug("Analysis saved to history",
		zap.String("id", entry.ID),
		zap.String("url", entry.URL),
		zap.Bool("replaced", replaced),
		zap.Int("entries", len(entries)),
	)

	return &entry, nil
}

// SaveIfFresh saves report only when it was produced within the freshness
// window before now. It reports whether anything was written.
func (s *Store) SaveIfFresh(ctx context.Context, report *models.AnalysisReport, now time.Time) (*models.HistoryEntry, bool, error) {
	if report == nil || absDuration(now.Sub(report.Timestamp)) > s.cfg.Freshness {
		return nil, false, nil
	}
	entry, err := s.Save(ctx, report)
	if err != nil {
		return nil, false, err
	}
	return entry, true, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx)
	if err != nil {
		return err
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(entries) {
		return ErrNotFound
	}

	return s.store(ctx, kept)
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store(ctx, []models.HistoryEntry{})
}

func (s *Store) load(ctx context.Context) ([]models.HistoryEntry, error) {
	data, err := s.blobs.Load(ctx, historyKey)
	if errors.Is(err, ErrNotFound) {
		return []models.HistoryEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	var entries []models.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Warn("History blob is corrupt, starting empty", zap.Error(err))
		return []models.HistoryEntry{}, nil
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	return entries, nil
}

func (s *Store) store(ctx context.Context, entries []models.HistoryEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := s.blobs.Save(ctx, historyKey, data); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	metrics.HistoryEntries.Set(float64(len(entries)))
	return nil
}

func newEntry(report *models.AnalysisReport) models.HistoryEntry {
	return models.HistoryEntry{
		URL:          report.URL,
		Timestamp:    report.Timestamp,
		OverallScore: report.OverallScore,
		SummaryCounts: models.SummaryCounts{
			High:   report.Summary.HighCount,
			Medium: report.Summary.MediumCount,
			Low:    report.Summary.LowCount,
		},
		SettingsSnapshot: report.Settings.Snapshot(),
		FullReport:       report,
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
