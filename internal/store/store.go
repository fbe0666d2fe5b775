// Package store owns the authoritative in-memory AppData snapshot and keeps it
// mirrored into a primary and a backup storage slot.
//
// Every exported method is serialized by a single mutex, so callers observe
// whole operations: a read never interleaves with a write. Getters hand out
// deep copies; the only way to change state is through the named mutations,
// each of which persists the full snapshot before returning.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/storage"
)

var (
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	ErrPersist         = errors.New("persist snapshot")
)

const (
	DefaultMaxActivityLogs = 1000
	DefaultMaxChatMessages = 5000
)

type Store struct {
	mu      sync.Mutex
	data    models.AppData
	primary storage.Slot
	backup  storage.Slot
	log     zerolog.Logger
	now     func() time.Time

	maxActivityLogs int
	maxChatMessages int
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithRetention sets how many activity logs and chat messages survive a
// cleanup pass. Non-positive values keep the defaults.
func WithRetention(maxActivityLogs, maxChatMessages int) Option {
	return func(s *Store) {
		if maxActivityLogs > 0 {
			s.maxActivityLogs = maxActivityLogs
		}
		if maxChatMessages > 0 {
			s.maxChatMessages = maxChatMessages
		}
	}
}

// New recovers the snapshot from the primary slot, then the backup slot, then
// falls back to seed data. It never fails; unreadable slots are logged and
// skipped.
func New(ctx context.Context, primary, backup storage.Slot, log zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		primary:         primary,
		backup:          backup,
		log:             log.With().Str("component", "store").Logger(),
		now:             time.Now,
		maxActivityLogs: DefaultMaxActivityLogs,
		maxChatMessages: DefaultMaxChatMessages,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.recover(ctx)

	return s
}

func (s *Store) recover(ctx context.Context) {
	if data, ok := s.loadSlot(ctx, s.primary); ok {
		s.data = s.mergeWithDefaults(data)
		s.log.Info().Str("slot", s.primary.Name()).Msg("snapshot loaded from primary slot")
		return
	}

	if data, ok := s.loadSlot(ctx, s.backup); ok {
		s.data = s.mergeWithDefaults(data)
		s.log.Warn().Str("slot", s.backup.Name()).Msg("snapshot restored from backup slot")

		payload, err := json.Marshal(s.data)
		if err == nil {
			err = s.primary.Save(ctx, payload)
		}
		if err != nil {
			s.log.Error().Err(err).Str("slot", s.primary.Name()).Msg("restore primary slot failed")
		}
		return
	}

	s.log.Info().Msg("no usable snapshot, initializing seed data")
	s.data = defaultData(s.now().UTC())
	_ = s.saveLocked(ctx)
}

func (s *Store) loadSlot(ctx context.Context, slot storage.Slot) (models.AppData, bool) {
	payload, err := slot.Load(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSlotEmpty) {
			s.log.Debug().Str("slot", slot.Name()).Msg("slot empty")
		} else {
			s.log.Warn().Err(err).Str("slot", slot.Name()).Msg("slot read failed")
		}
		return models.AppData{}, false
	}

	data, err := parseSnapshot(payload)
	if err != nil {
		s.log.Warn().Err(err).Str("slot", slot.Name()).Msg("slot holds invalid snapshot")
		return models.AppData{}, false
	}
	return data, true
}

func (s *Store) mergeWithDefaults(data models.AppData) models.AppData {
	present := make(map[string]struct{}, len(data.Users))
	for _, u := range data.Users {
		present[u.ID] = struct{}{}
	}
	for _, seed := range defaultUsers() {
		if _, ok := present[seed.ID]; !ok {
			data.Users = append(data.Users, seed)
		}
	}
	data.Version = models.SchemaVersion
	return data.Clone()
}

// Save stamps lastBackup and writes the snapshot to both slots. When a write
// fails the retention pass runs and the primary write is retried once; a
// second failure is logged and returned wrapped in ErrPersist.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

func (s *Store) saveLocked(ctx context.Context) error {
	s.data.LastBackup = s.now().UTC()

	payload, err := json.Marshal(s.data)
	if err != nil {
		s.log.Error().Err(err).Msg("serialize snapshot failed")
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	err = s.primary.Save(ctx, payload)
	if err == nil {
		err = s.backup.Save(ctx, payload)
	}
	if err == nil {
		return nil
	}

	s.log.Warn().Err(err).Msg("snapshot write failed, pruning and retrying")
	s.cleanupLocked()

	payload, err = json.Marshal(s.data)
	if err == nil {
		err = s.primary.Save(ctx, payload)
	}
	if err != nil {
		s.log.Error().Err(err).Str("slot", s.primary.Name()).Msg("snapshot retry failed")
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// Cleanup keeps only the newest activity logs and chat messages by timestamp.
func (s *Store) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupLocked()
}

func (s *Store) cleanupLocked() {
	if n := len(s.data.ActivityLogs); n > s.maxActivityLogs {
		logs := s.data.ActivityLogs
		sort.SliceStable(logs, func(i, j int) bool {
			return logs[i].Timestamp.After(logs[j].Timestamp)
		})
		s.data.ActivityLogs = append([]models.ActivityLog(nil), logs[:s.maxActivityLogs]...)
		s.log.Info().Int("dropped", n-s.maxActivityLogs).Msg("activity logs pruned")
	}

	if n := len(s.data.ChatMessages); n > s.maxChatMessages {
		msgs := s.data.ChatMessages
		sort.SliceStable(msgs, func(i, j int) bool {
			return msgs[i].Timestamp.After(msgs[j].Timestamp)
		})
		s.data.ChatMessages = append([]models.ChatMessage(nil), msgs[:s.maxChatMessages]...)
		s.log.Info().Int("dropped", n-s.maxChatMessages).Msg("chat messages pruned")
	}
}

// Snapshot returns a deep copy of the whole AppData aggregate.
func (s *Store) Snapshot() models.AppData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone()
}

type DataStats struct {
	Users        int       `json:"users"`
	Cases        int       `json:"cases"`
	Documents    int       `json:"documents"`
	ChatMessages int       `json:"chatMessages"`
	ActivityLogs int       `json:"activityLogs"`
	AIRules      int       `json:"aiRules"`
	LastBackup   time.Time `json:"lastBackup"`
	Version      string    `json:"version"`
}

func (s *Store) Stats() DataStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return DataStats{
		Users:        len(s.data.Users),
		Cases:        len(s.data.Cases),
		Documents:    len(s.data.Documents),
		ChatMessages: len(s.data.ChatMessages),
		ActivityLogs: len(s.data.ActivityLogs),
		AIRules:      len(s.data.AIRules),
		LastBackup:   s.data.LastBackup,
		Version:      s.data.Version,
	}
}
