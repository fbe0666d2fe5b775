package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
)

var requiredCollections = []string{
	"users",
	"activityLogs",
	"cases",
	"chatMessages",
	"documents",
	"aiRules",
}

// parseSnapshot accepts a JSON object whose collections are all arrays and
// whose version is a string.
func parseSnapshot(payload []byte) (models.AppData, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return models.AppData{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	if raw == nil {
		return models.AppData{}, fmt.Errorf("%w: not an object", ErrInvalidSnapshot)
	}

	for _, key := range requiredCollections {
		value, ok := raw[key]
		if !ok || !hasPrefix(value, '[') {
			return models.AppData{}, fmt.Errorf("%w: %s is not a list", ErrInvalidSnapshot, key)
		}
	}
	if version, ok := raw["version"]; !ok || !hasPrefix(version, '"') {
		return models.AppData{}, fmt.Errorf("%w: version is not a string", ErrInvalidSnapshot)
	}

	var data models.AppData
	if err := json.Unmarshal(payload, &data); err != nil {
		return models.AppData{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return data, nil
}

func hasPrefix(value json.RawMessage, b byte) bool {
	trimmed := bytes.TrimSpace(value)
	return len(trimmed) > 0 && trimmed[0] == b
}

// Export renders the current snapshot as indented JSON.
func (s *Store) Export() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		s.log.Error().Err(err).Msg("export snapshot failed")
		return "", fmt.Errorf("export: %w", err)
	}
	return string(out), nil
}

// ExportFileName is the download name of an export taken at t.
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("claims-platform-backup-%s.json", t.UTC().Format("2006-01-02"))
}

// Import replaces the snapshot with text when it validates. Invalid input
// leaves the current snapshot untouched and reports false.
func (s *Store) Import(ctx context.Context, text string) bool {
	data, err := parseSnapshot([]byte(text))
	if err != nil {
		s.log.Warn().Err(err).Msg("import rejected")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = s.mergeWithDefaults(data)
	if err := s.saveLocked(ctx); err != nil {
		s.log.Error().Err(err).Msg("imported snapshot not persisted")
	}
	s.log.Info().
		Int("users", len(s.data.Users)).
		Int("cases", len(s.data.Cases)).
		Msg("snapshot imported")
	return true
}
