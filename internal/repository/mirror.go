package repository

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
)

const defaultMirrorTimeout = 5 * time.Second

// Mirror replays successful mutations into the relational schema in the
// background. Nothing waits on it and failures are only logged. All methods
// are no-ops on a nil *Mirror.
type Mirror struct {
	Cases     *CaseRepository
	Documents *DocumentRepository
	Users     *UserRepository

	log     zerolog.Logger
	timeout time.Duration
}

func NewMirror(db Execer, timeout time.Duration, log zerolog.Logger) *Mirror {
	if timeout <= 0 {
		timeout = defaultMirrorTimeout
	}
	return &Mirror{
		Cases:     NewCaseRepository(db),
		Documents: NewDocumentRepository(db),
		Users:     NewUserRepository(db),
		log:       log.With().Str("component", "mirror").Logger(),
		timeout:   timeout,
	}
}

func (m *Mirror) async(what, id string, fn func(ctx context.Context) error) {
	if m == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			m.log.Warn().Err(err).Str("entity", what).Str("id", id).Msg("mirror write failed")
		}
	}()
}

func (m *Mirror) Case(c models.PatientCase) {
	m.async("case", c.ID, func(ctx context.Context) error { return m.Cases.Upsert(ctx, c) })
}

func (m *Mirror) CaseDeleted(id string) {
	m.async("case", id, func(ctx context.Context) error { return m.Cases.Delete(ctx, id) })
}

func (m *Mirror) Document(doc models.Document) {
	m.async("document", doc.ID, func(ctx context.Context) error { return m.Documents.Upsert(ctx, doc) })
}

func (m *Mirror) DocumentDeleted(id string) {
	m.async("document", id, func(ctx context.Context) error { return m.Documents.Delete(ctx, id) })
}

func (m *Mirror) User(u models.User) {
	m.async("user", u.ID, func(ctx context.Context) error { return m.Users.Upsert(ctx, u) })
}

// Sync makes the mirror match the whole snapshot. Rows missing from it are
// pruned first, documents before cases before users, so a replaced user can
// take over an email. Upserts then run users, cases, documents. It stops at
// the first failure.
func (m *Mirror) Sync(ctx context.Context, data models.AppData) error {
	if m == nil {
		return nil
	}
	if err := m.Documents.DeleteExcept(ctx, ids(data.Documents, func(d models.Document) string { return d.ID })); err != nil {
		return err
	}
	if err := m.Cases.DeleteExcept(ctx, ids(data.Cases, func(c models.PatientCase) string { return c.ID })); err != nil {
		return err
	}
	if err := m.Users.DeleteExcept(ctx, ids(data.Users, func(u models.User) string { return u.ID })); err != nil {
		return err
	}

	for _, u := range data.Users {
		if err := m.Users.Upsert(ctx, u); err != nil {
			return err
		}
	}
	for _, c := range data.Cases {
		if err := m.Cases.Upsert(ctx, c); err != nil {
			return err
		}
	}
	for _, d := range data.Documents {
		if err := m.Documents.Upsert(ctx, d); err != nil {
			return err
		}
	}
	m.log.Info().
		Int("users", len(data.Users)).
		Int("cases", len(data.Cases)).
		Int("documents", len(data.Documents)).
		Msg("mirror synced")
	return nil
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, id(item))
	}
	return out
}
