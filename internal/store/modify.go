package store

import (
	"context"
	"errors"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
)

// ErrNotFound is returned by the Modify mutators for an unknown id.
var ErrNotFound = errors.New("not found")

// Locked reads other collections from inside a mutator callback, while the
// store lock is held. It must not be kept after the callback returns.
type Locked struct {
	data *models.AppData
}

func (l Locked) UserByID(id string) (models.User, bool) {
	i := indexOf(l.data.Users, func(u models.User) bool { return u.ID == id })
	if i < 0 {
		return models.User{}, false
	}
	return l.data.Users[i].Clone(), true
}

// ModifyUser edits the stored user in place under the store lock. An error
// from fn leaves the user untouched and is returned as is. The result is the
// user as stored; a persistence failure is reported alongside it.
func (s *Store) ModifyUser(ctx context.Context, id string, fn func(u *models.User) error) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.data.Users, func(u models.User) bool { return u.ID == id })
	if i < 0 {
		return models.User{}, ErrNotFound
	}
	u := s.data.Users[i].Clone()
	if err := fn(&u); err != nil {
		return models.User{}, err
	}
	u.ID = id
	s.data.Users[i] = u.Clone()
	return u, s.saveLocked(ctx)
}

// ModifyCase edits the stored case in place under the store lock. The id and
// documentsCount are owned by the store and survive whatever fn does.
func (s *Store) ModifyCase(ctx context.Context, id string, fn func(l Locked, c *models.PatientCase) error) (models.PatientCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.data.Cases, func(c models.PatientCase) bool { return c.ID == id })
	if i < 0 {
		return models.PatientCase{}, ErrNotFound
	}
	c := s.data.Cases[i]
	if err := fn(Locked{data: &s.data}, &c); err != nil {
		return models.PatientCase{}, err
	}
	c.ID = id
	c.DocumentsCount = s.data.Cases[i].DocumentsCount
	s.data.Cases[i] = c
	return c, s.saveLocked(ctx)
}

// AddCaseFunc appends c after fn has approved it under the store lock.
func (s *Store) AddCaseFunc(ctx context.Context, c models.PatientCase, fn func(l Locked, c *models.PatientCase) error) (models.PatientCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(Locked{data: &s.data}, &c); err != nil {
		return models.PatientCase{}, err
	}
	s.data.Cases = append(s.data.Cases, c)
	return c, s.saveLocked(ctx)
}
