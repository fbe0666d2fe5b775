package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/storage"
)

func TestModifyUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemorySlot("p", 0), storage.NewMemorySlot("b", 0))

	u, err := s.ModifyUser(ctx, "3", func(u *models.User) error {
		u.IsActive = false
		u.ID = "hijacked"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "3", u.ID)
	stored, _ := s.UserByID("3")
	assert.False(t, stored.IsActive)

	_, err = s.ModifyUser(ctx, "nope", func(*models.User) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestModifyUserAbortLeavesUserUntouched(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemorySlot("p", 0), storage.NewMemorySlot("b", 0))
	reject := errors.New("rejected")

	_, err := s.ModifyUser(ctx, "1", func(u *models.User) error {
		u.Name = "changed"
		return reject
	})
	assert.ErrorIs(t, err, reject)
	stored, _ := s.UserByID("1")
	assert.Equal(t, "Admin User", stored.Name)
}

func TestModifyCaseKeepsDocumentsCount(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemorySlot("p", 0), storage.NewMemorySlot("b", 0))
	require.NoError(t, s.AddDocument(ctx, models.Document{ID: "D1", CaseID: "CASE001"}))

	c, err := s.ModifyCase(ctx, "CASE001", func(l Locked, c *models.PatientCase) error {
		doctor, ok := l.UserByID("3")
		require.True(t, ok)
		c.DoctorID = doctor.ID
		c.DoctorAssigned = doctor.Name
		c.DocumentsCount = 42
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, c.DocumentsCount)
	assert.Equal(t, "3", c.DoctorID)

	_, err = s.ModifyCase(ctx, "CASE-NONE", func(Locked, *models.PatientCase) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestModifyUserSerializesConcurrentEdits(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemorySlot("p", 0), storage.NewMemorySlot("b", 0))
	before, _ := s.UserByID("3")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ModifyUser(ctx, "3", func(u *models.User) error {
				u.LicenseNumber += "x"
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	u, _ := s.UserByID("3")
	assert.Len(t, u.LicenseNumber, len(before.LicenseNumber)+50)
}

func TestAddCaseFuncRejects(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemorySlot("p", 0), storage.NewMemorySlot("b", 0))
	reject := errors.New("doctor inactive")

	_, err := s.AddCaseFunc(ctx, models.PatientCase{ID: "CASE-X"}, func(Locked, *models.PatientCase) error { return reject })
	assert.ErrorIs(t, err, reject)
	_, ok := s.CaseByID("CASE-X")
	assert.False(t, ok)

	_, err = s.AddCaseFunc(ctx, models.PatientCase{ID: "CASE-Y"}, func(Locked, *models.PatientCase) error { return nil })
	require.NoError(t, err)
	_, ok = s.CaseByID("CASE-Y")
	assert.True(t, ok)
}
