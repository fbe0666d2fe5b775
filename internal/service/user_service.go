package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/ids"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/store"
)

type UserService struct {
	base
	audit *AuditService
}

func (s *UserService) List() []models.User {
	return s.store.Users()
}

func (s *UserService) Get(id string) (models.User, error) {
	u, ok := s.store.UserByID(id)
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return u, nil
}

// Doctors lists the active doctors cases can be assigned to.
func (s *UserService) Doctors() []models.User {
	out := make([]models.User, 0)
	for _, u := range s.store.Users() {
		if u.Role == models.UserRoleDoctor && u.IsActive {
			out = append(out, u)
		}
	}
	return out
}

type UserInput struct {
	Email          string
	Name           string
	Role           models.UserRole
	Password       string
	Specialization string
	LicenseNumber  string
}

func (s *UserService) Create(ctx context.Context, sess *Session, input UserInput) (models.User, error) {
	if !sess.Active() {
		return models.User{}, ErrNoSession
	}
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	input.Name = strings.TrimSpace(input.Name)
	if input.Email == "" || input.Name == "" || input.Password == "" {
		return models.User{}, fmt.Errorf("%w: email, name and password required", ErrInvalidInput)
	}
	if !input.Role.Valid() {
		return models.User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, input.Role)
	}
	if _, taken := s.store.UserByEmail(input.Email); taken {
		return models.User{}, ErrEmailTaken
	}

	u := models.User{
		ID:             ids.New(),
		Email:          input.Email,
		Name:           input.Name,
		Role:           input.Role,
		CreatedAt:      s.stamp(),
		IsActive:       true,
		Specialization: input.Specialization,
		LicenseNumber:  input.LicenseNumber,
		Password:       input.Password,
	}

	s.persisted(s.store.AddUser(ctx, u), "user not persisted")
	s.audit.Record(ctx, sess, AuditEntry{
		Action:  models.ActionCreateUser,
		Details: fmt.Sprintf("Created %s account for %s", u.Role, u.Email),
	})
	return u, nil
}

// Deactivate soft-deletes a user. A deactivated doctor is unassigned from
// every case that pointed at them. The flag flips before the cases are read,
// so an assignment racing with it either fails or is unassigned here.
func (s *UserService) Deactivate(ctx context.Context, sess *Session, id string) (models.User, error) {
	if !sess.Active() {
		return models.User{}, ErrNoSession
	}
	u, err := s.store.ModifyUser(ctx, id, func(u *models.User) error {
		u.IsActive = false
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, ErrUserNotFound
	}
	if err = s.written(err, "deactivation not persisted"); err != nil {
		return models.User{}, err
	}

	unassigned := 0
	if u.Role == models.UserRoleDoctor {
		for _, c := range s.store.CasesForDoctor(u.ID) {
			now := s.stamp()
			_, err := s.store.ModifyCase(ctx, c.ID, func(_ store.Locked, c *models.PatientCase) error {
				if c.DoctorID != u.ID {
					return errReassigned
				}
				c.Unassign()
				c.LastUpdated = now
				return nil
			})
			if errors.Is(err, errReassigned) || errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err = s.written(err, "case unassignment not persisted"); err != nil {
				return u, err
			}
			unassigned++
		}
	}

	details := fmt.Sprintf("Deactivated %s", u.Email)
	if unassigned > 0 {
		details += fmt.Sprintf(" and unassigned %d case(s)", unassigned)
	}
	s.audit.Record(ctx, sess, AuditEntry{
		Action:  models.ActionDeactivateUser,
		Details: details,
	})
	return u, nil
}
