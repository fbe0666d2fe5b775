package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/ids"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/store"
)

type AuthService struct {
	base
	audit *AuditService
}

type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
}

// Login opens a session for an active user whose email and password match.
// Unknown email, wrong password and inactive account all yield
// ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*Session, error) {
	user, ok := s.store.UserByEmail(strings.TrimSpace(input.Email))
	if !ok || !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(user.Password), []byte(input.Password)) != 1 {
		return nil, ErrInvalidCredentials
	}

	now := s.stamp()
	user, err := s.store.ModifyUser(ctx, user.ID, func(u *models.User) error {
		if !u.IsActive {
			return ErrInvalidCredentials
		}
		u.LastLogin = &now
		return nil
	})
	if err = s.written(err, "last login not persisted"); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	sess := &Session{
		ID:        ids.New(),
		User:      user,
		IPAddress: input.IPAddress,
		StartedAt: now,
	}
	s.audit.Record(ctx, sess, AuditEntry{
		Action:  models.ActionLogin,
		Details: fmt.Sprintf("%s logged in", user.Name),
	})

	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user logged in")
	return sess, nil
}

func (s *AuthService) Logout(ctx context.Context, sess *Session) error {
	if !sess.Active() {
		return ErrNoSession
	}

	s.audit.Record(ctx, sess, AuditEntry{
		Action:  models.ActionLogout,
		Details: fmt.Sprintf("%s logged out", sess.User.Name),
	})
	s.log.Info().Str("user_id", sess.User.ID).Msg("user logged out")
	sess.End()
	return nil
}

// Resume rebuilds the session identified by a previously issued token. The
// user must still exist and be active.
func (s *AuthService) Resume(sessionID, userID, ipAddress string) (*Session, error) {
	user, ok := s.store.UserByID(userID)
	if !ok || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	sess := &Session{
		ID:        sessionID,
		User:      user,
		IPAddress: ipAddress,
	}
	if user.LastLogin != nil {
		sess.StartedAt = *user.LastLogin
	}
	return sess, nil
}
