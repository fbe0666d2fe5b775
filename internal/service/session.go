package service

import (
	"time"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
)

// Session is the authenticated actor of a request. One is created per login
// and handed explicitly to every operation that acts on behalf of a user.
type Session struct {
	ID        string
	User      models.User
	IPAddress string
	StartedAt time.Time
}

func (s *Session) Active() bool {
	return s != nil && s.User.ID != ""
}

func (s *Session) Role() models.UserRole {
	if s == nil {
		return ""
	}
	return s.User.Role
}

// End clears the authenticated user from the session.
func (s *Session) End() {
	s.User = models.User{}
}
