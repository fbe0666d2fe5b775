package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/ids"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
)

// ActivityPublisher receives every recorded activity log. Publishing is fire
// and forget; failures are only logged.
type ActivityPublisher interface {
	PublishActivity(ctx context.Context, entry models.ActivityLog) error
}

const publishTimeout = 3 * time.Second

type AuditService struct {
	base
	publisher ActivityPublisher
}

type AuditEntry struct {
	Action   models.ActivityAction
	CaseID   string
	CaseName string
	Details  string
}

func (s *AuditService) Record(ctx context.Context, sess *Session, entry AuditEntry) models.ActivityLog {
	record := models.ActivityLog{
		ID:        ids.New(),
		Action:    entry.Action,
		CaseID:    entry.CaseID,
		CaseName:  entry.CaseName,
		Timestamp: s.stamp(),
		Details:   entry.Details,
	}
	if sess != nil {
		record.UserID = sess.User.ID
		record.UserName = sess.User.Name
		record.UserRole = sess.User.Role
		record.IPAddress = sess.IPAddress
	}

	s.persisted(s.store.AddActivityLog(ctx, record), "activity log not persisted")

	if s.publisher != nil {
		go func(published models.ActivityLog) {
			ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			defer cancel()
			if err := s.publisher.PublishActivity(ctx, published); err != nil {
				s.log.Warn().Err(err).Str("action", string(published.Action)).Msg("publish activity failed")
			}
		}(record)
	}

	return record
}

// Recent returns the newest logs first. A non-positive limit returns all.
func (s *AuditService) Recent(limit int) []models.ActivityLog {
	logs := s.store.ActivityLogs()
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Timestamp.After(logs[j].Timestamp)
	})
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs
}

func (s *AuditService) ForCase(caseID string) []models.ActivityLog {
	out := make([]models.ActivityLog, 0)
	for _, l := range s.Recent(0) {
		if l.CaseID == caseID {
			out = append(out, l)
		}
	}
	return out
}

func (s *AuditService) ForUser(userID string) []models.ActivityLog {
	out := make([]models.ActivityLog, 0)
	for _, l := range s.Recent(0) {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out
}

// Publishers fans one activity log out to several publishers. Every publisher
// is tried; their errors are joined.
type Publishers []ActivityPublisher

func (p Publishers) PublishActivity(ctx context.Context, entry models.ActivityLog) error {
	var errs []error
	for _, pub := range p {
		if err := pub.PublishActivity(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
