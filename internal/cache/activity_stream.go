package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
)

// streamMaxLen bounds the stream roughly; XADD trims with "~".
const streamMaxLen = 10000

// ActivityStream appends every activity log to a redis stream for external
// consumers.
type ActivityStream struct {
	client *redis.Client
	stream string
}

func NewActivityStream(client *redis.Client, stream string) *ActivityStream {
	return &ActivityStream{client: client, stream: stream}
}

func (s *ActivityStream) PublishActivity(ctx context.Context, entry models.ActivityLog) error {
	err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: activityValues(entry),
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return nil
}

func activityValues(entry models.ActivityLog) map[string]any {
	values := map[string]any{
		"id":        entry.ID,
		"action":    string(entry.Action),
		"userId":    entry.UserID,
		"userName":  entry.UserName,
		"userRole":  string(entry.UserRole),
		"timestamp": entry.Timestamp.UTC().Format(time.RFC3339Nano),
		"details":   entry.Details,
	}
	if entry.CaseID != "" {
		values["caseId"] = entry.CaseID
		values["caseName"] = entry.CaseName
	}
	if entry.IPAddress != "" {
		values["ipAddress"] = entry.IPAddress
	}
	return values
}
