package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
)

func TestActivityValues(t *testing.T) {
	entry := models.ActivityLog{
		ID:        "a1",
		UserID:    "1",
		UserName:  "Admin User",
		UserRole:  models.UserRoleAdmin,
		Action:    models.ActionAssignCase,
		CaseID:    "CASE001",
		CaseName:  "John Smith",
		Timestamp: time.Date(2026, time.May, 4, 10, 30, 0, 0, time.UTC),
		Details:   "Assigned case CASE001 to Dr. Sarah Johnson",
	}

	values := activityValues(entry)
	assert.Equal(t, "ASSIGN_CASE", values["action"])
	assert.Equal(t, "admin", values["userRole"])
	assert.Equal(t, "CASE001", values["caseId"])
	assert.Equal(t, "2026-05-04T10:30:00Z", values["timestamp"])
	assert.NotContains(t, values, "ipAddress")
}

func TestActivityValuesWithoutCase(t *testing.T) {
	values := activityValues(models.ActivityLog{ID: "a2", Action: models.ActionLogin, IPAddress: "10.0.0.1"})
	assert.NotContains(t, values, "caseId")
	assert.NotContains(t, values, "caseName")
	assert.Equal(t, "10.0.0.1", values["ipAddress"])
}
