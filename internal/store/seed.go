package store

import (
	"time"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
)

var seedCreatedAt = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// defaultUsers are the demo accounts that every snapshot is guaranteed to carry.
func defaultUsers() []models.User {
	return []models.User{
		{
			ID:        "1",
			Email:     "admin@insurance.com",
			Name:      "Admin User",
			Role:      models.UserRoleAdmin,
			CreatedAt: seedCreatedAt,
			IsActive:  true,
			Password:  "admin123",
		},
		{
			ID:        "2",
			Email:     "sysadmin@insurance.com",
			Name:      "System Administrator",
			Role:      models.UserRoleSystemAdmin,
			CreatedAt: seedCreatedAt,
			IsActive:  true,
			Password:  "sysadmin123",
		},
		{
			ID:             "3",
			Email:          "doctor@healthcare.com",
			Name:           "Dr. Sarah Johnson",
			Role:           models.UserRoleDoctor,
			CreatedAt:      seedCreatedAt,
			IsActive:       true,
			Specialization: "Orthopedics",
			LicenseNumber:  "MD12345",
			Password:       "doctor123",
		},
	}
}

func defaultCases(now time.Time) []models.PatientCase {
	return []models.PatientCase{
		{
			ID:               "CASE001",
			PatientName:      "John Smith",
			AccidentDate:     "2024-01-15",
			SubmissionDate:   "2024-01-20",
			Status:           models.CaseStatusPendingEvaluation,
			Priority:         models.CasePriorityHigh,
			InjuryType:       "Whiplash",
			DoctorAssigned:   models.Unassigned,
			DoctorID:         "",
			AdminAssigned:    "Admin User",
			AdminID:          "1",
			ClaimAmount:      15000,
			EvaluationStatus: models.EvaluationPending,
			LastUpdated:      now,
			CreatedBy:        "1",
		},
		{
			ID:               "CASE002",
			PatientName:      "Maria Garcia",
			AccidentDate:     "2024-02-03",
			SubmissionDate:   "2024-02-05",
			Status:           models.CaseStatusUnderReview,
			Priority:         models.CasePriorityMedium,
			InjuryType:       "Fractured wrist",
			DoctorAssigned:   "Dr. Sarah Johnson",
			DoctorID:         "3",
			AdminAssigned:    "Admin User",
			AdminID:          "1",
			ClaimAmount:      8500,
			EvaluationStatus: models.EvaluationPending,
			LastUpdated:      now,
			CreatedBy:        "1",
		},
	}
}

func defaultData(now time.Time) models.AppData {
	return models.AppData{
		Users:        defaultUsers(),
		ActivityLogs: []models.ActivityLog{},
		Cases:        defaultCases(now),
		ChatMessages: []models.ChatMessage{},
		Documents:    []models.Document{},
		AIRules:      []models.AIRule{},
		Version:      models.SchemaVersion,
		LastBackup:   now,
	}
}
