package models

import "time"

type ActivityAction string

const (
	ActionLogin            ActivityAction = "LOGIN"
	ActionLogout           ActivityAction = "LOGOUT"
	ActionCreateCase       ActivityAction = "CREATE_CASE"
	ActionUpdateCase       ActivityAction = "UPDATE_CASE"
	ActionDeleteCase       ActivityAction = "DELETE_CASE"
	ActionAssignCase       ActivityAction = "ASSIGN_CASE"
	ActionUploadDocuments  ActivityAction = "UPLOAD_DOCUMENTS"
	ActionDeleteDocument   ActivityAction = "DELETE_DOCUMENT"
	ActionSaveEvaluation   ActivityAction = "SAVE_EVALUATION"
	ActionSubmitEvaluation ActivityAction = "SUBMIT_EVALUATION"
	ActionCreateUser       ActivityAction = "CREATE_USER"
	ActionDeactivateUser   ActivityAction = "DEACTIVATE_USER"
	ActionSendMessage      ActivityAction = "SEND_MESSAGE"
	ActionViewDashboard    ActivityAction = "VIEW_DASHBOARD"
	ActionOpenCase         ActivityAction = "OPEN_CASE"
)

// ActivityLog is an audit record. It is never modified once appended.
type ActivityLog struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	UserName  string         `json:"userName"`
	UserRole  UserRole       `json:"userRole"`
	Action    ActivityAction `json:"action"`
	CaseID    string         `json:"caseId,omitempty"`
	CaseName  string         `json:"caseName,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Details   string         `json:"details"`
	IPAddress string         `json:"ipAddress,omitempty"`
}
