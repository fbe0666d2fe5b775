package models

import "time"

type CaseStatus string

const (
	CaseStatusPendingEvaluation CaseStatus = "pending-evaluation"
	CaseStatusUnderReview       CaseStatus = "under-review"
	CaseStatusCompleted         CaseStatus = "completed"
	CaseStatusRejected          CaseStatus = "rejected"
)

type CasePriority string

const (
	CasePriorityLow    CasePriority = "low"
	CasePriorityMedium CasePriority = "medium"
	CasePriorityHigh   CasePriority = "high"
)

// Unassigned is the doctorAssigned value of a case without a doctor.
const Unassigned = "Unassigned"

const (
	EvaluationPending   = "pending"
	EvaluationDraft     = "draft"
	EvaluationSubmitted = "submitted"
)

type PatientCase struct {
	ID               string       `json:"id"`
	PatientName      string       `json:"patientName"`
	AccidentDate     string       `json:"accidentDate"`
	SubmissionDate   string       `json:"submissionDate"`
	Status           CaseStatus   `json:"status"`
	Priority         CasePriority `json:"priority"`
	InjuryType       string       `json:"injuryType"`
	DoctorAssigned   string       `json:"doctorAssigned"`
	DoctorID         string       `json:"doctorId"`
	AdminAssigned    string       `json:"adminAssigned"`
	AdminID          string       `json:"adminId"`
	ClaimAmount      float64      `json:"claimAmount"`
	DocumentsCount   int          `json:"documentsCount"`
	EvaluationStatus string       `json:"evaluationStatus"`
	LastUpdated      time.Time    `json:"lastUpdated"`
	CreatedBy        string       `json:"createdBy"`
}

// Unassign clears the doctor of the case, keeping doctorId and doctorAssigned paired.
func (c *PatientCase) Unassign() {
	c.DoctorID = ""
	c.DoctorAssigned = Unassigned
}
