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

// errReassigned skips a case that moved to another doctor meanwhile.
var errReassigned = errors.New("case reassigned")

type CaseService struct {
	base
	audit *AuditService
	blobs BlobStore
}

func (s *CaseService) List() []models.PatientCase {
	return s.store.Cases()
}

// ListFor returns the cases a session may see: doctors only see the cases
// assigned to them.
func (s *CaseService) ListFor(sess *Session) []models.PatientCase {
	if sess.Role() == models.UserRoleDoctor {
		return s.store.CasesForDoctor(sess.User.ID)
	}
	return s.store.Cases()
}

func (s *CaseService) Get(id string) (models.PatientCase, error) {
	c, ok := s.store.CaseByID(id)
	if !ok {
		return models.PatientCase{}, ErrCaseNotFound
	}
	return c, nil
}

// CanAccess reports whether the session may read or act on the case.
func (s *CaseService) CanAccess(sess *Session, c models.PatientCase) bool {
	if !sess.Active() {
		return false
	}
	if sess.Role() == models.UserRoleDoctor {
		return c.DoctorID == sess.User.ID
	}
	return true
}

type CaseInput struct {
	PatientName    string
	AccidentDate   string
	InjuryType     string
	Priority       models.CasePriority
	ClaimAmount    float64
	DoctorID       string
	SubmissionDate string
}

func (s *CaseService) Create(ctx context.Context, sess *Session, input CaseInput) (models.PatientCase, error) {
	if !sess.Active() {
		return models.PatientCase{}, ErrNoSession
	}
	input.PatientName = strings.TrimSpace(input.PatientName)
	if input.PatientName == "" {
		return models.PatientCase{}, fmt.Errorf("%w: patient name required", ErrInvalidInput)
	}
	if input.Priority == "" {
		input.Priority = models.CasePriorityMedium
	}
	if !validPriority(input.Priority) {
		return models.PatientCase{}, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, input.Priority)
	}
	if input.DoctorID != "" {
		if _, err := s.activeDoctor(input.DoctorID); err != nil {
			return models.PatientCase{}, err
		}
	}

	now := s.stamp()
	c := models.PatientCase{
		ID:               "CASE-" + ids.New(),
		PatientName:      input.PatientName,
		AccidentDate:     input.AccidentDate,
		SubmissionDate:   input.SubmissionDate,
		Status:           models.CaseStatusPendingEvaluation,
		Priority:         input.Priority,
		InjuryType:       input.InjuryType,
		ClaimAmount:      input.ClaimAmount,
		EvaluationStatus: models.EvaluationPending,
		LastUpdated:      now,
		CreatedBy:        sess.User.ID,
	}
	if c.SubmissionDate == "" {
		c.SubmissionDate = now.Format("2006-01-02")
	}
	c.Unassign()
	if sess.Role() != models.UserRoleDoctor {
		c.AdminID = sess.User.ID
		c.AdminAssigned = sess.User.Name
	}

	c, err := s.store.AddCaseFunc(ctx, c, func(l store.Locked, c *models.PatientCase) error {
		if input.DoctorID == "" {
			return nil
		}
		return assignLocked(l, c, input.DoctorID)
	})
	if err = s.written(err, "case not persisted"); err != nil {
		return models.PatientCase{}, err
	}
	s.audit.Record(ctx, sess, AuditEntry{
		Action:   models.ActionCreateCase,
		CaseID:   c.ID,
		CaseName: c.PatientName,
		Details:  fmt.Sprintf("Created case for %s", c.PatientName),
	})
	return c, nil
}

// Update replaces the editable fields of a case. The identifier, the creator
// and the derived document count are kept from the stored case.
func (s *CaseService) Update(ctx context.Context, sess *Session, c models.PatientCase) (models.PatientCase, error) {
	if !sess.Active() {
		return models.PatientCase{}, ErrNoSession
	}
	if c.Priority != "" && !validPriority(c.Priority) {
		return models.PatientCase{}, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, c.Priority)
	}
	if c.Status != "" && !validStatus(c.Status) {
		return models.PatientCase{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, c.Status)
	}

	edit := c
	now := s.stamp()
	updated, err := s.store.ModifyCase(ctx, c.ID, func(l store.Locked, c *models.PatientCase) error {
		doctorID, assigned := c.DoctorID, c.DoctorAssigned
		createdBy := c.CreatedBy
		status, priority := c.Status, c.Priority

		*c = edit
		c.CreatedBy = createdBy
		if c.Status == "" {
			c.Status = status
		}
		if c.Priority == "" {
			c.Priority = priority
		}
		c.LastUpdated = now

		switch {
		case edit.DoctorID == "":
			c.Unassign()
		case edit.DoctorID != doctorID:
			return assignLocked(l, c, edit.DoctorID)
		default:
			c.DoctorAssigned = assigned
		}
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return models.PatientCase{}, ErrCaseNotFound
	}
	if err = s.written(err, "case update not persisted"); err != nil {
		return models.PatientCase{}, err
	}

	s.audit.Record(ctx, sess, AuditEntry{
		Action:   models.ActionUpdateCase,
		CaseID:   updated.ID,
		CaseName: updated.PatientName,
		Details:  fmt.Sprintf("Updated case %s", updated.ID),
	})
	return updated, nil
}

// Delete drops the case with its documents and messages. Stored document
// blobs are removed best effort.
func (s *CaseService) Delete(ctx context.Context, sess *Session, id string) error {
	if !sess.Active() {
		return ErrNoSession
	}
	existing, ok := s.store.CaseByID(id)
	if !ok {
		return ErrCaseNotFound
	}
	docs := s.store.DocumentsByCase(id)

	s.persisted(s.store.DeleteCase(ctx, id), "case delete not persisted")
	for _, doc := range docs {
		removeBlob(ctx, s.blobs, s.log, doc)
	}

	s.audit.Record(ctx, sess, AuditEntry{
		Action:   models.ActionDeleteCase,
		CaseID:   existing.ID,
		CaseName: existing.PatientName,
		Details:  fmt.Sprintf("Deleted case %s with %d document(s)", existing.ID, len(docs)),
	})
	return nil
}

// AssignToDoctor points a case at an active doctor. A missing case or a
// missing, non-doctor or inactive user aborts without touching the case. The
// doctor is checked again under the store lock so a concurrent deactivation
// cannot be overtaken.
func (s *CaseService) AssignToDoctor(ctx context.Context, sess *Session, caseID, doctorID string) (models.PatientCase, error) {
	if _, err := s.activeDoctor(doctorID); err != nil {
		s.log.Error().Str("doctor_id", doctorID).Str("case_id", caseID).Msg("assign aborted: doctor not found or inactive")
		return models.PatientCase{}, err
	}

	now := s.stamp()
	c, err := s.store.ModifyCase(ctx, caseID, func(l store.Locked, c *models.PatientCase) error {
		if err := assignLocked(l, c, doctorID); err != nil {
			return err
		}
		c.LastUpdated = now
		return nil
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.log.Error().Str("case_id", caseID).Msg("assign aborted: case not found")
		return models.PatientCase{}, ErrCaseNotFound
	case errors.Is(err, ErrDoctorNotFound):
		s.log.Error().Str("doctor_id", doctorID).Str("case_id", caseID).Msg("assign aborted: doctor not found or inactive")
		return models.PatientCase{}, err
	}
	if err = s.written(err, "case assignment not persisted"); err != nil {
		return models.PatientCase{}, err
	}

	s.audit.Record(ctx, sess, AuditEntry{
		Action:   models.ActionAssignCase,
		CaseID:   c.ID,
		CaseName: c.PatientName,
		Details:  fmt.Sprintf("Assigned case %s to %s", c.ID, c.DoctorAssigned),
	})
	return c, nil
}

func (s *CaseService) activeDoctor(id string) (models.User, error) {
	doctor, ok := s.store.UserByID(id)
	if !ok || !assignable(doctor) {
		return models.User{}, ErrDoctorNotFound
	}
	return doctor, nil
}

func assignable(u models.User) bool {
	return u.Role == models.UserRoleDoctor && u.IsActive
}

// assignLocked points c at the doctor as currently stored.
func assignLocked(l store.Locked, c *models.PatientCase, doctorID string) error {
	doctor, ok := l.UserByID(doctorID)
	if !ok || !assignable(doctor) {
		return ErrDoctorNotFound
	}
	c.DoctorID = doctor.ID
	c.DoctorAssigned = doctor.Name
	return nil
}

// Open records that the session opened the case.
func (s *CaseService) Open(ctx context.Context, sess *Session, id string) (models.PatientCase, error) {
	c, ok := s.store.CaseByID(id)
	if !ok {
		return models.PatientCase{}, ErrCaseNotFound
	}
	s.audit.Record(ctx, sess, AuditEntry{
		Action:   models.ActionOpenCase,
		CaseID:   c.ID,
		CaseName: c.PatientName,
		Details:  fmt.Sprintf("Opened case %s", c.ID),
	})
	return c, nil
}

// SaveEvaluation stores a draft evaluation; the case moves under review.
func (s *CaseService) SaveEvaluation(ctx context.Context, sess *Session, id, notes string) (models.PatientCase, error) {
	return s.evaluate(ctx, sess, id, notes, false)
}

// SubmitEvaluation finalizes the evaluation and completes the case.
func (s *CaseService) SubmitEvaluation(ctx context.Context, sess *Session, id, notes string) (models.PatientCase, error) {
	return s.evaluate(ctx, sess, id, notes, true)
}

func (s *CaseService) evaluate(ctx context.Context, sess *Session, id, notes string, submit bool) (models.PatientCase, error) {
	if !sess.Active() {
		return models.PatientCase{}, ErrNoSession
	}

	action := models.ActionSaveEvaluation
	verb := "Saved"
	if submit {
		action = models.ActionSubmitEvaluation
		verb = "Submitted"
	}
	now := s.stamp()
	c, err := s.store.ModifyCase(ctx, id, func(_ store.Locked, c *models.PatientCase) error {
		if submit {
			c.EvaluationStatus = models.EvaluationSubmitted
			c.Status = models.CaseStatusCompleted
		} else {
			c.EvaluationStatus = models.EvaluationDraft
			if c.Status == models.CaseStatusPendingEvaluation {
				c.Status = models.CaseStatusUnderReview
			}
		}
		c.LastUpdated = now
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return models.PatientCase{}, ErrCaseNotFound
	}
	if err = s.written(err, "evaluation not persisted"); err != nil {
		return models.PatientCase{}, err
	}

	details := fmt.Sprintf("%s evaluation for case %s", verb, c.ID)
	if notes = strings.TrimSpace(notes); notes != "" {
		details += ": " + notes
	}
	s.audit.Record(ctx, sess, AuditEntry{
		Action:   action,
		CaseID:   c.ID,
		CaseName: c.PatientName,
		Details:  details,
	})
	return c, nil
}

type Dashboard struct {
	Role        models.UserRole             `json:"role"`
	TotalCases  int                         `json:"totalCases"`
	ByStatus    map[models.CaseStatus]int   `json:"byStatus"`
	ByPriority  map[models.CasePriority]int `json:"byPriority"`
	Unassigned  int                         `json:"unassigned"`
	UnreadChats int                         `json:"unreadChats"`
	ClaimTotal  float64                     `json:"claimTotal"`
}

// ViewDashboard summarizes the cases visible to the session and records the visit.
func (s *CaseService) ViewDashboard(ctx context.Context, sess *Session, unread int) Dashboard {
	cases := s.ListFor(sess)
	d := Dashboard{
		Role:        sess.Role(),
		TotalCases:  len(cases),
		ByStatus:    make(map[models.CaseStatus]int),
		ByPriority:  make(map[models.CasePriority]int),
		UnreadChats: unread,
	}
	for _, c := range cases {
		d.ByStatus[c.Status]++
		d.ByPriority[c.Priority]++
		d.ClaimTotal += c.ClaimAmount
		if c.DoctorID == "" {
			d.Unassigned++
		}
	}

	s.audit.Record(ctx, sess, AuditEntry{
		Action:  models.ActionViewDashboard,
		Details: fmt.Sprintf("Viewed %s dashboard", sess.Role()),
	})
	return d
}

func validPriority(p models.CasePriority) bool {
	switch p {
	case models.CasePriorityLow, models.CasePriorityMedium, models.CasePriorityHigh:
		return true
	}
	return false
}

func validStatus(st models.CaseStatus) bool {
	switch st {
	case models.CaseStatusPendingEvaluation, models.CaseStatusUnderReview, models.CaseStatusCompleted, models.CaseStatusRejected:
		return true
	}
	return false
}
