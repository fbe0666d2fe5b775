package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/middleware"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/service"
)

func (h HandlerSet) ListCases(c *gin.Context) {
	cases := h.svc.Cases.ListFor(middleware.CurrentSession(c))

	if status := models.CaseStatus(c.Query("status")); status != "" {
		filtered := make([]models.PatientCase, 0, len(cases))
		for _, pc := range cases {
			if pc.Status == status {
				filtered = append(filtered, pc)
			}
		}
		cases = filtered
	}

	c.JSON(http.StatusOK, gin.H{"items": cases})
}

func (h HandlerSet) GetCase(c *gin.Context) {
	pc, ok := h.visibleCase(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, pc)
}

type caseRequest struct {
	PatientName    string              `json:"patientName" binding:"required"`
	AccidentDate   string              `json:"accidentDate"`
	SubmissionDate string              `json:"submissionDate"`
	InjuryType     string              `json:"injuryType"`
	Priority       models.CasePriority `json:"priority"`
	Status         models.CaseStatus   `json:"status"`
	ClaimAmount    float64             `json:"claimAmount" binding:"gte=0"`
	DoctorID       string              `json:"doctorId"`
}

func (h HandlerSet) CreateCase(c *gin.Context) {
	var req caseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	pc, err := h.svc.Cases.Create(c.Request.Context(), middleware.CurrentSession(c), service.CaseInput{
		PatientName:    req.PatientName,
		AccidentDate:   req.AccidentDate,
		SubmissionDate: req.SubmissionDate,
		InjuryType:     req.InjuryType,
		Priority:       req.Priority,
		ClaimAmount:    req.ClaimAmount,
		DoctorID:       req.DoctorID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.mirror.Case(pc)

	c.JSON(http.StatusCreated, pc)
}

func (h HandlerSet) UpdateCase(c *gin.Context) {
	var req caseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	existing, ok := h.visibleCase(c, c.Param("id"))
	if !ok {
		return
	}

	existing.PatientName = req.PatientName
	existing.AccidentDate = req.AccidentDate
	existing.InjuryType = req.InjuryType
	existing.Priority = req.Priority
	existing.Status = req.Status
	existing.ClaimAmount = req.ClaimAmount
	existing.DoctorID = req.DoctorID
	if req.SubmissionDate != "" {
		existing.SubmissionDate = req.SubmissionDate
	}

	pc, err := h.svc.Cases.Update(c.Request.Context(), middleware.CurrentSession(c), existing)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.mirror.Case(pc)

	c.JSON(http.StatusOK, pc)
}

func (h HandlerSet) DeleteCase(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.Cases.Delete(c.Request.Context(), middleware.CurrentSession(c), id); err != nil {
		h.fail(c, err)
		return
	}
	h.mirror.CaseDeleted(id)

	c.Status(http.StatusNoContent)
}

type assignRequest struct {
	DoctorID string `json:"doctorId" binding:"required"`
}

func (h HandlerSet) AssignCase(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	pc, err := h.svc.Cases.AssignToDoctor(c.Request.Context(), middleware.CurrentSession(c), c.Param("id"), req.DoctorID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.mirror.Case(pc)

	c.JSON(http.StatusOK, pc)
}

func (h HandlerSet) OpenCase(c *gin.Context) {
	pc, ok := h.visibleCase(c, c.Param("id"))
	if !ok {
		return
	}
	pc, err := h.svc.Cases.Open(c.Request.Context(), middleware.CurrentSession(c), pc.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pc)
}

type evaluationRequest struct {
	Notes  string `json:"notes"`
	Submit bool   `json:"submit"`
}

func (h HandlerSet) SaveEvaluation(c *gin.Context) {
	var req evaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pc, ok := h.visibleCase(c, c.Param("id"))
	if !ok {
		return
	}

	sess := middleware.CurrentSession(c)
	var err error
	if req.Submit {
		pc, err = h.svc.Cases.SubmitEvaluation(c.Request.Context(), sess, pc.ID, req.Notes)
	} else {
		pc, err = h.svc.Cases.SaveEvaluation(c.Request.Context(), sess, pc.ID, req.Notes)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	h.mirror.Case(pc)

	c.JSON(http.StatusOK, pc)
}

func (h HandlerSet) Dashboard(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	unread := h.svc.Chat.UnreadAcross(sess.User, h.svc.Cases.ListFor(sess))
	c.JSON(http.StatusOK, h.svc.Cases.ViewDashboard(c.Request.Context(), sess, unread))
}
