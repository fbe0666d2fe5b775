package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/middleware"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/service"
)

type ruleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Rule        string `json:"rule" binding:"required"`
	IsActive    bool   `json:"isActive"`
}

func (r ruleRequest) input() service.RuleInput {
	return service.RuleInput{
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Rule:        r.Rule,
		IsActive:    r.IsActive,
	}
}

func (h HandlerSet) ListRules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.svc.Rules.List()})
}

func (h HandlerSet) CreateRule(c *gin.Context) {
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rule, err := h.svc.Rules.Create(c.Request.Context(), middleware.CurrentSession(c), req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

func (h HandlerSet) UpdateRule(c *gin.Context) {
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rule, err := h.svc.Rules.Update(c.Request.Context(), middleware.CurrentSession(c), c.Param("id"), req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h HandlerSet) DeleteRule(c *gin.Context) {
	if err := h.svc.Rules.Delete(c.Request.Context(), middleware.CurrentSession(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
