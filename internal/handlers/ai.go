package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/ai"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
)

type analyzeRequest struct {
	DocumentID      string `json:"documentId"`
	DocumentContent string `json:"documentContent"`
	DocumentType    string `json:"documentType"`
	CaseID          string `json:"caseId" binding:"required"`
}

func caseContext(pc models.PatientCase) string {
	return fmt.Sprintf("Case %s: patient %s, injury %s, accident date %s, claim amount %.2f, status %s",
		pc.ID, pc.PatientName, pc.InjuryType, pc.AccidentDate, pc.ClaimAmount, pc.Status)
}

// Analyze runs the active AI rules over one document. The document is given
// either by id or inline.
func (h HandlerSet) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pc, ok := h.visibleCase(c, req.CaseID)
	if !ok {
		return
	}

	content, docType := req.DocumentContent, req.DocumentType
	if req.DocumentID != "" {
		doc, err := h.svc.Documents.Get(req.DocumentID)
		if err != nil || doc.CaseID != pc.ID {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
			return
		}
		content, docType = doc.Content, doc.Type
	}
	if strings.TrimSpace(content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document has no text content"})
		return
	}

	rules := make([]string, 0)
	for _, r := range h.svc.Rules.Active() {
		rules = append(rules, r.Rule)
	}

	resp, err := h.ai.Analyze(c.Request.Context(), ai.AnalysisRequest{
		DocumentContent: content,
		DocumentType:    docType,
		CaseContext:     caseContext(pc),
		Rules:           rules,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"analysis": resp.Analysis,
		"sections": ai.ParseSections(resp.Analysis),
	})
}

type suggestionsRequest struct {
	CaseID   string         `json:"caseId" binding:"required"`
	FormData map[string]any `json:"formData"`
}

func (h HandlerSet) Suggestions(c *gin.Context) {
	var req suggestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pc, ok := h.visibleCase(c, req.CaseID)
	if !ok {
		return
	}

	docs := h.svc.Documents.ForCase(pc.ID)
	refs := make([]ai.SuggestionDocument, 0, len(docs))
	for _, d := range docs {
		refs = append(refs, ai.SuggestionDocument{ID: d.ID, Name: d.Name, Type: d.Type, Content: d.Content})
	}

	suggestions, err := h.ai.SuggestFields(c.Request.Context(), ai.SuggestionRequest{
		CaseID:    pc.ID,
		Documents: refs,
		FormData:  req.FormData,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": suggestions})
}

type chatRequest struct {
	CaseID  string        `json:"caseId" binding:"required"`
	History []ai.ChatTurn `json:"history" binding:"required,min=1"`
}

func (h HandlerSet) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pc, ok := h.visibleCase(c, req.CaseID)
	if !ok {
		return
	}

	resp, err := h.ai.Chat(c.Request.Context(), ai.ChatRequest{CaseID: pc.ID, History: req.History})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
