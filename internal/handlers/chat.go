package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/middleware"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/service"
)

// ListMessages shows the caller the messages their role may see. System
// admins may pass ?role= to view the thread as another role, or ?role=all.
func (h HandlerSet) ListMessages(c *gin.Context) {
	pc, ok := h.visibleCase(c, c.Param("id"))
	if !ok {
		return
	}

	sess := middleware.CurrentSession(c)
	viewer := sess.Role()
	if sess.Role() == models.UserRoleSystemAdmin {
		switch role := c.Query("role"); role {
		case "":
		case "all":
			viewer = ""
		default:
			viewer = models.UserRole(role)
		}
	}

	c.JSON(http.StatusOK, gin.H{"items": h.svc.Chat.Messages(pc.ID, viewer)})
}

type sendMessageRequest struct {
	Message       string          `json:"message" binding:"required"`
	RecipientRole models.UserRole `json:"recipientRole"`
}

func (h HandlerSet) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pc, ok := h.visibleCase(c, c.Param("id"))
	if !ok {
		return
	}

	msg, err := h.svc.Chat.Send(c.Request.Context(), middleware.CurrentSession(c), service.MessageInput{
		CaseID:        pc.ID,
		Message:       req.Message,
		RecipientRole: req.RecipientRole,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

func (h HandlerSet) UnreadMessages(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	caseID := c.Query("caseId")
	if caseID == "" {
		c.JSON(http.StatusOK, gin.H{"count": h.svc.Chat.UnreadAcross(sess.User, h.svc.Cases.ListFor(sess))})
		return
	}
	if _, ok := h.visibleCase(c, caseID); !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": h.svc.Chat.UnreadCount(sess.User, caseID)})
}

func (h HandlerSet) MarkMessageRead(c *gin.Context) {
	existing, found := h.store.ChatMessageByID(c.Param("id"))
	if !found {
		h.fail(c, service.ErrMessageNotFound)
		return
	}
	if _, ok := h.visibleCase(c, existing.CaseID); !ok {
		return
	}

	msg, err := h.svc.Chat.MarkRead(c.Request.Context(), existing.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}
