package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/middleware"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/security"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/service"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/store"
)

const maxSnapshotBytes = 50 << 20

func (h HandlerSet) ListUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": newUserResponses(h.svc.Users.List())})
}

func (h HandlerSet) ListDoctors(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": newUserResponses(h.svc.Users.Doctors())})
}

type createUserRequest struct {
	Email          string          `json:"email" binding:"required,email"`
	Name           string          `json:"name" binding:"required"`
	Role           models.UserRole `json:"role" binding:"required"`
	Password       string          `json:"password" binding:"required"`
	Specialization string          `json:"specialization"`
	LicenseNumber  string          `json:"licenseNumber"`
}

func (h HandlerSet) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u, err := h.svc.Users.Create(c.Request.Context(), middleware.CurrentSession(c), service.UserInput{
		Email:          req.Email,
		Name:           req.Name,
		Role:           req.Role,
		Password:       req.Password,
		Specialization: req.Specialization,
		LicenseNumber:  req.LicenseNumber,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.mirror.User(u)

	c.JSON(http.StatusCreated, newUserResponse(u))
}

func (h HandlerSet) DeactivateUser(c *gin.Context) {
	id := c.Param("id")
	affected := h.store.CasesForDoctor(id)

	u, err := h.svc.Users.Deactivate(c.Request.Context(), middleware.CurrentSession(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.mirror.User(u)
	if u.Role == models.UserRoleDoctor {
		for _, pc := range affected {
			h.mirrorCase(pc.ID)
		}
	}

	c.JSON(http.StatusOK, newUserResponse(u))
}

func queryLimit(c *gin.Context, def, max int) int {
	v, err := strconv.Atoi(c.Query("limit"))
	if err != nil || v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}

func (h HandlerSet) ListActivity(c *gin.Context) {
	var logs []models.ActivityLog
	if userID := c.Query("userId"); userID != "" {
		logs = h.svc.Audit.ForUser(userID)
	} else {
		logs = h.svc.Audit.Recent(0)
	}
	if limit := queryLimit(c, 100, 1000); len(logs) > limit {
		logs = logs[:limit]
	}

	c.JSON(http.StatusOK, gin.H{"items": logs})
}

func (h HandlerSet) CaseActivity(c *gin.Context) {
	pc, ok := h.visibleCase(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": h.svc.Audit.ForCase(pc.ID)})
}

func (h HandlerSet) StreamActivity(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "activity stream disabled"})
		return
	}
	sess := middleware.CurrentSession(c)
	if err := h.hub.Serve(c.Writer, c.Request, sess.User.ID); err != nil {
		h.log.Warn().Err(err).Str("user_id", sess.User.ID).Msg("activity stream upgrade failed")
	}
}

// Export downloads the snapshot. With a snapshot secret configured the body
// is signed so Import can verify it came from this deployment.
func (h HandlerSet) Export(c *gin.Context) {
	text, err := h.store.Export()
	if err != nil {
		h.fail(c, err)
		return
	}
	body := []byte(text)

	c.Header("Content-Disposition", `attachment; filename="`+store.ExportFileName(time.Now())+`"`)
	c.Header(security.HeaderSnapshotDigest, security.ComputeBodyHash(body))
	if secret := h.cfg.Security.SnapshotSecret; secret != "" {
		c.Header(security.HeaderSnapshotSignature, security.SignSnapshot(secret, body))
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (h HandlerSet) Import(c *gin.Context) {
	body, err := readLimited(c, maxSnapshotBytes)
	if err != nil {
		badRequest(c, err)
		return
	}

	if secret := h.cfg.Security.SnapshotSecret; secret != "" {
		if !security.ValidSnapshotSignature(secret, body, c.GetHeader(security.HeaderSnapshotSignature)) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_signature"})
			return
		}
	}

	if !h.store.Import(c.Request.Context(), string(body)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_snapshot"})
		return
	}
	h.syncMirror()

	c.JSON(http.StatusOK, gin.H{"imported": true, "stats": h.store.Stats()})
}

func (h HandlerSet) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Stats())
}

func (h HandlerSet) Flush(c *gin.Context) {
	if err := h.store.Save(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.store.Stats())
}

func (h HandlerSet) syncMirror() {
	if h.mirror == nil {
		return
	}
	go func(data models.AppData) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := h.mirror.Sync(ctx, data); err != nil {
			h.log.Warn().Err(err).Msg("mirror sync after import failed")
		}
	}(h.store.Snapshot())
}
