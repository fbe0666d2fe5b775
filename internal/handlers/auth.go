package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/middleware"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/security"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/service"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	AccessToken string       `json:"accessToken"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	SessionID   string       `json:"sessionId"`
	User        userResponse `json:"user"`
}

type userResponse struct {
	ID             string          `json:"id"`
	Email          string          `json:"email"`
	Name           string          `json:"name"`
	Role           models.UserRole `json:"role"`
	CreatedAt      time.Time       `json:"createdAt"`
	LastLogin      *time.Time      `json:"lastLogin,omitempty"`
	IsActive       bool            `json:"isActive"`
	Specialization string          `json:"specialization,omitempty"`
	LicenseNumber  string          `json:"licenseNumber,omitempty"`
}

func newUserResponse(u models.User) userResponse {
	return userResponse{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		Role:           u.Role,
		CreatedAt:      u.CreatedAt,
		LastLogin:      u.LastLogin,
		IsActive:       u.IsActive,
		Specialization: u.Specialization,
		LicenseNumber:  u.LicenseNumber,
	}
}

func newUserResponses(users []models.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResponse(u))
	}
	return out
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sess, err := h.svc.Auth.Login(c.Request.Context(), service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.mirror.User(sess.User)

	ttl := h.cfg.Security.JWTAccessTTL
	token, err := security.GenerateAccessToken(h.cfg.Security.JWTAccessSecret, sess.User.ID, sess.ID, string(sess.Role()), sess.StartedAt, ttl)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse{
		AccessToken: token,
		ExpiresAt:   sess.StartedAt.Add(ttl),
		SessionID:   sess.ID,
		User:        newUserResponse(sess.User),
	})
}

func (h HandlerSet) Logout(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	claims := middleware.CurrentClaims(c)

	if h.revoker != nil && claims != nil {
		if err := h.revoker.Revoke(c.Request.Context(), sess.ID, claims.Remaining(time.Now())); err != nil {
			h.log.Warn().Err(err).Str("session_id", sess.ID).Msg("session revoke failed")
		}
	}
	if err := h.svc.Auth.Logout(c.Request.Context(), sess); err != nil {
		h.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) Me(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	c.JSON(http.StatusOK, gin.H{
		"user":      newUserResponse(sess.User),
		"sessionId": sess.ID,
	})
}
