package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/ai"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/cache"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/config"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/middleware"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/realtime"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/repository"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/service"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/store"
)

// SessionRevoker blacklists logged-out sessions until their tokens expire.
type SessionRevoker interface {
	middleware.RevocationChecker
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
}

// HealthCheck pings one backing service.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Config   *config.AppConfig
	Log      zerolog.Logger
	Services *service.Services
	Store    *store.Store
	AI       *ai.Client
	Mirror   *repository.Mirror
	Revoker  SessionRevoker
	Hub      *realtime.Hub
	Checks   map[string]HealthCheck
}

type HandlerSet struct {
	log     zerolog.Logger
	cfg     *config.AppConfig
	svc     *service.Services
	store   *store.Store
	ai      *ai.Client
	mirror  *repository.Mirror
	revoker SessionRevoker
	hub     *realtime.Hub
	checks  map[string]HealthCheck
}

// NewHandlerSet wires the handlers. Without a shared revoker logged-out
// sessions are remembered in process memory.
func NewHandlerSet(deps Deps) HandlerSet {
	if deps.Revoker == nil {
		deps.Revoker = cache.NewLocalRevoker(nil)
	}
	return HandlerSet{
		log:     deps.Log.With().Str("component", "http").Logger(),
		cfg:     deps.Config,
		svc:     deps.Services,
		store:   deps.Store,
		ai:      deps.AI,
		mirror:  deps.Mirror,
		revoker: deps.Revoker,
		hub:     deps.Hub,
		checks:  deps.Checks,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	v1.POST("/auth/login", h.Login)

	authed := v1.Group("")
	authed.Use(middleware.Auth(h.cfg.Security.JWTAccessSecret, h.svc.Auth, h.revoker, h.log))

	staff := middleware.RequireRoles(models.UserRoleAdmin, models.UserRoleSystemAdmin)
	sysadmin := middleware.RequireRoles(models.UserRoleSystemAdmin)
	doctor := middleware.RequireRoles(models.UserRoleDoctor)

	authed.POST("/auth/logout", h.Logout)
	authed.GET("/auth/me", h.Me)

	authed.GET("/users", staff, h.ListUsers)
	authed.POST("/users", staff, h.CreateUser)
	authed.POST("/users/:id/deactivate", staff, h.DeactivateUser)
	authed.GET("/doctors", staff, h.ListDoctors)

	cases := authed.Group("/cases")
	cases.GET("", h.ListCases)
	cases.POST("", staff, h.CreateCase)
	cases.GET("/:id", h.GetCase)
	cases.PUT("/:id", staff, h.UpdateCase)
	cases.DELETE("/:id", staff, h.DeleteCase)
	cases.POST("/:id/assign", staff, h.AssignCase)
	cases.POST("/:id/open", h.OpenCase)
	cases.PUT("/:id/evaluation", doctor, h.SaveEvaluation)
	cases.GET("/:id/documents", h.ListDocuments)
	cases.POST("/:id/documents", h.UploadDocuments)
	cases.GET("/:id/messages", h.ListMessages)
	cases.POST("/:id/messages", h.SendMessage)
	cases.GET("/:id/activity", staff, h.CaseActivity)

	authed.GET("/documents/:id", h.GetDocument)
	authed.DELETE("/documents/:id", h.DeleteDocument)

	authed.GET("/messages/unread", h.UnreadMessages)
	authed.POST("/messages/:id/read", h.MarkMessageRead)

	authed.GET("/activity", staff, h.ListActivity)
	authed.GET("/activity/stream", staff, h.StreamActivity)
	authed.GET("/dashboard", h.Dashboard)

	rules := authed.Group("/ai-rules", sysadmin)
	rules.GET("", h.ListRules)
	rules.POST("", h.CreateRule)
	rules.PUT("/:id", h.UpdateRule)
	rules.DELETE("/:id", h.DeleteRule)

	assist := authed.Group("/ai")
	assist.POST("/analyze", h.Analyze)
	assist.POST("/suggestions", h.Suggestions)
	assist.POST("/chat", h.Chat)

	data := authed.Group("/data")
	data.GET("/export", sysadmin, h.Export)
	data.POST("/import", sysadmin, h.Import)
	data.GET("/stats", staff, h.Stats)
	data.POST("/flush", staff, h.Flush)
}

// fail maps service errors onto HTTP statuses. Unknown errors are logged and
// reported as a bare 500.
func (h HandlerSet) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var upstream *ai.StatusError

	switch {
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrNoSession):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, ai.ErrEmptyHistory):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUnsupportedType):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, service.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, service.ErrDoctorNotFound):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrCaseNotFound),
		errors.Is(err, service.ErrDocumentNotFound),
		errors.Is(err, service.ErrMessageNotFound),
		errors.Is(err, service.ErrRuleNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ai.ErrNotConfigured), errors.Is(err, store.ErrPersist):
		status = http.StatusServiceUnavailable
	case errors.As(err, &upstream), errors.Is(err, ai.ErrEmptyReply):
		status = http.StatusBadGateway
	}

	if status >= 500 {
		_ = c.Error(err)
		h.log.Error().Err(err).Str("path", c.FullPath()).Str("request_id", middleware.RequestIDFrom(c)).Msg("request failed")
		if status == http.StatusInternalServerError {
			c.JSON(status, gin.H{"error": "internal_server_error"})
			return
		}
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// visibleCase loads a case the caller may access. Cases hidden from a doctor
// answer 404 like missing ones.
func (h HandlerSet) visibleCase(c *gin.Context, id string) (models.PatientCase, bool) {
	sess := middleware.CurrentSession(c)
	pc, err := h.svc.Cases.Get(id)
	if err == nil && !h.svc.Cases.CanAccess(sess, pc) {
		err = service.ErrCaseNotFound
	}
	if err != nil {
		h.fail(c, err)
		return models.PatientCase{}, false
	}
	return pc, true
}

// mirrorCase replays the stored state of a case into the relational mirror.
func (h HandlerSet) mirrorCase(id string) {
	if h.mirror == nil {
		return
	}
	if pc, ok := h.store.CaseByID(id); ok {
		h.mirror.Case(pc)
	}
}
