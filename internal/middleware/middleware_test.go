package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/security"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/service"
)

const testSecret = "test-secret"

type fakeResumer map[string]models.User

func (f fakeResumer) Resume(sessionID, userID, ip string) (*service.Session, error) {
	u, ok := f[userID]
	if !ok || !u.IsActive {
		return nil, service.ErrInvalidCredentials
	}
	return &service.Session{ID: sessionID, User: u, IPAddress: ip}, nil
}

type fakeRevoker map[string]bool

func (f fakeRevoker) Revoked(_ context.Context, sid string) (bool, error) {
	return f[sid], nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(revoked RevocationChecker, roles ...models.UserRole) *gin.Engine {
	users := fakeResumer{
		"1": {ID: "1", Name: "Admin User", Role: models.UserRoleAdmin, IsActive: true},
		"3": {ID: "3", Name: "Dr. Sarah Johnson", Role: models.UserRoleDoctor, IsActive: true},
		"9": {ID: "9", Role: models.UserRoleDoctor, IsActive: false},
	}
	r := gin.New()
	r.Use(RequestID(), Recovery(zerolog.Nop()))
	handlers := []gin.HandlerFunc{Auth(testSecret, users, revoked, zerolog.Nop())}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRoles(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": CurrentSession(c).User.ID, "sid": CurrentClaims(c).SessionID})
	})
	r.GET("/me", handlers...)
	r.GET("/panic", func(c *gin.Context) { panic(errors.New("boom")) })
	return r
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := security.GenerateAccessToken(testSecret, userID, "sess-"+userID, role, time.Now(), time.Hour)
	require.NoError(t, err)
	return tok
}

func get(r http.Handler, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuth(t *testing.T) {
	r := newRouter(fakeRevoker{"sess-3": false})

	tests := []struct {
		name   string
		bearer string
		want   int
	}{
		{name: "missing", want: http.StatusUnauthorized},
		{name: "garbage", bearer: "abc", want: http.StatusUnauthorized},
		{name: "inactive user", bearer: token(t, "9", "doctor"), want: http.StatusUnauthorized},
		{name: "valid", bearer: token(t, "3", "doctor"), want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(r, "/me", tt.bearer)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAuthAcceptsQueryToken(t *testing.T) {
	r := newRouter(nil)
	rec := get(r, "/me?access_token="+token(t, "1", "admin"), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sid":"sess-1"`)
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	r := newRouter(fakeRevoker{"sess-3": true})
	rec := get(r, "/me", token(t, "3", "doctor"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "session_revoked")
}

func TestRequireRoles(t *testing.T) {
	r := newRouter(nil, models.UserRoleAdmin, models.UserRoleSystemAdmin)

	assert.Equal(t, http.StatusForbidden, get(r, "/me", token(t, "3", "doctor")).Code)
	assert.Equal(t, http.StatusOK, get(r, "/me", token(t, "1", "admin")).Code)
}

func TestRecoveryAndRequestID(t *testing.T) {
	r := newRouter(nil)
	rec := get(r, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestCORSEchoesAnyOrigin(t *testing.T) {
	r := gin.New()
	r.Use(CORS(nil))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://claims.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://claims.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoggerRecordsRequest(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestID(), Logger(zerolog.New(&buf)))
	r.GET("/cases/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	_ = get(r, "/cases/CASE404", "")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "/cases/:id", line["path"])
	assert.Equal(t, "CASE404", line["resource_id"])
	assert.EqualValues(t, 404, line["status"])
	assert.NotEmpty(t, line["request_id"])
}
