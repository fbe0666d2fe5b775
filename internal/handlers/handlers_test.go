package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/ai"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/config"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/security"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/service"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/storage"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memoryRevoker struct {
	revoked map[string]time.Duration
}

func (r *memoryRevoker) Revoke(_ context.Context, sid string, ttl time.Duration) error {
	r.revoked[sid] = ttl
	return nil
}

func (r *memoryRevoker) Revoked(_ context.Context, sid string) (bool, error) {
	_, ok := r.revoked[sid]
	return ok, nil
}

type testAPI struct {
	router  *gin.Engine
	store   *store.Store
	revoker *memoryRevoker
}

func newTestAPI(t *testing.T, aiURL string) testAPI {
	t.Helper()
	revoker := &memoryRevoker{revoked: make(map[string]time.Duration)}
	api := buildTestAPI(t, aiURL, revoker)
	api.revoker = revoker
	return api
}

// buildTestAPI wires the handlers; a nil revoker leaves the default in place.
func buildTestAPI(t *testing.T, aiURL string, revoker SessionRevoker) testAPI {
	t.Helper()
	cfg := &config.AppConfig{
		Environment: "test",
		Security: config.SecurityConfig{
			JWTAccessSecret: "test-secret",
			JWTAccessTTL:    time.Hour,
			SnapshotSecret:  "snapshot-secret",
		},
	}
	st := store.New(context.Background(), storage.NewMemorySlot("primary", 0), storage.NewMemorySlot("backup", 0), zerolog.Nop())
	svc := service.New(service.Deps{Store: st, Log: zerolog.Nop()})

	h := NewHandlerSet(Deps{
		Config:   cfg,
		Log:      zerolog.Nop(),
		Services: svc,
		Store:    st,
		AI:       ai.NewClient(config.AIConfig{BaseURL: aiURL, Timeout: time.Second}),
		Revoker:  revoker,
		Checks: map[string]HealthCheck{
			"storage": func(context.Context) error { return nil },
		},
	})

	router := gin.New()
	h.Register(router.Group("/api"))
	return testAPI{router: router, store: st}
}

func (a testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(v)
	default:
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a testAPI) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp authResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestLoginAndMe(t *testing.T) {
	api := newTestAPI(t, "")

	rec := api.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "admin@insurance.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := api.login(t, "admin@insurance.com", "admin123")
	rec = api.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"admin@insurance.com"`)
	assert.NotContains(t, rec.Body.String(), "admin123")
}

func TestLogoutRevokesToken(t *testing.T) {
	api := newTestAPI(t, "")
	token := api.login(t, "doctor@healthcare.com", "doctor123")

	rec := api.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, api.revoker.revoked, 1)

	rec = api.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutEndsSessionWithoutSharedRevoker(t *testing.T) {
	api := buildTestAPI(t, "", nil)
	token := api.login(t, "admin@insurance.com", "admin123")

	rec := api.do(t, http.MethodGet, "/api/v1/users", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/users", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other := api.login(t, "admin@insurance.com", "admin123")
	rec = api.do(t, http.MethodGet, "/api/v1/users", other, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDoctorSeesOnlyAssignedCases(t *testing.T) {
	api := newTestAPI(t, "")
	token := api.login(t, "doctor@healthcare.com", "doctor123")

	rec := api.do(t, http.MethodGet, "/api/v1/cases", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Items []models.PatientCase `json:"items"`
	}](t, rec)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "CASE002", list.Items[0].ID)

	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/api/v1/cases/CASE001", token, nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/api/v1/users", token, nil).Code)
}

func TestAssignCase(t *testing.T) {
	api := newTestAPI(t, "")
	token := api.login(t, "admin@insurance.com", "admin123")

	rec := api.do(t, http.MethodPost, "/api/v1/cases/CASE001/assign", token, gin.H{"doctorId": "1"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/cases/CASE001/assign", token, gin.H{"doctorId": "3"})
	require.Equal(t, http.StatusOK, rec.Code)
	pc := decode[models.PatientCase](t, rec)
	assert.Equal(t, "Dr. Sarah Johnson", pc.DoctorAssigned)

	rec = api.do(t, http.MethodGet, "/api/v1/cases/CASE001/activity", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), string(models.ActionAssignCase))
}

func TestCaseCRUD(t *testing.T) {
	api := newTestAPI(t, "")
	token := api.login(t, "admin@insurance.com", "admin123")

	rec := api.do(t, http.MethodPost, "/api/v1/cases", token, gin.H{"patientName": "Ana Costa", "priority": "low", "claimAmount": 1200})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	pc := decode[models.PatientCase](t, rec)

	rec = api.do(t, http.MethodPut, "/api/v1/cases/"+pc.ID, token, gin.H{"patientName": "Ana Costa", "priority": "urgent"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPut, "/api/v1/cases/"+pc.ID, token, gin.H{"patientName": "Ana M. Costa", "injuryType": "Sprain"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ana M. Costa", decode[models.PatientCase](t, rec).PatientName)

	assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, "/api/v1/cases/"+pc.ID, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/api/v1/cases/"+pc.ID, token, nil).Code)
}

func TestUploadAndChat(t *testing.T) {
	api := newTestAPI(t, "")
	doctor := api.login(t, "doctor@healthcare.com", "doctor123")
	admin := api.login(t, "admin@insurance.com", "admin123")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("files", "report.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("Cervical strain, 6 weeks physiotherapy."))
	require.NoError(t, mw.WriteField("category", "medical-records"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cases/CASE002/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+doctor)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	c, _ := api.store.CaseByID("CASE002")
	assert.Equal(t, 1, c.DocumentsCount)

	rec = api.do(t, http.MethodPost, "/api/v1/cases/CASE002/messages", admin, gin.H{"message": "Thanks, reviewing", "recipientRole": "doctor"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/messages/unread", doctor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":1}`, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/api/v1/cases/CASE002/messages", doctor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	msgs := decode[struct {
		Items []models.ChatMessage `json:"items"`
	}](t, rec)
	require.Len(t, msgs.Items, 1)

	rec = api.do(t, http.MethodPost, "/api/v1/messages/"+msgs.Items[0].ID+"/read", doctor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, http.MethodGet, "/api/v1/messages/unread", doctor, nil)
	assert.JSONEq(t, `{"count":0}`, rec.Body.String())
}

func TestUnreadIgnoresCasesHiddenFromDoctor(t *testing.T) {
	api := newTestAPI(t, "")
	admin := api.login(t, "admin@insurance.com", "admin123")
	doctor := api.login(t, "doctor@healthcare.com", "doctor123")

	rec := api.do(t, http.MethodPost, "/api/v1/cases/CASE001/messages", admin, gin.H{"message": "Not yours yet", "recipientRole": "doctor"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/messages/unread", doctor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":0}`, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/api/v1/messages/unread?caseId=CASE001", doctor, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/dashboard", doctor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decode[service.Dashboard](t, rec)
	assert.Equal(t, 0, dash.UnreadChats)

	rec = api.do(t, http.MethodGet, "/api/v1/messages/unread", admin, nil)
	assert.JSONEq(t, `{"count":0}`, rec.Body.String())
}

func TestExportImport(t *testing.T) {
	api := newTestAPI(t, "")
	admin := api.login(t, "admin@insurance.com", "admin123")
	sys := api.login(t, "sysadmin@insurance.com", "sysadmin123")

	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/api/v1/data/export", admin, nil).Code)

	rec := api.do(t, http.MethodGet, "/api/v1/data/export", sys, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "claims-platform-backup-")
	body := rec.Body.Bytes()
	signature := rec.Header().Get(security.HeaderSnapshotSignature)
	require.NotEmpty(t, signature)
	assert.Equal(t, security.ComputeBodyHash(body), rec.Header().Get(security.HeaderSnapshotDigest))

	rec = api.do(t, http.MethodPost, "/api/v1/data/import", sys, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_signature")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/data/import", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+sys)
	req.Header.Set(security.HeaderSnapshotSignature, signature)
	rec = httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	bad := []byte(`{"users": "nope"}`)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/data/import", bytes.NewReader(bad))
	req.Header.Set("Authorization", "Bearer "+sys)
	req.Header.Set(security.HeaderSnapshotSignature, security.SignSnapshot("snapshot-secret", bad))
	rec = httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_snapshot")
}

func TestStatsFlushAndHealth(t *testing.T) {
	api := newTestAPI(t, "")
	admin := api.login(t, "admin@insurance.com", "admin123")

	rec := api.do(t, http.MethodPost, "/api/v1/data/flush", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[store.DataStats](t, rec)
	assert.Equal(t, 3, stats.Users)
	assert.Equal(t, models.SchemaVersion, stats.Version)

	rec = api.do(t, http.MethodGet, "/api/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestAIRoutes(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/analyze":
			var req ai.AnalysisRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			assert.Equal(t, []string{"Always grade whiplash"}, req.Rules)
			_, _ = w.Write([]byte(`{"analysis":"## Summary\nSoft tissue injury.\n## Recommendations\nIME"}`))
		case "/chat":
			_, _ = w.Write([]byte(`{"reply":"Noted on page 1.","references":[]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer backend.Close()

	api := newTestAPI(t, backend.URL)
	sys := api.login(t, "sysadmin@insurance.com", "sysadmin123")

	rec := api.do(t, http.MethodPost, "/api/v1/ai-rules", sys, gin.H{"name": "Whiplash", "rule": "Always grade whiplash", "isActive": true})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/ai/analyze", sys, gin.H{"caseId": "CASE001", "documentContent": "MRI normal"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[struct {
		Sections []ai.Section `json:"sections"`
	}](t, rec)
	require.Len(t, resp.Sections, 2)
	assert.Equal(t, "Recommendations", resp.Sections[1].Title)

	rec = api.do(t, http.MethodPost, "/api/v1/ai/chat", sys, gin.H{"caseId": "CASE001", "history": []gin.H{{"role": "user", "content": "Where?"}}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/ai/suggestions", sys, gin.H{"caseId": "CASE001"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestAIWithoutBackend(t *testing.T) {
	api := newTestAPI(t, "")
	sys := api.login(t, "sysadmin@insurance.com", "sysadmin123")

	rec := api.do(t, http.MethodPost, "/api/v1/ai/analyze", sys, gin.H{"caseId": "CASE001", "documentContent": "x"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestFailMapsEmptyChatHistoryToBadRequest(t *testing.T) {
	h := NewHandlerSet(Deps{Config: &config.AppConfig{}, Log: zerolog.Nop()})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/ai/chat", nil)
	h.fail(c, ai.ErrEmptyHistory)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
