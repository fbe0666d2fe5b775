package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.AIConfig{BaseURL: srv.URL + "/", APIKey: "secret", Timeout: 2 * time.Second})
}

func TestAnalyze(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req AnalysisRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "MRI shows disc bulge", req.DocumentContent)
		assert.Equal(t, "CASE001", req.CaseContext)

		_ = json.NewEncoder(w).Encode(AnalysisResponse{Analysis: "## Summary\nConsistent with whiplash."})
	})

	resp, err := client.Analyze(context.Background(), AnalysisRequest{
		DocumentContent: "MRI shows disc bulge",
		DocumentType:    "text/plain",
		CaseContext:     "CASE001",
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Analysis, "whiplash")
}

func TestSuggestFieldsClampsConfidence(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/suggestions", r.URL.Path)
		_, _ = w.Write([]byte(`{"suggestions":[
			{"field":"injuryType","fieldLabel":"Injury","value":"Whiplash","confidence":1.4,"reasoning":"report"},
			{"field":"claimAmount","fieldLabel":"Claim","value":"1500","confidence":-0.2,"documentReferences":["d1"]},
			{"field":"priority","fieldLabel":"Priority","value":"high","confidence":0.65}
		]}`))
	})

	got, err := client.SuggestFields(context.Background(), SuggestionRequest{CaseID: "CASE001"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 1.0, got[0].Confidence)
	assert.Equal(t, 0.0, got[1].Confidence)
	assert.Equal(t, 0.65, got[2].Confidence)
	assert.Equal(t, []string{}, got[0].DocumentReferences)
	assert.Equal(t, []string{"d1"}, got[1].DocumentReferences)
}

func TestChatReturnsHighlights(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.History, 1)
		assert.Equal(t, "user", req.History[0].Role)

		_, _ = w.Write([]byte(`{"reply":"See page 2.","references":[
			{"documentId":"d1","page":2,"highlight":{"x":10,"y":20,"width":100,"height":12}},
			{"documentId":"d2"}
		]}`))
	})

	resp, err := client.Chat(context.Background(), ChatRequest{
		CaseID:  "CASE002",
		History: []ChatTurn{{Role: "user", Content: "Where is the fracture noted?"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "See page 2.", resp.Reply)
	require.Len(t, resp.References, 2)
	require.NotNil(t, resp.References[0].Highlight)
	assert.Equal(t, 100.0, resp.References[0].Highlight.Width)
	assert.Nil(t, resp.References[1].Highlight)

	_, err = client.Chat(context.Background(), ChatRequest{CaseID: "CASE002"})
	assert.ErrorIs(t, err, ErrEmptyHistory)
}

func TestSuggestFieldsAcceptsBareArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"field":"injuryType","fieldLabel":"Injury","value":"Fracture","confidence":0.9},
			{"field":"priority","fieldLabel":"Priority","value":"urgent","confidence":3}
		]`))
	})

	got, err := client.SuggestFields(context.Background(), SuggestionRequest{CaseID: "CASE001"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Fracture", got[0].Value)
	assert.Equal(t, 0.9, got[0].Confidence)
	assert.Equal(t, 1.0, got[1].Confidence)
}

func TestSuggestFieldsRejectsGarbage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`"no suggestions today"`))
	})

	_, err := client.SuggestFields(context.Background(), SuggestionRequest{CaseID: "CASE001"})
	assert.ErrorContains(t, err, "decode /suggestions response")
}

func TestStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	})

	_, err := client.Analyze(context.Background(), AnalysisRequest{DocumentContent: "x"})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	assert.Equal(t, "model overloaded", statusErr.Body)
}

func TestEmptyReply(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"analysis":"  "}`))
	})
	_, err := client.Analyze(context.Background(), AnalysisRequest{})
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestNotConfigured(t *testing.T) {
	client := NewClient(config.AIConfig{})
	assert.False(t, client.Enabled())
	_, err := client.Analyze(context.Background(), AnalysisRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestParseSections(t *testing.T) {
	analysis := "Initial review of submitted records.\n\n" +
		"## Key Findings\n- C5/C6 disc bulge\n- Reduced range of motion\n\n" +
		"**Treatment**\nPhysiotherapy for 8 weeks.\n\n" +
		"Recommendations: Independent medical exam.\n" +
		"Note: patient is a smoker.\n"

	sections := ParseSections(analysis)
	require.Len(t, sections, 4)

	assert.Equal(t, "Overview", sections[0].Title)
	assert.Equal(t, "Initial review of submitted records.", sections[0].Content)
	assert.Equal(t, "Key Findings", sections[1].Title)
	assert.Contains(t, sections[1].Content, "Reduced range of motion")
	assert.Equal(t, "Treatment", sections[2].Title)
	assert.Equal(t, "Recommendations", sections[3].Title)
	// Unknown labels stay in the body.
	assert.Equal(t, "Independent medical exam.\nNote: patient is a smoker.", sections[3].Content)
}

func TestParseSectionsWithoutHeadings(t *testing.T) {
	sections := ParseSections("Nothing notable.")
	require.Len(t, sections, 1)
	assert.Equal(t, "Overview", sections[0].Title)
	assert.Empty(t, ParseSections("   "))
}
