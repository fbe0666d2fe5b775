// Package ai talks to the remote document analysis backend: free-text case
// analysis, form field suggestions and document-grounded chat.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/config"
)

var (
	ErrNotConfigured = errors.New("ai backend not configured")
	ErrEmptyReply    = errors.New("ai backend returned empty reply")
	ErrEmptyHistory  = errors.New("chat history is empty")
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ai backend: status %d: %s", e.Code, e.Body)
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(cfg config.AIConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

type AnalysisRequest struct {
	DocumentContent string   `json:"documentContent"`
	DocumentType    string   `json:"documentType"`
	CaseContext     string   `json:"caseContext"`
	Rules           []string `json:"rules,omitempty"`
}

type AnalysisResponse struct {
	Analysis string `json:"analysis"`
}

func (c *Client) Analyze(ctx context.Context, req AnalysisRequest) (AnalysisResponse, error) {
	var resp AnalysisResponse
	if err := c.post(ctx, "/analyze", req, &resp); err != nil {
		return AnalysisResponse{}, err
	}
	if strings.TrimSpace(resp.Analysis) == "" {
		return AnalysisResponse{}, ErrEmptyReply
	}
	return resp, nil
}

type SuggestionDocument struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

type SuggestionRequest struct {
	CaseID    string               `json:"caseId"`
	Documents []SuggestionDocument `json:"documents"`
	FormData  map[string]any       `json:"formData"`
}

type FieldSuggestion struct {
	Field              string   `json:"field"`
	FieldLabel         string   `json:"fieldLabel"`
	Value              string   `json:"value"`
	Confidence         float64  `json:"confidence"`
	Reasoning          string   `json:"reasoning"`
	DocumentReferences []string `json:"documentReferences"`
}

// SuggestFields returns form suggestions with confidence clamped to [0,1].
func (c *Client) SuggestFields(ctx context.Context, req SuggestionRequest) ([]FieldSuggestion, error) {
	if req.Documents == nil {
		req.Documents = []SuggestionDocument{}
	}
	if req.FormData == nil {
		req.FormData = map[string]any{}
	}

	var raw json.RawMessage
	if err := c.post(ctx, "/suggestions", req, &raw); err != nil {
		return nil, err
	}
	list, err := decodeSuggestions(raw)
	if err != nil {
		return nil, err
	}

	out := make([]FieldSuggestion, 0, len(list))
	for _, s := range list {
		s.Confidence = clamp(s.Confidence)
		if s.DocumentReferences == nil {
			s.DocumentReferences = []string{}
		}
		out = append(out, s)
	}
	return out, nil
}

// decodeSuggestions accepts a bare array or one wrapped in {"suggestions": [...]}.
func decodeSuggestions(raw json.RawMessage) ([]FieldSuggestion, error) {
	var list []FieldSuggestion
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Suggestions []FieldSuggestion `json:"suggestions"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode /suggestions response: %w", err)
	}
	return wrapped.Suggestions, nil
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	CaseID  string     `json:"caseId"`
	History []ChatTurn `json:"history"`
}

type Highlight struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Reference struct {
	DocumentID   string     `json:"documentId"`
	DocumentName string     `json:"documentName,omitempty"`
	Page         int        `json:"page,omitempty"`
	Excerpt      string     `json:"excerpt,omitempty"`
	Highlight    *Highlight `json:"highlight,omitempty"`
}

type ChatResponse struct {
	Reply      string      `json:"reply"`
	References []Reference `json:"references"`
}

func (c *Client) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if len(req.History) == 0 {
		return ChatResponse{}, ErrEmptyHistory
	}
	var resp ChatResponse
	if err := c.post(ctx, "/chat", req, &resp); err != nil {
		return ChatResponse{}, err
	}
	if strings.TrimSpace(resp.Reply) == "" {
		return ChatResponse{}, ErrEmptyReply
	}
	if resp.References == nil {
		resp.References = []Reference{}
	}
	return resp, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	if !c.Enabled() {
		return ErrNotConfigured
	}

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ai request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
