package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/doeshing/medetech-go/internal/domain"
	"github.com/doeshing/medetech-go/internal/ports"
)

const geminiName = "gemini"

// Gemini calls the generateContent REST method of the Gemini API.
type Gemini struct {
	model      domain.ModelDefinition
	apiKey     string
	httpClient *http.Client
}

// NewGemini returns a generator for model. An empty apiKey is rejected with
// domain.ErrMissingCredential.
func NewGemini(model domain.ModelDefinition, apiKey string, client *http.Client) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: set %s or %s", domain.ErrMissingCredential,
			valueOrDefault(model.AuthEnvVar, domain.DefaultAuthEnvVar), domain.LegacyAuthEnvVar)
	}
	if client == nil {
		client = &http.Client{Timeout: model.Timeout()}
	}
	return &Gemini{model: model, apiKey: apiKey, httpClient: client}, nil
}

func (g *Gemini) Name() string {
	return geminiName
}

// Generate sends one user turn and returns the concatenated text parts plus
// any grounding citations.
func (g *Gemini) Generate(ctx context.Context, req ports.GenerateRequest) (ports.GenerateResponse, error) {
	body, err := buildGeminiRequest(req)
	if err != nil {
		return ports.GenerateResponse{}, err
	}

	model := valueOrDefault(req.Model, g.model.GetName())
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(g.model.GetEndpoint(), "/"), model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return ports.GenerateResponse{}, err
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)
	for key, value := range g.model.ExtraHeaders {
		httpReq.Header.Set(key, value)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ports.GenerateResponse{}, ctx.Err()
		}
		return ports.GenerateResponse{}, fmt.Errorf("%w: %s: %v", domain.ErrUpstreamFailure, geminiName, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return ports.GenerateResponse{}, fmt.Errorf("%w: %s: read body: %v", domain.ErrUpstreamFailure, geminiName, err)
	}

	if resp.StatusCode >= 400 {
		message := gjson.GetBytes(payload, "error.message").String()
		if message == "" {
			message = strings.TrimSpace(string(payload))
		}
		return ports.GenerateResponse{}, fmt.Errorf("%w: %s: %s: %s", domain.ErrUpstreamFailure, geminiName, resp.Status, message)
	}

	return g.parseResponse(payload)
}

func (g *Gemini) parseResponse(payload []byte) (ports.GenerateResponse, error) {
	if !gjson.ValidBytes(payload) {
		return ports.GenerateResponse{}, fmt.Errorf("%w: %s: response is not JSON", domain.ErrUpstreamFailure, geminiName)
	}
	if reason := gjson.GetBytes(payload, "promptFeedback.blockReason").String(); reason != "" {
		return ports.GenerateResponse{}, fmt.Errorf("%w: %s: prompt blocked: %s", domain.ErrUpstreamFailure, geminiName, reason)
	}

	return ports.GenerateResponse{
		Text:    strings.Join(collectStrings(gjson.GetBytes(payload, g.model.GetResponseTextPath())), ""),
		Sources: uniqueStrings(collectStrings(gjson.GetBytes(payload, g.model.GetSourcesPath()))),
	}, nil
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
	Tools    []geminiTool    `json:"tools,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiTool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

func buildGeminiRequest(req ports.GenerateRequest) ([]byte, error) {
	parts := []geminiPart{{Text: req.Instruction}}
	if req.Image != nil {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: req.Image.MimeType,
			Data:     req.Image.Data,
		}})
	}

	request := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
	}
	if req.Grounding {
		request.Tools = []geminiTool{{GoogleSearch: &struct{}{}}}
	}
	return json.Marshal(request)
}

func collectStrings(result gjson.Result) []string {
	if !result.Exists() {
		return nil
	}
	if !result.IsArray() {
		return []string{result.String()}
	}
	var values []string
	for _, item := range result.Array() {
		if item.Type == gjson.String {
			values = append(values, item.Str)
		}
	}
	return values
}

func uniqueStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	unique := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		unique = append(unique, value)
	}
	return unique
}

var _ ports.Generator = (*Gemini)(nil)
