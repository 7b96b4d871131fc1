package ai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/gjson"

	"github.com/doeshing/medetech-go/internal/domain"
	"github.com/doeshing/medetech-go/internal/ports"
)

const groundedReply = `{
  "candidates": [{
    "content": {"role": "model", "parts": [{"text": "{\"name\": "}, {"text": "\"Biogesic\"}"}]},
    "groundingMetadata": {"groundingChunks": [
      {"web": {"uri": "https://example.org/a", "title": "A"}},
      {"web": {"uri": "https://example.org/b", "title": "B"}},
      {"web": {"uri": "https://example.org/a", "title": "A again"}}
    ]}
  }]
}`

func TestGeminiGenerateImageRequest(t *testing.T) {
	var gotPath, gotKey, gotExtra string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		gotExtra = r.Header.Get("X-Client")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("content-type", "application/json")
		_, _ = io.WriteString(w, groundedReply)
	}))
	defer server.Close()

	gen, err := NewGemini(domain.ModelDefinition{
		Name:         "gemini-test",
		Endpoint:     server.URL + "/v1beta/",
		ExtraHeaders: map[string]string{"X-Client": "medetech"},
	}, "secret-key", server.Client())
	if err != nil {
		t.Fatalf("NewGemini error: %v", err)
	}

	resp, err := gen.Generate(context.Background(), ports.GenerateRequest{
		Instruction: "identify this",
		Image:       &ports.InlineData{MimeType: "image/jpeg", Data: "aGVsbG8="},
		Grounding:   true,
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	if gotPath != "/v1beta/models/gemini-test:generateContent" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotKey != "secret-key" || gotExtra != "medetech" {
		t.Fatalf("headers: key=%q extra=%q", gotKey, gotExtra)
	}
	body := gjson.ParseBytes(gotBody)
	if body.Get("contents.0.role").String() != "user" ||
		body.Get("contents.0.parts.0.text").String() != "identify this" ||
		body.Get("contents.0.parts.1.inline_data.mime_type").String() != "image/jpeg" ||
		body.Get("contents.0.parts.1.inline_data.data").String() != "aGVsbG8=" {
		t.Fatalf("unexpected request body: %s", gotBody)
	}
	if !body.Get("tools.0.google_search").Exists() {
		t.Fatalf("grounding tool missing: %s", gotBody)
	}

	if resp.Text != `{"name": "Biogesic"}` {
		t.Fatalf("text = %q", resp.Text)
	}
	if diff := cmp.Diff([]string{"https://example.org/a", "https://example.org/b"}, resp.Sources); diff != "" {
		t.Fatalf("sources mismatch (-want +got):\n%s", diff)
	}
}

func TestGeminiTextRequestOmitsToolsAndImage(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"{}"}]}}]}`)
	}))
	defer server.Close()

	gen, err := NewGemini(domain.ModelDefinition{Endpoint: server.URL}, "k", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := gen.Generate(context.Background(), ports.GenerateRequest{Instruction: "User Query: Advil"})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	body := gjson.ParseBytes(gotBody)
	if body.Get("tools").Exists() || body.Get("contents.0.parts.1").Exists() {
		t.Fatalf("text request must not carry tools or image: %s", gotBody)
	}
	if resp.Text != "{}" || resp.Sources != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestGeminiErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "http error with message", status: http.StatusBadRequest, body: `{"error":{"code":400,"message":"API key not valid."}}`, wantMsg: "API key not valid."},
		{name: "http error plain", status: http.StatusBadGateway, body: "bad gateway", wantMsg: "bad gateway"},
		{name: "blocked", status: http.StatusOK, body: `{"promptFeedback":{"blockReason":"SAFETY"}}`, wantMsg: "SAFETY"},
		{name: "not json", status: http.StatusOK, body: "<html>", wantMsg: "not JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			gen, err := NewGemini(domain.ModelDefinition{Endpoint: server.URL}, "k", server.Client())
			if err != nil {
				t.Fatal(err)
			}
			_, err = gen.Generate(context.Background(), ports.GenerateRequest{Instruction: "x"})
			if !errors.Is(err, domain.ErrUpstreamFailure) {
				t.Fatalf("expected ErrUpstreamFailure, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("error %q should contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestNewGeminiRequiresKey(t *testing.T) {
	if _, err := NewGemini(domain.ModelDefinition{}, " ", nil); !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if _, err := NewFactory(nil).ForModel(domain.ModelDefinition{TimeoutSeconds: 3}, ""); !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("factory: expected ErrMissingCredential, got %v", err)
	}
}

func TestGeminiTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	gen, err := NewGemini(domain.ModelDefinition{Endpoint: url}, "k", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := gen.Generate(context.Background(), ports.GenerateRequest{Instruction: "x"}); !errors.Is(err, domain.ErrUpstreamFailure) {
		t.Fatalf("expected ErrUpstreamFailure, got %v", err)
	}
}
