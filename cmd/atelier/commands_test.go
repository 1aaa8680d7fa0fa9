package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

var ctx = context.Background()

func TestAPIClientSendsBearerToken(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /v1/routes": `{"chat":{"enabled":false,"endpoint":"","modelName":""}}`,
	})

	resp, err := ts.client().get(ctx, "/v1/routes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rec map[string]any
	if err := decodeJSON(resp, &rec); err != nil {
		t.Fatalf("decode error: %v", err)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	if ts.requests[0].Auth != "Bearer test-token" {
		t.Errorf("auth = %q, want Bearer test-token", ts.requests[0].Auth)
	}
}

func TestDecodeJSONSurfacesServerErrors(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := ts.client().get(ctx, "/v1/nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var v any
	err = decodeJSON(resp, &v)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %v, want status code included", err)
	}
}

func TestConsumeStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"text\":\"Hello\"}\n\n")
		fmt.Fprint(w, "data: {\"text\":\" world\"}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	var got strings.Builder
	if err := consumeStream(resp, func(text string) { got.WriteString(text) }); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if got.String() != "Hello world" {
		t.Errorf("got %q", got.String())
	}
}

func TestConsumeStreamErrorEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"text\":\"partial\"}\n\n")
		fmt.Fprint(w, "data: {\"error\":\"engine gave up\"}\n\n")
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	var got strings.Builder
	err = consumeStream(resp, func(text string) { got.WriteString(text) })
	if err == nil {
		t.Fatal("expected error from error event")
	}
	if !strings.Contains(err.Error(), "engine gave up") {
		t.Errorf("error = %v", err)
	}
	if got.String() != "partial" {
		t.Errorf("chunks before error = %q", got.String())
	}
}

func TestWriteDataURL(t *testing.T) {
	payload := []byte("fake image bytes")
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)
	out := filepath.Join(t.TempDir(), "out.png")

	if err := writeDataURL(dataURL, out); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("round trip mismatch: %q", got)
	}

	if err := writeDataURL("not a data url", out); err == nil {
		t.Error("expected error for malformed payload")
	}
}
