package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
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
		httpClient: ts.server.Client(),
	}
}

func (ts *testServer) install(t *testing.T) {
	t.Helper()
	orig := newAPIClient
	newAPIClient = func() (*apiClient, error) { return ts.client(), nil }
	t.Cleanup(func() { newAPIClient = orig })
}

var ctx = context.Background()

func TestExtractCommand(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/extract": `{"items":[{"id":"a1","value":"1500","type":"Amount","context":"โอน 1,500","confidence":0.9}]}`,
	})
	ts.install(t)
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"extract", "โอน 1,500 บาท"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	r := ts.requests[0]
	if r.Method != "POST" || r.Path != "/api/extract" {
		t.Errorf("request = %s %s, want POST /api/extract", r.Method, r.Path)
	}

	var body map[string]string
	if err := json.Unmarshal([]byte(r.Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["text"] != "โอน 1,500 บาท" {
		t.Errorf("body.text = %q", body["text"])
	}
}

func TestExtractCommand_ServerError(t *testing.T) {
	ts := newTestServer(t, nil) // every route 404s
	ts.install(t)
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"extract", "hello"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for server failure")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %q, want it to mention the status code", err.Error())
	}
}

func TestStatusCommand(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /health":         `{"status":"ok"}`,
		"GET /api/connection": `{"connected":true,"message":"Google Sheets Connected Successfully","sheetId":"sheet-1"}`,
	})
	ts.install(t)
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"status"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ts.requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(ts.requests))
	}
	if ts.requests[0].Path != "/health" || ts.requests[1].Path != "/api/connection" {
		t.Errorf("requests = %+v", ts.requests)
	}
}

func TestDecodeJSON_ErrorStatus(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := ts.client().get(ctx, "/missing")
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}

	var v map[string]any
	err = decodeJSON(resp, &v)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %q, want status code included", err.Error())
	}
}

func TestColorize(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	if got := colorize(colorRed, "boom"); got != "boom" {
		t.Errorf("colorize with noColor=true = %q, want plain text", got)
	}

	noColor = false
	if got := colorize(colorRed, "boom"); !strings.Contains(got, "\033[31m") {
		t.Errorf("colorize with noColor=false = %q, want ANSI codes", got)
	}
}
