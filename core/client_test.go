package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestNewClient_RequiresTransport(t *testing.T) {
	_, err := NewClient(Config{}, WithAuthContext(NewAuthContext("key")))
	if err == nil {
		t.Fatalf("expected error when transport is missing")
	}
}

func TestNewClient_ResolvesConfigLayers(t *testing.T) {
	client, err := NewClient(Config{PageSize: 25},
		WithTransport(newScriptedTransport()),
		WithConfigProvider(NewCfgxConfigProvider(mapRawLoader{values: map[string]any{
			"base_url":  "https://sandbox.bankconnect.test/v1",
			"page_size": 50,
		}})),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	cfg := client.Config()
	if cfg.BaseURL != "https://sandbox.bankconnect.test/v1" {
		t.Fatalf("expected base url from loaded config, got %q", cfg.BaseURL)
	}
	if cfg.PageSize != 25 {
		t.Fatalf("expected runtime page size to win, got %d", cfg.PageSize)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Fatalf("expected default timeout, got %s", cfg.Timeout)
	}
	if cfg.APIKeyHeader != DefaultAPIKeyHeader {
		t.Fatalf("expected default api key header, got %q", cfg.APIKeyHeader)
	}
}

func TestNewClient_RejectsInvalidConfig(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "ftp://bankconnect.test"}, WithTransport(newScriptedTransport()))
	if err == nil {
		t.Fatalf("expected invalid base url scheme to be rejected")
	}
}

func TestClientRequest_FailsFastWithoutAPIKey(t *testing.T) {
	transport := newScriptedTransport(scriptedResponse{body: map[string]any{}})
	client := newTestClient(t, transport, WithAuthContext(&AuthContext{}))

	_, err := client.Request(context.Background(), http.MethodGet, "/entity/", nil)
	if !IsAuthentication(err) {
		t.Fatalf("expected authentication error, got %v", err)
	}
	if got := len(transport.calls()); got != 0 {
		t.Fatalf("expected no transport call, got %d", got)
	}
}

func TestClientRequest_SignsAndEncodes(t *testing.T) {
	transport := newScriptedTransport(scriptedResponse{body: map[string]any{"ok": true}})
	client := newTestClient(t, transport)

	result, err := client.Request(context.Background(), http.MethodGet, "/entity/abc/accounts/", map[string]any{
		"page":      2,
		"page_size": 10,
		"skip":      nil,
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	payload, ok := result.(map[string]any)
	if !ok || payload["ok"] != true {
		t.Fatalf("unexpected decoded payload %#v", result)
	}

	calls := transport.calls()
	if len(calls) != 1 {
		t.Fatalf("expected one call, got %d", len(calls))
	}
	req := calls[0]
	if req.URL != "https://bankconnect.test/v1/entity/abc/accounts/" {
		t.Fatalf("unexpected url %q", req.URL)
	}
	if req.Headers[DefaultAPIKeyHeader] != "test-key" {
		t.Fatalf("expected api key header, got %#v", req.Headers)
	}
	if req.Query["page"] != "2" || req.Query["page_size"] != "10" {
		t.Fatalf("unexpected query %#v", req.Query)
	}
	if _, ok := req.Query["skip"]; ok {
		t.Fatalf("expected nil params to be dropped")
	}
	if req.Timeout != DefaultTimeout {
		t.Fatalf("expected fixed timeout, got %s", req.Timeout)
	}
}

func TestClientRequest_PostSendsJSONBody(t *testing.T) {
	transport := newScriptedTransport(scriptedResponse{status: http.StatusCreated, body: map[string]any{"entity_id": testEntityID}})
	client := newTestClient(t, transport)

	if _, err := client.Request(context.Background(), "post", "/entity/", map[string]any{"link_id": "test_link"}); err != nil {
		t.Fatalf("request: %v", err)
	}
	req := transport.calls()[0]
	if req.Method != http.MethodPost {
		t.Fatalf("expected POST, got %s", req.Method)
	}
	if req.Headers["Content-Type"] != "application/json" {
		t.Fatalf("expected json content type, got %#v", req.Headers)
	}
	var body map[string]any
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["link_id"] != "test_link" {
		t.Fatalf("unexpected body %#v", body)
	}
	if len(req.Query) != 0 {
		t.Fatalf("expected no query params on POST, got %#v", req.Query)
	}
}

func TestClientRequest_StatusMapping(t *testing.T) {
	cases := []struct {
		name      string
		response  scriptedResponse
		kind      ErrorKind
		transient bool
		code      string
	}{
		{name: "404", response: scriptedResponse{status: 404, body: map[string]any{"detail": "Not found."}}, kind: KindEntityNotFound},
		{name: "not found code on 400", response: scriptedResponse{status: 400, body: map[string]any{"code": "entity_not_found", "message": "no such entity"}}, kind: KindEntityNotFound, code: "entity_not_found"},
		{name: "401", response: scriptedResponse{status: 401, body: map[string]any{"detail": "Invalid API key."}}, kind: KindAuthentication},
		{name: "403", response: scriptedResponse{status: 403, raw: "forbidden"}, kind: KindAuthentication},
		{name: "400 structured", response: scriptedResponse{status: 400, body: map[string]any{"error": map[string]any{"code": "invalid_link", "message": "bad link"}}}, kind: KindService, code: "invalid_link"},
		{name: "422 field errors", response: scriptedResponse{status: 422, body: map[string]any{"link_id": []any{"This field is required."}}}, kind: KindService},
		{name: "408", response: scriptedResponse{status: 408}, kind: KindService, transient: true},
		{name: "429", response: scriptedResponse{status: 429, headers: map[string]string{"Retry-After": "3"}}, kind: KindService, transient: true},
		{name: "500", response: scriptedResponse{status: 500, raw: "<html>boom</html>"}, kind: KindService, transient: true},
		{name: "503", response: scriptedResponse{status: 503, body: map[string]any{"detail": "maintenance"}}, kind: KindService, transient: true},
		{name: "transport failure", response: scriptedResponse{err: errors.New("connection refused")}, kind: KindService, transient: true},
		{name: "malformed json", response: scriptedResponse{status: 200, raw: "{not json"}, kind: KindService, transient: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, newScriptedTransport(tc.response))
			_, err := client.Request(context.Background(), http.MethodGet, "/entity/x/identity/", nil)
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := KindOf(err); got != tc.kind {
				t.Fatalf("expected kind %s, got %s (%v)", tc.kind, got, err)
			}
			if got := IsTransient(err); got != tc.transient {
				t.Fatalf("expected transient=%v, got %v", tc.transient, got)
			}
			if tc.code != "" {
				code, _, ok := ServiceDetails(err)
				if !ok || code != tc.code {
					t.Fatalf("expected service code %q, got %q", tc.code, code)
				}
			}
		})
	}
}

func TestClientRequest_ServiceMessageIsCarried(t *testing.T) {
	client := newTestClient(t, newScriptedTransport(scriptedResponse{
		status: 400,
		body:   map[string]any{"code": "invalid_page", "detail": "Invalid page."},
	}))
	_, err := client.Request(context.Background(), http.MethodGet, "/entity/x/accounts/", nil)
	code, message, ok := ServiceDetails(err)
	if !ok || code != "invalid_page" || message != "Invalid page." {
		t.Fatalf("unexpected service details %q %q", code, message)
	}
	if !strings.Contains(err.Error(), "Invalid page.") {
		t.Fatalf("expected service message in error text, got %q", err.Error())
	}
	if IsTransient(err) {
		t.Fatalf("expected permanent service error")
	}
}

func TestClientRequest_NoAutomaticRetry(t *testing.T) {
	transport := newScriptedTransport(
		scriptedResponse{status: 503},
		scriptedResponse{status: 200, body: map[string]any{}},
	)
	client := newTestClient(t, transport)
	if _, err := client.Request(context.Background(), http.MethodGet, "/entity/x/identity/", nil); !IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if got := len(transport.calls()); got != 1 {
		t.Fatalf("expected exactly one attempt, got %d", got)
	}
}

func TestClientRequest_EmptyBodyDecodesToNil(t *testing.T) {
	client := newTestClient(t, newScriptedTransport(scriptedResponse{status: http.StatusNoContent}))
	result, err := client.Request(context.Background(), http.MethodDelete, "/entity/x/", nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if result != nil {
		t.Fatalf("expected nil result, got %#v", result)
	}
}

type deadlineTransport struct {
	deadline time.Time
	ok       bool
}

func (*deadlineTransport) Kind() string { return "deadline" }

func (d *deadlineTransport) Do(ctx context.Context, _ TransportRequest) (TransportResponse, error) {
	d.deadline, d.ok = ctx.Deadline()
	return TransportResponse{StatusCode: 200, Body: []byte(`{}`)}, nil
}

func TestClientRequest_BoundsCallWithConfiguredTimeout(t *testing.T) {
	transport := &deadlineTransport{}
	client, err := NewClient(Config{Timeout: 2 * time.Second},
		WithTransport(transport),
		WithAuthContext(NewAuthContext("key")),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	before := time.Now()
	if _, err := client.Request(context.Background(), http.MethodGet, "/entity/", nil); err != nil {
		t.Fatalf("request: %v", err)
	}
	if !transport.ok {
		t.Fatalf("expected request context to carry a deadline")
	}
	if remaining := transport.deadline.Sub(before); remaining > 2*time.Second+time.Second || remaining <= 0 {
		t.Fatalf("expected deadline about 2s out, got %s", remaining)
	}
}
