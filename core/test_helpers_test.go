package core

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
)

const testEntityID = "c036e96d-ccae-443c-8f64-b98ceeaa1578"

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}

type scriptedResponse struct {
	status  int
	body    any
	raw     string
	headers map[string]string
	err     error
}

// scriptedTransport replays responses in order and records every request.
// Once the script runs out the last response is repeated.
type scriptedTransport struct {
	mu        sync.Mutex
	responses []scriptedResponse
	requests  []TransportRequest
}

func newScriptedTransport(responses ...scriptedResponse) *scriptedTransport {
	return &scriptedTransport{responses: responses}
}

func (*scriptedTransport) Kind() string { return "scripted" }

func (s *scriptedTransport) Do(_ context.Context, req TransportRequest) (TransportResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index := len(s.requests)
	s.requests = append(s.requests, req)
	if len(s.responses) == 0 {
		return TransportResponse{}, fmt.Errorf("scripted transport: no responses configured")
	}
	if index >= len(s.responses) {
		index = len(s.responses) - 1
	}
	res := s.responses[index]
	if res.err != nil {
		return TransportResponse{}, res.err
	}
	body := []byte(res.raw)
	if res.body != nil {
		encoded, err := json.Marshal(res.body)
		if err != nil {
			return TransportResponse{}, err
		}
		body = encoded
	}
	status := res.status
	if status == 0 {
		status = 200
	}
	return TransportResponse{StatusCode: status, Headers: res.headers, Body: body}, nil
}

func (s *scriptedTransport) calls() []TransportRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TransportRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

func newTestClient(t *testing.T, transport TransportAdapter, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithTransport(transport),
		WithAuthContext(NewAuthContext("test-key")),
		WithLogger(stubLogger{}),
	}
	client, err := NewClient(Config{BaseURL: "https://bankconnect.test/v1"}, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func drfPage(results []map[string]any, next any) map[string]any {
	return map[string]any{
		"count":    len(results),
		"next":     next,
		"previous": nil,
		"results":  results,
	}
}

func numberedRecords(prefix string, from int, count int) []map[string]any {
	out := make([]map[string]any, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, map[string]any{"id": fmt.Sprintf("%s_%d", prefix, from+i)})
	}
	return out
}
