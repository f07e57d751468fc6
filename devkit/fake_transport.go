package devkit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-bankconnect/core"
)

const KindFake = "fake"

type TransportScript struct {
	Response core.TransportResponse
	Err      error
}

// JSON scripts a response with body encoded as JSON. It panics when body
// cannot be encoded, which only happens with broken fixtures.
func JSON(status int, body any) TransportScript {
	encoded, err := json.Marshal(body)
	if err != nil {
		panic(fmt.Sprintf("devkit: encode scripted body: %v", err))
	}
	return TransportScript{Response: core.TransportResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       encoded,
	}}
}

func Failure(err error) TransportScript {
	return TransportScript{Err: err}
}

// FakeTransportAdapter replays scripts in order and captures every request.
// The last script repeats once the list runs out.
type FakeTransportAdapter struct {
	mu       sync.Mutex
	scripts  []TransportScript
	requests []core.TransportRequest
}

func NewFakeTransportAdapter(scripts ...TransportScript) *FakeTransportAdapter {
	return &FakeTransportAdapter{
		scripts: append([]TransportScript(nil), scripts...),
	}
}

func (a *FakeTransportAdapter) Kind() string {
	return KindFake
}

func (a *FakeTransportAdapter) Do(_ context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	if a == nil {
		return core.TransportResponse{}, fmt.Errorf("devkit: fake transport adapter is nil")
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.requests = append(a.requests, cloneTransportRequest(req))
	index := len(a.requests) - 1
	if index < len(a.scripts) {
		script := a.scripts[index]
		return cloneTransportResponse(script.Response), script.Err
	}
	if len(a.scripts) > 0 {
		last := a.scripts[len(a.scripts)-1]
		return cloneTransportResponse(last.Response), last.Err
	}
	return core.TransportResponse{
		StatusCode: 200,
		Headers:    map[string]string{},
		Body:       []byte("{}"),
		Metadata:   map[string]any{"kind": KindFake},
	}, nil
}

// Push appends scripts after the ones already queued.
func (a *FakeTransportAdapter) Push(scripts ...TransportScript) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scripts = append(a.scripts, scripts...)
}

func (a *FakeTransportAdapter) Requests() []core.TransportRequest {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]core.TransportRequest, 0, len(a.requests))
	for _, item := range a.requests {
		out = append(out, cloneTransportRequest(item))
	}
	return out
}

// RequestsTo returns the captured requests whose URL ends with suffix.
func (a *FakeTransportAdapter) RequestsTo(suffix string) []core.TransportRequest {
	matched := []core.TransportRequest{}
	for _, req := range a.Requests() {
		if strings.HasSuffix(req.URL, suffix) {
			matched = append(matched, req)
		}
	}
	return matched
}

func (a *FakeTransportAdapter) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = nil
}

func cloneTransportRequest(in core.TransportRequest) core.TransportRequest {
	out := core.TransportRequest{
		Method:               in.Method,
		URL:                  in.URL,
		Headers:              map[string]string{},
		Query:                map[string]string{},
		Body:                 append([]byte(nil), in.Body...),
		Metadata:             map[string]any{},
		Timeout:              in.Timeout,
		MaxResponseBodyBytes: in.MaxResponseBodyBytes,
	}
	for key, value := range in.Headers {
		out.Headers[key] = value
	}
	for key, value := range in.Query {
		out.Query[key] = value
	}
	for key, value := range in.Metadata {
		out.Metadata[key] = value
	}
	return out
}

func cloneTransportResponse(in core.TransportResponse) core.TransportResponse {
	out := core.TransportResponse{
		StatusCode: in.StatusCode,
		Headers:    map[string]string{},
		Body:       append([]byte(nil), in.Body...),
		Metadata:   map[string]any{},
	}
	for key, value := range in.Headers {
		out.Headers[key] = value
	}
	for key, value := range in.Metadata {
		out.Metadata[key] = value
	}
	return out
}

var _ core.TransportAdapter = (*FakeTransportAdapter)(nil)
