// Package transport carries core transport requests over the wire.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-bankconnect/core"
)

const KindREST = "rest"

const defaultClientTimeout = 30 * time.Second

const defaultBodyLimit int64 = 10 << 20

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RESTAdapter sends core transport requests over net/http. Any status the
// service answers with is returned as a response; only failures to send or
// read are errors.
type RESTAdapter struct {
	Client               HTTPDoer
	DefaultHeaders       map[string]string
	MaxResponseBodyBytes int64
}

func NewRESTAdapter(client HTTPDoer) *RESTAdapter {
	if client == nil {
		client = &http.Client{Timeout: defaultClientTimeout}
	}
	return &RESTAdapter{
		Client:               client,
		DefaultHeaders:       map[string]string{},
		MaxResponseBodyBytes: defaultBodyLimit,
	}
}

func (*RESTAdapter) Kind() string { return KindREST }

func (a *RESTAdapter) Do(ctx context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	if a == nil || a.Client == nil {
		return core.TransportResponse{}, configurationError("transport: rest adapter requires an http client")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := a.newHTTPRequest(ctx, req)
	if err != nil {
		return core.TransportResponse{}, err
	}
	target := map[string]any{"adapter": KindREST, "method": httpReq.Method, "url": redactURL(httpReq.URL)}

	startedAt := time.Now()
	httpRes, err := a.Client.Do(httpReq)
	if err != nil {
		return core.TransportResponse{}, exchangeError(err, "transport: execute http request", target)
	}
	defer httpRes.Body.Close()

	limit := firstPositive(req.MaxResponseBodyBytes, a.MaxResponseBodyBytes, defaultBodyLimit)
	payload, err := io.ReadAll(io.LimitReader(httpRes.Body, limit+1))
	target["status_code"] = httpRes.StatusCode
	if err != nil {
		return core.TransportResponse{}, exchangeError(err, "transport: read response body", target)
	}
	if int64(len(payload)) > limit {
		target["response_limit_b"] = limit
		return core.TransportResponse{}, exchangeError(nil, fmt.Sprintf("transport: response body exceeds limit of %d bytes", limit), target)
	}

	return core.TransportResponse{
		StatusCode: httpRes.StatusCode,
		Headers:    flattenHeaders(httpRes.Header),
		Body:       payload,
		Metadata: map[string]any{
			"duration_ms": time.Since(startedAt).Milliseconds(),
			"kind":        KindREST,
		},
	}, nil
}

// newHTTPRequest merges query params into the url and applies default
// headers before the request's own. Header values are forwarded untouched.
func (a *RESTAdapter) newHTTPRequest(ctx context.Context, req core.TransportRequest) (*http.Request, error) {
	rawURL := strings.TrimSpace(req.URL)
	if rawURL == "" {
		return nil, requestError(nil, "transport: request url is required", map[string]any{"adapter": KindREST})
	}
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, requestError(err, "transport: invalid request url", map[string]any{"adapter": KindREST, "url": rawURL})
	}
	if len(req.Query) > 0 {
		values := target.Query()
		for key, value := range req.Query {
			if key = strings.TrimSpace(key); key != "" {
				values.Set(key, value)
			}
		}
		target.RawQuery = values.Encode()
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, requestError(err, "transport: create http request", map[string]any{
			"adapter": KindREST,
			"method":  method,
			"url":     redactURL(target),
		})
	}
	for _, headers := range []map[string]string{a.DefaultHeaders, req.Headers} {
		for key, value := range headers {
			if key = strings.TrimSpace(key); key != "" {
				httpReq.Header.Set(key, value)
			}
		}
	}
	return httpReq, nil
}

func flattenHeaders(headers http.Header) map[string]string {
	flat := make(map[string]string, len(headers))
	for key, values := range headers {
		flat[key] = strings.Join(values, ",")
	}
	return flat
}

func firstPositive(values ...int64) int64 {
	for _, value := range values {
		if value > 0 {
			return value
		}
	}
	return 0
}

// redactURL drops the query string and user info, which may carry a
// credential.
func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	clean := *u
	clean.RawQuery = ""
	clean.User = nil
	return clean.String()
}

var _ core.TransportAdapter = (*RESTAdapter)(nil)
