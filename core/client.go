package core

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// Client issues authenticated requests against the BankConnect service and
// maps every failure onto the error taxonomy in errors.go. It never retries.
type Client struct {
	config    Config
	logger    Logger
	metrics   MetricsRecorder
	transport TransportAdapter
	signer    Signer
	auth      *AuthContext
	now       func() time.Time
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	builder := defaultClientBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("bankconnect", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil && builder.logger == nil {
		if named := provider.GetLogger("bankconnect"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.authContext == nil {
		builder.authContext = DefaultAuthContext()
	}
	if builder.now == nil {
		builder.now = time.Now
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "bankconnect: load config").
			WithTextCode(ErrorInternal)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "bankconnect: resolve config").
			WithTextCode(ErrorInternal)
	}

	if builder.transport == nil {
		return nil, newInternalError("bankconnect: transport adapter is required")
	}
	if builder.signer == nil {
		builder.signer = NewAPIKeySigner(finalConfig.APIKeyHeader)
	}

	return &Client{
		config:    finalConfig,
		logger:    logger,
		metrics:   builder.metricsRecorder,
		transport: builder.transport,
		signer:    builder.signer,
		auth:      builder.authContext,
		now:       builder.now,
	}, nil
}

func (c *Client) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.config
}

func (c *Client) AuthContext() *AuthContext {
	if c == nil {
		return nil
	}
	return c.auth
}

// Request sends one authenticated call and returns the decoded JSON body.
// GET params travel in the query string, any other method sends them as a
// JSON object. The call is bounded by Config.Timeout.
func (c *Client) Request(ctx context.Context, method string, path string, params map[string]any) (result any, err error) {
	if c == nil || c.transport == nil {
		return nil, newInternalError("bankconnect: client is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	startedAt := c.now()
	fields := map[string]any{"method": method, "path": path}
	defer func() {
		c.observeOperation(ctx, startedAt, "request", err, fields)
	}()

	apiKey, ok := c.auth.APIKey()
	if !ok {
		return nil, NewAuthenticationError("bankconnect: api key is not set", map[string]any{
			"method": method,
			"path":   path,
		})
	}

	req, err := c.buildRequest(method, path, params)
	if err != nil {
		return nil, err
	}
	if err := c.signer.Sign(ctx, &req, apiKey); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "bankconnect: sign request").
			WithCode(http.StatusUnauthorized).
			WithTextCode(ErrorAuthenticationFailed)
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	res, err := c.transport.Do(requestCtx, req)
	if err != nil {
		return nil, NewTransientServiceError(err, "bankconnect: transport failure", http.StatusBadGateway, map[string]any{
			"method": method,
			"path":   path,
		})
	}
	fields["status_code"] = res.StatusCode

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, classifyResponse(method, path, res)
	}
	return decodeBody(method, path, res)
}

func (c *Client) buildRequest(method string, path string, params map[string]any) (TransportRequest, error) {
	req := TransportRequest{
		Method: method,
		URL:    c.config.endpoint(path),
		Headers: map[string]string{
			"Accept": "application/json",
		},
		Timeout:              c.config.Timeout,
		MaxResponseBodyBytes: c.config.MaxResponseBodyBytes,
		Metadata:             map[string]any{"path": path},
	}
	if agent := strings.TrimSpace(c.config.UserAgent); agent != "" {
		req.Headers["User-Agent"] = agent
	}
	if len(params) == 0 {
		return req, nil
	}
	if method == http.MethodGet || method == http.MethodDelete {
		req.Query = make(map[string]string, len(params))
		for key, value := range params {
			if value == nil {
				continue
			}
			req.Query[key] = queryValue(value)
		}
		return req, nil
	}
	body, err := json.Marshal(params)
	if err != nil {
		return TransportRequest{}, NewValidationError("params", "params must be JSON encodable", err.Error())
	}
	req.Body = body
	req.Headers["Content-Type"] = "application/json"
	return req, nil
}

func queryValue(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case bool:
		return strconv.FormatBool(typed)
	case []string:
		return strings.Join(typed, ",")
	default:
		return fmt.Sprint(typed)
	}
}

func decodeBody(method string, path string, res TransportResponse) (any, error) {
	if len(strings.TrimSpace(string(res.Body))) == 0 {
		return nil, nil
	}
	var decoded any
	if err := json.Unmarshal(res.Body, &decoded); err != nil {
		return nil, NewTransientServiceError(err, "bankconnect: malformed response body", http.StatusBadGateway, map[string]any{
			"method":           method,
			"path":             path,
			metadataStatusCode: res.StatusCode,
		})
	}
	return decoded, nil
}

// classifyResponse maps a non-2xx response onto the error taxonomy.
func classifyResponse(method string, path string, res TransportResponse) error {
	code, message := parseServiceError(res.Body)
	metadata := map[string]any{
		"method":           method,
		"path":             path,
		metadataStatusCode: res.StatusCode,
	}
	if code != "" {
		metadata[metadataServiceCode] = code
	}
	if message != "" {
		metadata[metadataServiceMessage] = message
	}
	describe := func(fallback string) string {
		if message == "" {
			return fallback
		}
		return fallback + ": " + message
	}

	switch {
	case res.StatusCode == http.StatusNotFound || isNotFoundSignal(code, message):
		return NewEntityNotFoundError(describe("bankconnect: entity not found"), metadata)
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return NewAuthenticationError(describe("bankconnect: authentication rejected"), metadata)
	case res.StatusCode == http.StatusRequestTimeout || res.StatusCode == http.StatusTooManyRequests:
		if retryAfter := headerValue(res.Headers, "Retry-After"); retryAfter != "" {
			metadata["retry_after"] = retryAfter
		}
		return NewTransientServiceError(nil, describe("bankconnect: service throttled request"), res.StatusCode, metadata)
	case res.StatusCode >= 500:
		return NewTransientServiceError(nil, describe("bankconnect: service unavailable"), res.StatusCode, metadata)
	default:
		return NewServiceError(describe("bankconnect: service rejected request"), res.StatusCode, metadata)
	}
}

// parseServiceError extracts the service code and message from an error
// body. Both DRF style {"detail": ...} and {"error": {"code", "message"}}
// shapes are understood.
func parseServiceError(body []byte) (code string, message string) {
	if len(body) == 0 {
		return "", ""
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		text := strings.TrimSpace(string(body))
		if len(text) > 256 {
			text = text[:256]
		}
		return "", text
	}
	if nested, ok := payload["error"].(map[string]any); ok {
		payload = nested
	}
	for _, key := range []string{"code", "error_code", "error"} {
		if value, ok := payload[key].(string); ok && strings.TrimSpace(value) != "" {
			code = strings.TrimSpace(value)
			break
		}
	}
	for _, key := range []string{"detail", "message", "msg"} {
		if value, ok := payload[key].(string); ok && strings.TrimSpace(value) != "" {
			message = strings.TrimSpace(value)
			break
		}
	}
	if message == "" {
		message = fieldErrorSummary(payload)
	}
	return code, message
}

// fieldErrorSummary flattens {"field": ["msg"]} bodies returned on 400.
func fieldErrorSummary(payload map[string]any) string {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		switch typed := payload[key].(type) {
		case []any:
			for _, item := range typed {
				parts = append(parts, fmt.Sprintf("%s: %v", key, item))
			}
		case string:
			if key == "code" || key == "error_code" {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s: %s", key, typed))
		}
	}
	return strings.Join(parts, "; ")
}

func isNotFoundSignal(code string, message string) bool {
	normalized := strings.ToLower(strings.TrimSpace(code))
	switch normalized {
	case "not_found", "notfound", "entity_not_found", "does_not_exist":
		return true
	}
	return strings.EqualFold(strings.TrimSpace(message), "not found.")
}

func headerValue(headers map[string]string, name string) string {
	for key, value := range headers {
		if strings.EqualFold(key, name) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
