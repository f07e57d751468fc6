package core

import (
	"context"
	"fmt"
	"strings"
)

// APIKeySigner places the API key in a header, optionally prefixed, or in a
// query parameter when QueryParam is set.
type APIKeySigner struct {
	Header     string
	Prefix     string
	QueryParam string
}

func NewAPIKeySigner(header string) APIKeySigner {
	header = strings.TrimSpace(header)
	if header == "" {
		header = DefaultAPIKeyHeader
	}
	return APIKeySigner{Header: header}
}

func (s APIKeySigner) Sign(_ context.Context, req *TransportRequest, apiKey string) error {
	if req == nil {
		return fmt.Errorf("core: transport request is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return fmt.Errorf("core: api key is required for signing")
	}

	if param := strings.TrimSpace(s.QueryParam); param != "" {
		if req.Query == nil {
			req.Query = map[string]string{}
		}
		req.Query[param] = apiKey
		return nil
	}

	header := strings.TrimSpace(s.Header)
	if header == "" {
		header = DefaultAPIKeyHeader
	}
	value := apiKey
	if prefix := strings.TrimSpace(s.Prefix); prefix != "" {
		value = prefix + " " + apiKey
	}
	if req.Headers == nil {
		req.Headers = map[string]string{}
	}
	req.Headers[header] = value
	return nil
}

var _ Signer = APIKeySigner{}
