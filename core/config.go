package core

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultBaseURL      = "https://portal.finbox.in/bank-connect/v1"
	DefaultAPIKeyHeader = "x-api-key"
	DefaultPageSize     = 100
	DefaultTimeout      = 30 * time.Second

	defaultResponseBodyLimit int64 = 10 << 20 // 10 MiB
)

var configValidator = validator.New()

type Config struct {
	ClientName           string        `koanf:"client_name" mapstructure:"client_name" validate:"required"`
	BaseURL              string        `koanf:"base_url" mapstructure:"base_url" validate:"required,url"`
	Timeout              time.Duration `koanf:"timeout" mapstructure:"timeout" validate:"gt=0"`
	PageSize             int           `koanf:"page_size" mapstructure:"page_size" validate:"gte=1,lte=1000"`
	APIKeyHeader         string        `koanf:"api_key_header" mapstructure:"api_key_header" validate:"required"`
	UserAgent            string        `koanf:"user_agent" mapstructure:"user_agent"`
	MaxResponseBodyBytes int64         `koanf:"max_response_body_bytes" mapstructure:"max_response_body_bytes" validate:"gte=0"`
}

func DefaultConfig() Config {
	return Config{
		ClientName:           "bankconnect",
		BaseURL:              DefaultBaseURL,
		Timeout:              DefaultTimeout,
		PageSize:             DefaultPageSize,
		APIKeyHeader:         DefaultAPIKeyHeader,
		UserAgent:            "go-bankconnect",
		MaxResponseBodyBytes: defaultResponseBodyLimit,
	}
}

func (c Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("core: invalid config: %w", err)
	}
	parsed, err := url.Parse(strings.TrimSpace(c.BaseURL))
	if err != nil {
		return fmt.Errorf("core: invalid base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("core: base_url scheme must be http or https, got %q", parsed.Scheme)
	}
	return nil
}

// endpoint joins the base url with a service path, keeping exactly one slash
// between them and preserving the trailing slash the service expects.
func (c Config) endpoint(path string) string {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}
