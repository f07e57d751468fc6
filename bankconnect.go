// Package bankconnect is the entry point of the BankConnect client. It
// re-exports the core types and keeps a process-wide default client for the
// set-once API key workflow:
//
//	bankconnect.SetAPIKey(key)
//	entity, err := bankconnect.CreateEntity(ctx, linkID)
//
// Applications that need isolated credentials build their own Client with
// NewClient and WithAuthContext.
package bankconnect

import (
	"context"
	"sync"

	"github.com/goliatone/go-bankconnect/core"
	"github.com/goliatone/go-bankconnect/transport"
)

type Config = core.Config

type Option = core.Option

type Client = core.Client
type Entity = core.Entity
type Paginator = core.Paginator
type Record = core.Record
type Resource = core.Resource
type AuthContext = core.AuthContext
type ExportSummary = core.ExportSummary
type RecordSink = core.RecordSink

const (
	ResourceIdentity     = core.ResourceIdentity
	ResourceAccounts     = core.ResourceAccounts
	ResourceTransactions = core.ResourceTransactions
	ResourceFraud        = core.ResourceFraud
)

var ErrDone = core.ErrDone

var (
	WithLogger          = core.WithLogger
	WithLoggerProvider  = core.WithLoggerProvider
	WithMetricsRecorder = core.WithMetricsRecorder
	WithConfigProvider  = core.WithConfigProvider
	WithOptionsResolver = core.WithOptionsResolver
	WithTransport       = core.WithTransport
	WithSigner          = core.WithSigner
	WithAuthContext     = core.WithAuthContext
	WithClock           = core.WithClock
)

var (
	IsValidUUID4     = core.IsValidUUID4
	IsValidation     = core.IsValidation
	IsAuthentication = core.IsAuthentication
	IsEntityNotFound = core.IsEntityNotFound
	IsServiceError   = core.IsServiceError
	IsTransient      = core.IsTransient
)

var (
	defaultMu     sync.Mutex
	defaultClient *core.Client
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// NewClient builds a client that talks REST over net/http unless
// WithTransport supplies another adapter.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	all := make([]Option, 0, len(opts)+1)
	all = append(all, core.WithTransport(transport.NewRESTAdapter(nil)))
	all = append(all, opts...)
	return core.NewClient(cfg, all...)
}

// SetAPIKey stores key in the process-wide auth context shared by the
// default client. It performs no locking; set it once before issuing
// requests from several goroutines.
func SetAPIKey(key string) {
	core.DefaultAuthContext().SetAPIKey(key)
}

func APIKey() (string, bool) {
	return core.DefaultAuthContext().APIKey()
}

// Default returns the process-wide client, building it on first use with
// DefaultConfig. Building performs no network calls.
func Default() (*Client, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient != nil {
		return defaultClient, nil
	}
	client, err := NewClient(DefaultConfig())
	if err != nil {
		return nil, err
	}
	defaultClient = client
	return defaultClient, nil
}

// SetDefault replaces the process-wide client. A nil client makes the next
// Default call rebuild it.
func SetDefault(client *Client) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultClient = client
}

// CreateEntity creates an entity with the default client.
func CreateEntity(ctx context.Context, linkID string) (*Entity, error) {
	client, err := Default()
	if err != nil {
		return nil, err
	}
	return client.CreateEntity(ctx, linkID)
}

// GetEntity resolves an entity with the default client. It never touches the
// network.
func GetEntity(entityID string) (*Entity, error) {
	client, err := Default()
	if err != nil {
		return nil, err
	}
	return client.GetEntity(entityID)
}

// ExportEntity drains resources of entity into sink. See core.ExportEntity.
func ExportEntity(ctx context.Context, entity *Entity, sink RecordSink, resources ...Resource) (ExportSummary, error) {
	return core.ExportEntity(ctx, entity, sink, resources...)
}
