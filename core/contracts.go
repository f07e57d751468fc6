package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Record is a single opaque entry returned by the service. Field presence is
// a service contract and is never validated here.
type Record map[string]any

type Resource string

const (
	ResourceIdentity     Resource = "identity"
	ResourceAccounts     Resource = "accounts"
	ResourceTransactions Resource = "transactions"
	ResourceFraud        Resource = "fraud"
)

// PaginatedResources lists the resources exposed as paginated sequences, in
// export order.
var PaginatedResources = []Resource{
	ResourceAccounts,
	ResourceTransactions,
	ResourceFraud,
}

func (r Resource) String() string { return string(r) }

func (r Resource) Paginated() bool {
	for _, candidate := range PaginatedResources {
		if candidate == r {
			return true
		}
	}
	return false
}

type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	Metadata             map[string]any
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

// Signer attaches the API key credential to an outbound request.
type Signer interface {
	Sign(ctx context.Context, req *TransportRequest, apiKey string) error
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type ExportedRecord struct {
	EntityID   string
	Resource   Resource
	Position   int
	Record     Record
	ExportedAt time.Time
}

type RecordSink interface {
	Write(ctx context.Context, record ExportedRecord) error
}

// RecordTrimmer is implemented by sinks that keep earlier exports. After a
// resource is fully written, ExportEntity calls Trim so records at positions
// from keep onward, left by a longer previous export, are dropped.
type RecordTrimmer interface {
	Trim(ctx context.Context, entityID string, resource Resource, keep int) error
}

type ExportSummary struct {
	EntityID string           `json:"entity_id"`
	Counts   map[Resource]int `json:"counts"`
	Total    int              `json:"total"`
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
