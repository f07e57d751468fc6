package bankconnect

import (
	"fmt"

	bankcommand "github.com/goliatone/go-bankconnect/command"
	"github.com/goliatone/go-bankconnect/core"
	bankquery "github.com/goliatone/go-bankconnect/query"
)

// CommandQueryService is what the facade needs from a client. *Client
// satisfies it.
type CommandQueryService interface {
	bankcommand.EntityService
	bankquery.EntityResolver
}

type Commands struct {
	CreateEntity *bankcommand.CreateEntityCommand
	ExportEntity *bankcommand.ExportEntityCommand
}

type Queries struct {
	GetIdentity *bankquery.GetIdentityQuery
	ListRecords *bankquery.ListRecordsQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	sink core.RecordSink
}

// WithExportSink sets where ExportEntity writes. Without it the export
// command fails with a dependency error.
func WithExportSink(sink core.RecordSink) FacadeOption {
	return func(options *facadeOptions) {
		options.sink = sink
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("bankconnect: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		CreateEntity: bankcommand.NewCreateEntityCommand(service),
		ExportEntity: bankcommand.NewExportEntityCommand(service, cfg.sink),
	}
	facade.queries = Queries{
		GetIdentity: bankquery.NewGetIdentityQuery(service),
		ListRecords: bankquery.NewListRecordsQuery(service),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
