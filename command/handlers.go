package command

import (
	"context"

	"github.com/goliatone/go-bankconnect/core"
	gocmd "github.com/goliatone/go-command"
)

// EntityService is the slice of *core.Client the commands depend on.
type EntityService interface {
	CreateEntity(ctx context.Context, linkID string) (*core.Entity, error)
	GetEntity(entityID string) (*core.Entity, error)
}

type CreateEntityCommand struct {
	service EntityService
}

func NewCreateEntityCommand(service EntityService) *CreateEntityCommand {
	return &CreateEntityCommand{service: service}
}

func (c *CreateEntityCommand) Execute(ctx context.Context, msg CreateEntityMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: entity service is required")
	}
	entity, err := c.service.CreateEntity(ctx, msg.LinkID)
	if err != nil {
		return err
	}
	storeResult(ctx, entity)
	return nil
}

type ExportEntityCommand struct {
	service EntityService
	sink    core.RecordSink
}

func NewExportEntityCommand(service EntityService, sink core.RecordSink) *ExportEntityCommand {
	return &ExportEntityCommand{service: service, sink: sink}
}

// Execute stores the export summary even when the export fails part way, so
// callers can see how far it got.
func (c *ExportEntityCommand) Execute(ctx context.Context, msg ExportEntityMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: entity service is required")
	}
	if c.sink == nil {
		return commandDependencyError("command: export sink is required")
	}
	entity, err := c.service.GetEntity(msg.EntityID)
	if err != nil {
		return err
	}
	summary, err := core.ExportEntity(ctx, entity, c.sink, msg.Resources...)
	storeResult(ctx, summary)
	return err
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
