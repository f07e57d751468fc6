package command

import (
	"strings"

	"github.com/goliatone/go-bankconnect/core"
)

const (
	TypeCreateEntity = "bankconnect.command.entity.create"
	TypeExportEntity = "bankconnect.command.entity.export"
)

type CreateEntityMessage struct {
	LinkID string
}

func (CreateEntityMessage) Type() string { return TypeCreateEntity }

func (m CreateEntityMessage) Validate() error {
	if strings.TrimSpace(m.LinkID) == "" {
		return commandValidationError("link_id", "link id is required")
	}
	return nil
}

// ExportEntityMessage selects the resources to export. An empty Resources
// exports every paginated resource.
type ExportEntityMessage struct {
	EntityID  string
	Resources []core.Resource
}

func (ExportEntityMessage) Type() string { return TypeExportEntity }

func (m ExportEntityMessage) Validate() error {
	if !core.IsValidUUID4(m.EntityID) {
		return commandValidationError("entity_id", "entity id must be a canonical uuid4")
	}
	for _, resource := range m.Resources {
		if resource != core.ResourceIdentity && !resource.Paginated() {
			return commandValidationError("resources", "unknown resource "+resource.String())
		}
	}
	return nil
}
