package core

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

const entityCollectionPath = "/entity/"

// Entity is a resolved bank connect session. It holds identifiers only;
// every data method performs a fresh request.
type Entity struct {
	EntityID string
	// LinkID is set only on entities returned by CreateEntity.
	LinkID *string

	client *Client
}

// CreateEntity mints a new entity for linkID.
func (c *Client) CreateEntity(ctx context.Context, linkID string) (entity *Entity, err error) {
	if _, err := ValidateLinkID(linkID); err != nil {
		return nil, err
	}
	if c == nil {
		return nil, newInternalError("bankconnect: client is not initialized")
	}
	startedAt := c.now()
	defer func() {
		c.observeOperation(ctx, startedAt, "create_entity", err, map[string]any{"link_id": linkID})
	}()

	body, err := c.Request(ctx, http.MethodPost, entityCollectionPath, map[string]any{"link_id": linkID})
	if err != nil {
		return nil, err
	}
	payload, ok := body.(map[string]any)
	if !ok {
		return nil, NewTransientServiceError(nil, "bankconnect: malformed create entity response", http.StatusBadGateway, nil)
	}
	entityID, _ := payload["entity_id"].(string)
	if !IsValidUUID4(entityID) {
		return nil, NewTransientServiceError(nil, "bankconnect: create entity response carries no valid entity_id", http.StatusBadGateway, map[string]any{
			"entity_id": payload["entity_id"],
		})
	}
	echoed := linkID
	if value, ok := payload["link_id"].(string); ok && value != "" {
		echoed = value
	}
	return &Entity{EntityID: entityID, LinkID: &echoed, client: c}, nil
}

// GetEntity resolves entityID locally. Existence is checked by the first data
// method call, never here.
func (c *Client) GetEntity(entityID string) (*Entity, error) {
	id, err := ValidateEntityID(entityID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, newInternalError("bankconnect: client is not initialized")
	}
	return &Entity{EntityID: id, client: c}, nil
}

func (e *Entity) GetIdentity(ctx context.Context) (Record, error) {
	if err := e.bound(); err != nil {
		return nil, err
	}
	body, err := e.client.Request(ctx, http.MethodGet, e.resourcePath(ResourceIdentity), nil)
	if err != nil {
		return nil, err
	}
	payload, ok := body.(map[string]any)
	if !ok {
		return nil, NewTransientServiceError(nil, "bankconnect: malformed identity response", http.StatusBadGateway, map[string]any{
			"resource": ResourceIdentity.String(),
		})
	}
	if nested, ok := payload[ResourceIdentity.String()].(map[string]any); ok {
		return Record(nested), nil
	}
	return Record(payload), nil
}

func (e *Entity) GetAccounts() *Paginator {
	return e.paginator(ResourceAccounts)
}

func (e *Entity) GetTransactions() *Paginator {
	return e.paginator(ResourceTransactions)
}

func (e *Entity) GetFraudInfo() *Paginator {
	return e.paginator(ResourceFraud)
}

// Paginate returns a fresh Paginator for any paginated resource.
func (e *Entity) Paginate(resource Resource) (*Paginator, error) {
	if !resource.Paginated() {
		return nil, NewValidationError("resource", "resource is not paginated", resource.String())
	}
	if err := e.bound(); err != nil {
		return nil, err
	}
	return e.paginator(resource), nil
}

func (e *Entity) paginator(resource Resource) *Paginator {
	if e == nil {
		return newPaginator(nil, "", resource)
	}
	return newPaginator(e.client, e.resourcePath(resource), resource)
}

func (e *Entity) resourcePath(resource Resource) string {
	return entityCollectionPath + url.PathEscape(strings.TrimSpace(e.EntityID)) + "/" + resource.String() + "/"
}

func (e *Entity) bound() error {
	if e == nil || e.client == nil {
		return newInternalError("bankconnect: entity is not bound to a client")
	}
	return nil
}
