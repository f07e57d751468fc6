package query

import (
	"context"

	"github.com/goliatone/go-bankconnect/core"
)

// EntityResolver resolves entity ids without a network call. *core.Client
// satisfies it.
type EntityResolver interface {
	GetEntity(entityID string) (*core.Entity, error)
}

type GetIdentityQuery struct {
	resolver EntityResolver
}

func NewGetIdentityQuery(resolver EntityResolver) *GetIdentityQuery {
	return &GetIdentityQuery{resolver: resolver}
}

func (q *GetIdentityQuery) Query(ctx context.Context, msg GetIdentityMessage) (core.Record, error) {
	if q == nil || q.resolver == nil {
		return nil, queryDependencyError("query: entity resolver is required")
	}
	entity, err := q.resolver.GetEntity(msg.EntityID)
	if err != nil {
		return nil, err
	}
	return entity.GetIdentity(ctx)
}

type ListRecordsQuery struct {
	resolver EntityResolver
}

func NewListRecordsQuery(resolver EntityResolver) *ListRecordsQuery {
	return &ListRecordsQuery{resolver: resolver}
}

// Query fetches only as many pages as Limit needs.
func (q *ListRecordsQuery) Query(ctx context.Context, msg ListRecordsMessage) ([]core.Record, error) {
	if q == nil || q.resolver == nil {
		return nil, queryDependencyError("query: entity resolver is required")
	}
	entity, err := q.resolver.GetEntity(msg.EntityID)
	if err != nil {
		return nil, err
	}
	paginator, err := entity.Paginate(msg.Resource)
	if err != nil {
		return nil, err
	}
	return paginator.Take(ctx, msg.Limit)
}
