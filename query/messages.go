package query

import (
	"github.com/goliatone/go-bankconnect/core"
)

const (
	TypeGetIdentity = "bankconnect.query.identity.get"
	TypeListRecords = "bankconnect.query.records.list"
)

type GetIdentityMessage struct {
	EntityID string
}

func (GetIdentityMessage) Type() string { return TypeGetIdentity }

func (m GetIdentityMessage) Validate() error {
	if !core.IsValidUUID4(m.EntityID) {
		return queryValidationError("entity_id", "entity id must be a canonical uuid4")
	}
	return nil
}

// ListRecordsMessage reads up to Limit records of one paginated resource.
// A zero Limit reads them all.
type ListRecordsMessage struct {
	EntityID string
	Resource core.Resource
	Limit    int
}

func (ListRecordsMessage) Type() string { return TypeListRecords }

func (m ListRecordsMessage) Validate() error {
	if !core.IsValidUUID4(m.EntityID) {
		return queryValidationError("entity_id", "entity id must be a canonical uuid4")
	}
	if !m.Resource.Paginated() {
		return queryValidationError("resource", "resource must be accounts, transactions, or fraud")
	}
	if m.Limit < 0 {
		return queryValidationError("limit", "limit must be >= 0")
	}
	return nil
}
