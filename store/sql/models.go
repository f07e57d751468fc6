package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type exportedRecord struct {
	bun.BaseModel `bun:"table:bankconnect_exported_records,alias:ber"`

	ID         string         `bun:"id,pk"`
	EntityID   string         `bun:"entity_id,notnull"`
	Resource   string         `bun:"resource,notnull"`
	Position   int            `bun:"position,notnull"`
	Payload    map[string]any `bun:"payload,type:jsonb,notnull"`
	ExportedAt time.Time      `bun:"exported_at,nullzero,notnull,default:current_timestamp"`
}
