package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-bankconnect/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ExportStore persists exported records. Writing the same entity, resource,
// and position again replaces the stored payload, and Trim drops positions a
// shorter re-export no longer covers.
type ExportStore struct {
	db   *bun.DB
	repo repository.Repository[*exportedRecord]
}

func NewExportStore(db *bun.DB) (*ExportStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*exportedRecord](db, exportedRecordHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid exported record repository wiring: %w", err)
		}
	}
	return &ExportStore{db: db, repo: repo}, nil
}

func (s *ExportStore) Write(ctx context.Context, record core.ExportedRecord) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: export store is not configured")
	}
	entityID := strings.TrimSpace(record.EntityID)
	if entityID == "" {
		return fmt.Errorf("sqlstore: exported record requires entity_id")
	}
	if strings.TrimSpace(record.Resource.String()) == "" {
		return fmt.Errorf("sqlstore: exported record requires resource")
	}
	exportedAt := record.ExportedAt.UTC()
	if exportedAt.IsZero() {
		exportedAt = time.Now().UTC()
	}
	model := &exportedRecord{
		ID:         uuid.NewString(),
		EntityID:   entityID,
		Resource:   record.Resource.String(),
		Position:   record.Position,
		Payload:    copyRecord(record.Record),
		ExportedAt: exportedAt,
	}
	_, err := s.db.NewInsert().
		Model(model).
		On("CONFLICT (entity_id, resource, position) DO UPDATE").
		Set("payload = EXCLUDED.payload").
		Set("exported_at = EXCLUDED.exported_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: write exported record: %w", err)
	}
	return nil
}

// List returns the stored records of one resource in position order. An
// empty resource lists every resource of the entity.
func (s *ExportStore) List(ctx context.Context, entityID string, resource core.Resource) ([]core.ExportedRecord, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: export store is not configured")
	}
	selectors := []repository.SelectCriteria{
		repository.SelectBy("entity_id", "=", strings.TrimSpace(entityID)),
		repository.OrderBy("resource ASC"),
		repository.OrderBy("position ASC"),
	}
	if resource != "" {
		selectors = append(selectors, repository.SelectBy("resource", "=", resource.String()))
	}
	records, _, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return nil, err
	}
	out := make([]core.ExportedRecord, 0, len(records))
	for _, record := range records {
		out = append(out, toDomain(record))
	}
	return out, nil
}

// Count reports how many records are stored per resource for an entity.
func (s *ExportStore) Count(ctx context.Context, entityID string) (map[core.Resource]int, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: export store is not configured")
	}
	var rows []struct {
		Resource string `bun:"resource"`
		Total    int    `bun:"total"`
	}
	err := s.db.NewSelect().
		Model((*exportedRecord)(nil)).
		Column("resource").
		ColumnExpr("COUNT(*) AS total").
		Where("entity_id = ?", strings.TrimSpace(entityID)).
		Group("resource").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	counts := make(map[core.Resource]int, len(rows))
	for _, row := range rows {
		counts[core.Resource(row.Resource)] = row.Total
	}
	return counts, nil
}

// Trim deletes the records of one entity resource at positions keep and
// above.
func (s *ExportStore) Trim(ctx context.Context, entityID string, resource core.Resource, keep int) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: export store is not configured")
	}
	if keep < 0 {
		keep = 0
	}
	_, err := s.db.NewDelete().
		Model((*exportedRecord)(nil)).
		Where("entity_id = ?", strings.TrimSpace(entityID)).
		Where("resource = ?", resource.String()).
		Where("position >= ?", keep).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: trim exported records: %w", err)
	}
	return nil
}

// DeleteEntity drops every stored record of an entity and reports how many
// rows went away.
func (s *ExportStore) DeleteEntity(ctx context.Context, entityID string) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: export store is not configured")
	}
	res, err := s.db.NewDelete().
		Model((*exportedRecord)(nil)).
		Where("entity_id = ?", strings.TrimSpace(entityID)).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}

func toDomain(record *exportedRecord) core.ExportedRecord {
	if record == nil {
		return core.ExportedRecord{}
	}
	return core.ExportedRecord{
		EntityID:   record.EntityID,
		Resource:   core.Resource(record.Resource),
		Position:   record.Position,
		Record:     core.Record(copyRecord(record.Payload)),
		ExportedAt: record.ExportedAt.UTC(),
	}
}

func copyRecord(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
