package core

import (
	"context"
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// ExportEntity drains the selected resources of entity into sink, in the
// order given. It defaults to every paginated resource. The identity
// resource is written as a single record. On failure the counts written so
// far are returned together with the error. Sinks implementing RecordTrimmer
// are trimmed per resource once it is written in full.
func ExportEntity(ctx context.Context, entity *Entity, sink RecordSink, resources ...Resource) (summary ExportSummary, err error) {
	if entity == nil {
		return ExportSummary{}, NewValidationError("entity", "entity is required", nil)
	}
	if sink == nil {
		return ExportSummary{}, newInternalError("bankconnect: export sink is required")
	}
	if err := entity.bound(); err != nil {
		return ExportSummary{}, err
	}
	if len(resources) == 0 {
		resources = PaginatedResources
	}
	for _, resource := range resources {
		if resource != ResourceIdentity && !resource.Paginated() {
			return ExportSummary{}, NewValidationError("resource", "unknown resource", resource.String())
		}
	}

	client := entity.client
	startedAt := client.now()
	summary = ExportSummary{EntityID: entity.EntityID, Counts: map[Resource]int{}}
	defer func() {
		client.observeOperation(ctx, startedAt, "export_entity", err, map[string]any{
			"entity_id": entity.EntityID,
			"total":     summary.Total,
		})
	}()

	write := func(resource Resource, position int, record Record) error {
		exported := ExportedRecord{
			EntityID:   entity.EntityID,
			Resource:   resource,
			Position:   position,
			Record:     record,
			ExportedAt: client.now().UTC(),
		}
		if err := sink.Write(ctx, exported); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, fmt.Sprintf("bankconnect: write %s record %d", resource, position)).
				WithTextCode(ErrorInternal)
		}
		summary.Counts[resource]++
		summary.Total++
		return nil
	}

	trim := func(resource Resource) error {
		trimmer, ok := sink.(RecordTrimmer)
		if !ok {
			return nil
		}
		if err := trimmer.Trim(ctx, entity.EntityID, resource, summary.Counts[resource]); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, fmt.Sprintf("bankconnect: trim %s records", resource)).
				WithTextCode(ErrorInternal)
		}
		return nil
	}

	for _, resource := range resources {
		if resource == ResourceIdentity {
			record, err := entity.GetIdentity(ctx)
			if err != nil {
				return summary, err
			}
			if err := write(resource, 0, record); err != nil {
				return summary, err
			}
			if err := trim(resource); err != nil {
				return summary, err
			}
			continue
		}

		paginator := entity.paginator(resource)
		for position := 0; ; position++ {
			record, err := paginator.Next(ctx)
			if errors.Is(err, ErrDone) {
				break
			}
			if err != nil {
				return summary, err
			}
			if err := write(resource, position, record); err != nil {
				return summary, err
			}
		}
		if err := trim(resource); err != nil {
			return summary, err
		}
	}
	return summary, nil
}
