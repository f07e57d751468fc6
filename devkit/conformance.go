package devkit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-bankconnect/core"
)

func ValidateTransportAdapterConformance(
	ctx context.Context,
	adapter core.TransportAdapter,
	request core.TransportRequest,
) error {
	if adapter == nil {
		return fmt.Errorf("devkit: transport adapter is required")
	}
	if strings.TrimSpace(adapter.Kind()) == "" {
		return fmt.Errorf("devkit: transport adapter kind is required")
	}
	_, err := adapter.Do(ctx, request)
	return err
}

// ValidatePaginatorConformance drains paginator and checks that it ends with
// ErrDone in the exhausted state and fetches nothing afterwards. It returns the
// drained records.
func ValidatePaginatorConformance(ctx context.Context, paginator *core.Paginator) ([]core.Record, error) {
	if paginator == nil {
		return nil, fmt.Errorf("devkit: paginator is required")
	}
	if paginator.State() != core.PaginatorReady || paginator.PagesFetched() != 0 {
		return nil, fmt.Errorf("devkit: paginator must start ready and unfetched, got %s after %d pages", paginator.State(), paginator.PagesFetched())
	}
	records := []core.Record{}
	for {
		record, err := paginator.Next(ctx)
		if errors.Is(err, core.ErrDone) {
			break
		}
		if err != nil {
			return records, err
		}
		records = append(records, record)
	}
	if paginator.State() != core.PaginatorExhausted {
		return records, fmt.Errorf("devkit: expected exhausted paginator, got %s", paginator.State())
	}
	pages := paginator.PagesFetched()
	if _, err := paginator.Next(ctx); !errors.Is(err, core.ErrDone) {
		return records, fmt.Errorf("devkit: exhausted paginator must keep returning ErrDone, got %v", err)
	}
	if paginator.PagesFetched() != pages {
		return records, fmt.Errorf("devkit: exhausted paginator fetched another page")
	}
	return records, nil
}
