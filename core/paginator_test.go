package core

import (
	"context"
	"errors"
	"testing"
)

func TestPaginator_FetchesLazilyPageByPage(t *testing.T) {
	transport := newScriptedTransport(
		scriptedResponse{body: drfPage(numberedRecords("txn", 1, 2), "https://bankconnect.test/v1/entity/x/transactions/?page=2")},
		scriptedResponse{body: drfPage(numberedRecords("txn", 3, 1), nil)},
	)
	client := newTestClient(t, transport)
	entity, err := client.GetEntity(testEntityID)
	if err != nil {
		t.Fatalf("get entity: %v", err)
	}

	paginator := entity.GetTransactions()
	if paginator.State() != PaginatorReady {
		t.Fatalf("expected ready state, got %s", paginator.State())
	}
	if got := len(transport.calls()); got != 0 {
		t.Fatalf("expected no request before the first Next, got %d", got)
	}

	first, err := paginator.Next(context.Background())
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if first["id"] != "txn_1" {
		t.Fatalf("unexpected first record %#v", first)
	}
	if got := len(transport.calls()); got != 1 {
		t.Fatalf("expected one page fetched for the first record, got %d", got)
	}

	second, err := paginator.Next(context.Background())
	if err != nil || second["id"] != "txn_2" {
		t.Fatalf("unexpected second record %#v (%v)", second, err)
	}
	if got := len(transport.calls()); got != 1 {
		t.Fatalf("expected records within a page to need no request, got %d", got)
	}

	third, err := paginator.Next(context.Background())
	if err != nil || third["id"] != "txn_3" {
		t.Fatalf("unexpected third record %#v (%v)", third, err)
	}
	if _, err := paginator.Next(context.Background()); !errors.Is(err, ErrDone) {
		t.Fatalf("expected ErrDone, got %v", err)
	}
	if paginator.State() != PaginatorExhausted {
		t.Fatalf("expected exhausted state, got %s", paginator.State())
	}
	if paginator.PagesFetched() != 2 {
		t.Fatalf("expected 2 pages, got %d", paginator.PagesFetched())
	}

	calls := transport.calls()
	if calls[0].Query["page"] != "1" || calls[1].Query["page"] != "2" {
		t.Fatalf("unexpected page params %#v %#v", calls[0].Query, calls[1].Query)
	}
	if calls[0].Query["page_size"] != "100" {
		t.Fatalf("expected default page size, got %q", calls[0].Query["page_size"])
	}
	if calls[0].URL != "https://bankconnect.test/v1/entity/"+testEntityID+"/transactions/" {
		t.Fatalf("unexpected url %q", calls[0].URL)
	}

	if _, err := paginator.Next(context.Background()); !errors.Is(err, ErrDone) {
		t.Fatalf("expected exhausted paginator to stay exhausted, got %v", err)
	}
	if got := len(transport.calls()); got != 2 {
		t.Fatalf("expected no request after exhaustion, got %d", got)
	}
}

func TestPaginator_FollowsNextCursor(t *testing.T) {
	transport := newScriptedTransport(
		scriptedResponse{body: map[string]any{"accounts": numberedRecords("acc", 1, 1), "next_cursor": "c2"}},
		scriptedResponse{body: map[string]any{"accounts": numberedRecords("acc", 2, 1), "next_cursor": "c3"}},
		scriptedResponse{body: map[string]any{"accounts": []any{}, "next_cursor": ""}},
	)
	client := newTestClient(t, transport)
	entity, _ := client.GetEntity(testEntityID)

	records, err := entity.GetAccounts().Take(context.Background(), 0)
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	calls := transport.calls()
	if len(calls) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(calls))
	}
	if calls[1].Query["cursor"] != "c2" || calls[2].Query["cursor"] != "c3" {
		t.Fatalf("expected cursor continuation, got %#v %#v", calls[1].Query, calls[2].Query)
	}
	if _, ok := calls[1].Query["page"]; ok {
		t.Fatalf("expected page param to be replaced by cursor")
	}
}

func TestPaginator_StopsOnNonAdvancingCursor(t *testing.T) {
	transport := newScriptedTransport(
		scriptedResponse{body: map[string]any{"data": numberedRecords("f", 1, 1), "next_cursor": "same"}},
		scriptedResponse{body: map[string]any{"data": numberedRecords("f", 2, 1), "next_cursor": "same"}},
	)
	client := newTestClient(t, transport)
	entity, _ := client.GetEntity(testEntityID)

	records, err := entity.GetFraudInfo().Take(context.Background(), 0)
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if got := len(transport.calls()); got != 2 {
		t.Fatalf("expected repeated cursor to end the sequence after 2 requests, got %d", got)
	}
}

func TestPaginator_BareArrayIsSinglePage(t *testing.T) {
	transport := newScriptedTransport(scriptedResponse{body: numberedRecords("fraud", 1, 3)})
	client := newTestClient(t, transport)
	entity, _ := client.GetEntity(testEntityID)

	count := 0
	for record, err := range entity.GetFraudInfo().All(context.Background()) {
		if err != nil {
			t.Fatalf("iterate: %v", err)
		}
		if record["id"] == nil {
			t.Fatalf("expected record id")
		}
		count++
	}
	if count != 3 {
		t.Fatalf("expected 3 records, got %d", count)
	}
	if got := len(transport.calls()); got != 1 {
		t.Fatalf("expected a single request, got %d", got)
	}
}

func TestPaginator_HasMoreWithEmptyPageTerminates(t *testing.T) {
	transport := newScriptedTransport(scriptedResponse{body: map[string]any{"results": []any{}, "has_more": true}})
	client := newTestClient(t, transport)
	entity, _ := client.GetEntity(testEntityID)

	if _, err := entity.GetAccounts().Next(context.Background()); !errors.Is(err, ErrDone) {
		t.Fatalf("expected ErrDone, got %v", err)
	}
	if got := len(transport.calls()); got != 1 {
		t.Fatalf("expected one request, got %d", got)
	}
}

func TestPaginator_FirstFetchSurfacesNotFound(t *testing.T) {
	transport := newScriptedTransport(scriptedResponse{status: 404, body: map[string]any{"detail": "Not found."}})
	client := newTestClient(t, transport)
	entity, err := client.GetEntity(testEntityID)
	if err != nil {
		t.Fatalf("expected get to succeed without network, got %v", err)
	}
	if got := len(transport.calls()); got != 0 {
		t.Fatalf("expected no request at get time, got %d", got)
	}

	paginator := entity.GetTransactions()
	_, err = paginator.Next(context.Background())
	if !IsEntityNotFound(err) {
		t.Fatalf("expected entity not found, got %v", err)
	}
	if paginator.State() != PaginatorFailed {
		t.Fatalf("expected failed state, got %s", paginator.State())
	}
	_, again := paginator.Next(context.Background())
	if again != err {
		t.Fatalf("expected the same error on retry of a failed paginator, got %v", again)
	}
	if got := len(transport.calls()); got != 1 {
		t.Fatalf("expected the failure to be raised exactly once over the wire, got %d requests", got)
	}
}

func TestPaginator_MalformedPageIsTransient(t *testing.T) {
	cases := map[string]any{
		"scalar":          "nope",
		"missing list":    map[string]any{"count": 1},
		"non object item": []any{"x"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, newScriptedTransport(scriptedResponse{body: body}))
			entity, _ := client.GetEntity(testEntityID)
			_, err := entity.GetAccounts().Next(context.Background())
			if !IsServiceError(err) || !IsTransient(err) {
				t.Fatalf("expected transient service error, got %v", err)
			}
		})
	}
}

func TestPaginator_FreshPaginatorPerCall(t *testing.T) {
	transport := newScriptedTransport(scriptedResponse{body: drfPage(numberedRecords("acc", 1, 2), nil)})
	client := newTestClient(t, transport)
	entity, _ := client.GetEntity(testEntityID)

	first := entity.GetAccounts()
	if _, err := first.Next(context.Background()); err != nil {
		t.Fatalf("next: %v", err)
	}
	second := entity.GetAccounts()
	record, err := second.Next(context.Background())
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if record["id"] != "acc_1" {
		t.Fatalf("expected a fresh paginator to restart at the first record, got %#v", record)
	}
	remaining, err := first.Take(context.Background(), 0)
	if err != nil || len(remaining) != 1 || remaining[0]["id"] != "acc_2" {
		t.Fatalf("expected the first paginator to keep its own cursor, got %#v (%v)", remaining, err)
	}
}

func TestPaginator_TakeStopsEarly(t *testing.T) {
	transport := newScriptedTransport(
		scriptedResponse{body: drfPage(numberedRecords("txn", 1, 2), "next")},
		scriptedResponse{body: drfPage(numberedRecords("txn", 3, 2), nil)},
	)
	client := newTestClient(t, transport, WithConfigProvider(NewCfgxConfigProvider(mapRawLoader{values: map[string]any{"page_size": 2}})))
	entity, _ := client.GetEntity(testEntityID)

	records, err := entity.GetTransactions().Take(context.Background(), 2)
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	calls := transport.calls()
	if len(calls) != 1 {
		t.Fatalf("expected the second page to stay unfetched, got %d requests", len(calls))
	}
	if calls[0].Query["page_size"] != "2" {
		t.Fatalf("expected configured page size, got %q", calls[0].Query["page_size"])
	}
}

func TestPaginator_UnboundReportsError(t *testing.T) {
	var entity *Entity
	if _, err := entity.GetAccounts().Next(context.Background()); err == nil {
		t.Fatalf("expected error from unbound paginator")
	}
	if _, err := (&Entity{EntityID: testEntityID}).Paginate(ResourceAccounts); err == nil {
		t.Fatalf("expected error from entity without client")
	}
}

func TestPaginator_FollowsCursorInNextURL(t *testing.T) {
	base := "https://bankconnect.test/v1/entity/x/transactions/"
	transport := newScriptedTransport(
		scriptedResponse{body: drfPage(numberedRecords("txn", 1, 2), base+"?cursor=cD0y&page_size=2")},
		scriptedResponse{body: drfPage(numberedRecords("txn", 3, 2), base+"?cursor=cD00&page_size=2")},
		scriptedResponse{body: drfPage(numberedRecords("txn", 5, 1), nil)},
	)
	client := newTestClient(t, transport)
	entity, _ := client.GetEntity(testEntityID)

	records, err := entity.GetTransactions().Take(context.Background(), 1000)
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if len(records) != 5 || records[0]["id"] != "txn_1" || records[4]["id"] != "txn_5" {
		t.Fatalf("expected txn_1..txn_5 once each, got %#v", records)
	}
	calls := transport.calls()
	if len(calls) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(calls))
	}
	if calls[1].Query["cursor"] != "cD0y" || calls[1].Query["page"] != "" {
		t.Fatalf("expected second request to carry the cursor only, got %#v", calls[1].Query)
	}
	if calls[2].Query["cursor"] != "cD00" {
		t.Fatalf("expected third request to carry the next cursor, got %#v", calls[2].Query)
	}
}

func TestPaginator_StopsWhenNextURLDoesNotAdvance(t *testing.T) {
	next := "https://bankconnect.test/v1/entity/x/transactions/?cursor=stuck"
	transport := newScriptedTransport(
		scriptedResponse{body: drfPage(numberedRecords("txn", 1, 2), next)},
		scriptedResponse{body: drfPage(numberedRecords("txn", 3, 2), next)},
	)
	client := newTestClient(t, transport)
	entity, _ := client.GetEntity(testEntityID)

	records, err := entity.GetTransactions().Take(context.Background(), 1000)
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected the repeated cursor to end the sequence after 4 records, got %d", len(records))
	}
	if got := len(transport.calls()); got != 2 {
		t.Fatalf("expected 2 requests, got %d", got)
	}

	stale := newScriptedTransport(
		scriptedResponse{body: drfPage(numberedRecords("acc", 1, 1), "https://bankconnect.test/v1/entity/x/accounts/?page=1")},
	)
	entity, _ = newTestClient(t, stale).GetEntity(testEntityID)
	records, err = entity.GetAccounts().Take(context.Background(), 0)
	if err != nil || len(records) != 1 {
		t.Fatalf("expected a next URL pointing at the current page to stop, got %d (%v)", len(records), err)
	}
	if got := len(stale.calls()); got != 1 {
		t.Fatalf("expected 1 request, got %d", got)
	}
}

func TestPaginator_TakesPageNumberFromNextURL(t *testing.T) {
	transport := newScriptedTransport(
		scriptedResponse{body: drfPage(numberedRecords("acc", 1, 1), "/v1/entity/x/accounts/?page=3")},
		scriptedResponse{body: drfPage(numberedRecords("acc", 2, 1), nil)},
	)
	client := newTestClient(t, transport)
	entity, _ := client.GetEntity(testEntityID)

	if _, err := entity.GetAccounts().Take(context.Background(), 0); err != nil {
		t.Fatalf("take: %v", err)
	}
	calls := transport.calls()
	if len(calls) != 2 || calls[1].Query["page"] != "3" {
		t.Fatalf("expected the second request to ask for page 3, got %#v", calls)
	}
}
