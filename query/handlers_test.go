package query

import (
	"context"
	"net/http"
	"testing"

	"github.com/goliatone/go-bankconnect/core"
	"github.com/goliatone/go-bankconnect/devkit"
	goerrors "github.com/goliatone/go-errors"
)

const testEntityID = "c036e96d-ccae-443c-8f64-b98ceeaa1578"

func newFakeClient(t *testing.T, scripts ...devkit.TransportScript) (*core.Client, *devkit.FakeTransportAdapter) {
	t.Helper()
	adapter := devkit.NewFakeTransportAdapter(scripts...)
	client, err := core.NewClient(core.Config{BaseURL: "https://bankconnect.test/v1", PageSize: 2},
		core.WithTransport(adapter),
		core.WithAuthContext(core.NewAuthContext("test-key")),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, adapter
}

func TestGetIdentityQuery_ReturnsIdentity(t *testing.T) {
	client, adapter := newFakeClient(t, devkit.JSON(http.StatusOK, map[string]any{
		"entity_id": testEntityID,
		"identity":  map[string]any{"name": "ASHA RAO"},
	}))

	identity, err := NewGetIdentityQuery(client).Query(context.Background(), GetIdentityMessage{EntityID: testEntityID})
	if err != nil {
		t.Fatalf("query identity: %v", err)
	}
	if identity["name"] != "ASHA RAO" {
		t.Fatalf("unexpected identity %v", identity)
	}
	if got := len(adapter.RequestsTo("/entity/" + testEntityID + "/identity/")); got != 1 {
		t.Fatalf("expected one identity request, got %d", got)
	}
}

func TestGetIdentityQuery_NotFound(t *testing.T) {
	client, _ := newFakeClient(t, devkit.JSON(http.StatusNotFound, map[string]any{"detail": "Not found."}))

	_, err := NewGetIdentityQuery(client).Query(context.Background(), GetIdentityMessage{EntityID: testEntityID})
	if !core.IsEntityNotFound(err) {
		t.Fatalf("expected entity not found, got %v", err)
	}
}

func TestListRecordsQuery_StopsAtLimit(t *testing.T) {
	client, adapter := newFakeClient(t,
		devkit.JSON(http.StatusOK, map[string]any{
			"results": []any{map[string]any{"id": 1}, map[string]any{"id": 2}},
			"next":    "https://bankconnect.test/v1/page-2",
		}),
		devkit.JSON(http.StatusOK, map[string]any{
			"results": []any{map[string]any{"id": 3}, map[string]any{"id": 4}},
			"next":    "https://bankconnect.test/v1/page-3",
		}),
	)

	records, err := NewListRecordsQuery(client).Query(context.Background(), ListRecordsMessage{
		EntityID: testEntityID,
		Resource: core.ResourceTransactions,
		Limit:    3,
	})
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(records) != 3 || records[2]["id"] != float64(3) {
		t.Fatalf("unexpected records %v", records)
	}
	if got := len(adapter.Requests()); got != 2 {
		t.Fatalf("expected two page requests for limit 3, got %d", got)
	}
}

func TestListRecordsQuery_RejectsIdentity(t *testing.T) {
	client, adapter := newFakeClient(t)

	_, err := NewListRecordsQuery(client).Query(context.Background(), ListRecordsMessage{
		EntityID: testEntityID,
		Resource: core.ResourceIdentity,
	})
	if !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := len(adapter.Requests()); got != 0 {
		t.Fatalf("expected no requests, got %d", got)
	}
}

func TestMessages_ValidateReturnsRichError(t *testing.T) {
	cases := map[string]interface{ Validate() error }{
		"identity bad id":  GetIdentityMessage{EntityID: "C036E96D-CCAE-443C-8F64-B98CEEAA1578"},
		"records bad id":   ListRecordsMessage{EntityID: "", Resource: core.ResourceAccounts},
		"records identity": ListRecordsMessage{EntityID: testEntityID, Resource: core.ResourceIdentity},
		"negative limit":   ListRecordsMessage{EntityID: testEntityID, Resource: core.ResourceFraud, Limit: -1},
	}
	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			var rich *goerrors.Error
			if err := msg.Validate(); !goerrors.As(err, &rich) || rich.Category != goerrors.CategoryValidation {
				t.Fatalf("expected validation envelope, got %v", err)
			}
		})
	}
}

func TestQueries_NilResolverReturnsRichError(t *testing.T) {
	var identity *GetIdentityQuery
	_, err := identity.Query(context.Background(), GetIdentityMessage{EntityID: testEntityID})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal dependency error, got %v", err)
	}
	if _, err := NewListRecordsQuery(nil).Query(context.Background(), ListRecordsMessage{}); err == nil {
		t.Fatalf("expected dependency error for nil resolver")
	}
}
