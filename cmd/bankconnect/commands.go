package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	bankconnect "github.com/goliatone/go-bankconnect"
	"github.com/goliatone/go-bankconnect/adapters/gocommand"
	"github.com/goliatone/go-bankconnect/command"
	"github.com/goliatone/go-bankconnect/core"
	"github.com/goliatone/go-bankconnect/query"
	"github.com/goliatone/go-bankconnect/sandbox"
	gocmd "github.com/goliatone/go-command"
)

type createCmd struct {
	LinkID string `arg:"" name:"link-id" help:"Your identifier for the customer being linked."`
}

func (c *createCmd) Run(a *app) error {
	done, err := a.dispatcher()
	if err != nil {
		return err
	}
	defer done()

	result := gocmd.NewResult[*core.Entity]()
	if err := gocommand.Dispatch(gocmd.ContextWithResult(a.ctx, result), command.CreateEntityMessage{LinkID: c.LinkID}); err != nil {
		return err
	}
	entity, ok := result.Load()
	if !ok || entity == nil {
		return fmt.Errorf("create entity returned no entity")
	}
	out := map[string]any{"entity_id": entity.EntityID}
	if entity.LinkID != nil {
		out["link_id"] = *entity.LinkID
	}
	return a.emit(out)
}

type identityCmd struct {
	EntityID string `arg:"" name:"entity-id" help:"Entity id returned by create."`
}

func (c *identityCmd) Run(a *app) error {
	done, err := a.dispatcher()
	if err != nil {
		return err
	}
	defer done()

	identity, err := gocommand.Query[query.GetIdentityMessage, core.Record](a.ctx, query.GetIdentityMessage{EntityID: c.EntityID})
	if err != nil {
		return err
	}
	return a.emit(identity)
}

type ListArgs struct {
	EntityID string `arg:"" name:"entity-id" help:"Entity id returned by create."`
	Limit    int    `help:"Stop after this many records. Zero prints them all." default:"0"`
}

func (l ListArgs) run(a *app, resource core.Resource) error {
	done, err := a.dispatcher()
	if err != nil {
		return err
	}
	defer done()

	records, err := gocommand.Query[query.ListRecordsMessage, []core.Record](a.ctx, query.ListRecordsMessage{
		EntityID: l.EntityID,
		Resource: resource,
		Limit:    l.Limit,
	})
	if err != nil {
		return err
	}
	for _, record := range records {
		if err := a.emit(record); err != nil {
			return err
		}
	}
	return nil
}

type accountsCmd struct {
	ListArgs `embed:""`
}

func (c *accountsCmd) Run(a *app) error { return c.run(a, core.ResourceAccounts) }

type transactionsCmd struct {
	ListArgs `embed:""`
}

func (c *transactionsCmd) Run(a *app) error { return c.run(a, core.ResourceTransactions) }

type fraudCmd struct {
	ListArgs `embed:""`
}

func (c *fraudCmd) Run(a *app) error { return c.run(a, core.ResourceFraud) }

type exportCmd struct {
	EntityID  string   `arg:"" name:"entity-id" help:"Entity id returned by create."`
	DSN       string   `name:"dsn" required:"" help:"postgres:// URL or sqlite file path." env:"BANKCONNECT_EXPORT_DSN"`
	Resources []string `name:"resource" help:"Resources to export. Defaults to accounts, transactions, fraud."`
}

func (c *exportCmd) Run(a *app) error {
	store, closeStore, err := openExportStore(a.ctx, c.DSN, a.opts.Verbose)
	if err != nil {
		return err
	}
	defer closeStore()

	done, err := a.dispatcher(bankconnect.WithExportSink(store))
	if err != nil {
		return err
	}
	defer done()

	resources := make([]core.Resource, 0, len(c.Resources))
	for _, name := range c.Resources {
		resources = append(resources, core.Resource(name))
	}
	result := gocmd.NewResult[core.ExportSummary]()
	err = gocommand.Dispatch(gocmd.ContextWithResult(a.ctx, result), command.ExportEntityMessage{
		EntityID:  c.EntityID,
		Resources: resources,
	})
	if summary, ok := result.Load(); ok {
		if emitErr := a.emit(summary); emitErr != nil && err == nil {
			err = emitErr
		}
	}
	return err
}

type sandboxCmd struct {
	Addr         string `default:":8080" help:"Listen address."`
	PageSize     int    `name:"page-size" default:"10" help:"Default page size of list endpoints."`
	Transactions int    `default:"25" help:"Transactions seeded per entity."`
	Cursor       bool   `help:"Paginate with next_cursor tokens instead of page numbers."`
}

// Run serves until the context is cancelled. The global --api-key becomes
// the only key the sandbox accepts.
func (c *sandboxCmd) Run(a *app) error {
	opts := []sandbox.Option{
		sandbox.WithAPIKey(a.opts.APIKey),
		sandbox.WithLogger(a.logger),
		sandbox.WithPageSize(c.PageSize),
		sandbox.WithTransactionsPerEntity(c.Transactions),
	}
	if c.Cursor {
		opts = append(opts, sandbox.WithCursorPagination())
	}
	server := sandbox.NewServer(opts...)
	httpServer := &http.Server{
		Addr:              c.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	fmt.Fprintf(a.stderr, "sandbox listening on %s\n", c.Addr)

	select {
	case <-a.ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
