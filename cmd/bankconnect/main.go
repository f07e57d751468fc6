// bankconnect is a command line client for the BankConnect API.
//
// Usage:
//
//	bankconnect create LINK_ID                 Create an entity for a link id
//	bankconnect identity ENTITY_ID             Print the entity's identity
//	bankconnect accounts ENTITY_ID             Stream accounts as JSON lines
//	bankconnect transactions ENTITY_ID         Stream transactions as JSON lines
//	bankconnect fraud ENTITY_ID                Stream fraud flags as JSON lines
//	bankconnect export ENTITY_ID --dsn DSN     Copy resources into a database
//	bankconnect sandbox --addr :8080           Serve an in-memory imitation of the API
//
// The API key comes from --api-key or BANKCONNECT_API_KEY.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/goliatone/go-bankconnect/core"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

type Globals struct {
	Config  string           `help:"YAML configuration file." type:"path"`
	APIKey  string           `name:"api-key" help:"BankConnect API key." env:"BANKCONNECT_API_KEY"`
	BaseURL string           `name:"base-url" help:"Override the service base URL."`
	Verbose bool             `short:"v" help:"Log requests and responses to stderr."`
	Version kong.VersionFlag `help:"Print the version and exit."`
}

type cli struct {
	Globals `embed:""`

	Create       createCmd       `cmd:"" help:"Create an entity for a link id."`
	Identity     identityCmd     `cmd:"" help:"Print the identity of an entity."`
	Accounts     accountsCmd     `cmd:"" help:"Print the accounts of an entity."`
	Transactions transactionsCmd `cmd:"" help:"Print the transactions of an entity."`
	Fraud        fraudCmd        `cmd:"" help:"Print the fraud flags of an entity."`
	Export       exportCmd       `cmd:"" help:"Export entity resources into a SQL database."`
	Sandbox      sandboxCmd      `cmd:"" help:"Serve the in-memory sandbox API."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run parses args and executes the selected command. It returns the process
// exit code: 0 on success, 1 on a command failure, 2 on a usage error.
func run(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) int {
	var root cli
	parser, err := kong.New(&root,
		kong.Name("bankconnect"),
		kong.Description("Resolve BankConnect entities and read their financial data."),
		kong.Writers(stdout, stderr),
		kong.Vars{"version": version},
		kong.UsageOnError(),
	)
	if err != nil {
		fmt.Fprintf(stderr, "bankconnect: %v\n", err)
		return 2
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "bankconnect: %v\n", err)
		return 2
	}

	a := newApp(ctx, root.Globals, stdout, stderr)
	if err := kctx.Run(a); err != nil {
		fmt.Fprintf(stderr, "bankconnect: %s error: %v\n", core.KindOf(err), err)
		return 1
	}
	return 0
}
