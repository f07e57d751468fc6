package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	bankconnect "github.com/goliatone/go-bankconnect"
	"github.com/goliatone/go-bankconnect/adapters/gocommand"
	"github.com/goliatone/go-bankconnect/adapters/gologger"
	"github.com/goliatone/go-bankconnect/core"
	glog "github.com/goliatone/go-logger/glog"
)

type app struct {
	ctx    context.Context
	opts   Globals
	stdout io.Writer
	stderr io.Writer
	slog   *slog.Logger
	logger glog.Logger
	client *core.Client
}

func newApp(ctx context.Context, opts Globals, stdout io.Writer, stderr io.Writer) *app {
	if ctx == nil {
		ctx = context.Background()
	}
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	base := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	return &app{
		ctx:    ctx,
		opts:   opts,
		stdout: stdout,
		stderr: stderr,
		slog:   base,
		logger: gologger.NewSlogLogger(base),
	}
}

// bankClient builds the client once. The API key lands in the process-wide
// auth context so the default client and this one agree.
func (a *app) bankClient() (*core.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	if key := strings.TrimSpace(a.opts.APIKey); key != "" {
		bankconnect.SetAPIKey(key)
	}
	opts := []core.Option{
		core.WithLoggerProvider(gologger.NewSlogProvider(a.slog)),
	}
	if path := strings.TrimSpace(a.opts.Config); path != "" {
		opts = append(opts, core.WithConfigProvider(core.NewCfgxConfigProvider(core.NewFileConfigLoader(path))))
	}
	client, err := bankconnect.NewClient(core.Config{BaseURL: strings.TrimSpace(a.opts.BaseURL)}, opts...)
	if err != nil {
		return nil, err
	}
	a.client = client
	return client, nil
}

// dispatcher subscribes a facade on the command dispatcher for the duration
// of one command. Call the returned func when done.
func (a *app) dispatcher(opts ...bankconnect.FacadeOption) (func(), error) {
	client, err := a.bankClient()
	if err != nil {
		return nil, err
	}
	facade, err := bankconnect.NewFacade(client, opts...)
	if err != nil {
		return nil, err
	}
	subs, err := gocommand.SubscribeFacade(nil, facade)
	if err != nil {
		return nil, err
	}
	return subs.Unsubscribe, nil
}

func (a *app) emit(value any) error {
	return json.NewEncoder(a.stdout).Encode(value)
}
