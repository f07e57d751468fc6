package gocommand

import (
	"context"
	"fmt"
	"strings"

	bankconnect "github.com/goliatone/go-bankconnect"
	bankcommand "github.com/goliatone/go-bankconnect/command"
	"github.com/goliatone/go-bankconnect/core"
	bankquery "github.com/goliatone/go-bankconnect/query"
	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(cmd)
}

func (a *RegistryAdapter) AddResolver(key string, resolver command.Resolver) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	if a == nil || a.registry == nil {
		return false
	}
	return a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

func SubscribeCommand[T any](cmd command.Commander[T], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
}

func SubscribeQuery[T any, R any](qry command.Querier[T, R], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

// Subscriptions tracks the dispatcher handlers installed by SubscribeFacade.
type Subscriptions []commanddispatcher.Subscription

func (s Subscriptions) Unsubscribe() {
	for _, subscription := range s {
		if subscription != nil {
			subscription.Unsubscribe()
		}
	}
}

// SubscribeFacade installs every facade command and query on the global
// dispatcher and registers the commands with the adapter's registry. A
// nil adapter skips registration.
func SubscribeFacade(adapter *RegistryAdapter, facade *bankconnect.Facade, runnerOpts ...runner.Option) (Subscriptions, error) {
	if facade == nil {
		return nil, fmt.Errorf("gocommand: facade is required")
	}
	commands := facade.Commands()
	queries := facade.Queries()

	subs := Subscriptions{
		SubscribeCommand[bankcommand.CreateEntityMessage](commands.CreateEntity, runnerOpts...),
		SubscribeCommand[bankcommand.ExportEntityMessage](commands.ExportEntity, runnerOpts...),
		SubscribeQuery[bankquery.GetIdentityMessage, core.Record](queries.GetIdentity, runnerOpts...),
		SubscribeQuery[bankquery.ListRecordsMessage, []core.Record](queries.ListRecords, runnerOpts...),
	}
	if adapter == nil {
		return subs, nil
	}
	for _, cmd := range []any{commands.CreateEntity, commands.ExportEntity} {
		if err := adapter.RegisterCommand(cmd); err != nil {
			subs.Unsubscribe()
			return nil, err
		}
	}
	return subs, nil
}
