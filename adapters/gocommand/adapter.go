package gocommand

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	lzcommand "github.com/goliatone/go-lzreceiver/command"
	"github.com/goliatone/go-lzreceiver/core"
	"github.com/goliatone/go-lzreceiver/inbound"
	lzquery "github.com/goliatone/go-lzreceiver/query"
)

const typePrefix = "lzreceiver."

// ReceiverService is everything the receiver command and query handlers
// delegate to.
type ReceiverService interface {
	lzcommand.MutatingService
	lzquery.QuoteReader
	lzquery.AccountsReader
	lzquery.ChannelReader
	lzquery.RemoteReader
}

// RegistryAdapter owns the go-command registry the receiver handlers are
// registered on and remembers which receiver message types it holds.
type RegistryAdapter struct {
	registry *command.Registry
	types    []string
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

// RegisteredTypes lists the receiver message types in registration order.
func (a *RegistryAdapter) RegisteredTypes() []string {
	if a == nil {
		return nil
	}
	return slices.Clone(a.types)
}

// AddQueueResolver mirrors every registered receiver command into a go-job
// queue registry when the registry initializes.
func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

func (a *RegistryAdapter) claim(msgType string) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	if !strings.HasPrefix(msgType, typePrefix) {
		return fmt.Errorf("gocommand: %q is not a receiver message type", msgType)
	}
	if slices.Contains(a.types, msgType) {
		return fmt.Errorf("gocommand: %s is already registered", msgType)
	}
	a.types = append(a.types, msgType)
	return nil
}

func (a *RegistryAdapter) release(msgType string) {
	if i := slices.Index(a.types, msgType); i >= 0 {
		a.types = slices.Delete(a.types, i, i+1)
	}
}

// Subscriptions groups dispatcher subscriptions so they can be released
// together.
type Subscriptions []commanddispatcher.Subscription

func (s Subscriptions) Unsubscribe() {
	for _, sub := range s {
		if sub != nil {
			sub.Unsubscribe()
		}
	}
}

// RegisterReceiverHandlers registers and subscribes every receiver command
// and query. On failure the subscriptions made so far are released.
func RegisterReceiverHandlers(
	adapter *RegistryAdapter,
	svc ReceiverService,
	runnerOpts ...runner.Option,
) (Subscriptions, error) {
	if svc == nil {
		return nil, fmt.Errorf("gocommand: receiver service is required")
	}
	var subs Subscriptions
	register := func(sub commanddispatcher.Subscription, err error) error {
		if err != nil {
			subs.Unsubscribe()
			return err
		}
		subs = append(subs, sub)
		return nil
	}

	if err := register(registerCommand[lzcommand.InitChannelMessage](adapter, lzcommand.NewInitChannelCommand(svc), runnerOpts)); err != nil {
		return nil, err
	}
	if err := register(registerCommand[lzcommand.SetRemoteMessage](adapter, lzcommand.NewSetRemoteCommand(svc), runnerOpts)); err != nil {
		return nil, err
	}
	if err := register(registerCommand[lzcommand.ReceiveMessage](adapter, lzcommand.NewReceiveCommand(svc), runnerOpts)); err != nil {
		return nil, err
	}
	if err := register(registerCommand[lzcommand.ComposeMessage](adapter, lzcommand.NewComposeCommand(svc), runnerOpts)); err != nil {
		return nil, err
	}
	if err := register(registerQuery[lzquery.QuoteMessage, core.MessagingFee](adapter, lzquery.NewQuoteQuery(svc), runnerOpts)); err != nil {
		return nil, err
	}
	if err := register(registerQuery[lzquery.RequiredAccountsMessage, []core.AccountMeta](adapter, lzquery.NewRequiredAccountsQuery(svc), runnerOpts)); err != nil {
		return nil, err
	}
	if err := register(registerQuery[lzquery.GetChannelMessage, core.ChannelState](adapter, lzquery.NewGetChannelQuery(svc), runnerOpts)); err != nil {
		return nil, err
	}
	if err := register(registerQuery[lzquery.GetRemoteMessage, core.RemoteEntry](adapter, lzquery.NewGetRemoteQuery(svc), runnerOpts)); err != nil {
		return nil, err
	}
	return subs, nil
}

func registerCommand[T command.Message](adapter *RegistryAdapter, cmd command.Commander[T], runnerOpts []runner.Option) (commanddispatcher.Subscription, error) {
	var zero T
	msgType := zero.Type()
	if err := adapter.claim(msgType); err != nil {
		return nil, err
	}
	sub := commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
	if err := adapter.registry.RegisterCommand(cmd); err != nil {
		sub.Unsubscribe()
		adapter.release(msgType)
		return nil, fmt.Errorf("gocommand: register %s: %w", msgType, err)
	}
	return sub, nil
}

func registerQuery[T command.Message, R any](adapter *RegistryAdapter, qry command.Querier[T, R], runnerOpts []runner.Option) (commanddispatcher.Subscription, error) {
	var zero T
	msgType := zero.Type()
	if err := adapter.claim(msgType); err != nil {
		return nil, err
	}
	sub := commanddispatcher.SubscribeQuery(qry, runnerOpts...)
	if err := adapter.registry.RegisterCommand(qry); err != nil {
		sub.Unsubscribe()
		adapter.release(msgType)
		return nil, fmt.Errorf("gocommand: register %s: %w", msgType, err)
	}
	return sub, nil
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

// DispatchReceive sends msg through the bus and returns the receive result
// the handler stored, including the partial result of a failed receipt.
func DispatchReceive(ctx context.Context, msg lzcommand.ReceiveMessage) (inbound.ReceiveResult, error) {
	collector := command.NewResult[inbound.ReceiveResult]()
	err := commanddispatcher.Dispatch(command.ContextWithResult(ctx, collector), msg)
	result, _ := collector.Load()
	return result, err
}
