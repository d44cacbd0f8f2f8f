package lzreceiver

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-lzreceiver/core"
	"github.com/goliatone/go-lzreceiver/inbound"
	"github.com/goliatone/go-lzreceiver/msgcodec"
	"github.com/goliatone/go-lzreceiver/transport"
)

type ReceiverOption func(*receiverOptions)

type receiverOptions struct {
	serviceOptions  []core.Option
	endpointOptions []transport.EndpointOption
	transports      *transport.Registry
	ledger          core.ClearLedger
	enqueuer        core.JobEnqueuer
	dequeuer        core.JobDequeuer
	hook            core.JobWorkerHook
}

// WithServiceOptions forwards options to core.NewService.
func WithServiceOptions(opts ...core.Option) ReceiverOption {
	return func(o *receiverOptions) {
		o.serviceOptions = append(o.serviceOptions, opts...)
	}
}

func WithEndpointOptions(opts ...transport.EndpointOption) ReceiverOption {
	return func(o *receiverOptions) {
		o.endpointOptions = append(o.endpointOptions, opts...)
	}
}

// WithTransportRegistry replaces the default registry. Endpoint options and
// the clear ledger are then the caller's responsibility.
func WithTransportRegistry(registry *transport.Registry) ReceiverOption {
	return func(o *receiverOptions) {
		o.transports = registry
	}
}

func WithClearLedger(ledger core.ClearLedger) ReceiverOption {
	return func(o *receiverOptions) {
		o.ledger = ledger
	}
}

// WithComposeQueue routes compose deliveries through an external queue, for
// example the go-job adapters. Both sides must address the same queue.
func WithComposeQueue(enqueuer core.JobEnqueuer, dequeuer core.JobDequeuer) ReceiverOption {
	return func(o *receiverOptions) {
		o.enqueuer = enqueuer
		o.dequeuer = dequeuer
	}
}

func WithComposeHook(hook core.JobWorkerHook) ReceiverOption {
	return func(o *receiverOptions) {
		o.hook = hook
	}
}

// Receiver wires the service, the transport registry and the receive and
// compose pipelines into one entry point.
type Receiver struct {
	service    *core.Service
	transports *transport.Registry
	dispatcher *inbound.Dispatcher
	composer   *inbound.ComposeHandler
	worker     *inbound.ComposeWorker
	queue      *core.MemoryJobQueue
}

func NewReceiver(cfg Config, opts ...ReceiverOption) (*Receiver, error) {
	options := receiverOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	resolver := &registryResolver{}
	serviceOpts := append([]core.Option{
		core.WithTransportResolver(resolver),
		core.WithEnvelopeEncoder(msgcodec.Codec{}),
	}, options.serviceOptions...)
	svc, err := core.NewService(cfg, serviceOpts...)
	if err != nil {
		return nil, err
	}
	resolved := svc.Config()

	var memoryQueue *core.MemoryJobQueue
	if options.enqueuer == nil || options.dequeuer == nil {
		memoryQueue = core.NewMemoryJobQueue()
		options.enqueuer = memoryQueue
		options.dequeuer = memoryQueue
	}

	registry := options.transports
	if registry == nil {
		endpointOpts := []transport.EndpointOption{
			transport.WithComposeEnqueuer(options.enqueuer, resolved.Compose.JobID),
		}
		if options.ledger != nil {
			endpointOpts = append(endpointOpts, transport.WithLedger(options.ledger))
		}
		endpointOpts = append(endpointOpts, options.endpointOptions...)
		registry = transport.NewDefaultRegistry(resolved.LocalChainID, endpointOpts...)
		if ref := strings.TrimSpace(resolved.DefaultTransport); ref != "" && ref != transport.DefaultEndpointID {
			if err := registry.Register(transport.NewEndpoint(ref, resolved.LocalChainID, endpointOpts...)); err != nil {
				return nil, err
			}
		}
	}
	resolver.registry = registry

	pipelineOpts := []inbound.Option{
		inbound.WithLogger(svc.Logger()),
		inbound.WithMetricsRecorder(svc.MetricsRecorder()),
	}
	composer := inbound.NewComposeHandler(svc, pipelineOpts...)
	worker := inbound.NewComposeWorker(options.dequeuer, composer, resolved.Compose.MaxAttempts)
	worker.Hook = options.hook

	return &Receiver{
		service:    svc,
		transports: registry,
		dispatcher: inbound.NewDispatcher(svc, pipelineOpts...),
		composer:   composer,
		worker:     worker,
		queue:      memoryQueue,
	}, nil
}

func (r *Receiver) Service() *core.Service {
	if r == nil {
		return nil
	}
	return r.service
}

func (r *Receiver) Transports() *transport.Registry {
	if r == nil {
		return nil
	}
	return r.transports
}

// ComposeQueue returns the in-process compose queue, or nil when an
// external queue was configured.
func (r *Receiver) ComposeQueue() *core.MemoryJobQueue {
	if r == nil {
		return nil
	}
	return r.queue
}

func (r *Receiver) InitChannel(ctx context.Context, req core.InitChannelRequest) (core.ChannelState, error) {
	if err := r.ready(); err != nil {
		return core.ChannelState{}, err
	}
	return r.service.InitChannel(ctx, req)
}

func (r *Receiver) SetRemote(ctx context.Context, req core.SetRemoteRequest) (core.RemoteEntry, error) {
	if err := r.ready(); err != nil {
		return core.RemoteEntry{}, err
	}
	return r.service.SetRemote(ctx, req)
}

func (r *Receiver) Receive(ctx context.Context, channelID uint8, params core.ReceiveParams) (inbound.ReceiveResult, error) {
	if err := r.ready(); err != nil {
		return inbound.ReceiveResult{}, err
	}
	return r.dispatcher.Receive(ctx, channelID, params)
}

func (r *Receiver) Compose(ctx context.Context, channelID uint8, params core.ComposeParams) (inbound.ComposeResult, error) {
	if err := r.ready(); err != nil {
		return inbound.ComposeResult{}, err
	}
	return r.composer.Compose(ctx, channelID, params)
}

func (r *Receiver) RequiredAccounts(ctx context.Context, channelID uint8, params core.ReceiveParams) ([]core.AccountMeta, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	return r.dispatcher.RequiredAccounts(ctx, channelID, params)
}

func (r *Receiver) Quote(ctx context.Context, req core.QuoteRequest) (core.MessagingFee, error) {
	if err := r.ready(); err != nil {
		return core.MessagingFee{}, err
	}
	return r.service.Quote(ctx, req)
}

func (r *Receiver) GetChannel(ctx context.Context, channelID uint8) (core.ChannelState, error) {
	if err := r.ready(); err != nil {
		return core.ChannelState{}, err
	}
	return r.service.GetChannel(ctx, channelID)
}

func (r *Receiver) GetRemote(ctx context.Context, channelID uint8, sourceChainID uint32) (core.RemoteEntry, error) {
	if err := r.ready(); err != nil {
		return core.RemoteEntry{}, err
	}
	return r.service.GetRemote(ctx, channelID, sourceChainID)
}

// DrainCompose runs queued compose deliveries until the queue is empty.
func (r *Receiver) DrainCompose(ctx context.Context) (int, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	return r.worker.Drain(ctx)
}

func (r *Receiver) ready() error {
	if r == nil || r.service == nil || r.dispatcher == nil {
		return core.NewReceiveError(core.ErrorInternal, "lzreceiver: receiver is not configured", nil)
	}
	return nil
}

type registryResolver struct {
	registry *transport.Registry
}

func (r *registryResolver) Resolve(ref string) (core.Transport, error) {
	if r == nil || r.registry == nil {
		return nil, fmt.Errorf("lzreceiver: transport registry is not configured")
	}
	return r.registry.Resolve(ref)
}
