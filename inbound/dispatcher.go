package inbound

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-lzreceiver/core"
	"github.com/goliatone/go-lzreceiver/msgcodec"
)

type ReceiveState string

const (
	StateReceived      ReceiveState = "received"
	StateAuthenticated ReceiveState = "authenticated"
	StateCleared       ReceiveState = "cleared"
	StateDispatched    ReceiveState = "dispatched"
	StateDone          ReceiveState = "done"
	StateRejected      ReceiveState = "rejected"
)

// ChannelService is the slice of core.Service the receive path needs.
type ChannelService interface {
	GetChannel(ctx context.Context, channelID uint8) (core.ChannelState, error)
	AuthenticateSender(ctx context.Context, channelID uint8, sourceChainID uint32, sender core.Address) error
	ResolveTransport(channel core.ChannelState) (core.Transport, error)
	IncrementReceived(ctx context.Context, channelID uint8) (core.ChannelState, error)
	IncrementComposed(ctx context.Context, channelID uint8) (core.ChannelState, error)
}

type ReceiveResult struct {
	State         ReceiveState
	Kind          core.MessageKind
	Command       core.SwapCommand
	ReceivedCount uint64
	Forwarded     bool
	Consumed      bool
	Accounts      []core.AccountMeta
}

type Dispatcher struct {
	Channels  ChannelService
	Forwarder *Forwarder
	Logger    core.Logger
	Metrics   core.MetricsRecorder
	Now       func() time.Time
}

type settings struct {
	logger  core.Logger
	metrics core.MetricsRecorder
	now     func() time.Time
}

type Option func(*settings)

func WithLogger(logger core.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(s *settings) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

func resolveSettings(opts []Option) settings {
	resolved := settings{
		logger:  glog.Nop(),
		metrics: core.NopMetricsRecorder{},
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&resolved)
		}
	}
	return resolved
}

func NewDispatcher(channels ChannelService, opts ...Option) *Dispatcher {
	resolved := resolveSettings(opts)
	return &Dispatcher{
		Channels:  channels,
		Forwarder: NewForwarder(channels),
		Logger:    resolved.logger,
		Metrics:   resolved.metrics,
		Now:       resolved.now,
	}
}

// Receive processes one inbound message for channelID. Authentication
// precedes clearing, clearing precedes decoding, and the recipient check
// precedes any counter mutation or forward. A failed forward does not
// undo the counter increment.
func (d *Dispatcher) Receive(ctx context.Context, channelID uint8, params core.ReceiveParams) (result ReceiveResult, err error) {
	startedAt := d.now()
	fields := map[string]any{
		"channel_id":      channelID,
		"source_chain_id": params.SourceChainID,
		"sender":          params.Sender.String(),
		"nonce":           params.Nonce,
		"guid":            params.GUID.String(),
	}
	result.State = StateReceived
	defer func() {
		d.observe(ctx, startedAt, result, err, fields)
	}()

	if d == nil || d.Channels == nil {
		result.State = StateRejected
		err = core.NewReceiveError(core.ErrorInternal, "inbound: dispatcher is not configured", nil)
		return result, err
	}

	channel, err := d.Channels.GetChannel(ctx, channelID)
	if err != nil {
		result.State = StateRejected
		err = rejectError(err, core.ErrorChannelNotFound, fields, false)
		return result, err
	}
	if err = d.Channels.AuthenticateSender(ctx, channelID, params.SourceChainID, params.Sender); err != nil {
		result.State = StateRejected
		err = rejectError(err, core.ErrorUnauthorizedSender, fields, false)
		return result, err
	}
	result.State = StateAuthenticated

	transport, err := d.Channels.ResolveTransport(channel)
	if err != nil {
		result.State = StateRejected
		err = rejectError(err, core.ErrorInvalidEndpointSettings, fields, false)
		return result, err
	}
	resources := core.DeriveReceiveResources(transport, channel, params)
	result.Accounts = resources.Accounts()
	channel.Address = resources.Channel.Address

	err = transport.Clear(ctx, core.ClearParams{
		Receiver:      channel.Address,
		SourceChainID: params.SourceChainID,
		Sender:        params.Sender,
		Nonce:         params.Nonce,
		GUID:          params.GUID,
		Message:       params.Message,
	})
	if err != nil {
		result.State = StateRejected
		err = core.WrapReceiveError(err, core.ErrorClearFailed, "", withConsumed(fields, false))
		return result, err
	}
	result.State = StateCleared
	result.Consumed = true

	cmd, err := msgcodec.DecodeCommand(params.Message)
	if err != nil {
		err = rejectError(err, core.ErrorMessageDecodingFailed, fields, true)
		return result, err
	}
	result.Kind = cmd.Kind
	result.Command = cmd
	fields["message_type"] = cmd.Kind.String()
	fields["token_in"] = cmd.TokenIn.String()
	fields["token_out"] = cmd.TokenOut.String()
	fields["amount_in"] = cmd.AmountIn
	fields["min_amount_out"] = cmd.MinAmountOut
	fields["recipient"] = cmd.Recipient.String()
	core.LogWithLevel(ctx, d.Logger, "debug", "receive decoded command", fields)

	if !cmd.Recipient.Equal(channel.Address) {
		err = core.NewReceiveError(core.ErrorUnauthorizedRecipient, "", withConsumed(fields, true))
		return result, err
	}

	updated, err := d.Channels.IncrementReceived(ctx, channelID)
	if err != nil {
		err = rejectError(err, core.ErrorInternal, fields, true)
		return result, err
	}
	result.ReceivedCount = updated.ReceivedCount
	result.State = StateDispatched

	if resources.Composed {
		if err = d.Forwarder.ForwardWith(ctx, transport, channel, params.GUID, params.Message); err != nil {
			err = rejectError(err, core.ErrorSendComposeFailed, fields, true)
			return result, err
		}
		result.Forwarded = true
	}

	result.State = StateDone
	return result, nil
}

// RequiredAccounts lists the accounts a Receive of params touches. It runs
// the same derivation as the receive path, does not authenticate and does
// not validate the message, since Receive clears before decoding.
func (d *Dispatcher) RequiredAccounts(ctx context.Context, channelID uint8, params core.ReceiveParams) ([]core.AccountMeta, error) {
	if d == nil || d.Channels == nil {
		return nil, core.NewReceiveError(core.ErrorInternal, "inbound: dispatcher is not configured", nil)
	}
	channel, err := d.Channels.GetChannel(ctx, channelID)
	if err != nil {
		return nil, rejectError(err, core.ErrorChannelNotFound, nil, false)
	}
	transport, err := d.Channels.ResolveTransport(channel)
	if err != nil {
		return nil, err
	}
	return core.DeriveReceiveAccounts(transport, channel, params), nil
}

func (d *Dispatcher) observe(ctx context.Context, startedAt time.Time, result ReceiveResult, err error, fields map[string]any) {
	if d == nil {
		return
	}
	elapsed := d.now().Sub(startedAt)
	durationMS := elapsed.Milliseconds()
	tags := core.OutcomeTags(err)
	tags["state"] = string(result.State)
	if result.State != StateReceived && result.State != StateRejected && result.State != StateAuthenticated {
		tags["kind"] = result.Kind.String()
	}
	core.RecordOutcome(ctx, d.Metrics, core.MetricReceiveTotal, core.MetricReceiveDurationMS, elapsed, tags)

	logFields := core.CloneFields(fields)
	logFields["event_type"] = "receive"
	logFields["state"] = string(result.State)
	logFields["duration_ms"] = durationMS
	if err != nil {
		logFields["error"] = err.Error()
		logFields["error_code"] = core.ReceiveErrorCode(err)
		logFields[core.MetadataKeyConsumed] = result.Consumed
		core.LogWithLevel(ctx, d.Logger, "error", "receive failed", logFields)
		return
	}
	logFields["received_count"] = result.ReceivedCount
	logFields["forwarded"] = result.Forwarded
	core.LogWithLevel(ctx, d.Logger, "info", "receive succeeded", logFields)
}

func (d *Dispatcher) now() time.Time {
	if d != nil && d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}
