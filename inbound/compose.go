package inbound

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-lzreceiver/core"
	"github.com/goliatone/go-lzreceiver/msgcodec"
)

type ComposeResult struct {
	Command       core.SwapCommand
	ComposedCount uint64
}

// ComposeHandler completes the second delivery of a composed message. The
// message must come from the channel itself; it is cleared with the
// transport before it is decoded and counted.
type ComposeHandler struct {
	Channels ChannelService
	Logger   core.Logger
	Metrics  core.MetricsRecorder
	Now      func() time.Time
}

func NewComposeHandler(channels ChannelService, opts ...Option) *ComposeHandler {
	resolved := resolveSettings(opts)
	return &ComposeHandler{
		Channels: channels,
		Logger:   resolved.logger,
		Metrics:  resolved.metrics,
		Now:      resolved.now,
	}
}

func (h *ComposeHandler) Compose(ctx context.Context, channelID uint8, params core.ComposeParams) (result ComposeResult, err error) {
	startedAt := h.now()
	fields := map[string]any{
		"channel_id": channelID,
		"from":       params.From.String(),
		"guid":       params.GUID.String(),
		"index":      params.Index,
	}
	defer func() {
		h.observe(ctx, startedAt, err, fields)
	}()

	if h == nil || h.Channels == nil {
		err = core.NewReceiveError(core.ErrorInternal, "inbound: compose handler is not configured", nil)
		return ComposeResult{}, err
	}
	channel, err := h.Channels.GetChannel(ctx, channelID)
	if err != nil {
		err = rejectError(err, core.ErrorChannelNotFound, fields, false)
		return ComposeResult{}, err
	}
	if !params.From.Equal(channel.Address) {
		err = core.NewReceiveError(core.ErrorRemoteAddressMismatch, "inbound: compose sender is not the channel", withConsumed(fields, false))
		return ComposeResult{}, err
	}
	transport, err := h.Channels.ResolveTransport(channel)
	if err != nil {
		err = rejectError(err, core.ErrorInvalidEndpointSettings, fields, false)
		return ComposeResult{}, err
	}
	err = transport.ClearCompose(ctx, core.ClearComposeParams{
		From:    params.From,
		To:      channel.Address,
		GUID:    params.GUID,
		Index:   params.Index,
		Message: params.Message,
	})
	if err != nil {
		err = core.WrapReceiveError(err, core.ErrorClearFailed, "", withConsumed(fields, false))
		return ComposeResult{}, err
	}

	cmd, err := msgcodec.DecodeCommand(params.Message)
	if err != nil {
		err = rejectError(err, core.ErrorMessageDecodingFailed, fields, true)
		return ComposeResult{}, err
	}
	if cmd.Kind != core.MessageKindComposed {
		err = core.NewReceiveError(core.ErrorInvalidMessageType, "inbound: compose stage received a vanilla command", withConsumed(fields, true))
		return ComposeResult{}, err
	}
	updated, err := h.Channels.IncrementComposed(ctx, channelID)
	if err != nil {
		err = rejectError(err, core.ErrorInternal, fields, true)
		return ComposeResult{}, err
	}
	fields["composed_count"] = updated.ComposedCount
	return ComposeResult{Command: cmd, ComposedCount: updated.ComposedCount}, nil
}

func (h *ComposeHandler) observe(ctx context.Context, startedAt time.Time, err error, fields map[string]any) {
	if h == nil {
		return
	}
	elapsed := h.now().Sub(startedAt)
	durationMS := elapsed.Milliseconds()
	core.RecordOutcome(ctx, h.Metrics, core.MetricComposeTotal, core.MetricComposeDurationMS, elapsed, core.OutcomeTags(err))
	logFields := core.CloneFields(fields)
	logFields["event_type"] = "compose"
	logFields["duration_ms"] = durationMS
	logger := h.Logger
	if logger == nil {
		logger = glog.Nop()
	}
	if err != nil {
		logFields["error"] = err.Error()
		core.LogWithLevel(ctx, logger, "error", "compose failed", logFields)
		return
	}
	core.LogWithLevel(ctx, logger, "info", "compose succeeded", logFields)
}

func (h *ComposeHandler) now() time.Time {
	if h != nil && h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}
