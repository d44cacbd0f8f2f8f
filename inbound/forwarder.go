package inbound

import (
	"context"

	"github.com/goliatone/go-lzreceiver/core"
)

type TransportResolver interface {
	ResolveTransport(channel core.ChannelState) (core.Transport, error)
}

// Forwarder resubmits a composed message to the channel itself for its
// second delivery. Index is always 0 and there is no internal retry.
type Forwarder struct {
	Transports TransportResolver
}

func NewForwarder(transports TransportResolver) *Forwarder {
	return &Forwarder{Transports: transports}
}

func (f *Forwarder) Forward(ctx context.Context, channel core.ChannelState, guid core.GUID, message []byte) error {
	if f == nil || f.Transports == nil {
		return core.NewReceiveError(core.ErrorSendComposeFailed, "inbound: forwarder is not configured", nil)
	}
	transport, err := f.Transports.ResolveTransport(channel)
	if err != nil {
		return core.WrapReceiveError(err, core.ErrorSendComposeFailed, "", nil)
	}
	return f.ForwardWith(ctx, transport, channel, guid, message)
}

func (f *Forwarder) ForwardWith(ctx context.Context, transport core.Transport, channel core.ChannelState, guid core.GUID, message []byte) error {
	if transport == nil {
		return core.NewReceiveError(core.ErrorSendComposeFailed, "inbound: transport is required", nil)
	}
	err := transport.SendCompose(ctx, core.SendComposeParams{
		From:    channel.Address,
		To:      channel.Address,
		GUID:    guid,
		Index:   0,
		Message: append([]byte(nil), message...),
	})
	if err != nil {
		return core.WrapReceiveError(err, core.ErrorSendComposeFailed, "", map[string]any{
			"channel_id": channel.ID,
			"guid":       guid.String(),
		})
	}
	return nil
}
