package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-lzreceiver/core"
	"github.com/goliatone/go-lzreceiver/inbound"
)

type MutatingService interface {
	InitChannel(ctx context.Context, req core.InitChannelRequest) (core.ChannelState, error)
	SetRemote(ctx context.Context, req core.SetRemoteRequest) (core.RemoteEntry, error)
	Receive(ctx context.Context, channelID uint8, params core.ReceiveParams) (inbound.ReceiveResult, error)
	Compose(ctx context.Context, channelID uint8, params core.ComposeParams) (inbound.ComposeResult, error)
}

type InitChannelCommand struct {
	service MutatingService
}

func NewInitChannelCommand(service MutatingService) *InitChannelCommand {
	return &InitChannelCommand{service: service}
}

func (c *InitChannelCommand) Execute(ctx context.Context, msg InitChannelMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: channel service is required")
	}
	out, err := c.service.InitChannel(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SetRemoteCommand struct {
	service MutatingService
}

func NewSetRemoteCommand(service MutatingService) *SetRemoteCommand {
	return &SetRemoteCommand{service: service}
}

func (c *SetRemoteCommand) Execute(ctx context.Context, msg SetRemoteMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: remote registry service is required")
	}
	out, err := c.service.SetRemote(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ReceiveCommand struct {
	service MutatingService
}

func NewReceiveCommand(service MutatingService) *ReceiveCommand {
	return &ReceiveCommand{service: service}
}

// Execute stores the partial result even on failure so callers can tell
// whether the message was consumed.
func (c *ReceiveCommand) Execute(ctx context.Context, msg ReceiveMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: receive service is required")
	}
	out, err := c.service.Receive(ctx, msg.ChannelID, msg.Params)
	storeResult(ctx, out)
	return err
}

type ComposeCommand struct {
	service MutatingService
}

func NewComposeCommand(service MutatingService) *ComposeCommand {
	return &ComposeCommand{service: service}
}

func (c *ComposeCommand) Execute(ctx context.Context, msg ComposeMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: compose service is required")
	}
	out, err := c.service.Compose(ctx, msg.ChannelID, msg.Params)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
