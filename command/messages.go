package command

import (
	"github.com/goliatone/go-lzreceiver/core"
)

const (
	TypeInitChannel = "lzreceiver.command.channel.init"
	TypeSetRemote   = "lzreceiver.command.remote.set"
	TypeReceive     = "lzreceiver.command.receive"
	TypeCompose     = "lzreceiver.command.compose"
)

type InitChannelMessage struct {
	Request core.InitChannelRequest
}

func (InitChannelMessage) Type() string { return TypeInitChannel }

func (m InitChannelMessage) Validate() error {
	if m.Request.Admin.IsZero() {
		return commandValidationError("admin", "channel admin is required")
	}
	return nil
}

type SetRemoteMessage struct {
	Request core.SetRemoteRequest
}

func (SetRemoteMessage) Type() string { return TypeSetRemote }

func (m SetRemoteMessage) Validate() error {
	if m.Request.Sender.IsZero() {
		return commandValidationError("sender", "remote sender is required")
	}
	if m.Request.Requester.IsZero() {
		return commandValidationError("requester", "requester is required")
	}
	return nil
}

// ReceiveMessage carries one inbound delivery addressed to a channel.
type ReceiveMessage struct {
	ChannelID uint8
	Params    core.ReceiveParams
}

func (ReceiveMessage) Type() string { return TypeReceive }

func (m ReceiveMessage) Validate() error {
	if len(m.Params.Message) == 0 {
		return commandValidationError("message", "message payload is required")
	}
	return nil
}

type ComposeMessage struct {
	ChannelID uint8
	Params    core.ComposeParams
}

func (ComposeMessage) Type() string { return TypeCompose }

func (m ComposeMessage) Validate() error {
	if m.Params.From.IsZero() {
		return commandValidationError("from", "compose sender is required")
	}
	if len(m.Params.Message) == 0 {
		return commandValidationError("message", "message payload is required")
	}
	return nil
}
