package query

import (
	"github.com/goliatone/go-lzreceiver/core"
)

const (
	TypeQuote            = "lzreceiver.query.quote"
	TypeRequiredAccounts = "lzreceiver.query.required_accounts"
	TypeGetChannel       = "lzreceiver.query.channel.get"
	TypeGetRemote        = "lzreceiver.query.remote.get"
)

type QuoteMessage struct {
	Request core.QuoteRequest
}

func (QuoteMessage) Type() string { return TypeQuote }

func (m QuoteMessage) Validate() error {
	if m.Request.DstChainID == 0 {
		return queryValidationError("dst_chain_id", "destination chain id is required")
	}
	if !core.MessageKind(m.Request.MsgType).Valid() {
		return queryValidationError("msg_type", "message type must be vanilla or composed")
	}
	return nil
}

// RequiredAccountsMessage asks for the account list a receive of Params
// would touch, so callers can assemble the transaction ahead of time.
type RequiredAccountsMessage struct {
	ChannelID uint8
	Params    core.ReceiveParams
}

func (RequiredAccountsMessage) Type() string { return TypeRequiredAccounts }

func (m RequiredAccountsMessage) Validate() error {
	if len(m.Params.Message) == 0 {
		return queryValidationError("message", "message payload is required")
	}
	return nil
}

type GetChannelMessage struct {
	ChannelID uint8
}

func (GetChannelMessage) Type() string { return TypeGetChannel }

type GetRemoteMessage struct {
	ChannelID     uint8
	SourceChainID uint32
}

func (GetRemoteMessage) Type() string { return TypeGetRemote }

func (GetRemoteMessage) Validate() error {
	return nil
}
