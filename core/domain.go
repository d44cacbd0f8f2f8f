package core

import (
	"fmt"
	"time"
)

type MessageKind uint8

const (
	MessageKindVanilla  MessageKind = 0
	MessageKindComposed MessageKind = 1
)

func (k MessageKind) Valid() bool {
	return k == MessageKindVanilla || k == MessageKindComposed
}

func (k MessageKind) String() string {
	switch k {
	case MessageKindVanilla:
		return "vanilla"
	case MessageKindComposed:
		return "composed"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// ChannelState is the persistent record of one local messaging channel.
// ReceivedCount counts every successful receipt regardless of kind;
// ComposedCount counts completed compose-stage deliveries.
type ChannelState struct {
	ID            uint8
	Address       Address
	Admin         Address
	ReceivedCount uint64
	ComposedCount uint64
	TransportRef  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type RemoteEntry struct {
	ChannelID        uint8
	SourceChainID    uint32
	Address          Address
	AuthorizedSender Address
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ReceiveParams is the inbound envelope handed over by the transport.
type ReceiveParams struct {
	SourceChainID uint32
	Sender        Address
	Nonce         uint64
	GUID          GUID
	Message       []byte
	ExtraData     []byte
}

type ComposeParams struct {
	From      Address
	GUID      GUID
	Index     uint16
	Message   []byte
	ExtraData []byte
}

// SwapCommand is decoded fresh from every receipt and never persisted.
type SwapCommand struct {
	Kind              MessageKind
	TokenIn           Address
	TokenOut          Address
	AmountIn          uint64
	MinAmountOut      uint64
	Path              []Address
	DexChoice         uint8
	Deadline          uint64
	DexAddress        Address
	Recipient         Address
	Fee               uint32
	SqrtPriceLimitX96 Uint128
}

type AccountMeta struct {
	Address    Address
	IsSigner   bool
	IsWritable bool
}

type MessagingFee struct {
	NativeFee  uint64
	LzTokenFee uint64
}

type InitChannelRequest struct {
	ChannelID    uint8
	Admin        Address
	TransportRef string
}

type SetRemoteRequest struct {
	ChannelID     uint8
	SourceChainID uint32
	Sender        Address
	Requester     Address
}

type QuoteRequest struct {
	ChannelID    uint8
	DstChainID   uint32
	Receiver     Address
	MsgType      uint8
	Options      []byte
	PayInLzToken bool
}

type CreateChannelInput struct {
	ChannelID    uint8
	Address      Address
	Admin        Address
	TransportRef string
}

type UpsertRemoteInput struct {
	ChannelID        uint8
	SourceChainID    uint32
	Address          Address
	AuthorizedSender Address
}

type ClearParams struct {
	Receiver      Address
	SourceChainID uint32
	Sender        Address
	Nonce         uint64
	GUID          GUID
	Message       []byte
}

type SendComposeParams struct {
	From    Address
	To      Address
	GUID    GUID
	Index   uint16
	Message []byte
}

type ClearComposeParams struct {
	From    Address
	To      Address
	GUID    GUID
	Index   uint16
	Message []byte
}

type QuoteParams struct {
	Sender       Address
	DstChainID   uint32
	Receiver     Address
	Message      []byte
	Options      []byte
	PayInLzToken bool
}

type ClearRecord struct {
	Receiver      Address
	SourceChainID uint32
	Sender        Address
	Nonce         uint64
	GUID          GUID
	MessageHash   [32]byte
	ClearedAt     time.Time
}

type ComposeKey struct {
	From  Address
	To    Address
	GUID  GUID
	Index uint16
}

func (k ComposeKey) String() string {
	return fmt.Sprintf("%s:%s:%s:%d", k.From, k.To, k.GUID, k.Index)
}

type ComposeRecord struct {
	Key         ComposeKey
	Message     []byte
	MessageHash [32]byte
	CreatedAt   time.Time
}
