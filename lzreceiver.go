package lzreceiver

import "github.com/goliatone/go-lzreceiver/core"

type Config = core.Config

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies
type ChannelStore = core.ChannelStore
type RemoteStore = core.RemoteStore
type ClearLedger = core.ClearLedger
type Transport = core.Transport
type TransportResolver = core.TransportResolver
type MetricsRecorder = core.MetricsRecorder

type Address = core.Address
type GUID = core.GUID
type ChannelState = core.ChannelState
type RemoteEntry = core.RemoteEntry
type SwapCommand = core.SwapCommand
type MessageKind = core.MessageKind
type AccountMeta = core.AccountMeta
type MessagingFee = core.MessagingFee

type InitChannelRequest = core.InitChannelRequest
type SetRemoteRequest = core.SetRemoteRequest
type ReceiveParams = core.ReceiveParams
type ComposeParams = core.ComposeParams
type QuoteRequest = core.QuoteRequest

const (
	MessageKindVanilla  = core.MessageKindVanilla
	MessageKindComposed = core.MessageKindComposed
)

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithPersistenceClient = core.WithPersistenceClient
	WithRepositoryFactory = core.WithRepositoryFactory
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithChannelStore      = core.WithChannelStore
	WithRemoteStore       = core.WithRemoteStore
	WithTransportResolver = core.WithTransportResolver
	WithEnvelopeEncoder   = core.WithEnvelopeEncoder
	WithClock             = core.WithClock
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}
