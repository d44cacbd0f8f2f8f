package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type ChannelStore interface {
	Create(ctx context.Context, in CreateChannelInput) (ChannelState, error)
	Get(ctx context.Context, channelID uint8) (ChannelState, error)
	IncrementReceived(ctx context.Context, channelID uint8) (ChannelState, error)
	IncrementComposed(ctx context.Context, channelID uint8) (ChannelState, error)
}

type RemoteStore interface {
	Upsert(ctx context.Context, in UpsertRemoteInput) (RemoteEntry, error)
	Get(ctx context.Context, channelID uint8, sourceChainID uint32) (RemoteEntry, error)
}

// Transport is the external messaging endpoint a channel is bound to. Clear
// and ClearCompose must be idempotent: a repeated call for a consumed tuple
// fails instead of succeeding twice.
type Transport interface {
	ID() string
	LocalChainID(ctx context.Context) (uint32, error)
	Clear(ctx context.Context, params ClearParams) error
	SendCompose(ctx context.Context, params SendComposeParams) error
	ClearCompose(ctx context.Context, params ClearComposeParams) error
	Quote(ctx context.Context, params QuoteParams) (MessagingFee, error)
	ClearAccounts(receiver Address, sourceChainID uint32, sender Address, nonce uint64) []AccountMeta
	ComposeAccounts(from Address, to Address, guid GUID, index uint16, message []byte) []AccountMeta
}

type TransportResolver interface {
	Resolve(ref string) (Transport, error)
}

type ClearLedger interface {
	RecordClear(ctx context.Context, record ClearRecord) error
	RecordCompose(ctx context.Context, record ComposeRecord) error
	ConsumeCompose(ctx context.Context, key ComposeKey, messageHash [32]byte) error
}

type EnvelopeEncoder interface {
	Encode(kind MessageKind, sourceChainID uint32) []byte
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type JobExecutionMessage struct {
	JobID          string
	ScriptPath     string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}

type JobWorkerEvent struct {
	Message   *JobExecutionMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}
