package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-lzreceiver/core"
	"github.com/google/uuid"
)

const (
	DefaultEndpointID = "endpoint"

	endpointSeed    = "Endpoint"
	nonceSeed       = "Nonce"
	payloadHashSeed = "PayloadHash"
	composeSeed     = "Compose"
)

// Endpoint is the reference messaging endpoint. It clears each inbound
// message once, records compose deliveries and answers fee quotes from a
// static table.
type Endpoint struct {
	mu           sync.RWMutex
	id           string
	localChainID uint32
	program      core.Address
	ledger       core.ClearLedger
	enqueuer     core.JobEnqueuer
	composeJobID string
	fees         map[uint32]core.MessagingFee
	defaultFee   *core.MessagingFee
	lzTokenFee   bool
	now          func() time.Time
}

type EndpointOption func(*Endpoint)

func WithLedger(ledger core.ClearLedger) EndpointOption {
	return func(e *Endpoint) {
		if ledger != nil {
			e.ledger = ledger
		}
	}
}

// WithComposeEnqueuer makes SendCompose enqueue a job for the compose
// stage in addition to recording it.
func WithComposeEnqueuer(enqueuer core.JobEnqueuer, jobID string) EndpointOption {
	return func(e *Endpoint) {
		e.enqueuer = enqueuer
		e.composeJobID = strings.TrimSpace(jobID)
	}
}

func WithFee(dstChainID uint32, fee core.MessagingFee) EndpointOption {
	return func(e *Endpoint) {
		e.fees[dstChainID] = fee
		if fee.LzTokenFee > 0 {
			e.lzTokenFee = true
		}
	}
}

func WithDefaultFee(fee core.MessagingFee) EndpointOption {
	return func(e *Endpoint) {
		copied := fee
		e.defaultFee = &copied
		if fee.LzTokenFee > 0 {
			e.lzTokenFee = true
		}
	}
}

func WithEndpointClock(now func() time.Time) EndpointOption {
	return func(e *Endpoint) {
		if now != nil {
			e.now = now
		}
	}
}

func NewEndpoint(id string, localChainID uint32, opts ...EndpointOption) *Endpoint {
	id = normalizeRef(id)
	if id == "" {
		id = DefaultEndpointID
	}
	endpoint := &Endpoint{
		id:           id,
		localChainID: localChainID,
		program:      core.DeriveAddress([]byte(endpointSeed), []byte(id)),
		ledger:       core.NewMemoryClearLedger(),
		composeJobID: core.DefaultComposeJobID,
		fees:         map[uint32]core.MessagingFee{},
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(endpoint)
		}
	}
	return endpoint
}

func (e *Endpoint) ID() string {
	return e.id
}

// Program is the endpoint's own address, listed read-only in every account
// set it derives.
func (e *Endpoint) Program() core.Address {
	return e.program
}

func (e *Endpoint) Ledger() core.ClearLedger {
	return e.ledger
}

func (e *Endpoint) LocalChainID(context.Context) (uint32, error) {
	if e.localChainID == 0 {
		return 0, transportError(core.ErrorInvalidEndpointSettings, "local chain id is not configured", map[string]any{"endpoint": e.id})
	}
	return e.localChainID, nil
}

func (e *Endpoint) Clear(ctx context.Context, params core.ClearParams) error {
	if params.Receiver.IsZero() {
		return transportError(core.ErrorBadInput, "clear receiver is required", nil)
	}
	err := e.ledger.RecordClear(ctx, core.ClearRecord{
		Receiver:      params.Receiver,
		SourceChainID: params.SourceChainID,
		Sender:        params.Sender,
		Nonce:         params.Nonce,
		GUID:          params.GUID,
		MessageHash:   core.MessageHash(params.GUID, params.Message),
		ClearedAt:     e.now(),
	})
	if err != nil {
		metadata := map[string]any{
			"endpoint":        e.id,
			"source_chain_id": params.SourceChainID,
			"nonce":           params.Nonce,
		}
		if errors.Is(err, core.ErrAlreadyCleared) {
			return transportWrapError(err, core.ErrorClearFailed, "message already cleared", metadata)
		}
		return transportWrapError(err, core.ErrorClearFailed, "clear ledger write failed", metadata)
	}
	return nil
}

func (e *Endpoint) SendCompose(ctx context.Context, params core.SendComposeParams) error {
	if params.From.IsZero() || params.To.IsZero() {
		return transportError(core.ErrorBadInput, "compose from and to are required", nil)
	}
	job := core.ComposeJob{
		From:    params.From,
		To:      params.To,
		GUID:    params.GUID,
		Index:   params.Index,
		Message: append([]byte(nil), params.Message...),
	}
	metadata := map[string]any{"endpoint": e.id, "compose_key": job.Key().String()}
	err := e.ledger.RecordCompose(ctx, core.ComposeRecord{
		Key:         job.Key(),
		Message:     job.Message,
		MessageHash: core.MessageHash(params.GUID, params.Message),
		CreatedAt:   e.now(),
	})
	if err != nil {
		return transportWrapError(err, core.ErrorSendComposeFailed, "compose record failed", metadata)
	}
	if e.enqueuer == nil {
		return nil
	}
	msg := core.NewComposeJobMessage(e.composeJobID, job)
	msg.Parameters["correlation_id"] = uuid.NewString()
	if err := e.enqueuer.Enqueue(ctx, msg); err != nil {
		return transportWrapError(err, core.ErrorSendComposeFailed, "compose enqueue failed", metadata)
	}
	return nil
}

func (e *Endpoint) ClearCompose(ctx context.Context, params core.ClearComposeParams) error {
	key := core.ComposeKey{From: params.From, To: params.To, GUID: params.GUID, Index: params.Index}
	if err := e.ledger.ConsumeCompose(ctx, key, core.MessageHash(params.GUID, params.Message)); err != nil {
		return transportWrapError(err, core.ErrorClearFailed, "compose clear failed", map[string]any{
			"endpoint":    e.id,
			"compose_key": key.String(),
		})
	}
	return nil
}

func (e *Endpoint) Quote(_ context.Context, params core.QuoteParams) (core.MessagingFee, error) {
	metadata := map[string]any{"endpoint": e.id, "dst_chain_id": params.DstChainID}
	if len(params.Message) == 0 {
		return core.MessagingFee{}, transportError(core.ErrorBadInput, "quote message is required", metadata)
	}
	e.mu.RLock()
	fee, ok := e.fees[params.DstChainID]
	if !ok && e.defaultFee != nil {
		fee, ok = *e.defaultFee, true
	}
	lzToken := e.lzTokenFee
	e.mu.RUnlock()
	if !ok {
		return core.MessagingFee{}, transportError(core.ErrorInvalidEndpointSettings, fmt.Sprintf("no fee configured for chain %d", params.DstChainID), metadata)
	}
	if params.PayInLzToken && !lzToken {
		return core.MessagingFee{}, transportError(core.ErrorInvalidEndpointSettings, "lz token payment is not enabled", metadata)
	}
	if !params.PayInLzToken {
		fee.LzTokenFee = 0
	}
	return fee, nil
}

// SetFee updates the fee table at runtime.
func (e *Endpoint) SetFee(dstChainID uint32, fee core.MessagingFee) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fees[dstChainID] = fee
	if fee.LzTokenFee > 0 {
		e.lzTokenFee = true
	}
}

func (e *Endpoint) ClearAccounts(receiver core.Address, sourceChainID uint32, sender core.Address, nonce uint64) []core.AccountMeta {
	chain := binary.BigEndian.AppendUint32(nil, sourceChainID)
	nonceBytes := binary.BigEndian.AppendUint64(nil, nonce)
	return []core.AccountMeta{
		{Address: e.program},
		{Address: core.DeriveAddress([]byte(nonceSeed), receiver[:], chain, sender[:]), IsWritable: true},
		{Address: core.DeriveAddress([]byte(payloadHashSeed), receiver[:], chain, sender[:], nonceBytes), IsWritable: true},
	}
}

func (e *Endpoint) ComposeAccounts(from core.Address, to core.Address, guid core.GUID, index uint16, message []byte) []core.AccountMeta {
	hash := core.MessageHash(guid, message)
	return []core.AccountMeta{
		{Address: e.program},
		{Address: core.DeriveAddress([]byte(composeSeed), from[:], to[:], guid[:], binary.BigEndian.AppendUint16(nil, index)), IsWritable: true},
		{Address: core.DeriveAddress(hash[:])},
	}
}

var _ core.Transport = (*Endpoint)(nil)
