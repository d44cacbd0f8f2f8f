package inbound

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/goliatone/go-lzreceiver/core"
	"github.com/goliatone/go-lzreceiver/msgcodec"
)

type spyTransport struct {
	mu         sync.Mutex
	ledger     *core.MemoryClearLedger
	clears     []core.ClearParams
	composes   []core.SendComposeParams
	clearErr   error
	composeErr error
}

func newSpyTransport() *spyTransport {
	return &spyTransport{ledger: core.NewMemoryClearLedger()}
}

func (t *spyTransport) ID() string { return "endpoint" }

func (t *spyTransport) LocalChainID(context.Context) (uint32, error) { return 30168, nil }

func (t *spyTransport) Clear(ctx context.Context, params core.ClearParams) error {
	t.mu.Lock()
	t.clears = append(t.clears, params)
	clearErr := t.clearErr
	t.mu.Unlock()
	if clearErr != nil {
		return clearErr
	}
	return t.ledger.RecordClear(ctx, core.ClearRecord{
		Receiver:      params.Receiver,
		SourceChainID: params.SourceChainID,
		Sender:        params.Sender,
		Nonce:         params.Nonce,
		GUID:          params.GUID,
		MessageHash:   core.MessageHash(params.GUID, params.Message),
	})
}

func (t *spyTransport) SendCompose(ctx context.Context, params core.SendComposeParams) error {
	t.mu.Lock()
	t.composes = append(t.composes, params)
	composeErr := t.composeErr
	t.mu.Unlock()
	if composeErr != nil {
		return composeErr
	}
	return t.ledger.RecordCompose(ctx, core.ComposeRecord{
		Key:         core.ComposeKey{From: params.From, To: params.To, GUID: params.GUID, Index: params.Index},
		Message:     params.Message,
		MessageHash: core.MessageHash(params.GUID, params.Message),
	})
}

func (t *spyTransport) ClearCompose(ctx context.Context, params core.ClearComposeParams) error {
	key := core.ComposeKey{From: params.From, To: params.To, GUID: params.GUID, Index: params.Index}
	return t.ledger.ConsumeCompose(ctx, key, core.MessageHash(params.GUID, params.Message))
}

func (t *spyTransport) Quote(context.Context, core.QuoteParams) (core.MessagingFee, error) {
	return core.MessagingFee{}, nil
}

func (t *spyTransport) ClearAccounts(receiver core.Address, _ uint32, _ core.Address, nonce uint64) []core.AccountMeta {
	return []core.AccountMeta{{Address: core.DeriveAddress([]byte("clear"), receiver[:], []byte{byte(nonce)}), IsWritable: true}}
}

func (t *spyTransport) ComposeAccounts(from core.Address, _ core.Address, guid core.GUID, _ uint16, _ []byte) []core.AccountMeta {
	return []core.AccountMeta{{Address: core.DeriveAddress([]byte("compose"), from[:], guid[:]), IsWritable: true}}
}

func (t *spyTransport) clearCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.clears)
}

func (t *spyTransport) composeCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.composes)
}

type spyResolver struct {
	transport core.Transport
}

func (r spyResolver) Resolve(ref string) (core.Transport, error) {
	if ref != "endpoint" {
		return nil, fmt.Errorf("unknown transport %q", ref)
	}
	return r.transport, nil
}

var (
	testAdmin    = core.DeriveAddress([]byte("admin"))
	testPeer     = core.DeriveAddress([]byte{0xaa})
	testIntruder = core.DeriveAddress([]byte{0xbb})
)

const (
	testChannel uint8  = 1
	testChain   uint32 = 10
)

type fixture struct {
	svc       *core.Service
	transport *spyTransport
	dispatch  *Dispatcher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	transport := newSpyTransport()
	svc, err := core.NewService(core.DefaultConfig(),
		core.WithTransportResolver(spyResolver{transport: transport}),
		core.WithEnvelopeEncoder(msgcodec.Codec{}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()
	if _, err := svc.InitChannel(ctx, core.InitChannelRequest{ChannelID: testChannel, Admin: testAdmin}); err != nil {
		t.Fatalf("init channel: %v", err)
	}
	if _, err := svc.SetRemote(ctx, core.SetRemoteRequest{
		ChannelID:     testChannel,
		SourceChainID: testChain,
		Sender:        testPeer,
		Requester:     testAdmin,
	}); err != nil {
		t.Fatalf("set remote: %v", err)
	}
	return fixture{svc: svc, transport: transport, dispatch: NewDispatcher(svc)}
}

func (f fixture) receivedCount(t *testing.T) uint64 {
	t.Helper()
	channel, err := f.svc.GetChannel(context.Background(), testChannel)
	if err != nil {
		t.Fatalf("get channel: %v", err)
	}
	return channel.ReceivedCount
}

func swapPayload(t *testing.T, kind core.MessageKind, recipient core.Address) []byte {
	t.Helper()
	payload, err := msgcodec.EncodeCommand(core.SwapCommand{
		Kind:         kind,
		TokenIn:      core.DeriveAddress([]byte("usdc")),
		TokenOut:     core.DeriveAddress([]byte("sol")),
		AmountIn:     2500,
		MinAmountOut: 2400,
		Path:         []core.Address{core.DeriveAddress([]byte("pool"))},
		DexChoice:    1,
		Deadline:     1_900_000_000,
		DexAddress:   core.DeriveAddress([]byte("dex")),
		Recipient:    recipient,
		Fee:          500,
	})
	if err != nil {
		t.Fatalf("encode command: %v", err)
	}
	return payload
}

func receiveParams(sender core.Address, nonce uint64, message []byte) core.ReceiveParams {
	return core.ReceiveParams{
		SourceChainID: testChain,
		Sender:        sender,
		Nonce:         nonce,
		GUID:          core.GUID{0x01, byte(nonce)},
		Message:       message,
	}
}
