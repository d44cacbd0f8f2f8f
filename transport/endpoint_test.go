package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-lzreceiver/core"
)

func clearParams(nonce uint64) core.ClearParams {
	return core.ClearParams{
		Receiver:      core.ChannelAddress(1),
		SourceChainID: 30101,
		Sender:        core.DeriveAddress([]byte("peer")),
		Nonce:         nonce,
		GUID:          core.GUID{byte(nonce)},
		Message:       []byte{0x00, 0x01},
	}
}

func TestEndpoint_ClearRejectsReplay(t *testing.T) {
	ctx := context.Background()
	endpoint := NewEndpoint("", 30168)
	if endpoint.ID() != DefaultEndpointID {
		t.Fatalf("expected default id, got %q", endpoint.ID())
	}
	if err := endpoint.Clear(ctx, clearParams(1)); err != nil {
		t.Fatalf("clear: %v", err)
	}
	err := endpoint.Clear(ctx, clearParams(1))
	if !core.IsReceiveError(err, core.ErrorClearFailed) {
		t.Fatalf("expected clear failed on replay, got %v", err)
	}
	if !errors.Is(err, core.ErrAlreadyCleared) {
		t.Fatalf("expected already cleared sentinel to be wrapped")
	}
	if err := endpoint.Clear(ctx, clearParams(2)); err != nil {
		t.Fatalf("next nonce: %v", err)
	}
}

type recordingEnqueuer struct {
	messages []*core.JobExecutionMessage
	err      error
}

func (r *recordingEnqueuer) Enqueue(_ context.Context, msg *core.JobExecutionMessage) error {
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, msg)
	return nil
}

func TestEndpoint_SendComposeRecordsAndEnqueues(t *testing.T) {
	ctx := context.Background()
	enqueuer := &recordingEnqueuer{}
	endpoint := NewEndpoint("endpoint", 30168, WithComposeEnqueuer(enqueuer, "compose.jobs"))
	channel := core.ChannelAddress(1)
	params := core.SendComposeParams{From: channel, To: channel, GUID: core.GUID{9}, Message: []byte("payload")}

	if err := endpoint.SendCompose(ctx, params); err != nil {
		t.Fatalf("send compose: %v", err)
	}
	if len(enqueuer.messages) != 1 || enqueuer.messages[0].JobID != "compose.jobs" {
		t.Fatalf("expected one compose job, got %+v", enqueuer.messages)
	}
	job, err := core.ParseComposeJobMessage(enqueuer.messages[0])
	if err != nil {
		t.Fatalf("parse job: %v", err)
	}
	if job.From != channel || string(job.Message) != "payload" {
		t.Fatalf("unexpected job %+v", job)
	}
	if err := endpoint.SendCompose(ctx, params); !core.IsReceiveError(err, core.ErrorSendComposeFailed) {
		t.Fatalf("expected duplicate compose to fail, got %v", err)
	}

	consume := core.ClearComposeParams{From: channel, To: channel, GUID: core.GUID{9}, Message: []byte("payload")}
	if err := endpoint.ClearCompose(ctx, consume); err != nil {
		t.Fatalf("clear compose: %v", err)
	}
	if err := endpoint.ClearCompose(ctx, consume); !core.IsReceiveError(err, core.ErrorClearFailed) {
		t.Fatalf("expected second compose clear to fail, got %v", err)
	}
}

func TestEndpoint_SendComposeEnqueueFailure(t *testing.T) {
	endpoint := NewEndpoint("endpoint", 1, WithComposeEnqueuer(&recordingEnqueuer{err: errors.New("queue down")}, ""))
	channel := core.ChannelAddress(1)
	err := endpoint.SendCompose(context.Background(), core.SendComposeParams{From: channel, To: channel, GUID: core.GUID{1}})
	if !core.IsReceiveError(err, core.ErrorSendComposeFailed) {
		t.Fatalf("expected send compose failed, got %v", err)
	}
}

func TestEndpoint_Quote(t *testing.T) {
	ctx := context.Background()
	endpoint := NewEndpoint("endpoint", 30168,
		WithFee(30101, core.MessagingFee{NativeFee: 500, LzTokenFee: 20}),
	)
	msg := []byte{0x00, 0x00, 0x00, 0x75, 0xd8}

	fee, err := endpoint.Quote(ctx, core.QuoteParams{DstChainID: 30101, Message: msg})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if fee.NativeFee != 500 || fee.LzTokenFee != 0 {
		t.Fatalf("expected native-only fee, got %+v", fee)
	}
	fee, err = endpoint.Quote(ctx, core.QuoteParams{DstChainID: 30101, Message: msg, PayInLzToken: true})
	if err != nil || fee.LzTokenFee != 20 {
		t.Fatalf("expected lz token fee, got %+v err=%v", fee, err)
	}
	if _, err := endpoint.Quote(ctx, core.QuoteParams{DstChainID: 1, Message: msg}); !core.IsReceiveError(err, core.ErrorInvalidEndpointSettings) {
		t.Fatalf("expected unknown chain to fail, got %v", err)
	}
	endpoint.SetFee(1, core.MessagingFee{NativeFee: 7})
	if fee, err := endpoint.Quote(ctx, core.QuoteParams{DstChainID: 1, Message: msg}); err != nil || fee.NativeFee != 7 {
		t.Fatalf("expected runtime fee, got %+v err=%v", fee, err)
	}
}

func TestEndpoint_AccountsAreDeterministic(t *testing.T) {
	endpoint := NewEndpoint("endpoint", 1)
	receiver := core.ChannelAddress(1)
	sender := core.DeriveAddress([]byte("peer"))

	first := endpoint.ClearAccounts(receiver, 30101, sender, 4)
	second := endpoint.ClearAccounts(receiver, 30101, sender, 4)
	if len(first) != 3 || first[1] != second[1] || first[2] != second[2] {
		t.Fatalf("expected deterministic clear accounts")
	}
	if first[0].Address != endpoint.Program() || first[0].IsWritable {
		t.Fatalf("expected read-only program account first")
	}
	other := endpoint.ClearAccounts(receiver, 30101, sender, 5)
	if other[2] == first[2] {
		t.Fatalf("expected nonce in payload hash account")
	}
	compose := endpoint.ComposeAccounts(receiver, receiver, core.GUID{1}, 0, []byte("m"))
	if len(compose) != 3 || !compose[1].IsWritable {
		t.Fatalf("unexpected compose accounts %+v", compose)
	}
}
