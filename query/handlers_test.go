package query

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-lzreceiver/core"
)

type stubReader struct {
	fee      core.MessagingFee
	accounts []core.AccountMeta
	channel  core.ChannelState
	remote   core.RemoteEntry
	err      error
	lastReq  core.QuoteRequest
}

func (s *stubReader) Quote(_ context.Context, req core.QuoteRequest) (core.MessagingFee, error) {
	s.lastReq = req
	return s.fee, s.err
}

func (s *stubReader) RequiredAccounts(context.Context, uint8, core.ReceiveParams) ([]core.AccountMeta, error) {
	return s.accounts, s.err
}

func (s *stubReader) GetChannel(context.Context, uint8) (core.ChannelState, error) {
	return s.channel, s.err
}

func (s *stubReader) GetRemote(context.Context, uint8, uint32) (core.RemoteEntry, error) {
	return s.remote, s.err
}

func TestQuoteQuery_DelegatesToReader(t *testing.T) {
	reader := &stubReader{fee: core.MessagingFee{NativeFee: 1200, LzTokenFee: 0}}
	fee, err := NewQuoteQuery(reader).Query(context.Background(), QuoteMessage{Request: core.QuoteRequest{
		ChannelID:  1,
		DstChainID: 30101,
		MsgType:    uint8(core.MessageKindComposed),
	}})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if fee.NativeFee != 1200 || reader.lastReq.DstChainID != 30101 {
		t.Fatalf("unexpected quote %+v for %+v", fee, reader.lastReq)
	}
}

func TestReadQueries_DelegateToReader(t *testing.T) {
	reader := &stubReader{
		accounts: []core.AccountMeta{{Address: core.ChannelAddress(1), IsWritable: true}},
		channel:  core.ChannelState{ID: 1, ReceivedCount: 5},
		remote:   core.RemoteEntry{ChannelID: 1, SourceChainID: 10},
	}
	ctx := context.Background()

	accounts, err := NewRequiredAccountsQuery(reader).Query(ctx, RequiredAccountsMessage{ChannelID: 1})
	if err != nil || len(accounts) != 1 {
		t.Fatalf("required accounts: %v %+v", err, accounts)
	}
	channel, err := NewGetChannelQuery(reader).Query(ctx, GetChannelMessage{ChannelID: 1})
	if err != nil || channel.ReceivedCount != 5 {
		t.Fatalf("get channel: %v %+v", err, channel)
	}
	remote, err := NewGetRemoteQuery(reader).Query(ctx, GetRemoteMessage{ChannelID: 1, SourceChainID: 10})
	if err != nil || remote.SourceChainID != 10 {
		t.Fatalf("get remote: %v %+v", err, remote)
	}
}

func TestReadQueries_PropagateReceiveErrors(t *testing.T) {
	reader := &stubReader{err: core.NewReceiveError(core.ErrorRemoteAccountNotFound, "", nil)}
	_, err := NewGetRemoteQuery(reader).Query(context.Background(), GetRemoteMessage{ChannelID: 1, SourceChainID: 99})
	if !core.IsReceiveError(err, core.ErrorRemoteAccountNotFound) {
		t.Fatalf("expected remote account not found, got %v", err)
	}
}

func TestMessages_ValidateReturnsRichError(t *testing.T) {
	cases := map[string]interface{ Validate() error }{
		"quote without destination": QuoteMessage{},
		"quote with unknown type":   QuoteMessage{Request: core.QuoteRequest{DstChainID: 1, MsgType: 7}},
		"accounts without payload":  RequiredAccountsMessage{Params: core.ReceiveParams{SourceChainID: 10}},
	}
	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			var rich *goerrors.Error
			if !goerrors.As(msg.Validate(), &rich) {
				t.Fatalf("expected go-errors envelope")
			}
			if rich.Category != goerrors.CategoryValidation || rich.TextCode != core.ErrorBadInput {
				t.Fatalf("unexpected error envelope %q %q", rich.Category, rich.TextCode)
			}
		})
	}
}

func TestQuery_NilReaderReturnsRichError(t *testing.T) {
	var q *QuoteQuery
	_, err := q.Query(context.Background(), QuoteMessage{})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
}
