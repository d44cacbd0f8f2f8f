package command

import (
	"context"
	"testing"

	gocmd "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-lzreceiver/core"
	"github.com/goliatone/go-lzreceiver/inbound"
)

type stubMutatingService struct {
	initChannelFn func(context.Context, core.InitChannelRequest) (core.ChannelState, error)
	setRemoteFn   func(context.Context, core.SetRemoteRequest) (core.RemoteEntry, error)
	receiveFn     func(context.Context, uint8, core.ReceiveParams) (inbound.ReceiveResult, error)
	composeFn     func(context.Context, uint8, core.ComposeParams) (inbound.ComposeResult, error)
}

func (s stubMutatingService) InitChannel(ctx context.Context, req core.InitChannelRequest) (core.ChannelState, error) {
	return s.initChannelFn(ctx, req)
}

func (s stubMutatingService) SetRemote(ctx context.Context, req core.SetRemoteRequest) (core.RemoteEntry, error) {
	return s.setRemoteFn(ctx, req)
}

func (s stubMutatingService) Receive(ctx context.Context, channelID uint8, params core.ReceiveParams) (inbound.ReceiveResult, error) {
	return s.receiveFn(ctx, channelID, params)
}

func (s stubMutatingService) Compose(ctx context.Context, channelID uint8, params core.ComposeParams) (inbound.ComposeResult, error) {
	return s.composeFn(ctx, channelID, params)
}

var testAdmin = core.DeriveAddress([]byte("admin"))

func TestInitChannelCommand_ExecuteDelegatesAndStoresResult(t *testing.T) {
	expected := core.ChannelState{ID: 4, Address: core.ChannelAddress(4), Admin: testAdmin}
	svc := stubMutatingService{
		initChannelFn: func(_ context.Context, req core.InitChannelRequest) (core.ChannelState, error) {
			if req.ChannelID != 4 || req.Admin != testAdmin {
				t.Fatalf("unexpected init request %+v", req)
			}
			return expected, nil
		},
	}

	collector := gocmd.NewResult[core.ChannelState]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)
	err := NewInitChannelCommand(svc).Execute(ctx, InitChannelMessage{Request: core.InitChannelRequest{ChannelID: 4, Admin: testAdmin}})
	if err != nil {
		t.Fatalf("execute init channel: %v", err)
	}
	result, ok := collector.Load()
	if !ok {
		t.Fatalf("expected result to be stored")
	}
	if result.Address != expected.Address {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestReceiveCommand_StoresResultOnFailure(t *testing.T) {
	failure := core.NewReceiveError(core.ErrorUnauthorizedRecipient, "", map[string]any{core.MetadataKeyConsumed: true})
	svc := stubMutatingService{
		receiveFn: func(_ context.Context, channelID uint8, params core.ReceiveParams) (inbound.ReceiveResult, error) {
			if channelID != 1 || params.Nonce != 9 {
				t.Fatalf("unexpected receive payload %d %+v", channelID, params)
			}
			return inbound.ReceiveResult{State: inbound.StateRejected, Consumed: true}, failure
		},
	}

	collector := gocmd.NewResult[inbound.ReceiveResult]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)
	err := NewReceiveCommand(svc).Execute(ctx, ReceiveMessage{
		ChannelID: 1,
		Params:    core.ReceiveParams{SourceChainID: 10, Nonce: 9, Message: []byte{0x00}},
	})
	if !core.IsReceiveError(err, core.ErrorUnauthorizedRecipient) {
		t.Fatalf("expected unauthorized recipient, got %v", err)
	}
	result, ok := collector.Load()
	if !ok || !result.Consumed {
		t.Fatalf("expected consumed partial result, got %+v", result)
	}
}

func TestMutationCommands_DelegateToService(t *testing.T) {
	t.Run("set remote", func(t *testing.T) {
		called := false
		svc := stubMutatingService{
			setRemoteFn: func(_ context.Context, req core.SetRemoteRequest) (core.RemoteEntry, error) {
				called = true
				if req.SourceChainID != 10 {
					t.Fatalf("unexpected set remote request %+v", req)
				}
				return core.RemoteEntry{SourceChainID: 10}, nil
			},
		}
		msg := SetRemoteMessage{Request: core.SetRemoteRequest{
			ChannelID:     1,
			SourceChainID: 10,
			Sender:        core.DeriveAddress([]byte("peer")),
			Requester:     testAdmin,
		}}
		if err := NewSetRemoteCommand(svc).Execute(context.Background(), msg); err != nil {
			t.Fatalf("execute set remote: %v", err)
		}
		if !called {
			t.Fatalf("expected set remote invocation")
		}
	})

	t.Run("compose", func(t *testing.T) {
		svc := stubMutatingService{
			composeFn: func(_ context.Context, channelID uint8, params core.ComposeParams) (inbound.ComposeResult, error) {
				if channelID != 1 || params.From != core.ChannelAddress(1) {
					t.Fatalf("unexpected compose payload %d %+v", channelID, params)
				}
				return inbound.ComposeResult{ComposedCount: 3}, nil
			},
		}
		collector := gocmd.NewResult[inbound.ComposeResult]()
		ctx := gocmd.ContextWithResult(context.Background(), collector)
		err := NewComposeCommand(svc).Execute(ctx, ComposeMessage{
			ChannelID: 1,
			Params:    core.ComposeParams{From: core.ChannelAddress(1), Message: []byte{0x01}},
		})
		if err != nil {
			t.Fatalf("execute compose: %v", err)
		}
		if result, ok := collector.Load(); !ok || result.ComposedCount != 3 {
			t.Fatalf("unexpected compose result %+v", result)
		}
	})
}

func TestMessages_ValidateReturnsRichError(t *testing.T) {
	cases := map[string]interface{ Validate() error }{
		"init channel without admin": InitChannelMessage{},
		"set remote without request": SetRemoteMessage{},
		"receive without payload":    ReceiveMessage{Params: core.ReceiveParams{SourceChainID: 10}},
		"compose without from":       ComposeMessage{Params: core.ComposeParams{Message: []byte{1}}},
		"set remote without sender":  SetRemoteMessage{Request: core.SetRemoteRequest{SourceChainID: 10}},
	}
	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			err := msg.Validate()
			var rich *goerrors.Error
			if !goerrors.As(err, &rich) {
				t.Fatalf("expected go-errors envelope, got %T", err)
			}
			if rich.Category != goerrors.CategoryValidation {
				t.Fatalf("expected validation category, got %q", rich.Category)
			}
			if rich.TextCode != core.ErrorBadInput {
				t.Fatalf("expected %q text code, got %q", core.ErrorBadInput, rich.TextCode)
			}
		})
	}
}

func TestMessages_SourceChainZeroIsValid(t *testing.T) {
	sender := core.DeriveAddress([]byte("peer"))
	if err := (SetRemoteMessage{Request: core.SetRemoteRequest{Sender: sender, Requester: sender}}).Validate(); err != nil {
		t.Fatalf("expected set remote for chain 0 to validate: %v", err)
	}
	if err := (ReceiveMessage{Params: core.ReceiveParams{Sender: sender, Message: []byte{0}}}).Validate(); err != nil {
		t.Fatalf("expected receive from chain 0 to validate: %v", err)
	}
}

func TestCommand_NilServiceReturnsRichError(t *testing.T) {
	var cmd *ReceiveCommand
	err := cmd.Execute(context.Background(), ReceiveMessage{})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
}
