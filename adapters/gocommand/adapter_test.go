package gocommand

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/goliatone/go-command"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	lzcommand "github.com/goliatone/go-lzreceiver/command"
	"github.com/goliatone/go-lzreceiver/core"
	"github.com/goliatone/go-lzreceiver/inbound"
	lzquery "github.com/goliatone/go-lzreceiver/query"
)

func TestRegistryAdapter_TracksReceiverTypes(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	subs, err := RegisterReceiverHandlers(adapter, newStubReceiverService())
	if err != nil {
		t.Fatalf("register receiver handlers: %v", err)
	}
	t.Cleanup(subs.Unsubscribe)

	want := []string{
		lzcommand.TypeInitChannel,
		lzcommand.TypeSetRemote,
		lzcommand.TypeReceive,
		lzcommand.TypeCompose,
		lzquery.TypeQuote,
		lzquery.TypeRequiredAccounts,
		lzquery.TypeGetChannel,
		lzquery.TypeGetRemote,
	}
	if got := adapter.RegisteredTypes(); !slices.Equal(got, want) {
		t.Fatalf("unexpected registered types %v", got)
	}
}

func TestRegistryAdapter_RejectsSecondRegistration(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	subs, err := RegisterReceiverHandlers(adapter, newStubReceiverService())
	if err != nil {
		t.Fatalf("register receiver handlers: %v", err)
	}
	t.Cleanup(subs.Unsubscribe)

	again, err := RegisterReceiverHandlers(adapter, newStubReceiverService())
	if err == nil {
		again.Unsubscribe()
		t.Fatalf("expected duplicate receiver registration to fail")
	}
	if !strings.Contains(err.Error(), lzcommand.TypeInitChannel) {
		t.Fatalf("expected duplicate type in error, got %v", err)
	}
	if len(adapter.RegisteredTypes()) != 8 {
		t.Fatalf("expected the first registration to stay intact, got %v", adapter.RegisteredTypes())
	}
}

func TestRegistryAdapter_MirrorsReceiverCommandsIntoQueue(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	queueRegistry := jobqueuecommand.NewRegistry()
	if err := adapter.AddQueueResolver("queue", queueRegistry); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}
	if err := adapter.AddQueueResolver("queue", nil); err == nil {
		t.Fatalf("expected nil queue registry to be rejected")
	}
	subs, err := RegisterReceiverHandlers(adapter, newStubReceiverService())
	if err != nil {
		t.Fatalf("register receiver handlers: %v", err)
	}
	t.Cleanup(subs.Unsubscribe)
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	for _, msgType := range []string{lzcommand.TypeReceive, lzcommand.TypeCompose} {
		if _, ok := queueRegistry.Get(msgType); !ok {
			t.Fatalf("expected %s to be mirrored into the queue registry", msgType)
		}
	}
}

func TestDispatchReceive_ReturnsStoredResult(t *testing.T) {
	svc := newStubReceiverService()
	adapter := NewRegistryAdapter(command.NewRegistry())
	subs, err := RegisterReceiverHandlers(adapter, svc)
	if err != nil {
		t.Fatalf("register receiver handlers: %v", err)
	}
	t.Cleanup(subs.Unsubscribe)
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	result, err := DispatchReceive(context.Background(), lzcommand.ReceiveMessage{
		ChannelID: 3,
		Params: core.ReceiveParams{
			SourceChainID: 30101,
			Sender:        core.DeriveAddress([]byte("sender")),
			Message:       []byte{0x00},
		},
	})
	if err != nil {
		t.Fatalf("dispatch receive: %v", err)
	}
	if result.State != inbound.StateDone || result.ReceivedCount != 1 {
		t.Fatalf("unexpected receive result %+v", result)
	}
}
