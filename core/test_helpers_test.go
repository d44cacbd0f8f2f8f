package core

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type stubEncoder struct{}

func (stubEncoder) Encode(kind MessageKind, sourceChainID uint32) []byte {
	return []byte{byte(kind), byte(sourceChainID >> 24), byte(sourceChainID >> 16), byte(sourceChainID >> 8), byte(sourceChainID)}
}

type stubTransport struct {
	mu           sync.Mutex
	id           string
	localChainID uint32
	fee          MessagingFee
	quoteErr     error
	quotes       []QuoteParams
}

func (t *stubTransport) ID() string { return t.id }

func (t *stubTransport) LocalChainID(context.Context) (uint32, error) {
	return t.localChainID, nil
}

func (t *stubTransport) Clear(context.Context, ClearParams) error { return nil }

func (t *stubTransport) SendCompose(context.Context, SendComposeParams) error { return nil }

func (t *stubTransport) ClearCompose(context.Context, ClearComposeParams) error { return nil }

func (t *stubTransport) Quote(_ context.Context, params QuoteParams) (MessagingFee, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.quotes = append(t.quotes, params)
	if t.quoteErr != nil {
		return MessagingFee{}, t.quoteErr
	}
	return t.fee, nil
}

func (t *stubTransport) ClearAccounts(receiver Address, _ uint32, _ Address, _ uint64) []AccountMeta {
	return []AccountMeta{{Address: DeriveAddress([]byte("clear"), receiver[:]), IsWritable: true}}
}

func (t *stubTransport) ComposeAccounts(from Address, _ Address, _ GUID, _ uint16, _ []byte) []AccountMeta {
	return []AccountMeta{{Address: DeriveAddress([]byte("compose"), from[:]), IsWritable: true}}
}

type stubResolver struct {
	transports map[string]Transport
}

func (r stubResolver) Resolve(ref string) (Transport, error) {
	transport, ok := r.transports[ref]
	if !ok {
		return nil, fmt.Errorf("transport %q not registered", ref)
	}
	return transport, nil
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time {
		return at
	}
}

func testAddress(seed string) Address {
	return DeriveAddress([]byte(seed))
}

func newTestService(t interface {
	Fatalf(format string, args ...any)
}, transport *stubTransport, opts ...Option) *Service {
	base := []Option{
		WithTransportResolver(stubResolver{transports: map[string]Transport{"endpoint": transport}}),
		WithEnvelopeEncoder(stubEncoder{}),
	}
	svc, err := NewService(DefaultConfig(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}
