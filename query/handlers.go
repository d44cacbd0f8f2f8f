package query

import (
	"context"

	"github.com/goliatone/go-lzreceiver/core"
)

type QuoteReader interface {
	Quote(ctx context.Context, req core.QuoteRequest) (core.MessagingFee, error)
}

type AccountsReader interface {
	RequiredAccounts(ctx context.Context, channelID uint8, params core.ReceiveParams) ([]core.AccountMeta, error)
}

type ChannelReader interface {
	GetChannel(ctx context.Context, channelID uint8) (core.ChannelState, error)
}

type RemoteReader interface {
	GetRemote(ctx context.Context, channelID uint8, sourceChainID uint32) (core.RemoteEntry, error)
}

type QuoteQuery struct {
	reader QuoteReader
}

func NewQuoteQuery(reader QuoteReader) *QuoteQuery {
	return &QuoteQuery{reader: reader}
}

func (q *QuoteQuery) Query(ctx context.Context, msg QuoteMessage) (core.MessagingFee, error) {
	if q == nil || q.reader == nil {
		return core.MessagingFee{}, queryDependencyError("query: quote reader is required")
	}
	return q.reader.Quote(ctx, msg.Request)
}

type RequiredAccountsQuery struct {
	reader AccountsReader
}

func NewRequiredAccountsQuery(reader AccountsReader) *RequiredAccountsQuery {
	return &RequiredAccountsQuery{reader: reader}
}

func (q *RequiredAccountsQuery) Query(ctx context.Context, msg RequiredAccountsMessage) ([]core.AccountMeta, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: accounts reader is required")
	}
	return q.reader.RequiredAccounts(ctx, msg.ChannelID, msg.Params)
}

type GetChannelQuery struct {
	reader ChannelReader
}

func NewGetChannelQuery(reader ChannelReader) *GetChannelQuery {
	return &GetChannelQuery{reader: reader}
}

func (q *GetChannelQuery) Query(ctx context.Context, msg GetChannelMessage) (core.ChannelState, error) {
	if q == nil || q.reader == nil {
		return core.ChannelState{}, queryDependencyError("query: channel reader is required")
	}
	return q.reader.GetChannel(ctx, msg.ChannelID)
}

type GetRemoteQuery struct {
	reader RemoteReader
}

func NewGetRemoteQuery(reader RemoteReader) *GetRemoteQuery {
	return &GetRemoteQuery{reader: reader}
}

func (q *GetRemoteQuery) Query(ctx context.Context, msg GetRemoteMessage) (core.RemoteEntry, error) {
	if q == nil || q.reader == nil {
		return core.RemoteEntry{}, queryDependencyError("query: remote reader is required")
	}
	return q.reader.GetRemote(ctx, msg.ChannelID, msg.SourceChainID)
}
