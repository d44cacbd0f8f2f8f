package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-lzreceiver/core"
)

var (
	_ gocmd.Querier[QuoteMessage, core.MessagingFee]             = (*QuoteQuery)(nil)
	_ gocmd.Querier[RequiredAccountsMessage, []core.AccountMeta] = (*RequiredAccountsQuery)(nil)
	_ gocmd.Querier[GetChannelMessage, core.ChannelState]        = (*GetChannelQuery)(nil)
	_ gocmd.Querier[GetRemoteMessage, core.RemoteEntry]          = (*GetRemoteQuery)(nil)
)
