package sqlstore

import "github.com/goliatone/go-lzreceiver/core"

var (
	_ core.ChannelStore           = (*ChannelStore)(nil)
	_ core.RemoteStore            = (*RemoteStore)(nil)
	_ core.RemoteStore            = (*CachedRemoteStore)(nil)
	_ core.ClearLedger            = (*ClearLedgerStore)(nil)
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
	_ core.RemoteCacheConfigurer  = (*RepositoryFactory)(nil)
)
