package sqlstore

import (
	"fmt"

	"github.com/goliatone/go-lzreceiver/core"
	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"
)

type RepositoryFactory struct {
	db           *bun.DB
	remoteCache  repositorycache.CacheService
	channelStore *ChannelStore
	remoteStore  *RemoteStore
	cachedRemote *CachedRemoteStore
	clearLedger  *ClearLedgerStore
}

type FactoryOption func(*RepositoryFactory)

// WithRemoteCache puts registry lookups behind the given cache service.
// Upserts evict only this process's entry. Other processes sharing the
// database keep serving a rotated sender until their entry's TTL expires,
// so keep the TTL short when more than one process writes remotes.
func WithRemoteCache(cacheService repositorycache.CacheService) FactoryOption {
	return func(f *RepositoryFactory) {
		f.remoteCache = cacheService
	}
}

// NewRemoteCacheService builds the cache service described by cfg. A zero
// TTL falls back to core.DefaultRemoteCacheTTL.
func NewRemoteCacheService(cfg core.RemoteCacheConfig) (repositorycache.CacheService, error) {
	cacheConfig := repositorycache.DefaultConfig()
	cacheConfig.TTL = core.DefaultRemoteCacheTTL
	if cfg.TTL > 0 {
		cacheConfig.TTL = cfg.TTL
	}
	cacheService, err := repositorycache.NewCacheService(cacheConfig)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: remote cache: %w", err)
	}
	return cacheService, nil
}

// ConfigureRemoteCache enables the remote cache when cfg asks for it. A
// cache service given through WithRemoteCache takes precedence. Stores that
// were already built are wrapped in place.
func (f *RepositoryFactory) ConfigureRemoteCache(cfg core.RemoteCacheConfig) error {
	if f == nil || !cfg.Enabled {
		return nil
	}
	if f.remoteCache == nil {
		cacheService, err := NewRemoteCacheService(cfg)
		if err != nil {
			return err
		}
		f.remoteCache = cacheService
	}
	if f.remoteStore == nil || f.cachedRemote != nil {
		return nil
	}
	cached, err := NewCachedRemoteStore(f.remoteStore, f.remoteCache)
	if err != nil {
		return err
	}
	f.cachedRemote = cached
	return nil
}

func NewRepositoryFactory(opts ...FactoryOption) *RepositoryFactory {
	factory := &RepositoryFactory{}
	for _, opt := range opts {
		if opt != nil {
			opt(factory)
		}
	}
	return factory
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client, opts ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB, opts ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.channelStore != nil && f.remoteStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) ChannelStore() core.ChannelStore {
	if f == nil || f.channelStore == nil {
		return nil
	}
	return f.channelStore
}

// RemoteStore returns the cached store when a remote cache was configured.
func (f *RepositoryFactory) RemoteStore() core.RemoteStore {
	if f == nil {
		return nil
	}
	if f.cachedRemote != nil {
		return f.cachedRemote
	}
	if f.remoteStore == nil {
		return nil
	}
	return f.remoteStore
}

func (f *RepositoryFactory) Remotes() *RemoteStore {
	if f == nil {
		return nil
	}
	return f.remoteStore
}

func (f *RepositoryFactory) ClearLedger() *ClearLedgerStore {
	if f == nil {
		return nil
	}
	return f.clearLedger
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	channelStore, err := NewChannelStore(f.db)
	if err != nil {
		return err
	}
	remoteStore, err := NewRemoteStore(f.db)
	if err != nil {
		return err
	}
	clearLedger, err := NewClearLedgerStore(f.db)
	if err != nil {
		return err
	}
	f.channelStore = channelStore
	f.remoteStore = remoteStore
	f.clearLedger = clearLedger
	if f.remoteCache != nil {
		cached, cacheErr := NewCachedRemoteStore(remoteStore, f.remoteCache)
		if cacheErr != nil {
			return cacheErr
		}
		f.cachedRemote = cached
	}
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
