package sqlstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-lzreceiver/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const remoteCacheKeyPrefix = "go-lzreceiver::remote::v1"

// CachedRemoteStore serves registry lookups from a read-through cache.
// Upsert writes through and evicts the entry.
type CachedRemoteStore struct {
	base  core.RemoteStore
	cache repositorycache.CacheService
}

func NewCachedRemoteStore(base core.RemoteStore, cacheService repositorycache.CacheService) (*CachedRemoteStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base remote store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: remote cache service is required")
	}
	return &CachedRemoteStore{base: base, cache: cacheService}, nil
}

// RemoteCacheKey returns go-lzreceiver::remote::v1::<channel_id>::<source_chain_id>.
func RemoteCacheKey(channelID uint8, sourceChainID uint32) string {
	return strings.Join([]string{
		remoteCacheKeyPrefix,
		strconv.Itoa(int(channelID)),
		strconv.FormatUint(uint64(sourceChainID), 10),
	}, "::")
}

func (s *CachedRemoteStore) Get(ctx context.Context, channelID uint8, sourceChainID uint32) (core.RemoteEntry, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.RemoteEntry{}, fmt.Errorf("sqlstore: cached remote store is not configured")
	}
	return repositorycache.GetOrFetch(ctx, s.cache, RemoteCacheKey(channelID, sourceChainID), func(ctx context.Context) (core.RemoteEntry, error) {
		return s.base.Get(ctx, channelID, sourceChainID)
	})
}

func (s *CachedRemoteStore) Upsert(ctx context.Context, in core.UpsertRemoteInput) (core.RemoteEntry, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.RemoteEntry{}, fmt.Errorf("sqlstore: cached remote store is not configured")
	}
	entry, err := s.base.Upsert(ctx, in)
	if err != nil {
		return core.RemoteEntry{}, err
	}
	if err := s.cache.Delete(ctx, RemoteCacheKey(in.ChannelID, in.SourceChainID)); err != nil {
		return core.RemoteEntry{}, err
	}
	return entry, nil
}
