package core

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type MemoryChannelStore struct {
	mu       sync.Mutex
	channels map[uint8]ChannelState
	Now      func() time.Time
}

func NewMemoryChannelStore() *MemoryChannelStore {
	return &MemoryChannelStore{
		channels: map[uint8]ChannelState{},
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (s *MemoryChannelStore) Create(_ context.Context, in CreateChannelInput) (ChannelState, error) {
	if s == nil {
		return ChannelState{}, fmt.Errorf("core: channel store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.channels[in.ChannelID]; ok {
		return ChannelState{}, ErrChannelExists
	}
	address := in.Address
	if address.IsZero() {
		address = ChannelAddress(in.ChannelID)
	}
	now := s.now()
	channel := ChannelState{
		ID:           in.ChannelID,
		Address:      address,
		Admin:        in.Admin,
		TransportRef: in.TransportRef,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.channels[in.ChannelID] = channel
	return channel, nil
}

func (s *MemoryChannelStore) Get(_ context.Context, channelID uint8) (ChannelState, error) {
	if s == nil {
		return ChannelState{}, fmt.Errorf("core: channel store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	channel, ok := s.channels[channelID]
	if !ok {
		return ChannelState{}, ErrChannelNotFound
	}
	return channel, nil
}

func (s *MemoryChannelStore) IncrementReceived(_ context.Context, channelID uint8) (ChannelState, error) {
	return s.mutate(channelID, func(channel *ChannelState) {
		channel.ReceivedCount++
	})
}

func (s *MemoryChannelStore) IncrementComposed(_ context.Context, channelID uint8) (ChannelState, error) {
	return s.mutate(channelID, func(channel *ChannelState) {
		channel.ComposedCount++
	})
}

func (s *MemoryChannelStore) mutate(channelID uint8, fn func(*ChannelState)) (ChannelState, error) {
	if s == nil {
		return ChannelState{}, fmt.Errorf("core: channel store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	channel, ok := s.channels[channelID]
	if !ok {
		return ChannelState{}, ErrChannelNotFound
	}
	fn(&channel)
	channel.UpdatedAt = s.now()
	s.channels[channelID] = channel
	return channel, nil
}

func (s *MemoryChannelStore) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

type remoteKey struct {
	channelID     uint8
	sourceChainID uint32
}

type MemoryRemoteStore struct {
	mu      sync.Mutex
	remotes map[remoteKey]RemoteEntry
	Now     func() time.Time
}

func NewMemoryRemoteStore() *MemoryRemoteStore {
	return &MemoryRemoteStore{
		remotes: map[remoteKey]RemoteEntry{},
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (s *MemoryRemoteStore) Upsert(_ context.Context, in UpsertRemoteInput) (RemoteEntry, error) {
	if s == nil {
		return RemoteEntry{}, fmt.Errorf("core: remote store is not configured")
	}
	key := remoteKey{channelID: in.ChannelID, sourceChainID: in.SourceChainID}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.remotes[key]
	if !ok {
		entry = RemoteEntry{
			ChannelID:     in.ChannelID,
			SourceChainID: in.SourceChainID,
			CreatedAt:     now,
		}
	}
	entry.Address = in.Address
	entry.AuthorizedSender = in.AuthorizedSender
	entry.UpdatedAt = now
	s.remotes[key] = entry
	return entry, nil
}

func (s *MemoryRemoteStore) Get(_ context.Context, channelID uint8, sourceChainID uint32) (RemoteEntry, error) {
	if s == nil {
		return RemoteEntry{}, fmt.Errorf("core: remote store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.remotes[remoteKey{channelID: channelID, sourceChainID: sourceChainID}]
	if !ok {
		return RemoteEntry{}, ErrRemoteNotFound
	}
	return entry, nil
}

func (s *MemoryRemoteStore) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
