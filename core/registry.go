package core

import (
	"context"
	"errors"
)

// SetRemote binds the authorized sender for one source chain on a channel.
// Only the channel admin may call it; repeating the call with the same
// sender is a no-op in effect.
func (s *Service) SetRemote(ctx context.Context, req SetRemoteRequest) (entry RemoteEntry, err error) {
	startedAt := s.now()
	fields := map[string]any{
		"channel_id":      req.ChannelID,
		"source_chain_id": req.SourceChainID,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "remote_set", err, fields)
	}()

	if req.Sender.IsZero() {
		err = badInput("core: remote sender is required", fields)
		return RemoteEntry{}, err
	}
	channel, err := s.GetChannel(ctx, req.ChannelID)
	if err != nil {
		return RemoteEntry{}, err
	}
	if !channel.Admin.Equal(req.Requester) {
		err = NewReceiveError(ErrorUnauthorizedSender, "core: requester is not the channel admin", fields)
		return RemoteEntry{}, err
	}

	entry, err = s.remoteStore.Upsert(ctx, UpsertRemoteInput{
		ChannelID:        req.ChannelID,
		SourceChainID:    req.SourceChainID,
		Address:          RemoteAddress(channel.Address, req.SourceChainID),
		AuthorizedSender: req.Sender,
	})
	if err != nil {
		err = MapError(err)
		return RemoteEntry{}, err
	}
	fields["remote_address"] = entry.Address.String()
	return entry, nil
}

// LookupRemote reports the authorized sender for (channel, source chain).
// A missing entry is not an error.
func (s *Service) LookupRemote(ctx context.Context, channelID uint8, sourceChainID uint32) (Address, bool, error) {
	entry, err := s.remoteStore.Get(ctx, channelID, sourceChainID)
	if err != nil {
		if errors.Is(err, ErrRemoteNotFound) {
			return ZeroAddress, false, nil
		}
		return ZeroAddress, false, MapError(err)
	}
	return entry.AuthorizedSender, true, nil
}

func (s *Service) GetRemote(ctx context.Context, channelID uint8, sourceChainID uint32) (RemoteEntry, error) {
	entry, err := s.remoteStore.Get(ctx, channelID, sourceChainID)
	if err != nil {
		if errors.Is(err, ErrRemoteNotFound) {
			return RemoteEntry{}, NewReceiveError(ErrorRemoteAccountNotFound, "", map[string]any{
				"channel_id":      channelID,
				"source_chain_id": sourceChainID,
			})
		}
		return RemoteEntry{}, MapError(err)
	}
	return entry, nil
}

// AuthenticateSender fails with UnauthorizedSender unless a remote entry
// exists for the source chain and names exactly this sender.
func (s *Service) AuthenticateSender(ctx context.Context, channelID uint8, sourceChainID uint32, sender Address) error {
	authorized, ok, err := s.LookupRemote(ctx, channelID, sourceChainID)
	if err != nil {
		return err
	}
	metadata := map[string]any{
		"channel_id":      channelID,
		"source_chain_id": sourceChainID,
		"sender":          sender.String(),
	}
	if !ok {
		return NewReceiveError(ErrorUnauthorizedSender, "core: no remote registered for source chain", metadata)
	}
	if !authorized.Equal(sender) {
		return NewReceiveError(ErrorUnauthorizedSender, "", metadata)
	}
	return nil
}
