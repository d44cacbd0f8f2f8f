package core

import "context"

// Quote asks the channel's transport for the fee of sending a message of
// the given kind to DstChainID. The quoted payload is the envelope tagged
// with the local chain id.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (fee MessagingFee, err error) {
	startedAt := s.now()
	fields := map[string]any{
		"channel_id":      req.ChannelID,
		"dst_chain_id":    req.DstChainID,
		"msg_type":        req.MsgType,
		"pay_in_lz_token": req.PayInLzToken,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "quote", err, fields)
	}()

	kind := MessageKind(req.MsgType)
	if !kind.Valid() {
		err = NewReceiveError(ErrorInvalidMessageType, "", fields)
		return MessagingFee{}, err
	}
	if req.DstChainID == 0 {
		err = NewReceiveError(ErrorInvalidSourceChain, "core: destination chain id is required", fields)
		return MessagingFee{}, err
	}
	if s.envelopeEncoder == nil {
		err = NewReceiveError(ErrorInvalidEndpointSettings, "core: envelope encoder is not configured", fields)
		return MessagingFee{}, err
	}

	channel, err := s.GetChannel(ctx, req.ChannelID)
	if err != nil {
		return MessagingFee{}, err
	}
	transport, err := s.ResolveTransport(channel)
	if err != nil {
		return MessagingFee{}, err
	}

	localChainID := s.config.LocalChainID
	if localChainID == 0 {
		localChainID, err = transport.LocalChainID(ctx)
		if err != nil {
			err = WrapReceiveError(err, ErrorInvalidEndpointSettings, "", fields)
			return MessagingFee{}, err
		}
	}
	if localChainID == 0 {
		err = NewReceiveError(ErrorInvalidEndpointSettings, "core: local chain id is not configured", fields)
		return MessagingFee{}, err
	}
	fields["local_chain_id"] = localChainID

	fee, err = transport.Quote(ctx, QuoteParams{
		Sender:       channel.Address,
		DstChainID:   req.DstChainID,
		Receiver:     req.Receiver,
		Message:      s.envelopeEncoder.Encode(kind, localChainID),
		Options:      append([]byte(nil), req.Options...),
		PayInLzToken: req.PayInLzToken,
	})
	if err != nil {
		err = MapError(err)
		return MessagingFee{}, err
	}
	return fee, nil
}
