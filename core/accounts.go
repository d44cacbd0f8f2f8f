package core

// ReceiveResources is the set of accounts one receipt touches, grouped by
// the pipeline step that uses them.
type ReceiveResources struct {
	Channel  AccountMeta
	Remote   AccountMeta
	Clear    []AccountMeta
	Compose  []AccountMeta
	Composed bool
}

// Accounts flattens the resources in pipeline order: channel, remote,
// clearing accounts, then compose accounts.
func (r ReceiveResources) Accounts() []AccountMeta {
	accounts := make([]AccountMeta, 0, 2+len(r.Clear)+len(r.Compose))
	accounts = append(accounts, r.Channel, r.Remote)
	accounts = append(accounts, r.Clear...)
	accounts = append(accounts, r.Compose...)
	return accounts
}

// HasComposedTag reports whether message carries the composed type tag.
// Empty messages and unknown tags are not composed.
func HasComposedTag(message []byte) bool {
	return len(message) > 0 && message[0] == byte(MessageKindComposed)
}

// DeriveReceiveResources derives the resources a receipt of params touches
// on channel. It never inspects more than the leading tag of the message
// and never fails, so the same set is available before and during Receive.
func DeriveReceiveResources(transport Transport, channel ChannelState, params ReceiveParams) ReceiveResources {
	channelAddress := channel.Address
	if channelAddress.IsZero() {
		channelAddress = ChannelAddress(channel.ID)
	}
	resources := ReceiveResources{
		Channel:  AccountMeta{Address: channelAddress, IsWritable: true},
		Remote:   AccountMeta{Address: RemoteAddress(channelAddress, params.SourceChainID)},
		Composed: HasComposedTag(params.Message),
	}
	if transport == nil {
		return resources
	}
	resources.Clear = transport.ClearAccounts(channelAddress, params.SourceChainID, params.Sender, params.Nonce)
	if resources.Composed {
		resources.Compose = transport.ComposeAccounts(channelAddress, channelAddress, params.GUID, 0, params.Message)
	}
	return resources
}

// DeriveReceiveAccounts is the flattened form of DeriveReceiveResources.
func DeriveReceiveAccounts(transport Transport, channel ChannelState, params ReceiveParams) []AccountMeta {
	return DeriveReceiveResources(transport, channel, params).Accounts()
}
