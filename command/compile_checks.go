package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[InitChannelMessage] = (*InitChannelCommand)(nil)
	_ gocmd.Commander[SetRemoteMessage]   = (*SetRemoteCommand)(nil)
	_ gocmd.Commander[ReceiveMessage]     = (*ReceiveCommand)(nil)
	_ gocmd.Commander[ComposeMessage]     = (*ComposeCommand)(nil)
)
