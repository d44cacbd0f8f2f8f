// Package inbound runs the receive path for one channel: authenticate the
// sender against the remote registry, clear the message with the
// transport, decode the swap command, bind it to the channel and count it.
// Composed commands are forwarded back to the channel for a second
// delivery, which ComposeHandler completes.
//
// Failures before clearing leave no trace and are safe to redeliver.
// Failures after clearing are final; their errors carry consumed=true.
package inbound
