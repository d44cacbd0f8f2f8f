package transport

import (
	"github.com/goliatone/go-lzreceiver/core"
)

func transportError(textCode string, message string, metadata map[string]any) error {
	return core.NewReceiveError(textCode, "transport: "+message, metadata)
}

func transportWrapError(source error, textCode string, message string, metadata map[string]any) error {
	return core.WrapReceiveError(source, textCode, "transport: "+message, metadata)
}
