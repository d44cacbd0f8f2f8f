package inbound

import (
	"github.com/goliatone/go-lzreceiver/core"
)

func withConsumed(metadata map[string]any, consumed bool) map[string]any {
	out := core.CloneFields(metadata)
	out[core.MetadataKeyConsumed] = consumed
	return out
}

// rejectError keeps rich collaborator errors unchanged and classifies the
// rest under textCode.
func rejectError(source error, textCode string, metadata map[string]any, consumed bool) error {
	if source == nil {
		return core.NewReceiveError(textCode, "", withConsumed(metadata, consumed))
	}
	if code := core.ReceiveErrorCode(source); code != "" {
		if consumed {
			return core.WrapReceiveError(source, code, "", withConsumed(metadata, consumed))
		}
		return source
	}
	return core.WrapReceiveError(source, textCode, "", withConsumed(metadata, consumed))
}
