package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorUnauthorizedSender      = "LZ_UNAUTHORIZED_SENDER"
	ErrorUnauthorizedRecipient   = "LZ_UNAUTHORIZED_RECIPIENT"
	ErrorInvalidMessageType      = "LZ_INVALID_MESSAGE_TYPE"
	ErrorMessageDecodingFailed   = "LZ_MESSAGE_DECODING_FAILED"
	ErrorClearFailed             = "LZ_CLEAR_FAILED"
	ErrorSendComposeFailed       = "LZ_SEND_COMPOSE_FAILED"
	ErrorInvalidEndpointSettings = "LZ_INVALID_ENDPOINT_SETTINGS"
	ErrorInsufficientFunds       = "LZ_INSUFFICIENT_FUNDS"
	ErrorRemoteAddressMismatch   = "LZ_REMOTE_ADDRESS_MISMATCH"
	ErrorRemoteAccountNotFound   = "LZ_REMOTE_ACCOUNT_NOT_FOUND"
	ErrorInvalidSourceChain      = "LZ_INVALID_SOURCE_CHAIN"
	ErrorSwapExecutionFailed     = "LZ_SWAP_EXECUTION_FAILED"
	ErrorChannelNotFound         = "LZ_CHANNEL_NOT_FOUND"
	ErrorChannelExists           = "LZ_CHANNEL_EXISTS"
	ErrorBadInput                = "LZ_BAD_INPUT"
	ErrorInternal                = "LZ_INTERNAL_ERROR"
)

// MetadataKeyConsumed marks failures raised after the transport cleared the
// message; those are never redelivered.
const MetadataKeyConsumed = "consumed"

var (
	ErrChannelNotFound     = errors.New("core: channel not found")
	ErrChannelExists       = errors.New("core: channel already exists")
	ErrRemoteNotFound      = errors.New("core: remote not found")
	ErrAlreadyCleared      = errors.New("core: message already cleared")
	ErrComposeExists       = errors.New("core: compose message already queued")
	ErrComposeNotFound     = errors.New("core: compose message not found")
	ErrComposeDelivered    = errors.New("core: compose message already delivered")
	ErrComposeHashMismatch = errors.New("core: compose message hash mismatch")
	ErrJobQueueEmpty       = errors.New("core: job queue is empty")
)

type errorDef struct {
	category goerrors.Category
	status   int
	message  string
}

var errorDefs = map[string]errorDef{
	ErrorUnauthorizedSender:      {goerrors.CategoryAuth, http.StatusUnauthorized, "unauthorized sender"},
	ErrorUnauthorizedRecipient:   {goerrors.CategoryAuthz, http.StatusForbidden, "unauthorized recipient"},
	ErrorInvalidMessageType:      {goerrors.CategoryBadInput, http.StatusBadRequest, "invalid message type"},
	ErrorMessageDecodingFailed:   {goerrors.CategoryBadInput, http.StatusBadRequest, "message decoding failed"},
	ErrorClearFailed:             {goerrors.CategoryExternal, http.StatusBadGateway, "failed to clear the message with the transport"},
	ErrorSendComposeFailed:       {goerrors.CategoryExternal, http.StatusBadGateway, "failed to send composed message"},
	ErrorInvalidEndpointSettings: {goerrors.CategoryValidation, http.StatusBadRequest, "endpoint settings are incorrect"},
	ErrorInsufficientFunds:       {goerrors.CategoryBadInput, http.StatusPaymentRequired, "not enough funds to cover messaging fees"},
	ErrorRemoteAddressMismatch:   {goerrors.CategoryConflict, http.StatusConflict, "remote address mismatch"},
	ErrorRemoteAccountNotFound:   {goerrors.CategoryNotFound, http.StatusNotFound, "remote account not found"},
	ErrorInvalidSourceChain:      {goerrors.CategoryBadInput, http.StatusBadRequest, "invalid source chain id"},
	ErrorSwapExecutionFailed:     {goerrors.CategoryOperation, http.StatusInternalServerError, "swap execution failed"},
	ErrorChannelNotFound:         {goerrors.CategoryNotFound, http.StatusNotFound, "channel not found"},
	ErrorChannelExists:           {goerrors.CategoryConflict, http.StatusConflict, "channel already exists"},
	ErrorBadInput:                {goerrors.CategoryBadInput, http.StatusBadRequest, "bad input"},
	ErrorInternal:                {goerrors.CategoryInternal, http.StatusInternalServerError, "an unexpected error occurred"},
}

func defFor(textCode string) errorDef {
	if def, ok := errorDefs[textCode]; ok {
		return def
	}
	return errorDefs[ErrorInternal]
}

// NewReceiveError builds the rich error for a taxonomy code. An empty message
// falls back to the code's default description.
func NewReceiveError(textCode string, message string, metadata map[string]any) *goerrors.Error {
	def := defFor(textCode)
	if strings.TrimSpace(message) == "" {
		message = def.message
	}
	err := goerrors.New(message, def.category).
		WithCode(def.status).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func WrapReceiveError(source error, textCode string, message string, metadata map[string]any) *goerrors.Error {
	if source == nil {
		return NewReceiveError(textCode, message, metadata)
	}
	def := defFor(textCode)
	if strings.TrimSpace(message) == "" {
		message = def.message
	}
	err := goerrors.Wrap(source, def.category, message).
		WithCode(def.status).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func ReceiveErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich != nil {
		return rich.TextCode
	}
	return ""
}

func IsReceiveError(err error, textCode string) bool {
	return err != nil && ReceiveErrorCode(err) == textCode
}

// MapError keeps rich errors unchanged and classifies the store and ledger
// sentinels; anything else becomes an internal error.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich != nil {
		return err
	}
	switch {
	case errors.Is(err, ErrChannelNotFound):
		return WrapReceiveError(err, ErrorChannelNotFound, "", nil)
	case errors.Is(err, ErrChannelExists):
		return WrapReceiveError(err, ErrorChannelExists, "", nil)
	case errors.Is(err, ErrRemoteNotFound):
		return WrapReceiveError(err, ErrorRemoteAccountNotFound, "", nil)
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	if strings.Contains(msg, "required") || strings.Contains(msg, "invalid") {
		return WrapReceiveError(err, ErrorBadInput, err.Error(), nil)
	}
	return WrapReceiveError(err, ErrorInternal, "", nil)
}

func badInput(message string, metadata map[string]any) error {
	return NewReceiveError(ErrorBadInput, message, metadata)
}

// IsConsumed reports whether err was raised after the transport cleared
// the message, meaning it will not be redelivered.
func IsConsumed(err error) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich == nil {
		return false
	}
	consumed, _ := rich.Metadata[MetadataKeyConsumed].(bool)
	return consumed
}
