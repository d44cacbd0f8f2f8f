package msgcodec

import (
	"encoding/binary"
	"fmt"

	"github.com/goliatone/go-lzreceiver/core"
)

const (
	EnvelopeLen  = 5
	fixedCmdLen  = 1 + 32 + 32 + 8 + 8 + 1 + 8 + 32 + 32 + 4 + 16
	addressBytes = core.AddressLen
)

// Encode builds the envelope of kind tagged with sourceChainID.
func Encode(kind core.MessageKind, sourceChainID uint32) []byte {
	out := make([]byte, EnvelopeLen)
	out[0] = byte(kind)
	binary.BigEndian.PutUint32(out[1:], sourceChainID)
	return out
}

// DecodeKind reads the leading type tag.
func DecodeKind(envelope []byte) (core.MessageKind, error) {
	if len(envelope) == 0 {
		return 0, core.NewReceiveError(core.ErrorInvalidMessageType, "msgcodec: empty message", nil)
	}
	kind := core.MessageKind(envelope[0])
	if !kind.Valid() {
		return 0, core.NewReceiveError(core.ErrorInvalidMessageType, "", map[string]any{"tag": envelope[0]})
	}
	return kind, nil
}

func DecodeSourceChain(envelope []byte) (uint32, error) {
	if len(envelope) < EnvelopeLen {
		return 0, decodingError("envelope shorter than %d bytes", EnvelopeLen)
	}
	return binary.BigEndian.Uint32(envelope[1:EnvelopeLen]), nil
}

func EncodeCommand(cmd core.SwapCommand) ([]byte, error) {
	if !cmd.Kind.Valid() {
		return nil, core.NewReceiveError(core.ErrorInvalidMessageType, "", map[string]any{"tag": uint8(cmd.Kind)})
	}
	out := make([]byte, 0, fixedCmdLen+binary.MaxVarintLen64+len(cmd.Path)*addressBytes)
	out = append(out, byte(cmd.Kind))
	out = append(out, cmd.TokenIn[:]...)
	out = append(out, cmd.TokenOut[:]...)
	out = binary.BigEndian.AppendUint64(out, cmd.AmountIn)
	out = binary.BigEndian.AppendUint64(out, cmd.MinAmountOut)
	out = binary.AppendUvarint(out, uint64(len(cmd.Path)))
	for _, hop := range cmd.Path {
		out = append(out, hop[:]...)
	}
	out = append(out, cmd.DexChoice)
	out = binary.BigEndian.AppendUint64(out, cmd.Deadline)
	out = append(out, cmd.DexAddress[:]...)
	out = append(out, cmd.Recipient[:]...)
	out = binary.BigEndian.AppendUint32(out, cmd.Fee)
	limit := cmd.SqrtPriceLimitX96.Bytes()
	out = append(out, limit[:]...)
	return out, nil
}

// DecodeCommand parses a full command payload. It never reads past the
// input and rejects trailing bytes and non-canonical lengths.
func DecodeCommand(payload []byte) (core.SwapCommand, error) {
	if len(payload) == 0 {
		return core.SwapCommand{}, decodingError("empty payload")
	}
	kind, err := DecodeKind(payload)
	if err != nil {
		return core.SwapCommand{}, err
	}
	r := &reader{buf: payload, off: 1}
	cmd := core.SwapCommand{Kind: kind}
	cmd.TokenIn = r.address("token_in")
	cmd.TokenOut = r.address("token_out")
	cmd.AmountIn = r.u64("amount_in")
	cmd.MinAmountOut = r.u64("min_amount_out")
	pathLen := r.uvarint("path_len")
	if r.err == nil && pathLen > uint64(r.remaining()/addressBytes) {
		return core.SwapCommand{}, decodingError("path_len %d exceeds remaining %d bytes", pathLen, r.remaining())
	}
	if r.err == nil && pathLen > 0 {
		cmd.Path = make([]core.Address, 0, pathLen)
		for i := uint64(0); i < pathLen && r.err == nil; i++ {
			cmd.Path = append(cmd.Path, r.address("path"))
		}
	}
	cmd.DexChoice = r.u8("dex_choice")
	cmd.Deadline = r.u64("deadline")
	cmd.DexAddress = r.address("dex_address")
	cmd.Recipient = r.address("recipient")
	cmd.Fee = r.u32("fee")
	cmd.SqrtPriceLimitX96 = r.u128("sqrt_price_limit_x96")
	if r.err != nil {
		return core.SwapCommand{}, r.err
	}
	if rest := len(payload) - r.off; rest != 0 {
		return core.SwapCommand{}, decodingError("%d trailing bytes", rest)
	}
	return cmd, nil
}

// Codec adapts the package functions to core.EnvelopeEncoder.
type Codec struct{}

func (Codec) Encode(kind core.MessageKind, sourceChainID uint32) []byte {
	return Encode(kind, sourceChainID)
}

var _ core.EnvelopeEncoder = Codec{}

func decodingError(format string, args ...any) error {
	return core.NewReceiveError(core.ErrorMessageDecodingFailed, "msgcodec: "+fmt.Sprintf(format, args...), nil)
}

type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) take(n int, field string) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.buf)-r.off < n {
		r.err = decodingError("truncated at %s", field)
		return nil
	}
	out := r.buf[r.off : r.off+n]
	r.off += n
	return out
}

func (r *reader) u8(field string) byte {
	raw := r.take(1, field)
	if raw == nil {
		return 0
	}
	return raw[0]
}

func (r *reader) u32(field string) uint32 {
	raw := r.take(4, field)
	if raw == nil {
		return 0
	}
	return binary.BigEndian.Uint32(raw)
}

func (r *reader) u64(field string) uint64 {
	raw := r.take(8, field)
	if raw == nil {
		return 0
	}
	return binary.BigEndian.Uint64(raw)
}

func (r *reader) u128(field string) core.Uint128 {
	raw := r.take(16, field)
	if raw == nil {
		return core.Uint128{}
	}
	value, _ := core.Uint128FromBytes(raw)
	return value
}

func (r *reader) address(field string) core.Address {
	var out core.Address
	raw := r.take(addressBytes, field)
	if raw != nil {
		copy(out[:], raw)
	}
	return out
}

func (r *reader) uvarint(field string) uint64 {
	if r.err != nil {
		return 0
	}
	value, n := binary.Uvarint(r.buf[r.off:])
	if n <= 0 {
		r.err = decodingError("malformed %s", field)
		return 0
	}
	if n != len(binary.AppendUvarint(nil, value)) {
		r.err = decodingError("non-canonical %s", field)
		return 0
	}
	r.off += n
	return value
}
