package core

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"
)

// Uint128 carries sqrt_price_limit_x96 values. Wire form is 16 bytes
// big-endian, Hi first.
type Uint128 struct {
	Hi uint64
	Lo uint64
}

func NewUint128(lo uint64) Uint128 {
	return Uint128{Lo: lo}
}

func (u Uint128) IsZero() bool {
	return u.Hi == 0 && u.Lo == 0
}

func (u Uint128) Bytes() [16]byte {
	var out [16]byte
	binary.BigEndian.PutUint64(out[:8], u.Hi)
	binary.BigEndian.PutUint64(out[8:], u.Lo)
	return out
}

func Uint128FromBytes(raw []byte) (Uint128, error) {
	if len(raw) != 16 {
		return Uint128{}, fmt.Errorf("core: uint128 must be 16 bytes, got %d", len(raw))
	}
	return Uint128{
		Hi: binary.BigEndian.Uint64(raw[:8]),
		Lo: binary.BigEndian.Uint64(raw[8:]),
	}, nil
}

func (u Uint128) Big() *big.Int {
	out := new(big.Int).SetUint64(u.Hi)
	out.Lsh(out, 64)
	return out.Or(out, new(big.Int).SetUint64(u.Lo))
}

func (u Uint128) String() string {
	return u.Big().String()
}

var maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

func ParseUint128(value string) (Uint128, error) {
	parsed, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok || parsed.Sign() < 0 || parsed.Cmp(maxUint128) > 0 {
		return Uint128{}, fmt.Errorf("core: invalid uint128 %q", value)
	}
	lo := new(big.Int).And(parsed, new(big.Int).SetUint64(^uint64(0)))
	hi := new(big.Int).Rsh(parsed, 64)
	return Uint128{Hi: hi.Uint64(), Lo: lo.Uint64()}, nil
}
