package core

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

const AddressLen = 32

const (
	ChannelSeed = "Count"
	RemoteSeed  = "Remote"
)

type Address [AddressLen]byte

var ZeroAddress Address

func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) Bytes() []byte {
	out := make([]byte, AddressLen)
	copy(out, a[:])
	return out
}

func (a Address) Equal(other Address) bool {
	return bytes.Equal(a[:], other[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress accepts 64 hex characters with an optional 0x prefix.
func ParseAddress(value string) (Address, error) {
	raw, err := decodeFixedHex(value, AddressLen)
	if err != nil {
		return Address{}, fmt.Errorf("core: invalid address %q: %w", value, err)
	}
	var out Address
	copy(out[:], raw)
	return out, nil
}

func AddressFromBytes(raw []byte) (Address, error) {
	if len(raw) != AddressLen {
		return Address{}, fmt.Errorf("core: address must be %d bytes, got %d", AddressLen, len(raw))
	}
	var out Address
	copy(out[:], raw)
	return out, nil
}

type GUID [32]byte

func (g GUID) String() string {
	return "0x" + hex.EncodeToString(g[:])
}

func (g GUID) IsZero() bool {
	return g == GUID{}
}

func ParseGUID(value string) (GUID, error) {
	raw, err := decodeFixedHex(value, len(GUID{}))
	if err != nil {
		return GUID{}, fmt.Errorf("core: invalid guid %q: %w", value, err)
	}
	var out GUID
	copy(out[:], raw)
	return out, nil
}

// DeriveAddress hashes the seeds into a deterministic 32-byte location.
func DeriveAddress(seeds ...[]byte) Address {
	hasher := sha3.New256()
	for _, seed := range seeds {
		_, _ = hasher.Write(seed)
	}
	var out Address
	copy(out[:], hasher.Sum(nil))
	return out
}

// ChannelAddress is the externally visible identity of a channel record.
func ChannelAddress(channelID uint8) Address {
	return DeriveAddress([]byte(ChannelSeed), []byte{channelID})
}

func RemoteAddress(channel Address, sourceChainID uint32) Address {
	var chain [4]byte
	binary.BigEndian.PutUint32(chain[:], sourceChainID)
	return DeriveAddress([]byte(RemoteSeed), channel[:], chain[:])
}

// ChannelIDFromAddress inverts ChannelAddress over the 256 possible ids.
func ChannelIDFromAddress(address Address) (uint8, bool) {
	for id := 0; id <= 0xff; id++ {
		if ChannelAddress(uint8(id)) == address {
			return uint8(id), true
		}
	}
	return 0, false
}

func MessageHash(guid GUID, message []byte) [32]byte {
	return sha3.Sum256(append(guid[:len(guid):len(guid)], message...))
}

func decodeFixedHex(value string, size int) ([]byte, error) {
	trimmed := strings.TrimSpace(value)
	trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	if len(trimmed) != size*2 {
		return nil, fmt.Errorf("expected %d hex characters, got %d", size*2, len(trimmed))
	}
	return hex.DecodeString(trimmed)
}
