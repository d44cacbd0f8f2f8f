package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-lzreceiver/core"
	"github.com/goliatone/go-lzreceiver/msgcodec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ctlAdmin = core.DeriveAddress([]byte("ctl-admin"))
	ctlPeer  = core.DeriveAddress([]byte("ctl-peer"))
)

func run(t *testing.T, dsn string, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--dsn", dsn, "--local-chain-id", "30168", "--native-fee", "250"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func tempDSN(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("file:%s?_foreign_keys=on", filepath.Join(t.TempDir(), "lzreceiver.db"))
}

func swapHex(t *testing.T, kind core.MessageKind) string {
	t.Helper()
	payload, err := msgcodec.EncodeCommand(core.SwapCommand{
		Kind:         kind,
		TokenIn:      core.DeriveAddress([]byte("usdc")),
		TokenOut:     core.DeriveAddress([]byte("sol")),
		AmountIn:     10,
		MinAmountOut: 9,
		Path:         []core.Address{core.DeriveAddress([]byte("pool"))},
		Deadline:     1_900_000_000,
		DexAddress:   core.DeriveAddress([]byte("dex")),
		Recipient:    core.ChannelAddress(1),
		Fee:          100,
	})
	require.NoError(t, err)
	return hex.EncodeToString(payload)
}

func setupChannel(t *testing.T, dsn string) {
	t.Helper()
	out, err := run(t, dsn, "init-channel", "--channel", "1", "--admin", ctlAdmin.String())
	require.NoError(t, err)
	require.Contains(t, out, "channel=1")

	out, err = run(t, dsn, "set-remote",
		"--channel", "1",
		"--src-chain", "30101",
		"--sender", ctlPeer.String(),
		"--requester", ctlAdmin.String(),
	)
	require.NoError(t, err)
	require.Contains(t, out, "sender="+ctlPeer.String())
}

func TestCLI_ReceivePersistsAcrossRuns(t *testing.T) {
	dsn := tempDSN(t)
	setupChannel(t, dsn)

	receiveArgs := []string{"receive",
		"--channel", "1",
		"--src-chain", "30101",
		"--sender", ctlPeer.String(),
		"--nonce", "1",
		"--message", swapHex(t, core.MessageKindComposed),
	}
	out, err := run(t, dsn, receiveArgs...)
	require.NoError(t, err)
	assert.Contains(t, out, "state=done")
	assert.Contains(t, out, "forwarded=true")
	assert.Contains(t, out, "composed=1")

	_, err = run(t, dsn, receiveArgs...)
	require.Error(t, err)
	assert.True(t, core.IsReceiveError(err, core.ErrorClearFailed), "redelivery must fail at clear: %v", err)

	out, err = run(t, dsn, "show-channel", "--channel", "1", "--src-chain", "30101")
	require.NoError(t, err)
	assert.Contains(t, out, "received=1 composed=1")
	assert.Contains(t, out, "remote channel=1 src_chain=30101")
}

func TestCLI_RejectsUnknownSender(t *testing.T) {
	dsn := tempDSN(t)
	setupChannel(t, dsn)

	out, err := run(t, dsn, "receive",
		"--channel", "1",
		"--src-chain", "30101",
		"--sender", core.DeriveAddress([]byte("intruder")).String(),
		"--nonce", "7",
		"--message", swapHex(t, core.MessageKindVanilla),
	)
	require.Error(t, err)
	assert.True(t, core.IsReceiveError(err, core.ErrorUnauthorizedSender))
	assert.Contains(t, out, "state=rejected")
}

func TestCLI_QuoteAndAccounts(t *testing.T) {
	dsn := tempDSN(t)
	setupChannel(t, dsn)

	out, err := run(t, dsn, "quote", "--channel", "1", "--dst-chain", "30184")
	require.NoError(t, err)
	assert.Equal(t, "native_fee=250 lz_token_fee=0\n", out)

	vanilla, err := run(t, dsn, "accounts",
		"--channel", "1",
		"--src-chain", "30101",
		"--sender", ctlPeer.String(),
		"--message", swapHex(t, core.MessageKindVanilla),
	)
	require.NoError(t, err)
	composed, err := run(t, dsn, "accounts",
		"--channel", "1",
		"--src-chain", "30101",
		"--sender", ctlPeer.String(),
		"--message", swapHex(t, core.MessageKindComposed),
	)
	require.NoError(t, err)

	vanillaLines := strings.Split(strings.TrimSpace(vanilla), "\n")
	composedLines := strings.Split(strings.TrimSpace(composed), "\n")
	require.Greater(t, len(composedLines), len(vanillaLines))
	assert.Equal(t, core.ChannelAddress(1).String()+" signer=false writable=true", vanillaLines[0])
}

func TestCLI_ComposePendingIsIdempotent(t *testing.T) {
	dsn := tempDSN(t)
	setupChannel(t, dsn)

	out, err := run(t, dsn, "compose-pending")
	require.NoError(t, err)
	assert.Equal(t, "composed=0\n", out)
}

func TestCLI_UnsupportedDriver(t *testing.T) {
	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--driver", "oracle", "show-channel", "--channel", "1"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}

func TestCLI_RemoteCacheAcceptsAndRotates(t *testing.T) {
	dsn := tempDSN(t)
	setupChannel(t, dsn)

	rotated := core.DeriveAddress([]byte("ctl-rotated"))
	out, err := run(t, dsn, "--remote-cache", "--remote-cache-ttl", "1m", "set-remote",
		"--channel", "1",
		"--src-chain", "30101",
		"--sender", rotated.String(),
		"--requester", ctlAdmin.String(),
	)
	require.NoError(t, err)
	require.Contains(t, out, "sender="+rotated.String())

	_, err = run(t, dsn, "--remote-cache", "receive",
		"--channel", "1",
		"--src-chain", "30101",
		"--sender", ctlPeer.String(),
		"--nonce", "3",
		"--message", swapHex(t, core.MessageKindVanilla),
	)
	require.Error(t, err)
	assert.True(t, core.IsReceiveError(err, core.ErrorUnauthorizedSender), "rotated sender must replace the old one: %v", err)

	out, err = run(t, dsn, "--remote-cache", "receive",
		"--channel", "1",
		"--src-chain", "30101",
		"--sender", rotated.String(),
		"--nonce", "3",
		"--message", swapHex(t, core.MessageKindVanilla),
	)
	require.NoError(t, err)
	assert.Contains(t, out, "state=done")
}
