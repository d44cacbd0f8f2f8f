package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-lzreceiver/core"
	"github.com/goliatone/go-lzreceiver/inbound"
	"github.com/spf13/cobra"
)

// newRootCommand builds the command tree. Every subcommand opens the
// database, runs migrations and closes it again before returning.
func newRootCommand() *cobra.Command {
	opts := &appOptions{}
	root := &cobra.Command{
		Use:   "lzreceiverctl",
		Short: "Operate a cross-chain message receiver backed by SQL storage",
		Long: "lzreceiverctl initialises channels, registers trusted remotes and " +
			"feeds inbound messages through the receive pipeline.",
		SilenceUsage: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.driver, "driver", driverSQLite, "database driver (sqlite3 or postgres)")
	flags.StringVar(&opts.dsn, "dsn", defaultDSN, "database connection string")
	flags.Uint32Var(&opts.localChainID, "local-chain-id", 0, "chain id of this endpoint")
	flags.BoolVar(&opts.remoteCache, "remote-cache", false, "cache remote registry lookups")
	flags.DurationVar(&opts.cacheTTL, "remote-cache-ttl", core.DefaultRemoteCacheTTL, "remote cache entry lifetime; other processes' remote updates are seen only after it expires")
	flags.Uint64Var(&opts.nativeFee, "native-fee", 0, "native fee quoted for every destination")
	flags.Uint64Var(&opts.lzTokenFee, "lz-token-fee", 0, "lz token fee quoted for every destination")
	flags.BoolVar(&opts.debug, "debug", false, "log SQL statements")

	root.AddCommand(
		initChannelCmd(opts),
		setRemoteCmd(opts),
		receiveCmd(opts),
		composePendingCmd(opts),
		accountsCmd(opts),
		quoteCmd(opts),
		showChannelCmd(opts),
	)
	return root
}

func withApp(cmd *cobra.Command, opts *appOptions, run func(context.Context, *app, io.Writer) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx, *opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return run(ctx, a, cmd.OutOrStdout())
}

func initChannelCmd(opts *appOptions) *cobra.Command {
	var (
		channelID uint8
		admin     string
		ref       string
	)
	cmd := &cobra.Command{
		Use:   "init-channel",
		Short: "Create a channel record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			adminAddr, err := core.ParseAddress(admin)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app, out io.Writer) error {
				channel, err := a.receiver.InitChannel(ctx, core.InitChannelRequest{
					ChannelID:    channelID,
					Admin:        adminAddr,
					TransportRef: ref,
				})
				if err != nil {
					return err
				}
				printChannel(out, channel)
				return nil
			})
		},
	}
	cmd.Flags().Uint8Var(&channelID, "channel", 0, "channel id")
	cmd.Flags().StringVar(&admin, "admin", "", "admin address (hex)")
	cmd.Flags().StringVar(&ref, "transport", "", "transport reference")
	_ = cmd.MarkFlagRequired("admin")
	return cmd
}

func setRemoteCmd(opts *appOptions) *cobra.Command {
	var (
		channelID uint8
		srcChain  uint32
		sender    string
		requester string
	)
	cmd := &cobra.Command{
		Use:   "set-remote",
		Short: "Register the trusted sender for a source chain",
		RunE: func(cmd *cobra.Command, _ []string) error {
			senderAddr, err := core.ParseAddress(sender)
			if err != nil {
				return err
			}
			requesterAddr, err := core.ParseAddress(requester)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app, out io.Writer) error {
				entry, err := a.receiver.SetRemote(ctx, core.SetRemoteRequest{
					ChannelID:     channelID,
					SourceChainID: srcChain,
					Sender:        senderAddr,
					Requester:     requesterAddr,
				})
				if err != nil {
					return err
				}
				printRemote(out, entry)
				return nil
			})
		},
	}
	cmd.Flags().Uint8Var(&channelID, "channel", 0, "channel id")
	cmd.Flags().Uint32Var(&srcChain, "src-chain", 0, "source chain id")
	cmd.Flags().StringVar(&sender, "sender", "", "authorized sender address (hex)")
	cmd.Flags().StringVar(&requester, "requester", "", "channel admin address (hex)")
	_ = cmd.MarkFlagRequired("sender")
	_ = cmd.MarkFlagRequired("requester")
	return cmd
}

type receiveFlags struct {
	channelID uint8
	srcChain  uint32
	sender    string
	nonce     uint64
	guid      string
	message   string
}

func (f *receiveFlags) bind(cmd *cobra.Command) {
	cmd.Flags().Uint8Var(&f.channelID, "channel", 0, "channel id")
	cmd.Flags().Uint32Var(&f.srcChain, "src-chain", 0, "source chain id")
	cmd.Flags().StringVar(&f.sender, "sender", "", "sender address (hex)")
	cmd.Flags().Uint64Var(&f.nonce, "nonce", 0, "message nonce")
	cmd.Flags().StringVar(&f.guid, "guid", "", "message guid (hex)")
	cmd.Flags().StringVar(&f.message, "message", "", "message payload (hex)")
	_ = cmd.MarkFlagRequired("sender")
	_ = cmd.MarkFlagRequired("message")
}

func (f *receiveFlags) params() (core.ReceiveParams, error) {
	sender, err := core.ParseAddress(f.sender)
	if err != nil {
		return core.ReceiveParams{}, err
	}
	var guid core.GUID
	if strings.TrimSpace(f.guid) != "" {
		if guid, err = core.ParseGUID(f.guid); err != nil {
			return core.ReceiveParams{}, err
		}
	}
	message, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(f.message), "0x"))
	if err != nil {
		return core.ReceiveParams{}, fmt.Errorf("lzreceiverctl: invalid message hex: %w", err)
	}
	return core.ReceiveParams{
		SourceChainID: f.srcChain,
		Sender:        sender,
		Nonce:         f.nonce,
		GUID:          guid,
		Message:       message,
	}, nil
}

func receiveCmd(opts *appOptions) *cobra.Command {
	flags := &receiveFlags{}
	cmd := &cobra.Command{
		Use:   "receive",
		Short: "Run one inbound message through the receive pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := flags.params()
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app, out io.Writer) error {
				result, err := a.receiver.Receive(ctx, flags.channelID, params)
				printReceive(out, result)
				if err != nil {
					return err
				}
				if !result.Forwarded {
					return nil
				}
				composed, err := a.receiver.DrainCompose(ctx)
				fmt.Fprintf(out, "composed=%d\n", composed)
				return err
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func composePendingCmd(opts *appOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "compose-pending",
		Short: "Deliver compose messages left pending by earlier runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app, out io.Writer) error {
				done, err := a.replayPendingCompose(ctx)
				fmt.Fprintf(out, "composed=%d\n", done)
				return err
			})
		},
	}
}

func accountsCmd(opts *appOptions) *cobra.Command {
	flags := &receiveFlags{}
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List the accounts a receive of the message would touch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := flags.params()
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app, out io.Writer) error {
				accounts, err := a.receiver.RequiredAccounts(ctx, flags.channelID, params)
				if err != nil {
					return err
				}
				for _, account := range accounts {
					fmt.Fprintf(out, "%s signer=%t writable=%t\n", account.Address, account.IsSigner, account.IsWritable)
				}
				return nil
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func quoteCmd(opts *appOptions) *cobra.Command {
	var (
		channelID uint8
		dstChain  uint32
		msgType   uint8
		receiver  string
		lzToken   bool
	)
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote the fee for sending a message of the given kind",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := core.QuoteRequest{
				ChannelID:    channelID,
				DstChainID:   dstChain,
				MsgType:      msgType,
				PayInLzToken: lzToken,
			}
			if strings.TrimSpace(receiver) != "" {
				addr, err := core.ParseAddress(receiver)
				if err != nil {
					return err
				}
				req.Receiver = addr
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app, out io.Writer) error {
				fee, err := a.receiver.Quote(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "native_fee=%d lz_token_fee=%d\n", fee.NativeFee, fee.LzTokenFee)
				return nil
			})
		},
	}
	cmd.Flags().Uint8Var(&channelID, "channel", 0, "channel id")
	cmd.Flags().Uint32Var(&dstChain, "dst-chain", 0, "destination chain id")
	cmd.Flags().Uint8Var(&msgType, "msg-type", uint8(core.MessageKindVanilla), "message kind (0 vanilla, 1 composed)")
	cmd.Flags().StringVar(&receiver, "receiver", "", "receiver address on the destination (hex)")
	cmd.Flags().BoolVar(&lzToken, "pay-in-lz-token", false, "pay the fee in lz token")
	return cmd
}

func showChannelCmd(opts *appOptions) *cobra.Command {
	var (
		channelID uint8
		srcChain  uint32
	)
	cmd := &cobra.Command{
		Use:   "show-channel",
		Short: "Print a channel and, optionally, one of its remotes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app, out io.Writer) error {
				channel, err := a.receiver.GetChannel(ctx, channelID)
				if err != nil {
					return err
				}
				printChannel(out, channel)
				if !cmd.Flags().Changed("src-chain") {
					return nil
				}
				entry, err := a.receiver.GetRemote(ctx, channelID, srcChain)
				if err != nil {
					return err
				}
				printRemote(out, entry)
				return nil
			})
		},
	}
	cmd.Flags().Uint8Var(&channelID, "channel", 0, "channel id")
	cmd.Flags().Uint32Var(&srcChain, "src-chain", 0, "also print the remote for this source chain")
	return cmd
}

func printChannel(out io.Writer, channel core.ChannelState) {
	fmt.Fprintf(out, "channel=%d address=%s admin=%s transport=%s received=%d composed=%d\n",
		channel.ID, channel.Address, channel.Admin, channel.TransportRef, channel.ReceivedCount, channel.ComposedCount)
}

func printRemote(out io.Writer, entry core.RemoteEntry) {
	fmt.Fprintf(out, "remote channel=%d src_chain=%d address=%s sender=%s\n",
		entry.ChannelID, entry.SourceChainID, entry.Address, entry.AuthorizedSender)
}

func printReceive(out io.Writer, result inbound.ReceiveResult) {
	fmt.Fprintf(out, "state=%s kind=%s received=%d forwarded=%t consumed=%t\n",
		result.State, result.Kind, result.ReceivedCount, result.Forwarded, result.Consumed)
}
