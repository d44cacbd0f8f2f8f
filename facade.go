package lzreceiver

import (
	"fmt"

	lzcommand "github.com/goliatone/go-lzreceiver/command"
	lzquery "github.com/goliatone/go-lzreceiver/query"
)

type CommandQueryService interface {
	lzcommand.MutatingService
	lzquery.QuoteReader
	lzquery.AccountsReader
	lzquery.ChannelReader
	lzquery.RemoteReader
}

type Commands struct {
	InitChannel *lzcommand.InitChannelCommand
	SetRemote   *lzcommand.SetRemoteCommand
	Receive     *lzcommand.ReceiveCommand
	Compose     *lzcommand.ComposeCommand
}

type Queries struct {
	Quote            *lzquery.QuoteQuery
	RequiredAccounts *lzquery.RequiredAccountsQuery
	GetChannel       *lzquery.GetChannelQuery
	GetRemote        *lzquery.GetRemoteQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("lzreceiver: command/query service is required")
	}
	return &Facade{
		service: service,
		commands: Commands{
			InitChannel: lzcommand.NewInitChannelCommand(service),
			SetRemote:   lzcommand.NewSetRemoteCommand(service),
			Receive:     lzcommand.NewReceiveCommand(service),
			Compose:     lzcommand.NewComposeCommand(service),
		},
		queries: Queries{
			Quote:            lzquery.NewQuoteQuery(service),
			RequiredAccounts: lzquery.NewRequiredAccountsQuery(service),
			GetChannel:       lzquery.NewGetChannelQuery(service),
			GetRemote:        lzquery.NewGetRemoteQuery(service),
		},
	}, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

var _ CommandQueryService = (*Receiver)(nil)
