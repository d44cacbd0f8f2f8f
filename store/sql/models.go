package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type channelRecord struct {
	bun.BaseModel `bun:"table:lz_channels,alias:lc"`

	ID            string    `bun:"id,pk"`
	ChannelID     int       `bun:"channel_id,notnull"`
	Address       string    `bun:"address,notnull"`
	Admin         string    `bun:"admin,notnull"`
	TransportRef  string    `bun:"transport_ref,notnull"`
	ReceivedCount int64     `bun:"received_count,notnull"`
	ComposedCount int64     `bun:"composed_count,notnull"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type remoteRecord struct {
	bun.BaseModel `bun:"table:lz_remotes,alias:lr"`

	ID               string    `bun:"id,pk"`
	ChannelID        int       `bun:"channel_id,notnull"`
	SourceChainID    int64     `bun:"source_chain_id,notnull"`
	Address          string    `bun:"address,notnull"`
	AuthorizedSender string    `bun:"authorized_sender,notnull"`
	CreatedAt        time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt        time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type clearedMessageRecord struct {
	bun.BaseModel `bun:"table:lz_cleared_messages,alias:lcm"`

	ID            string    `bun:"id,pk"`
	ClearKey      string    `bun:"clear_key,notnull"`
	Receiver      string    `bun:"receiver,notnull"`
	SourceChainID int64     `bun:"source_chain_id,notnull"`
	Sender        string    `bun:"sender,notnull"`
	Nonce         string    `bun:"nonce,notnull"`
	GUID          string    `bun:"guid,notnull"`
	MessageHash   string    `bun:"message_hash,notnull"`
	ClearedAt     time.Time `bun:"cleared_at,nullzero,notnull,default:current_timestamp"`
}

type composeMessageRecord struct {
	bun.BaseModel `bun:"table:lz_compose_messages,alias:lxm"`

	ID          string     `bun:"id,pk"`
	ComposeKey  string     `bun:"compose_key,notnull"`
	FromAddress string     `bun:"from_address,notnull"`
	ToAddress   string     `bun:"to_address,notnull"`
	GUID        string     `bun:"guid,notnull"`
	MsgIndex    int        `bun:"msg_index,notnull"`
	Message     []byte     `bun:"message,notnull"`
	MessageHash string     `bun:"message_hash,notnull"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	DeliveredAt *time.Time `bun:"delivered_at,nullzero"`
}
