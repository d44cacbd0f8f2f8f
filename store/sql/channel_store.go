package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-lzreceiver/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type ChannelStore struct {
	db   *bun.DB
	repo repository.Repository[*channelRecord]
	now  func() time.Time
}

func NewChannelStore(db *bun.DB) (*ChannelStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*channelRecord](db, channelHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid channel repository wiring: %w", err)
		}
	}
	return &ChannelStore{db: db, repo: repo, now: utcNow}, nil
}

func (s *ChannelStore) Create(ctx context.Context, in core.CreateChannelInput) (core.ChannelState, error) {
	if s == nil || s.repo == nil {
		return core.ChannelState{}, fmt.Errorf("sqlstore: channel store is not configured")
	}
	if in.Admin.IsZero() {
		return core.ChannelState{}, fmt.Errorf("sqlstore: channel admin is required")
	}
	address := in.Address
	if address.IsZero() {
		address = core.ChannelAddress(in.ChannelID)
	}
	now := s.now()
	record := &channelRecord{
		ID:           uuid.NewString(),
		ChannelID:    int(in.ChannelID),
		Address:      address.String(),
		Admin:        in.Admin.String(),
		TransportRef: strings.TrimSpace(in.TransportRef),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ChannelState{}, core.ErrChannelExists
		}
		return core.ChannelState{}, err
	}
	return created.toDomain()
}

func (s *ChannelStore) Get(ctx context.Context, channelID uint8) (core.ChannelState, error) {
	if s == nil || s.db == nil {
		return core.ChannelState{}, fmt.Errorf("sqlstore: channel store is not configured")
	}
	record, err := findChannel(ctx, s.db, channelID)
	if err != nil {
		return core.ChannelState{}, err
	}
	return record.toDomain()
}

func (s *ChannelStore) IncrementReceived(ctx context.Context, channelID uint8) (core.ChannelState, error) {
	return s.increment(ctx, channelID, "received_count")
}

func (s *ChannelStore) IncrementComposed(ctx context.Context, channelID uint8) (core.ChannelState, error) {
	return s.increment(ctx, channelID, "composed_count")
}

// increment bumps a counter with a single UPDATE so concurrent receipts
// never lose an increment.
func (s *ChannelStore) increment(ctx context.Context, channelID uint8, column string) (core.ChannelState, error) {
	if s == nil || s.db == nil {
		return core.ChannelState{}, fmt.Errorf("sqlstore: channel store is not configured")
	}
	var out core.ChannelState
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		result, err := tx.NewUpdate().
			Model((*channelRecord)(nil)).
			Set("? = ? + 1", bun.Ident(column), bun.Ident(column)).
			Set("updated_at = ?", s.now()).
			Where("channel_id = ?", int(channelID)).
			Exec(ctx)
		if err != nil {
			return err
		}
		if affected, rowsErr := result.RowsAffected(); rowsErr == nil && affected == 0 {
			return core.ErrChannelNotFound
		}
		record, err := findChannel(ctx, tx, channelID)
		if err != nil {
			return err
		}
		out, err = record.toDomain()
		return err
	})
	if err != nil {
		return core.ChannelState{}, err
	}
	return out, nil
}

func findChannel(ctx context.Context, db bun.IDB, channelID uint8) (*channelRecord, error) {
	record := &channelRecord{}
	err := db.NewSelect().
		Model(record).
		Where("?TableAlias.channel_id = ?", int(channelID)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrChannelNotFound
		}
		return nil, err
	}
	return record, nil
}

func (r *channelRecord) toDomain() (core.ChannelState, error) {
	if r == nil {
		return core.ChannelState{}, core.ErrChannelNotFound
	}
	address, err := core.ParseAddress(r.Address)
	if err != nil {
		return core.ChannelState{}, fmt.Errorf("sqlstore: channel %d address: %w", r.ChannelID, err)
	}
	admin, err := core.ParseAddress(r.Admin)
	if err != nil {
		return core.ChannelState{}, fmt.Errorf("sqlstore: channel %d admin: %w", r.ChannelID, err)
	}
	return core.ChannelState{
		ID:            uint8(r.ChannelID),
		Address:       address,
		Admin:         admin,
		ReceivedCount: uint64(r.ReceivedCount),
		ComposedCount: uint64(r.ComposedCount),
		TransportRef:  r.TransportRef,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}, nil
}

func utcNow() time.Time {
	return time.Now().UTC()
}
