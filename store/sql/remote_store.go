package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goliatone/go-lzreceiver/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type RemoteStore struct {
	db   *bun.DB
	repo repository.Repository[*remoteRecord]
	now  func() time.Time
}

func NewRemoteStore(db *bun.DB) (*RemoteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*remoteRecord](db, remoteHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid remote repository wiring: %w", err)
		}
	}
	return &RemoteStore{db: db, repo: repo, now: utcNow}, nil
}

func (s *RemoteStore) Upsert(ctx context.Context, in core.UpsertRemoteInput) (core.RemoteEntry, error) {
	if s == nil || s.db == nil {
		return core.RemoteEntry{}, fmt.Errorf("sqlstore: remote store is not configured")
	}
	if in.SourceChainID == 0 {
		return core.RemoteEntry{}, fmt.Errorf("sqlstore: source chain id is required")
	}
	now := s.now()

	var out core.RemoteEntry
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := findRemoteTx(ctx, tx, in.ChannelID, in.SourceChainID)
		if err != nil {
			return err
		}
		if record == nil {
			record = &remoteRecord{
				ID:               uuid.NewString(),
				ChannelID:        int(in.ChannelID),
				SourceChainID:    int64(in.SourceChainID),
				Address:          in.Address.String(),
				AuthorizedSender: in.AuthorizedSender.String(),
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			if _, insertErr := tx.NewInsert().Model(record).Exec(ctx); insertErr != nil {
				return insertErr
			}
			out, err = record.toDomain()
			return err
		}

		record.Address = in.Address.String()
		record.AuthorizedSender = in.AuthorizedSender.String()
		record.UpdatedAt = now
		if _, updateErr := tx.NewUpdate().Model(record).Where("id = ?", record.ID).Exec(ctx); updateErr != nil {
			return updateErr
		}
		out, err = record.toDomain()
		return err
	})
	if err != nil {
		return core.RemoteEntry{}, err
	}
	return out, nil
}

func (s *RemoteStore) Get(ctx context.Context, channelID uint8, sourceChainID uint32) (core.RemoteEntry, error) {
	if s == nil || s.db == nil {
		return core.RemoteEntry{}, fmt.Errorf("sqlstore: remote store is not configured")
	}
	record, err := findRemoteTx(ctx, s.db, channelID, sourceChainID)
	if err != nil {
		return core.RemoteEntry{}, err
	}
	if record == nil {
		return core.RemoteEntry{}, core.ErrRemoteNotFound
	}
	return record.toDomain()
}

// ListByChannel returns every registered remote of a channel ordered by
// source chain.
func (s *RemoteStore) ListByChannel(ctx context.Context, channelID uint8) ([]core.RemoteEntry, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: remote store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("channel_id", "=", strconv.Itoa(int(channelID))),
		repository.OrderBy("source_chain_id ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.RemoteEntry, 0, len(records))
	for _, record := range records {
		entry, convErr := record.toDomain()
		if convErr != nil {
			return nil, convErr
		}
		out = append(out, entry)
	}
	return out, nil
}

func findRemoteTx(ctx context.Context, db bun.IDB, channelID uint8, sourceChainID uint32) (*remoteRecord, error) {
	record := &remoteRecord{}
	err := db.NewSelect().
		Model(record).
		Where("?TableAlias.channel_id = ?", int(channelID)).
		Where("?TableAlias.source_chain_id = ?", int64(sourceChainID)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

func (r *remoteRecord) toDomain() (core.RemoteEntry, error) {
	address, err := core.ParseAddress(r.Address)
	if err != nil {
		return core.RemoteEntry{}, fmt.Errorf("sqlstore: remote address: %w", err)
	}
	sender, err := core.ParseAddress(r.AuthorizedSender)
	if err != nil {
		return core.RemoteEntry{}, fmt.Errorf("sqlstore: remote authorized sender: %w", err)
	}
	return core.RemoteEntry{
		ChannelID:        uint8(r.ChannelID),
		SourceChainID:    uint32(r.SourceChainID),
		Address:          address,
		AuthorizedSender: sender,
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}, nil
}
