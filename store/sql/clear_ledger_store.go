package sqlstore

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goliatone/go-lzreceiver/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ClearLedgerStore is the durable counterpart of core.MemoryClearLedger.
// Unique keys on both tables make every clear and compose single-use.
type ClearLedgerStore struct {
	db  *bun.DB
	now func() time.Time
}

func NewClearLedgerStore(db *bun.DB) (*ClearLedgerStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &ClearLedgerStore{db: db, now: utcNow}, nil
}

func (s *ClearLedgerStore) RecordClear(ctx context.Context, record core.ClearRecord) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: clear ledger is not configured")
	}
	clearedAt := record.ClearedAt
	if clearedAt.IsZero() {
		clearedAt = s.now()
	}
	row := &clearedMessageRecord{
		ID:            uuid.NewString(),
		ClearKey:      core.ClearKey(record.Receiver, record.SourceChainID, record.Sender, record.Nonce),
		Receiver:      record.Receiver.String(),
		SourceChainID: int64(record.SourceChainID),
		Sender:        record.Sender.String(),
		Nonce:         strconv.FormatUint(record.Nonce, 10),
		GUID:          record.GUID.String(),
		MessageHash:   hex.EncodeToString(record.MessageHash[:]),
		ClearedAt:     clearedAt.UTC(),
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return core.ErrAlreadyCleared
		}
		return err
	}
	return nil
}

func (s *ClearLedgerStore) Cleared(ctx context.Context, key string) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("sqlstore: clear ledger is not configured")
	}
	return s.db.NewSelect().
		Model((*clearedMessageRecord)(nil)).
		Where("?TableAlias.clear_key = ?", key).
		Exists(ctx)
}

func (s *ClearLedgerStore) RecordCompose(ctx context.Context, record core.ComposeRecord) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: clear ledger is not configured")
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	row := &composeMessageRecord{
		ID:          uuid.NewString(),
		ComposeKey:  record.Key.String(),
		FromAddress: record.Key.From.String(),
		ToAddress:   record.Key.To.String(),
		GUID:        record.Key.GUID.String(),
		MsgIndex:    int(record.Key.Index),
		Message:     append([]byte{}, record.Message...),
		MessageHash: hex.EncodeToString(record.MessageHash[:]),
		CreatedAt:   createdAt.UTC(),
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return core.ErrComposeExists
		}
		return err
	}
	return nil
}

func (s *ClearLedgerStore) ConsumeCompose(ctx context.Context, key core.ComposeKey, messageHash [32]byte) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: clear ledger is not configured")
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := &composeMessageRecord{}
		err := tx.NewSelect().
			Model(row).
			Where("?TableAlias.compose_key = ?", key.String()).
			Limit(1).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return core.ErrComposeNotFound
			}
			return err
		}
		if row.DeliveredAt != nil {
			return core.ErrComposeDelivered
		}
		if row.MessageHash != hex.EncodeToString(messageHash[:]) {
			return core.ErrComposeHashMismatch
		}
		deliveredAt := s.now()
		result, err := tx.NewUpdate().
			Model((*composeMessageRecord)(nil)).
			Set("delivered_at = ?", deliveredAt).
			Where("id = ?", row.ID).
			Where("delivered_at IS NULL").
			Exec(ctx)
		if err != nil {
			return err
		}
		if affected, rowsErr := result.RowsAffected(); rowsErr == nil && affected == 0 {
			return core.ErrComposeDelivered
		}
		return nil
	})
}

// PendingCompose lists compose messages that were queued but not yet
// delivered, oldest first.
func (s *ClearLedgerStore) PendingCompose(ctx context.Context) ([]core.ComposeRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: clear ledger is not configured")
	}
	var rows []composeMessageRecord
	err := s.db.NewSelect().
		Model(&rows).
		Where("?TableAlias.delivered_at IS NULL").
		OrderExpr("?TableAlias.created_at ASC, ?TableAlias.compose_key ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.ComposeRecord, 0, len(rows))
	for i := range rows {
		record, convErr := rows[i].toDomain()
		if convErr != nil {
			return nil, convErr
		}
		out = append(out, record)
	}
	return out, nil
}

func (r *composeMessageRecord) toDomain() (core.ComposeRecord, error) {
	from, err := core.ParseAddress(r.FromAddress)
	if err != nil {
		return core.ComposeRecord{}, fmt.Errorf("sqlstore: compose from: %w", err)
	}
	to, err := core.ParseAddress(r.ToAddress)
	if err != nil {
		return core.ComposeRecord{}, fmt.Errorf("sqlstore: compose to: %w", err)
	}
	guid, err := core.ParseGUID(r.GUID)
	if err != nil {
		return core.ComposeRecord{}, fmt.Errorf("sqlstore: compose guid: %w", err)
	}
	hashBytes, err := hex.DecodeString(r.MessageHash)
	if err != nil || len(hashBytes) != 32 {
		return core.ComposeRecord{}, fmt.Errorf("sqlstore: compose message hash is malformed")
	}
	record := core.ComposeRecord{
		Key: core.ComposeKey{
			From:  from,
			To:    to,
			GUID:  guid,
			Index: uint16(r.MsgIndex),
		},
		Message:   append([]byte{}, r.Message...),
		CreatedAt: r.CreatedAt.UTC(),
	}
	copy(record.MessageHash[:], hashBytes)
	return record, nil
}
