package database

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/disgoorg/giveaway-bot/giveawaybot/database/models"
	"github.com/disgoorg/giveaway-bot/giveawaybot/giveaway"
	"github.com/uptrace/bun"
)

// Store implements giveaway.Store on PostgreSQL. Concurrent claims take
// different rows via FOR UPDATE SKIP LOCKED instead of blocking on the
// same one; uniqueness is enforced by the UNIQUE constraints on
// gift_links.code and winners.user_id.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx giveaway.Tx) error) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &storeTx{tx: tx})
	})
}

type storeTx struct {
	tx bun.Tx
}

func (t *storeTx) GetWinner(ctx context.Context, userID string) (*giveaway.Winner, error) {
	// FOR UPDATE on the winner row is what serializes two claims by the
	// same user: SKIP LOCKED deliberately steers concurrent claimants to
	// different gift link rows, so under READ COMMITTED both would count
	// zero prior claims and both would commit. With the winner row locked,
	// the second transaction waits here until the first commits and its
	// CountClaimed sees the committed claim.
	winner := new(models.Winner)
	err := t.tx.NewSelect().
		Model(winner).
		Where("user_id = ?", userID).
		For("UPDATE").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, giveaway.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &giveaway.Winner{
		UserID:        winner.UserID,
		Username:      winner.Username,
		AllowMultiple: winner.AllowMultiple,
		CreatedAt:     winner.CreatedAt,
	}, nil
}

func (t *storeTx) CountClaimed(ctx context.Context, userID string) (int, error) {
	return t.tx.NewSelect().
		Model((*models.GiftLink)(nil)).
		Where("claimed_by = ?", userID).
		Where("status = ?", models.GiftLinkStatusClaimed).
		Count(ctx)
}

func (t *storeTx) ClaimNext(ctx context.Context, userID string, now time.Time) (*giveaway.ClaimedLink, error) {
	link := new(models.GiftLink)
	err := t.tx.NewSelect().
		Model(link).
		Where("status = ?", models.GiftLinkStatusNew).
		Order("id ASC").
		Limit(1).
		For("UPDATE SKIP LOCKED").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, giveaway.ErrNoneAvailable
	}
	if err != nil {
		return nil, err
	}

	// The row is locked, but keep the status guard anyway: a row can never
	// leave 'new' twice.
	res, err := t.tx.NewUpdate().
		Model((*models.GiftLink)(nil)).
		Set("status = ?", models.GiftLinkStatusClaimed).
		Set("claimed_by = ?", userID).
		Set("claimed_at = ?", now).
		Where("id = ?", link.ID).
		Where("status = ?", models.GiftLinkStatusNew).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, giveaway.ErrNoneAvailable
	}

	return &giveaway.ClaimedLink{
		Ref:  strconv.FormatInt(link.ID, 10),
		Code: link.Code,
	}, nil
}

func (t *storeTx) InsertCode(ctx context.Context, code string, now time.Time) error {
	// ON CONFLICT DO NOTHING instead of check-then-insert: the constraint
	// itself closes the race, and a conflict must not abort the tx.
	res, err := t.tx.NewInsert().
		Model(&models.GiftLink{
			Code:      code,
			Status:    models.GiftLinkStatusNew,
			CreatedAt: now,
		}).
		On("CONFLICT (code) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return giveaway.ErrConflict
	}
	return nil
}

func (t *storeTx) InsertWinner(ctx context.Context, winner *giveaway.Winner) error {
	res, err := t.tx.NewInsert().
		Model(&models.Winner{
			UserID:        winner.UserID,
			Username:      winner.Username,
			AllowMultiple: winner.AllowMultiple,
			CreatedAt:     winner.CreatedAt,
		}).
		On("CONFLICT (user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return giveaway.ErrConflict
	}
	return nil
}

func (t *storeTx) DisableCode(ctx context.Context, code string) (bool, error) {
	res, err := t.tx.NewUpdate().
		Model((*models.GiftLink)(nil)).
		Set("status = ?", models.GiftLinkStatusDisabled).
		Where("code = ?", code).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (t *storeTx) AppendAudit(ctx context.Context, entry *giveaway.AuditEntry) error {
	_, err := t.tx.NewInsert().
		Model(&models.AuditEntry{
			Ts:          entry.Ts,
			ActorUserID: entry.ActorUserID,
			Action:      entry.Action,
			Metadata:    entry.Metadata,
		}).
		Exec(ctx)
	return err
}

func (t *storeTx) Stats(ctx context.Context) (*giveaway.Stats, error) {
	stats := new(giveaway.Stats)

	countLinks := func(status models.GiftLinkStatus) (int, error) {
		return t.tx.NewSelect().
			Model((*models.GiftLink)(nil)).
			Where("status = ?", status).
			Count(ctx)
	}

	var err error
	if stats.Total, err = t.tx.NewSelect().Model((*models.GiftLink)(nil)).Count(ctx); err != nil {
		return nil, err
	}
	if stats.Available, err = countLinks(models.GiftLinkStatusNew); err != nil {
		return nil, err
	}
	if stats.Claimed, err = countLinks(models.GiftLinkStatusClaimed); err != nil {
		return nil, err
	}
	if stats.Disabled, err = countLinks(models.GiftLinkStatusDisabled); err != nil {
		return nil, err
	}
	if stats.Winners, err = t.tx.NewSelect().Model((*models.Winner)(nil)).Count(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}
