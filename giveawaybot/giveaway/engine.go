package giveaway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Engine implements eligibility checking and atomic code assignment over a
// Store. It holds no state of its own beyond the injected store, so it is
// safe for arbitrary concurrent use; the store's transactions are the only
// coordination point.
type Engine struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// Claim assigns the oldest available gift link to userID and returns its
// code. The winner lookup, the prior-claim count and the row transition
// all run inside one transaction, so two racing claims by the same
// single-claim user cannot both pass the eligibility check.
func (e *Engine) Claim(ctx context.Context, userID string) (string, error) {
	var code string
	err := e.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		winner, err := tx.GetWinner(ctx, userID)
		if errors.Is(err, ErrNotFound) {
			return ErrNotEligible
		}
		if err != nil {
			return fmt.Errorf("failed to look up winner: %w", err)
		}

		if !winner.AllowMultiple {
			claimed, err := tx.CountClaimed(ctx, userID)
			if err != nil {
				return fmt.Errorf("failed to count claims: %w", err)
			}
			if claimed > 0 {
				return ErrNotEligible
			}
		}

		now := e.now()
		link, err := tx.ClaimNext(ctx, userID, now)
		if err != nil {
			return err
		}

		if err := tx.AppendAudit(ctx, &AuditEntry{
			Ts:          now,
			ActorUserID: userID,
			Action:      ActionClaim,
			Metadata:    "link_id=" + link.Ref,
		}); err != nil {
			return fmt.Errorf("failed to append audit entry: %w", err)
		}

		code = link.Code
		return nil
	})
	if err != nil {
		return "", err
	}

	slog.Info("Gift link claimed",
		slog.String("type", "claim"),
		slog.String("user_id", userID))
	return code, nil
}

// AddCodes inserts each non-blank entry as a new gift link. Duplicates are
// silently skipped; the returned count excludes them. One audit entry
// summarizes the batch; a batch that adds nothing leaves no entry.
func (e *Engine) AddCodes(ctx context.Context, raw []string, actor string) (int, error) {
	var added int
	err := e.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		added = 0
		now := e.now()
		for _, r := range raw {
			code := strings.TrimSpace(r)
			if code == "" {
				continue
			}
			if err := tx.InsertCode(ctx, code, now); err != nil {
				if errors.Is(err, ErrConflict) {
					continue
				}
				return fmt.Errorf("failed to insert code: %w", err)
			}
			added++
		}
		if added == 0 {
			return nil
		}
		return tx.AppendAudit(ctx, &AuditEntry{
			Ts:          now,
			ActorUserID: actor,
			Action:      ActionAddLink,
			Metadata:    fmt.Sprintf("count=%d", added),
		})
	})
	if err != nil {
		return 0, err
	}

	slog.Info("Gift links added",
		slog.String("type", "admin"),
		slog.String("actor", actor),
		slog.Int("count", added))
	return added, nil
}

// AddWinner registers a user. It returns false when the user is already
// registered; the existing row (including allow_multiple) is left
// untouched and no audit entry is written.
func (e *Engine) AddWinner(ctx context.Context, userID, username string, allowMultiple bool, actor string) (bool, error) {
	var added bool
	err := e.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		now := e.now()
		err := tx.InsertWinner(ctx, &Winner{
			UserID:        userID,
			Username:      username,
			AllowMultiple: allowMultiple,
			CreatedAt:     now,
		})
		if errors.Is(err, ErrConflict) {
			added = false
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to insert winner: %w", err)
		}
		added = true
		return tx.AppendAudit(ctx, &AuditEntry{
			Ts:          now,
			ActorUserID: actor,
			Action:      ActionAddWinner,
			Metadata:    fmt.Sprintf("user_id=%s,username=%s,allow_multiple=%t", userID, username, allowMultiple),
		})
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

// DisableCode voids a gift link regardless of its current status, so even
// an already-claimed code can be revoked. Returns false if the code does
// not exist.
func (e *Engine) DisableCode(ctx context.Context, code, actor string) (bool, error) {
	var disabled bool
	err := e.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		ok, err := tx.DisableCode(ctx, code)
		if err != nil {
			return fmt.Errorf("failed to disable code: %w", err)
		}
		disabled = ok
		if !ok {
			return nil
		}
		return tx.AppendAudit(ctx, &AuditEntry{
			Ts:          e.now(),
			ActorUserID: actor,
			Action:      ActionDisableLink,
			Metadata:    "code=" + code,
		})
	})
	if err != nil {
		return false, err
	}
	return disabled, nil
}

// Stats returns aggregate counts over links and winners.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	var stats *Stats
	err := e.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		stats, err = tx.Stats(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
