package repositories

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/disgoorg/giveaway-bot/giveawaybot/database/models"
	lru "github.com/hashicorp/golang-lru"
	"github.com/uptrace/bun"
)

const winnerCacheSize = 1024

// WinnerRepository is the read side of the winner registry. Registration
// goes through the allocation engine so it is audited.
//
// GetByUserID returns sql.ErrNoRows when the user is not registered,
// whichever backend serves it.
type WinnerRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.Winner, error)
	GetAll(ctx context.Context) ([]*models.Winner, error)
	ClaimHistory(ctx context.Context, userID string) ([]*models.GiftLink, error)
}

type winnerRepository struct {
	db    *bun.DB
	cache *lru.Cache
}

func NewWinnerRepository(db *bun.DB) WinnerRepository {
	// Winner rows are never updated or deleted, so cached entries cannot
	// go stale. Only hits are cached; a miss may become a row later.
	cache, _ := lru.New(winnerCacheSize)
	return &winnerRepository{db: db, cache: cache}
}

func (r *winnerRepository) GetByUserID(ctx context.Context, userID string) (*models.Winner, error) {
	if cached, ok := r.cache.Get(userID); ok {
		return cached.(*models.Winner), nil
	}

	winner := new(models.Winner)
	err := r.db.NewSelect().
		Model(winner).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("Database error when getting winner",
				slog.String("type", "db"),
				slog.String("operation", "GetByUserID"),
				slog.String("user_id", userID),
				slog.String("error", err.Error()))
		}
		return nil, err
	}

	r.cache.Add(userID, winner)
	return winner, nil
}

func (r *winnerRepository) GetAll(ctx context.Context) ([]*models.Winner, error) {
	var winners []*models.Winner
	err := r.db.NewSelect().
		Model(&winners).
		Order("created_at ASC").
		Scan(ctx)
	return winners, err
}

func (r *winnerRepository) ClaimHistory(ctx context.Context, userID string) ([]*models.GiftLink, error) {
	var links []*models.GiftLink
	err := r.db.NewSelect().
		Model(&links).
		Where("claimed_by = ?", userID).
		Where("status = ?", models.GiftLinkStatusClaimed).
		Order("claimed_at ASC").
		Scan(ctx)
	return links, err
}
