package mongodb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/disgoorg/giveaway-bot/giveawaybot/database/models"
	"github.com/disgoorg/giveaway-bot/giveawaybot/database/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Read-side repositories over the same collections the Store writes,
// satisfying the interfaces the command layer consumes.

type winnerRepository struct {
	db *mongo.Database
}

func NewWinnerRepository(store *Store) repositories.WinnerRepository {
	return &winnerRepository{db: store.Database()}
}

func (r *winnerRepository) GetByUserID(ctx context.Context, userID string) (*models.Winner, error) {
	var doc winnerDoc
	err := r.db.Collection(collWinners).
		FindOne(ctx, bson.M{"user_id": userID}).
		Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, err
	}
	return winnerFromDoc(doc), nil
}

func (r *winnerRepository) GetAll(ctx context.Context) ([]*models.Winner, error) {
	cur, err := r.db.Collection(collWinners).
		Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var winners []*models.Winner
	for cur.Next(ctx) {
		var doc winnerDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		winners = append(winners, winnerFromDoc(doc))
	}
	return winners, cur.Err()
}

func (r *winnerRepository) ClaimHistory(ctx context.Context, userID string) ([]*models.GiftLink, error) {
	cur, err := r.db.Collection(collGiftLinks).
		Find(ctx, bson.M{
			"claimed_by": userID,
			"status":     string(models.GiftLinkStatusClaimed),
		}, options.Find().SetSort(bson.D{{Key: "claimed_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var links []*models.GiftLink
	for cur.Next(ctx) {
		var doc giftLinkDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		link := &models.GiftLink{
			Code:      doc.Code,
			Status:    models.GiftLinkStatus(doc.Status),
			ClaimedBy: doc.ClaimedBy,
			CreatedAt: doc.CreatedAt,
		}
		if doc.ClaimedAt != nil {
			link.ClaimedAt = *doc.ClaimedAt
		}
		links = append(links, link)
	}
	return links, cur.Err()
}

func winnerFromDoc(doc winnerDoc) *models.Winner {
	return &models.Winner{
		UserID:        doc.UserID,
		Username:      doc.Username,
		AllowMultiple: doc.AllowMultiple,
		CreatedAt:     doc.CreatedAt,
	}
}

type auditRepository struct {
	db *mongo.Database
}

func NewAuditRepository(store *Store) repositories.AuditRepository {
	return &auditRepository{db: store.Database()}
}

func (r *auditRepository) ListRecent(ctx context.Context, limit int) ([]*models.AuditEntry, error) {
	// ObjectIDs are insertion-ordered at second granularity; ts breaks the
	// ties that matter for display.
	cur, err := r.db.Collection(collAuditLog).
		Find(ctx, bson.M{}, options.Find().
			SetSort(bson.D{{Key: "ts", Value: -1}, {Key: "_id", Value: -1}}).
			SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var entries []*models.AuditEntry
	for cur.Next(ctx) {
		var doc auditDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		entries = append(entries, &models.AuditEntry{
			ID:          int64(doc.ID.Timestamp().Unix()),
			Ts:          doc.Ts,
			ActorUserID: doc.ActorUserID,
			Action:      doc.Action,
			Metadata:    doc.Metadata,
		})
	}
	return entries, cur.Err()
}
