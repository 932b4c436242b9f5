package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/giveaway-bot/giveawaybot/database/models"
	"github.com/disgoorg/giveaway-bot/giveawaybot/giveaway"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	collGiftLinks = "gift_links"
	collWinners   = "winners"
	collAuditLog  = "audit_log"
)

type Config struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// Store implements giveaway.Store on MongoDB. The claim transition is a
// single conditional FindOneAndUpdate on status "new", which the server
// applies atomically, so two concurrent claimants always match different
// documents. Multi-document operations (claim + audit) run in a session
// transaction and therefore need a replica set.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("mongodb ping failed: %w", err)
	}
	return &Store{client: client, db: client.Database(cfg.Database)}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Database() *mongo.Database {
	return s.db
}

// EnsureIndexes creates the unique and claim-path indexes. Idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(collGiftLinks).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "claimed_by", Value: 1}, {Key: "status", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create gift_links indexes: %w", err)
	}

	_, err = s.db.Collection(collWinners).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create winners index: %w", err)
	}

	_, err = s.db.Collection(collAuditLog).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "ts", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create audit_log index: %w", err)
	}
	return nil
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx giveaway.Tx) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, &storeTx{db: s.db})
	})
	return err
}

type giftLinkDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Code      string             `bson:"code"`
	Status    string             `bson:"status"`
	ClaimedBy string             `bson:"claimed_by,omitempty"`
	ClaimedAt *time.Time         `bson:"claimed_at,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
}

type winnerDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	UserID        string             `bson:"user_id"`
	Username      string             `bson:"username,omitempty"`
	AllowMultiple bool               `bson:"allow_multiple"`
	CreatedAt     time.Time          `bson:"created_at"`
}

type auditDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Ts          time.Time          `bson:"ts"`
	ActorUserID string             `bson:"actor_user_id,omitempty"`
	Action      string             `bson:"action"`
	Metadata    string             `bson:"metadata,omitempty"`
}

type storeTx struct {
	db *mongo.Database
}

func (t *storeTx) GetWinner(ctx context.Context, userID string) (*giveaway.Winner, error) {
	var doc winnerDoc
	err := t.db.Collection(collWinners).
		FindOne(ctx, bson.M{"user_id": userID}).
		Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, giveaway.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &giveaway.Winner{
		UserID:        doc.UserID,
		Username:      doc.Username,
		AllowMultiple: doc.AllowMultiple,
		CreatedAt:     doc.CreatedAt,
	}, nil
}

func (t *storeTx) CountClaimed(ctx context.Context, userID string) (int, error) {
	n, err := t.db.Collection(collGiftLinks).CountDocuments(ctx, bson.M{
		"claimed_by": userID,
		"status":     string(models.GiftLinkStatusClaimed),
	})
	return int(n), err
}

func (t *storeTx) ClaimNext(ctx context.Context, userID string, now time.Time) (*giveaway.ClaimedLink, error) {
	var doc giftLinkDoc
	err := t.db.Collection(collGiftLinks).FindOneAndUpdate(ctx,
		bson.M{"status": string(models.GiftLinkStatusNew)},
		bson.M{"$set": bson.M{
			"status":     string(models.GiftLinkStatusClaimed),
			"claimed_by": userID,
			"claimed_at": now,
		}},
		options.FindOneAndUpdate().
			SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
			SetReturnDocument(options.Before),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, giveaway.ErrNoneAvailable
	}
	if err != nil {
		return nil, err
	}
	return &giveaway.ClaimedLink{
		Ref:  doc.ID.Hex(),
		Code: doc.Code,
	}, nil
}

func (t *storeTx) InsertCode(ctx context.Context, code string, now time.Time) error {
	// Upsert on the unique code key; a write error inside a session
	// transaction would abort it, an unmatched upsert does not.
	res, err := t.db.Collection(collGiftLinks).UpdateOne(ctx,
		bson.M{"code": code},
		bson.M{"$setOnInsert": giftLinkDoc{
			Code:      code,
			Status:    string(models.GiftLinkStatusNew),
			CreatedAt: now,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return err
	}
	if res.UpsertedCount == 0 {
		return giveaway.ErrConflict
	}
	return nil
}

func (t *storeTx) InsertWinner(ctx context.Context, winner *giveaway.Winner) error {
	res, err := t.db.Collection(collWinners).UpdateOne(ctx,
		bson.M{"user_id": winner.UserID},
		bson.M{"$setOnInsert": winnerDoc{
			UserID:        winner.UserID,
			Username:      winner.Username,
			AllowMultiple: winner.AllowMultiple,
			CreatedAt:     winner.CreatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return err
	}
	if res.UpsertedCount == 0 {
		return giveaway.ErrConflict
	}
	return nil
}

func (t *storeTx) DisableCode(ctx context.Context, code string) (bool, error) {
	res, err := t.db.Collection(collGiftLinks).UpdateOne(ctx,
		bson.M{"code": code},
		bson.M{"$set": bson.M{"status": string(models.GiftLinkStatusDisabled)}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (t *storeTx) AppendAudit(ctx context.Context, entry *giveaway.AuditEntry) error {
	_, err := t.db.Collection(collAuditLog).InsertOne(ctx, auditDoc{
		Ts:          entry.Ts,
		ActorUserID: entry.ActorUserID,
		Action:      entry.Action,
		Metadata:    entry.Metadata,
	})
	return err
}

func (t *storeTx) Stats(ctx context.Context) (*giveaway.Stats, error) {
	links := t.db.Collection(collGiftLinks)

	count := func(filter bson.M) (int, error) {
		n, err := links.CountDocuments(ctx, filter)
		return int(n), err
	}

	stats := new(giveaway.Stats)
	var err error
	if stats.Total, err = count(bson.M{}); err != nil {
		return nil, err
	}
	if stats.Available, err = count(bson.M{"status": string(models.GiftLinkStatusNew)}); err != nil {
		return nil, err
	}
	if stats.Claimed, err = count(bson.M{"status": string(models.GiftLinkStatusClaimed)}); err != nil {
		return nil, err
	}
	if stats.Disabled, err = count(bson.M{"status": string(models.GiftLinkStatusDisabled)}); err != nil {
		return nil, err
	}
	winners, err := t.db.Collection(collWinners).CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	stats.Winners = int(winners)
	return stats, nil
}
