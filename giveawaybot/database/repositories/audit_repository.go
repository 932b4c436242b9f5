package repositories

import (
	"context"

	"github.com/disgoorg/giveaway-bot/giveawaybot/database/models"
	"github.com/uptrace/bun"
)

// AuditRepository reads the append-only audit trail. Nothing writes
// through it; audit rows are only ever inserted inside store transactions.
type AuditRepository interface {
	ListRecent(ctx context.Context, limit int) ([]*models.AuditEntry, error)
}

type auditRepository struct {
	db *bun.DB
}

func NewAuditRepository(db *bun.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) ListRecent(ctx context.Context, limit int) ([]*models.AuditEntry, error) {
	var entries []*models.AuditEntry
	err := r.db.NewSelect().
		Model(&entries).
		Order("id DESC").
		Limit(limit).
		Scan(ctx)
	return entries, err
}
