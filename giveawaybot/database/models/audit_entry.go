package models

import (
	"time"

	"github.com/uptrace/bun"
)

// AuditEntry is one row of the append-only audit log. Entries are written
// in the same transaction as the state change they record.
type AuditEntry struct {
	bun.BaseModel `bun:"table:audit_log,alias:al"`

	ID          int64     `bun:"id,pk,autoincrement"`
	Ts          time.Time `bun:"ts,notnull,default:current_timestamp"`
	ActorUserID string    `bun:"actor_user_id,nullzero"`
	Action      string    `bun:"action,notnull"`
	Metadata    string    `bun:"metadata,nullzero"`
}
