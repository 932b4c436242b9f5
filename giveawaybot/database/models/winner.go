package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Winner is a user allowed to claim a gift link. Rows are never updated
// or deleted; registering an existing user_id is a no-op.
type Winner struct {
	bun.BaseModel `bun:"table:winners,alias:w"`

	ID            int64     `bun:"id,pk,autoincrement"`
	UserID        string    `bun:"user_id,notnull,unique"`
	Username      string    `bun:"username,nullzero"`
	AllowMultiple bool      `bun:"allow_multiple,notnull,default:false"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
