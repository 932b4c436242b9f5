package models

import (
	"time"

	"github.com/uptrace/bun"
)

type GiftLinkStatus string

const (
	GiftLinkStatusNew      GiftLinkStatus = "new"
	GiftLinkStatusClaimed  GiftLinkStatus = "claimed"
	GiftLinkStatusDisabled GiftLinkStatus = "disabled"
)

// GiftLink is a single-use reward code. Status only ever moves forward:
// new -> claimed, new -> disabled, claimed -> disabled.
type GiftLink struct {
	bun.BaseModel `bun:"table:gift_links,alias:gl"`

	ID        int64          `bun:"id,pk,autoincrement"`
	Code      string         `bun:"code,notnull,unique"`
	Status    GiftLinkStatus `bun:"status,notnull,default:'new'"`
	ClaimedBy string         `bun:"claimed_by,nullzero"`
	ClaimedAt time.Time      `bun:"claimed_at,nullzero"`
	CreatedAt time.Time      `bun:"created_at,notnull,default:current_timestamp"`
	Notes     string         `bun:"notes,nullzero"`
}
