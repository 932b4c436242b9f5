package giveaway

import (
	"context"
	"time"
)

// Action tags for audit entries.
const (
	ActionAddLink     = "ADD_LINK"
	ActionAddWinner   = "ADD_WINNER"
	ActionClaim       = "CLAIM"
	ActionDisableLink = "DISABLE_LINK"
)

// Winner is a user allowed to claim a gift link.
type Winner struct {
	UserID        string
	Username      string
	AllowMultiple bool
	CreatedAt     time.Time
}

// AuditEntry records one state-changing action.
type AuditEntry struct {
	Ts          time.Time
	ActorUserID string
	Action      string
	Metadata    string
}

// ClaimedLink is the outcome of a successful claim. Ref is the store's
// identifier for the row, used only in audit metadata.
type ClaimedLink struct {
	Ref  string
	Code string
}

// Stats are read-only aggregate counts.
type Stats struct {
	Total     int
	Available int
	Claimed   int
	Disabled  int
	Winners   int
}

// Store is the transactional boundary the engine runs on. All correctness
// of the claim path rests on the isolation RunInTx provides: if fn returns
// an error the whole transaction rolls back and no partial state is ever
// visible.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the capability set a store exposes inside a transaction.
//
// GetWinner must pin the winner row for the rest of the transaction
// (FOR UPDATE, a per-user lock, or transaction-wide conflict retry).
// Claims by different users proceed in parallel, but two claims by the
// same user have to serialize somewhere, and the gift link rows cannot
// be that place: skip-locked selection sends concurrent claimants to
// different rows on purpose. Without the winner pin, two claims by a
// single-claim user would each count zero prior claims under
// read-committed visibility and both would commit.
//
// ClaimNext must atomically pick the oldest gift link still in status
// "new", mark it claimed by userID, and return it, without ever handing
// the same row to two concurrent transactions. Backends achieve that with
// SELECT ... FOR UPDATE SKIP LOCKED, a conditional findAndModify, or
// equivalent. It returns ErrNoneAvailable when no row qualifies.
//
// InsertCode and InsertWinner must rely on the store's own uniqueness
// constraints and return ErrConflict on duplicates; an application-level
// existence check would leave a race window between check and insert.
type Tx interface {
	GetWinner(ctx context.Context, userID string) (*Winner, error)
	CountClaimed(ctx context.Context, userID string) (int, error)
	ClaimNext(ctx context.Context, userID string, now time.Time) (*ClaimedLink, error)
	InsertCode(ctx context.Context, code string, now time.Time) error
	InsertWinner(ctx context.Context, winner *Winner) error
	DisableCode(ctx context.Context, code string) (bool, error)
	AppendAudit(ctx context.Context, entry *AuditEntry) error
	Stats(ctx context.Context) (*Stats, error)
}
