package giveaway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// rcStore emulates the visibility rules of the SQL backend, which the
// fully-serialized memStore cannot: transactions genuinely overlap, every
// statement reads the latest committed state, ClaimNext hands concurrent
// transactions different rows (skip-locked), and GetWinner pins a
// per-user lock until the transaction ends. Inserts are only used for
// seeding and commit immediately.
type rcStore struct {
	mu         sync.Mutex
	links      []rcLink
	winners    map[string]Winner
	claimAudit int
	lockedRows map[int64]bool
	userLocks  map[string]*sync.Mutex
	nextID     int64
}

type rcLink struct {
	id        int64
	code      string
	status    string
	claimedBy string
}

func newRCStore() *rcStore {
	return &rcStore{
		winners:    map[string]Winner{},
		lockedRows: map[int64]bool{},
		userLocks:  map[string]*sync.Mutex{},
		nextID:     1,
	}
}

type rcClaim struct {
	id     int64
	code   string
	userID string
}

type rcTx struct {
	store       *rcStore
	claims      []rcClaim
	claimAudits int
	heldRows    []int64
	heldUsers   []*sync.Mutex
}

func (s *rcStore) RunInTx(_ context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx := &rcTx{store: s}
	err := fn(context.Background(), tx)

	s.mu.Lock()
	if err == nil {
		for _, c := range tx.claims {
			for i := range s.links {
				if s.links[i].id == c.id {
					s.links[i].status = "claimed"
					s.links[i].claimedBy = c.userID
				}
			}
		}
		s.claimAudit += tx.claimAudits
	}
	for _, id := range tx.heldRows {
		delete(s.lockedRows, id)
	}
	s.mu.Unlock()

	for _, l := range tx.heldUsers {
		l.Unlock()
	}
	return err
}

func (t *rcTx) GetWinner(_ context.Context, userID string) (*Winner, error) {
	t.store.mu.Lock()
	lock, ok := t.store.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		t.store.userLocks[userID] = lock
	}
	t.store.mu.Unlock()

	// blocks until any concurrent transaction on the same user commits
	lock.Lock()
	t.heldUsers = append(t.heldUsers, lock)

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	winner, ok := t.store.winners[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &winner, nil
}

func (t *rcTx) CountClaimed(_ context.Context, userID string) (int, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	var n int
	for _, link := range t.store.links {
		if link.status == "claimed" && link.claimedBy == userID {
			n++
		}
	}
	for _, c := range t.claims {
		if c.userID == userID {
			n++
		}
	}
	return n, nil
}

func (t *rcTx) ClaimNext(_ context.Context, userID string, _ time.Time) (*ClaimedLink, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, link := range t.store.links {
		if link.status != "new" || t.store.lockedRows[link.id] {
			continue
		}
		t.store.lockedRows[link.id] = true
		t.heldRows = append(t.heldRows, link.id)
		t.claims = append(t.claims, rcClaim{id: link.id, code: link.code, userID: userID})
		return &ClaimedLink{Ref: link.code, Code: link.code}, nil
	}
	return nil, ErrNoneAvailable
}

func (t *rcTx) InsertCode(_ context.Context, code string, _ time.Time) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, link := range t.store.links {
		if link.code == code {
			return ErrConflict
		}
	}
	t.store.links = append(t.store.links, rcLink{id: t.store.nextID, code: code, status: "new"})
	t.store.nextID++
	return nil
}

func (t *rcTx) InsertWinner(_ context.Context, winner *Winner) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if _, ok := t.store.winners[winner.UserID]; ok {
		return ErrConflict
	}
	t.store.winners[winner.UserID] = *winner
	return nil
}

func (t *rcTx) DisableCode(_ context.Context, code string) (bool, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for i := range t.store.links {
		if t.store.links[i].code == code {
			t.store.links[i].status = "disabled"
			return true, nil
		}
	}
	return false, nil
}

func (t *rcTx) AppendAudit(_ context.Context, entry *AuditEntry) error {
	if entry.Action == ActionClaim {
		t.claimAudits++
	}
	return nil
}

func (t *rcTx) Stats(_ context.Context) (*Stats, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	stats := &Stats{Winners: len(t.store.winners)}
	for _, link := range t.store.links {
		stats.Total++
		switch link.status {
		case "new":
			stats.Available++
		case "claimed":
			stats.Claimed++
		case "disabled":
			stats.Disabled++
		}
	}
	return stats, nil
}

// A single-claim user racing against themselves must win exactly once
// even though skip-locked selection offers each transaction a different
// row and neither sees the other's uncommitted claim. The winner-row pin
// taken by GetWinner is the only thing serializing them.
func TestSameUserClaimsUnderCommittedReads(t *testing.T) {
	store := newRCStore()
	engine := New(store)
	ctx := context.Background()

	_, err := engine.AddCodes(ctx, []string{"A1", "A2", "A3", "A4"}, "admin")
	require.NoError(t, err)
	added, err := engine.AddWinner(ctx, "u1", "alice", false, "admin")
	require.NoError(t, err)
	require.True(t, added)

	var mu sync.Mutex
	var succeeded, rejected int

	var g errgroup.Group
	for i := 0; i < 4; i++ {
		g.Go(func() error {
			_, err := engine.Claim(context.Background(), "u1")
			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, ErrNotEligible) {
				rejected++
				return nil
			}
			if err != nil {
				return err
			}
			succeeded++
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 3, rejected)

	store.mu.Lock()
	defer store.mu.Unlock()
	var claimedByUser int
	for _, link := range store.links {
		if link.status == "claimed" && link.claimedBy == "u1" {
			claimedByUser++
		}
	}
	assert.Equal(t, 1, claimedByUser)
	assert.Equal(t, 1, store.claimAudit)
}

// Distinct users must not serialize on each other: each pins their own
// winner row and skip-locked selection hands them different codes.
func TestDistinctUsersClaimDifferentRows(t *testing.T) {
	store := newRCStore()
	engine := New(store)
	ctx := context.Background()

	_, err := engine.AddCodes(ctx, []string{"A1", "A2"}, "admin")
	require.NoError(t, err)
	for _, userID := range []string{"u1", "u2"} {
		added, err := engine.AddWinner(ctx, userID, "", false, "admin")
		require.NoError(t, err)
		require.True(t, added)
	}

	var mu sync.Mutex
	codes := map[string]string{}

	var g errgroup.Group
	for _, userID := range []string{"u1", "u2"} {
		userID := userID
		g.Go(func() error {
			code, err := engine.Claim(context.Background(), userID)
			if err != nil {
				return err
			}
			mu.Lock()
			codes[userID] = code
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.Len(t, codes, 2)
	assert.NotEqual(t, codes["u1"], codes["u2"])
}
