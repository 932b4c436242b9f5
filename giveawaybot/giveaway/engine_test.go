package giveaway

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// memStore implements Store with copy-on-write snapshots under a mutex.
// Transactions are fully serialized, which is a stricter schedule than a
// real store provides, but the unique constraints and the claim primitive
// behave the same way.
type memStore struct {
	mu    sync.Mutex
	state memState
}

type memState struct {
	links   []memLink
	winners map[string]Winner
	audit   []AuditEntry
	nextID  int64
}

type memLink struct {
	id        int64
	code      string
	status    string
	claimedBy string
	claimedAt time.Time
}

func newMemStore() *memStore {
	return &memStore{state: memState{winners: map[string]Winner{}, nextID: 1}}
}

func (s *memStore) RunInTx(_ context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	tx := &memTx{state: &snapshot}
	if err := fn(context.Background(), tx); err != nil {
		return err
	}
	s.state = snapshot
	return nil
}

func (st memState) clone() memState {
	out := memState{
		links:   append([]memLink(nil), st.links...),
		winners: make(map[string]Winner, len(st.winners)),
		audit:   append([]AuditEntry(nil), st.audit...),
		nextID:  st.nextID,
	}
	for k, v := range st.winners {
		out.winners[k] = v
	}
	return out
}

type memTx struct {
	state *memState
}

func (t *memTx) GetWinner(_ context.Context, userID string) (*Winner, error) {
	winner, ok := t.state.winners[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &winner, nil
}

func (t *memTx) CountClaimed(_ context.Context, userID string) (int, error) {
	var n int
	for _, link := range t.state.links {
		if link.status == "claimed" && link.claimedBy == userID {
			n++
		}
	}
	return n, nil
}

func (t *memTx) ClaimNext(_ context.Context, userID string, now time.Time) (*ClaimedLink, error) {
	for i := range t.state.links {
		if t.state.links[i].status != "new" {
			continue
		}
		t.state.links[i].status = "claimed"
		t.state.links[i].claimedBy = userID
		t.state.links[i].claimedAt = now
		return &ClaimedLink{
			Ref:  strconv.FormatInt(t.state.links[i].id, 10),
			Code: t.state.links[i].code,
		}, nil
	}
	return nil, ErrNoneAvailable
}

func (t *memTx) InsertCode(_ context.Context, code string, _ time.Time) error {
	for _, link := range t.state.links {
		if link.code == code {
			return ErrConflict
		}
	}
	t.state.links = append(t.state.links, memLink{id: t.state.nextID, code: code, status: "new"})
	t.state.nextID++
	return nil
}

func (t *memTx) InsertWinner(_ context.Context, winner *Winner) error {
	if _, ok := t.state.winners[winner.UserID]; ok {
		return ErrConflict
	}
	t.state.winners[winner.UserID] = *winner
	return nil
}

func (t *memTx) DisableCode(_ context.Context, code string) (bool, error) {
	for i := range t.state.links {
		if t.state.links[i].code == code {
			t.state.links[i].status = "disabled"
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) AppendAudit(_ context.Context, entry *AuditEntry) error {
	t.state.audit = append(t.state.audit, *entry)
	return nil
}

func (t *memTx) Stats(_ context.Context) (*Stats, error) {
	stats := &Stats{Winners: len(t.state.winners)}
	for _, link := range t.state.links {
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

func (s *memStore) auditByAction(action string) []AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []AuditEntry
	for _, entry := range s.state.audit {
		if entry.Action == action {
			out = append(out, entry)
		}
	}
	return out
}

func setupEngine(t *testing.T, codes []string, winners ...Winner) (*Engine, *memStore) {
	t.Helper()
	store := newMemStore()
	engine := New(store)
	ctx := context.Background()

	if len(codes) > 0 {
		_, err := engine.AddCodes(ctx, codes, "admin")
		require.NoError(t, err)
	}
	for _, w := range winners {
		added, err := engine.AddWinner(ctx, w.UserID, w.Username, w.AllowMultiple, "admin")
		require.NoError(t, err)
		require.True(t, added)
	}
	return engine, store
}

func TestClaimAssignsOldestFirst(t *testing.T) {
	engine, _ := setupEngine(t, []string{"A1", "A2"},
		Winner{UserID: "u1", Username: "alice"},
		Winner{UserID: "u2", Username: "bob"},
	)
	ctx := context.Background()

	code, err := engine.Claim(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "A1", code)

	code, err = engine.Claim(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "A2", code)
}

func TestClaimUnregisteredUser(t *testing.T) {
	engine, _ := setupEngine(t, []string{"A1"}, Winner{UserID: "u1"})

	_, err := engine.Claim(context.Background(), "stranger")
	assert.ErrorIs(t, err, ErrNotEligible)
}

func TestClaimSecondAttemptRejected(t *testing.T) {
	engine, _ := setupEngine(t, []string{"A1", "A2"}, Winner{UserID: "u1"})
	ctx := context.Background()

	_, err := engine.Claim(ctx, "u1")
	require.NoError(t, err)

	_, err = engine.Claim(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotEligible)
}

func TestClaimAllowMultiple(t *testing.T) {
	engine, _ := setupEngine(t, []string{"A1", "A2"},
		Winner{UserID: "u1", AllowMultiple: true})
	ctx := context.Background()

	first, err := engine.Claim(ctx, "u1")
	require.NoError(t, err)
	second, err := engine.Claim(ctx, "u1")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	_, err = engine.Claim(ctx, "u1")
	assert.ErrorIs(t, err, ErrNoneAvailable)
}

func TestClaimEmptyPool(t *testing.T) {
	engine, _ := setupEngine(t, nil, Winner{UserID: "u1"})

	_, err := engine.Claim(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNoneAvailable)
}

func TestClaimFailedAttemptLeavesNoAudit(t *testing.T) {
	engine, store := setupEngine(t, nil, Winner{UserID: "u1"})
	ctx := context.Background()

	_, err := engine.Claim(ctx, "u1")
	require.ErrorIs(t, err, ErrNoneAvailable)
	_, err = engine.Claim(ctx, "stranger")
	require.ErrorIs(t, err, ErrNotEligible)

	assert.Empty(t, store.auditByAction(ActionClaim))
}

func TestAddCodesSkipsBlanksAndDuplicates(t *testing.T) {
	engine, store := setupEngine(t, nil)
	ctx := context.Background()

	added, err := engine.AddCodes(ctx, []string{" A1 ", "", "A2", "A1", "  "}, "admin")
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = engine.AddCodes(ctx, []string{"A2", "A3"}, "admin")
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	stats, err := engine.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 3, stats.Available)

	// one audit entry per batch, not per code
	assert.Len(t, store.auditByAction(ActionAddLink), 2)

	// a batch of nothing but duplicates is a no-op and leaves no entry
	added, err = engine.AddCodes(ctx, []string{"A1", "A2"}, "admin")
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Len(t, store.auditByAction(ActionAddLink), 2)
}

func TestAddWinnerIdempotent(t *testing.T) {
	engine, store := setupEngine(t, nil)
	ctx := context.Background()

	added, err := engine.AddWinner(ctx, "u1", "alice", true, "admin")
	require.NoError(t, err)
	assert.True(t, added)

	// re-registering must not overwrite allow_multiple
	added, err = engine.AddWinner(ctx, "u1", "alice", false, "admin")
	require.NoError(t, err)
	assert.False(t, added)

	var winner *Winner
	err = store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		winner, err = tx.GetWinner(ctx, "u1")
		return err
	})
	require.NoError(t, err)
	assert.True(t, winner.AllowMultiple)

	assert.Len(t, store.auditByAction(ActionAddWinner), 1)
}

func TestDisableCode(t *testing.T) {
	engine, store := setupEngine(t, []string{"A1", "A2"}, Winner{UserID: "u1"})
	ctx := context.Background()

	disabled, err := engine.DisableCode(ctx, "A1", "admin")
	require.NoError(t, err)
	assert.True(t, disabled)

	// the disabled code is skipped, the next one handed out
	code, err := engine.Claim(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "A2", code)

	disabled, err = engine.DisableCode(ctx, "nope", "admin")
	require.NoError(t, err)
	assert.False(t, disabled)

	// an already-claimed code can still be revoked
	disabled, err = engine.DisableCode(ctx, "A2", "admin")
	require.NoError(t, err)
	assert.True(t, disabled)

	stats, err := engine.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Disabled)
	assert.Equal(t, 0, stats.Available)

	assert.Len(t, store.auditByAction(ActionDisableLink), 2)
}

func TestConcurrentClaimsNeverDoubleAssign(t *testing.T) {
	const codeCount = 8
	const userCount = 20

	var codes []string
	var winners []Winner
	for i := 0; i < codeCount; i++ {
		codes = append(codes, fmt.Sprintf("CODE-%d", i))
	}
	for i := 0; i < userCount; i++ {
		winners = append(winners, Winner{UserID: fmt.Sprintf("u%d", i)})
	}
	engine, store := setupEngine(t, codes, winners...)

	var mu sync.Mutex
	claimed := map[string]string{}
	var exhausted int

	var g errgroup.Group
	for i := 0; i < userCount; i++ {
		userID := fmt.Sprintf("u%d", i)
		g.Go(func() error {
			code, err := engine.Claim(context.Background(), userID)
			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, ErrNoneAvailable) {
				exhausted++
				return nil
			}
			if err != nil {
				return err
			}
			claimed[code] = userID
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Len(t, claimed, codeCount)
	assert.Equal(t, userCount-codeCount, exhausted)
	assert.Len(t, store.auditByAction(ActionClaim), codeCount)

	stats, err := engine.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Available)
	assert.Equal(t, codeCount, stats.Claimed)
}

func TestConcurrentClaimsSameUser(t *testing.T) {
	engine, store := setupEngine(t, []string{"A1", "A2", "A3"}, Winner{UserID: "u1"})

	var succeeded, rejected int
	var mu sync.Mutex

	var g errgroup.Group
	for i := 0; i < 10; i++ {
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
	assert.Equal(t, 9, rejected)
	assert.Len(t, store.auditByAction(ActionClaim), 1)
}
