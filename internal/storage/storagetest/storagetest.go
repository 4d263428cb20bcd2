// Package storagetest holds the behaviour every storage.Store must show.
// Backends call Run from their own tests.
package storagetest

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/credit-ledger/internal/domain"
	"github.com/josh-kwaku/credit-ledger/internal/storage"
)

// Factory returns an empty store. Cleanup is the factory's job.
type Factory func(t *testing.T) storage.Store

func Run(t *testing.T, newStore Factory) {
	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, newStore(t)) })
	t.Run("ApplyDeltaBoundary", func(t *testing.T) { testApplyDeltaBoundary(t, newStore(t)) })
	t.Run("ApplyDeltaNotFound", func(t *testing.T) { testApplyDeltaNotFound(t, newStore(t)) })
	t.Run("RollbackDiscards", func(t *testing.T) { testRollbackDiscards(t, newStore(t)) })
	t.Run("UpdatedAtNeverMovesBack", func(t *testing.T) { testUpdatedAtMonotonic(t, newStore(t)) })
	t.Run("StatementOrderAndBound", func(t *testing.T) { testStatementOrder(t, newStore(t)) })
	t.Run("ConcurrentDebits", func(t *testing.T) { testConcurrentDebits(t, newStore(t)) })
	t.Run("HugeDeltasRejected", func(t *testing.T) { testHugeDeltas(t, newStore(t)) })
	t.Run("BalanceCeiling", func(t *testing.T) { testBalanceCeiling(t, newStore(t)) })
	t.Run("CreateAccountRejectsInvalid", func(t *testing.T) { testCreateAccountRejectsInvalid(t, newStore(t)) })
}

func seed(t *testing.T, s storage.Store, id, limit, balance int64) {
	t.Helper()
	err := s.CreateAccount(context.Background(), &domain.Account{
		ID:        id,
		Limit:     limit,
		Balance:   balance,
		UpdatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
}

// apply runs one full write unit the way the ledger does.
func apply(ctx context.Context, s storage.Store, id, delta int64, desc string, at time.Time) (*domain.Account, error) {
	tx, err := s.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	acct, err := tx.ApplyDelta(ctx, id, delta, at)
	if err != nil {
		return nil, err
	}

	kind, amount := domain.KindCredit, delta
	if delta < 0 {
		kind, amount = domain.KindDebit, -delta
	}
	err = tx.AppendTransaction(ctx, &domain.Transaction{
		ID:           uuid.New(),
		AccountID:    id,
		Amount:       amount,
		Kind:         kind,
		Description:  desc,
		BalanceAfter: acct.Balance,
		OccurredAt:   acct.UpdatedAt,
	})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return acct, nil
}

func testCreateAndGet(t *testing.T, s storage.Store) {
	ctx := context.Background()
	seed(t, s, 1, 1000, 0)

	a, err := s.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), a.Limit)
	assert.Equal(t, int64(0), a.Balance)

	err = s.CreateAccount(ctx, &domain.Account{ID: 1, Limit: 5})
	require.ErrorIs(t, err, domain.ErrAccountExists)

	_, err = s.GetAccount(ctx, 99)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, _, err = s.Statement(ctx, 99, 10)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	require.NoError(t, s.Ping(ctx))
}

func testApplyDeltaBoundary(t *testing.T, s storage.Store) {
	ctx := context.Background()
	seed(t, s, 1, 1000, 0)
	now := time.Now().UTC().Truncate(time.Microsecond)

	a, err := apply(ctx, s, 1, 500, "deposit", now)
	require.NoError(t, err)
	assert.Equal(t, int64(500), a.Balance)

	_, err = apply(ctx, s, 1, -1600, "rent", now)
	require.ErrorIs(t, err, domain.ErrOverdraft)

	a, err = apply(ctx, s, 1, -1500, "rent", now)
	require.NoError(t, err)
	assert.Equal(t, int64(-1000), a.Balance)

	_, err = apply(ctx, s, 1, -1, "over", now)
	require.ErrorIs(t, err, domain.ErrOverdraft)

	acct, txns, err := s.Statement(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(-1000), acct.Balance)
	assert.Len(t, txns, 2)
}

func testApplyDeltaNotFound(t *testing.T, s storage.Store) {
	ctx := context.Background()
	_, err := apply(ctx, s, 42, 10, "x", time.Now().UTC())
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func testRollbackDiscards(t *testing.T, s storage.Store) {
	ctx := context.Background()
	seed(t, s, 1, 0, 100)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.ApplyDelta(ctx, 1, -50, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	acct, txns, err := s.Statement(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(100), acct.Balance)
	assert.Empty(t, txns)
}

func testUpdatedAtMonotonic(t *testing.T, s storage.Store) {
	ctx := context.Background()
	seed(t, s, 1, 0, 0)

	later := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	earlier := later.Add(-time.Hour)

	a, err := apply(ctx, s, 1, 10, "first", later)
	require.NoError(t, err)
	assert.True(t, a.UpdatedAt.Equal(later))

	a, err = apply(ctx, s, 1, 10, "second", earlier)
	require.NoError(t, err)
	assert.True(t, a.UpdatedAt.Equal(later), "clock going back must not reorder the log")
}

func testStatementOrder(t *testing.T, s storage.Store) {
	ctx := context.Background()
	seed(t, s, 1, 0, 0)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := range 15 {
		// Pairs share a timestamp so insertion order has to break the tie.
		at := base.Add(time.Duration(i/2) * time.Second)
		_, err := apply(ctx, s, 1, int64(i+1), "tx", at)
		require.NoError(t, err)
	}

	acct, txns, err := s.Statement(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, txns, 10)
	for i, txn := range txns {
		assert.Equal(t, int64(15-i), txn.Amount, "newest first")
	}
	assert.Equal(t, acct.Balance, txns[0].BalanceAfter)

	_, all, err := s.Statement(ctx, 1, 100)
	require.NoError(t, err)
	assert.Len(t, all, 15)
}

func testConcurrentDebits(t *testing.T, s storage.Store) {
	ctx := context.Background()
	seed(t, s, 1, 500, 0)

	const workers = 100
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := apply(ctx, s, 1, -10, "debit", time.Now().UTC())
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			assert.ErrorIs(t, err, domain.ErrOverdraft)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, successes)

	acct, txns, err := s.Statement(ctx, 1, workers)
	require.NoError(t, err)
	assert.Equal(t, int64(-500), acct.Balance)
	assert.Len(t, txns, 50)

	var replayed int64
	for i := len(txns) - 1; i >= 0; i-- {
		replayed += txns[i].Kind.Signed(txns[i].Amount)
		assert.Equal(t, replayed, txns[i].BalanceAfter)
	}
	assert.Equal(t, acct.Balance, replayed)
}

func testHugeDeltas(t *testing.T, s storage.Store) {
	ctx := context.Background()
	seed(t, s, 1, 100000, 0)
	now := time.Now().UTC().Truncate(time.Microsecond)

	_, err := apply(ctx, s, 1, -50, "coffee", now)
	require.NoError(t, err)

	for _, delta := range []int64{-math.MaxInt64, math.MinInt64, math.MaxInt64, domain.MaxAmount + 1, -domain.MaxAmount - 1} {
		_, err := apply(ctx, s, 1, delta, "huge", now)
		require.ErrorIs(t, err, domain.ErrInvalidAmount, "delta %d", delta)
	}

	acct, txns, err := s.Statement(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(-50), acct.Balance)
	assert.Len(t, txns, 1)
}

func testBalanceCeiling(t *testing.T, s storage.Store) {
	ctx := context.Background()
	seed(t, s, 1, 0, domain.MaxBalance-domain.MaxAmount)
	seed(t, s, 2, domain.MaxBalance, -domain.MaxBalance+domain.MaxAmount)
	now := time.Now().UTC().Truncate(time.Microsecond)

	_, err := apply(ctx, s, 1, domain.MaxAmount, "ceiling", now)
	require.NoError(t, err)
	_, err = apply(ctx, s, 1, 1, "over", now)
	require.ErrorIs(t, err, domain.ErrBalanceOutOfRange)

	_, err = apply(ctx, s, 2, -domain.MaxAmount, "floor", now)
	require.NoError(t, err)
	_, err = apply(ctx, s, 2, -1, "under", now)
	require.ErrorIs(t, err, domain.ErrOverdraft)

	a, err := s.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxBalance, a.Balance)

	a, err = s.GetAccount(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, -domain.MaxBalance, a.Balance)
}

func testCreateAccountRejectsInvalid(t *testing.T, s storage.Store) {
	ctx := context.Background()

	invalid := []domain.Account{
		{ID: 0, Limit: 100},
		{ID: 1, Limit: -1},
		{ID: 2, Limit: 100, Balance: -101},
		{ID: 3, Limit: domain.MaxBalance + 1},
		{ID: 4, Balance: domain.MaxBalance + 1},
	}
	for _, a := range invalid {
		err := s.CreateAccount(ctx, &a)
		require.ErrorIs(t, err, domain.ErrInvalidAccount, "%+v", a)
	}

	for _, id := range []int64{1, 2, 3, 4} {
		_, err := s.GetAccount(ctx, id)
		require.ErrorIs(t, err, domain.ErrAccountNotFound)
	}
}
