package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/credit-ledger/internal/domain"
	"github.com/josh-kwaku/credit-ledger/internal/events"
	"github.com/josh-kwaku/credit-ledger/internal/storage"
	"github.com/josh-kwaku/credit-ledger/internal/storage/memory"
	"github.com/josh-kwaku/credit-ledger/internal/storage/postgres"
	"github.com/josh-kwaku/credit-ledger/internal/storage/sqlite"
	"github.com/josh-kwaku/credit-ledger/internal/testutil"
)

type backend struct {
	name string
	open func(t *testing.T) storage.Store
}

var backends = []backend{
	{name: "memory", open: func(t *testing.T) storage.Store { return memory.NewStore() }},
	{name: "sqlite", open: func(t *testing.T) storage.Store {
		s, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	}},
	{name: "postgres", open: func(t *testing.T) storage.Store {
		return postgres.NewStore(testutil.SetupTestDB(t))
	}},
}

// forEachBackend runs fn against a fresh service per backend.
func forEachBackend(t *testing.T, fn func(t *testing.T, svc *Service, store storage.Store)) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			store := b.open(t)
			fn(t, NewService(store, nil), store)
		})
	}
}

func seedAccount(t *testing.T, store storage.Store, id, limit, balance int64) {
	t.Helper()
	err := store.CreateAccount(context.Background(), &domain.Account{
		ID:        id,
		Limit:     limit,
		Balance:   balance,
		UpdatedAt: time.Now().UTC().Truncate(time.Microsecond),
	})
	require.NoError(t, err)
}

func history(t *testing.T, store storage.Store, id int64) (*domain.Account, []domain.Transaction) {
	t.Helper()
	acct, txns, err := store.Statement(context.Background(), id, 1000)
	require.NoError(t, err)
	return acct, txns
}

type recordingPublisher struct {
	mu   sync.Mutex
	got  []*events.TransactionApplied
	fail bool
}

func (p *recordingPublisher) Publish(_ context.Context, e *events.TransactionApplied) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, e)
	if p.fail {
		return errors.New("broker down")
	}
	return nil
}

// faultyStore wraps a store and fails or stalls the write path on demand.
type faultyStore struct {
	storage.Store
	beginErr  error
	commitErr error
	begins    int
	mu        sync.Mutex
	gate      map[int64]chan struct{}
}

func (f *faultyStore) Begin(ctx context.Context) (storage.Tx, error) {
	f.mu.Lock()
	f.begins++
	f.mu.Unlock()
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	tx, err := f.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &faultyTx{Tx: tx, store: f}, nil
}

type faultyTx struct {
	storage.Tx
	store *faultyStore
}

func (t *faultyTx) ApplyDelta(ctx context.Context, id, delta int64, at time.Time) (*domain.Account, error) {
	t.store.mu.Lock()
	gate := t.store.gate[id]
	t.store.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return t.Tx.ApplyDelta(ctx, id, delta, at)
}

func (t *faultyTx) Commit() error {
	if t.store.commitErr != nil {
		return t.store.commitErr
	}
	return t.Tx.Commit()
}
