package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"policydash/pkg/contracts/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(maxSessions int, ttl time.Duration) (*Store, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewStore(Options{MaxSessions: maxSessions, TTL: ttl, Now: clock.Now}, nil), clock
}

func TestStoreCreateAndGet(t *testing.T) {
	store, _ := newTestStore(4, time.Hour)

	sess := store.Create()
	require.NotEmpty(t, sess.ID)
	assert.False(t, sess.HasData())

	got, ok := store.Get(sess.ID)
	require.True(t, ok)
	assert.Same(t, sess, got)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestStorePutReplacesDataset(t *testing.T) {
	store, _ := newTestStore(4, time.Hour)
	sess := store.Create()

	table := domain.NewTable([]string{domain.ColumnCategory}).WithRows([]domain.Row{{domain.StringCell("Health")}})
	store.Put(&Session{ID: sess.ID, Source: "march.csv", Table: table})

	got, ok := store.Get(sess.ID)
	require.True(t, ok)
	assert.True(t, got.HasData())
	assert.Equal(t, "march.csv", got.Source)
	assert.Equal(t, 1, store.Size())
}

func TestStoreExpiry(t *testing.T) {
	store, clock := newTestStore(4, time.Hour)
	sess := store.Create()

	clock.Advance(59 * time.Minute)
	_, ok := store.Get(sess.ID)
	require.True(t, ok, "access refreshes expiry")

	clock.Advance(59 * time.Minute)
	_, ok = store.Get(sess.ID)
	require.True(t, ok)

	clock.Advance(61 * time.Minute)
	_, ok = store.Get(sess.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Size())
}

func TestStoreSweep(t *testing.T) {
	store, clock := newTestStore(4, time.Hour)
	old := store.Create()
	clock.Advance(30 * time.Minute)
	fresh := store.Create()
	clock.Advance(45 * time.Minute)

	assert.Equal(t, 1, store.Sweep())
	_, ok := store.Get(old.ID)
	assert.False(t, ok)
	_, ok = store.Get(fresh.ID)
	assert.True(t, ok)
}

func TestStoreEvictsLeastRecentlyUsed(t *testing.T) {
	store, _ := newTestStore(2, time.Hour)
	a := store.Create()
	b := store.Create()

	_, ok := store.Get(a.ID)
	require.True(t, ok)

	c := store.Create()
	assert.Equal(t, 2, store.Size())

	_, ok = store.Get(b.ID)
	assert.False(t, ok, "b was least recently used")
	_, ok = store.Get(a.ID)
	assert.True(t, ok)
	_, ok = store.Get(c.ID)
	assert.True(t, ok)
}

func TestStoreDelete(t *testing.T) {
	store, _ := newTestStore(4, time.Hour)
	sess := store.Create()

	assert.True(t, store.Delete(sess.ID))
	assert.False(t, store.Delete(sess.ID))
	_, ok := store.Get(sess.ID)
	assert.False(t, ok)
}

func TestStoreConcurrentAccess(t *testing.T) {
	store, _ := newTestStore(128, time.Hour)

	var g errgroup.Group
	for i := 0; i < 32; i++ {
		i := i
		g.Go(func() error {
			sess := store.Create()
			store.Put(&Session{ID: sess.ID, Source: fmt.Sprintf("file-%d.csv", i)})
			got, ok := store.Get(sess.ID)
			if !ok {
				return fmt.Errorf("session %s lost", sess.ID)
			}
			if got.Source != fmt.Sprintf("file-%d.csv", i) {
				return fmt.Errorf("session %s saw %s", sess.ID, got.Source)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 32, store.Size())
}

func TestStartSweeper(t *testing.T) {
	store, _ := newTestStore(4, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := StartSweeper(ctx, store, "*/5 * * * *", time.UTC, nil)
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)

	_, err = StartSweeper(ctx, store, "not a schedule", time.UTC, nil)
	assert.Error(t, err)
}

func TestStoreOnRemove(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	var removed []string
	store := NewStore(Options{
		MaxSessions: 2,
		TTL:         time.Hour,
		Now:         clock.Now,
		OnRemove:    func(id string) { removed = append(removed, id) },
	}, nil)

	a := store.Create()
	b := store.Create()
	c := store.Create() // evicts a
	require.True(t, store.Delete(b.ID))
	clock.Advance(2 * time.Hour)
	assert.Equal(t, 1, store.Sweep())

	assert.Equal(t, []string{a.ID, b.ID, c.ID}, removed)
}
