package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orizon-lang/quasi/internal/config"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	b, err := OpenBadger(BadgerConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return map[string]Store{"memory": NewMemory(), "badger": b}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			r := &Record{File: "a.kt", Class: "lib.Double", Start: 4, Expanded: "fun f() = 4", Original: "@Double(2)\nfun f() = 2"}
			require.NoError(t, s.Put(ctx, r))
			require.NotEmpty(t, r.Key)
			assert.False(t, r.Created.IsZero())
			assert.Equal(t, 15, r.End())

			got, err := s.Get(ctx, r.Key)
			require.NoError(t, err)
			assert.Equal(t, r.Original, got.Original)
			assert.Equal(t, r.Start, got.Start)
			assert.True(t, r.Created.Equal(got.Created))

			require.NoError(t, s.Delete(ctx, r.Key))
			_, err = s.Get(ctx, r.Key)
			assert.True(t, errors.Is(err, ErrNotFound))
			assert.True(t, errors.Is(s.Delete(ctx, r.Key), ErrNotFound))
		})
	}
}

func TestStoreList(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(ctx, &Record{Key: "k2", File: "a.kt", Created: base.Add(time.Minute)}))
			require.NoError(t, s.Put(ctx, &Record{Key: "k1", File: "a.kt", Created: base}))
			require.NoError(t, s.Put(ctx, &Record{Key: "k3", File: "b.kt", Created: base}))

			rs, err := s.List(ctx, "a.kt")
			require.NoError(t, err)
			require.Len(t, rs, 2)
			assert.Equal(t, "k1", rs[0].Key)
			assert.Equal(t, "k2", rs[1].Key)

			all, err := s.List(ctx, "")
			require.NoError(t, err)
			assert.Len(t, all, 3)
		})
	}
}

func TestStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, s.Put(ctx, &Record{}), context.Canceled)
		})
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(config.StoreConfig{Kind: config.StoreMemory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(config.StoreConfig{Kind: config.StoreBadger, Path: t.TempDir()}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = OpenBadger(BadgerConfig{})
	assert.Error(t, err)

	_, err = Open(config.StoreConfig{Kind: "sqlite"}, nil)
	assert.Error(t, err)
}

func TestNewKeyUnique(t *testing.T) {
	assert.NotEqual(t, NewKey(), NewKey())
}
