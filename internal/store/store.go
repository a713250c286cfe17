// Package store keeps expansion records: the text a macro expansion
// replaced, addressed by a generated key, so that the expansion can be
// undone later.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/orizon-lang/quasi/internal/config"
)

// ErrNotFound is returned for unknown keys.
var ErrNotFound = errors.New("store: record not found")

// Record describes one applied expansion.
type Record struct {
	Key   string `json:"key"`
	File  string `json:"file"`
	Class string `json:"class,omitempty"`
	// Start is the byte offset of the expansion in the expanded file text.
	Start    int       `json:"start"`
	Expanded string    `json:"expanded"`
	Original string    `json:"original"`
	Created  time.Time `json:"created"`
}

// End returns the offset just past the expansion in the expanded text.
func (r *Record) End() int { return r.Start + len(r.Expanded) }

// Store persists expansion records.
type Store interface {
	// Put saves r, assigning a new key when r.Key is empty.
	Put(ctx context.Context, r *Record) error
	Get(ctx context.Context, key string) (*Record, error)
	Delete(ctx context.Context, key string) error
	// List returns the records of file, or all records when file is empty,
	// oldest first.
	List(ctx context.Context, file string) ([]*Record, error)
	Close() error
}

// NewKey returns a fresh record key.
func NewKey() string {
	return uuid.NewString()
}

// Open opens the store described by cfg.
func Open(cfg config.StoreConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Kind {
	case "", config.StoreMemory:
		return NewMemory(), nil
	case config.StoreBadger:
		return OpenBadger(BadgerConfig{Path: cfg.Path, SyncWrites: true, Logger: logger})
	}
	return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
}

func prepare(r *Record) {
	if r.Key == "" {
		r.Key = NewKey()
	}
	if r.Created.IsZero() {
		r.Created = time.Now().UTC()
	}
}

func sortRecords(rs []*Record) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].Created.Equal(rs[j].Created) {
			return rs[i].Created.Before(rs[j].Created)
		}
		return rs[i].Key < rs[j].Key
	})
}
