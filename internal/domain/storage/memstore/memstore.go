// Package memstore is an in-process implementation of storage.Store.
//
// Writes are atomic per call. WithTx gives no isolation: callers that need
// read-then-write consistency serialize through keylock.
package memstore

import (
	"context"
	"sync"
	"time"

	"placereview/internal/domain/places"
	"placereview/internal/domain/reviews"
	"placereview/internal/domain/storage"
	"placereview/internal/domain/users"
)

type Store struct {
	mu sync.RWMutex

	places  map[int64]*places.Place
	names   map[string]int64
	reviews map[int64]*reviews.Review
	users   map[int64]*users.User
	emails  map[string]int64

	placeSeq  int64
	reviewSeq int64
	userSeq   int64

	now func() time.Time
}

func New() *Store {
	return &Store{
		places:  make(map[int64]*places.Place),
		names:   make(map[string]int64),
		reviews: make(map[int64]*reviews.Review),
		users:   make(map[int64]*users.User),
		emails:  make(map[string]int64),
		now:     time.Now,
	}
}

func (s *Store) Places() places.Store   { return placeStore{s} }
func (s *Store) Reviews() reviews.Store { return reviewStore{s} }
func (s *Store) Users() users.Store     { return userStore{s} }

func (s *Store) WithTx(ctx context.Context, fn func(tx storage.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(s)
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
