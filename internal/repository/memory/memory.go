// Package memory is an in-process repository.Store. It backs the "memory"
// database driver for local runs and the service tests.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"toolshed-backend/internal/domain"
	"toolshed-backend/internal/repository"
)

type tables struct {
	tools   map[int32]domain.Tool
	members map[int32]domain.Member
	rentals map[int32]domain.Rental
	ledger  map[int32]domain.LedgerTransaction
	history map[int32]domain.RentalHistory
	nextID  map[string]int32
}

func newTables() *tables {
	return &tables{
		tools:   map[int32]domain.Tool{},
		members: map[int32]domain.Member{},
		rentals: map[int32]domain.Rental{},
		ledger:  map[int32]domain.LedgerTransaction{},
		history: map[int32]domain.RentalHistory{},
		nextID:  map[string]int32{},
	}
}

func (t *tables) clone() *tables {
	return &tables{
		tools:   maps.Clone(t.tools),
		members: maps.Clone(t.members),
		rentals: maps.Clone(t.rentals),
		ledger:  maps.Clone(t.ledger),
		history: maps.Clone(t.history),
		nextID:  maps.Clone(t.nextID),
	}
}

func (t *tables) id(table string) int32 {
	t.nextID[table]++
	return t.nextID[table]
}

type state struct {
	mu   sync.Mutex
	data *tables
}

// view routes repository calls either to the committed tables, under the
// store lock, or to the working copy of the transaction in progress.
type view struct {
	st *state
	tx *tables
}

func (v *view) do(fn func(t *tables) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.st.mu.Lock()
	defer v.st.mu.Unlock()
	return fn(v.st.data)
}

// Store serializes transactions with one mutex. A transaction works on a
// copy of every table and swaps it in on success, so a failed transaction
// leaves nothing behind.
type Store struct {
	v *view
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{v: &view{st: &state{data: newTables()}}}
}

func (s *Store) Tools() repository.ToolRepository            { return &toolRepository{v: s.v} }
func (s *Store) Members() repository.MemberRepository        { return &memberRepository{v: s.v} }
func (s *Store) Rentals() repository.RentalRepository        { return &rentalRepository{v: s.v} }
func (s *Store) Ledger() repository.LedgerRepository         { return &ledgerRepository{v: s.v} }
func (s *Store) History() repository.RentalHistoryRepository { return &historyRepository{v: s.v} }

func (s *Store) Close() error { return nil }

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.v.tx != nil {
		return fn(s)
	}

	st := s.v.st
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := st.data.clone()
	if err := fn(&Store{v: &view{st: st, tx: work}}); err != nil {
		return err
	}
	st.data = work
	return nil
}

func notFound(entity string, id int32) error {
	return fmt.Errorf("%w: %s %d", domain.ErrNotFound, entity, id)
}
