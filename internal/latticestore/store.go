// Package latticestore is the durable cell-lineage / tombstone-retention
// arena cmd/fieldctl keeps across runs. The core algebra (pkg/oracle,
// pkg/cell) is deliberately stateless — spec.md's oracle Non-goals say
// retaining tombstones/lineage forever is a caller concern, not the
// core's — so a long-running CLI session needs somewhere durable to keep
// that history between invocations. Store wraps an embedded
// github.com/dgraph-io/badger/v4 database for that purpose.
package latticestore

import (
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/kasuganosora/seqfield/pkg/cell"
	"github.com/kasuganosora/seqfield/pkg/revision"
)

// Store persists tombstone and lineage records keyed by atom ID. Atom
// revisions are assumed to be strings (cmd/fieldctl mints them as
// uuid.UUID.String()), since badger keys are byte slices.
type Store struct {
	db *badger.DB
}

// Open opens (creating if absent) a badger database rooted at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("latticestore: opening badger db at %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying badger database.
func (s *Store) Close() error {
	return s.db.Close()
}

func tombstoneKey(id revision.AtomID) []byte {
	return []byte("tomb/" + id.String())
}

func lineageKey(id revision.AtomID) []byte {
	return []byte("lineage/" + id.String())
}

// RecordTombstone marks id as permanently detached: once written, the
// cell it names is retained as a tombstone witness rather than forgotten,
// even across process restarts.
func (s *Store) RecordTombstone(id revision.AtomID) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(tombstoneKey(id), []byte{1})
	})
}

// IsTombstoned reports whether id was previously passed to
// RecordTombstone.
func (s *Store) IsTombstoned(id revision.AtomID) (bool, error) {
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(tombstoneKey(id))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

// RecordLineage persists the lineage records accumulated for the cell
// named by id, overwriting any record previously stored for it.
func (s *Store) RecordLineage(id revision.AtomID, records []cell.LineageRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("latticestore: encoding lineage for %s: %w", id, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(lineageKey(id), data)
	})
}

// Lineage returns the lineage records previously stored for id, or nil if
// none were ever recorded.
func (s *Store) Lineage(id revision.AtomID) ([]cell.LineageRecord, error) {
	var records []cell.LineageRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(lineageKey(id))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &records)
		})
	})
	return records, err
}

// RunGC reclaims space in badger's value log once it is at least
// discardRatio stale. Safe to call on an idle store; returns
// badger.ErrNoRewrite (swallowed) when there is nothing to reclaim.
func (s *Store) RunGC(discardRatio float64) error {
	err := s.db.RunValueLogGC(discardRatio)
	if err == badger.ErrNoRewrite {
		return nil
	}
	return err
}
