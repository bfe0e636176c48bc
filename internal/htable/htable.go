// Package htable implements the bucketed chaining hash table that backs the
// content database: a fixed number of buckets, each an ordered chain of
// key/value pairs, with a swappable key-hashing function.
package htable

import (
	"fmt"

	"github.com/icodeguard/icodeguard/internal/errs"
	"github.com/icodeguard/icodeguard/internal/keypair"
)

// HashFunc maps a key to a non-negative bucket-selection integer. The
// default is DJBX33A (djb2); tests rely on being able to swap this out for a
// deterministic stand-in.
type HashFunc func(key []byte) uint64

// MinBuckets and MaxBuckets bound the user-selectable bucket count.
const (
	MinBuckets = 16
	MaxBuckets = 4096
)

// DJBX33A is the default hash function: state0 = 5381,
// state[i+1] = state[i]*33 + byte[i].
func DJBX33A(key []byte) uint64 {
	var state uint64 = 5381
	for _, b := range key {
		state = state*33 + uint64(b)
	}
	return state
}

// Table is a bucketed chaining hash table. It is not safe for concurrent
// use: one evaluator or verifier owns a Table for the duration of one run.
type Table struct {
	buckets [][]*keypair.Pair
	hashFn  HashFunc
	count   int
}

// Create allocates a Table with n buckets, clamped to [MinBuckets,
// MaxBuckets]. On success every bucket slice is non-nil; there is no
// partially-initialized state to observe.
func Create(n int) (*Table, error) {
	if n < MinBuckets {
		n = MinBuckets
	}
	if n > MaxBuckets {
		n = MaxBuckets
	}
	t := &Table{
		buckets: make([][]*keypair.Pair, n),
		hashFn:  DJBX33A,
	}
	return t, nil
}

// SetHashFn swaps the key-hashing function. Must be called before any
// entries are added; changing it afterward would scatter existing entries
// across the wrong buckets.
func (t *Table) SetHashFn(fn HashFunc) {
	t.hashFn = fn
}

// NumBuckets returns the bucket count the table was created with.
func (t *Table) NumBuckets() int {
	return len(t.buckets)
}

// Count returns the number of entries currently stored.
func (t *Table) Count() int {
	return t.count
}

func (t *Table) bucketIndex(key []byte) int {
	return int(t.hashFn(key) % uint64(len(t.buckets)))
}

// Add inserts (key, value). Returns an HTableKeyExists error if a
// byte-identical key already lives in the target bucket; the table is left
// unchanged in that case.
func (t *Table) Add(key, value []byte) error {
	idx := t.bucketIndex(key)
	for _, p := range t.buckets[idx] {
		if p.KeyEquals(key) {
			return errs.New(errs.HTableKeyExists, fmt.Sprintf("key already exists: %q", key))
		}
	}
	t.buckets[idx] = append(t.buckets[idx], keypair.New(key, value))
	t.count++
	return nil
}

// AddStr is a convenience wrapper over Add for a string key.
func (t *Table) AddStr(key string, value []byte) error {
	return t.Add([]byte(key), value)
}

// Get returns the value for key, or nil if the key is absent.
func (t *Table) Get(key []byte) []byte {
	if p := t.GetPair(key); p != nil {
		return p.Value()
	}
	return nil
}

// GetPair returns the pair for key, or nil if the key is absent.
func (t *Table) GetPair(key []byte) *keypair.Pair {
	idx := t.bucketIndex(key)
	for _, p := range t.buckets[idx] {
		if p.KeyEquals(key) {
			return p
		}
	}
	return nil
}

// Exclude removes and returns the pair for key, transferring ownership to
// the caller. A subsequent Get for the same key returns nil. Returns an
// HTableKeyNotFound error if the key is absent.
func (t *Table) Exclude(key []byte) (*keypair.Pair, error) {
	idx := t.bucketIndex(key)
	for i, p := range t.buckets[idx] {
		if p.KeyEquals(key) {
			t.buckets[idx] = append(t.buckets[idx][:i], t.buckets[idx][i+1:]...)
			t.count--
			return p, nil
		}
	}
	return nil, errs.New(errs.HTableKeyNotFound, fmt.Sprintf("key not found: %q", key))
}

// Visitor is called once per pair during Iterate, in bucket-major,
// insertion-order-within-bucket order. Returning false stops iteration.
type Visitor func(p *keypair.Pair) bool

// Iterate walks every pair in bucket-major, insertion order.
func (t *Table) Iterate(visit Visitor) {
	for _, bucket := range t.buckets {
		for _, p := range bucket {
			if !visit(p) {
				return
			}
		}
	}
}

// Reset empties the table in place, keeping its bucket count.
func (t *Table) Reset() {
	for i := range t.buckets {
		t.buckets[i] = nil
	}
	t.count = 0
}
