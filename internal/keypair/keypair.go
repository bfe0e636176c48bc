// Package keypair defines the immutable (key, value) tuple stored by the
// content database's hash table.
package keypair

import "bytes"

// Pair is an immutable (key, value) tuple. It is allocated as a single
// contiguous buffer with the key at offset 0 and the value at offset
// len(key), mirroring the single-buffer layout the on-disk format uses.
type Pair struct {
	buf    []byte
	keyLen int
}

// New builds a Pair from key and value, copying both so the caller's slices
// can be reused or mutated afterward.
func New(key, value []byte) *Pair {
	buf := make([]byte, len(key)+len(value))
	copy(buf, key)
	copy(buf[len(key):], value)
	return &Pair{buf: buf, keyLen: len(key)}
}

// Key returns the key portion of the pair. The returned slice must not be
// mutated by the caller.
func (p *Pair) Key() []byte {
	return p.buf[:p.keyLen]
}

// Value returns the value portion of the pair. The returned slice must not
// be mutated by the caller.
func (p *Pair) Value() []byte {
	return p.buf[p.keyLen:]
}

// KeyEquals reports whether the pair's key is byte-identical to k.
func (p *Pair) KeyEquals(k []byte) bool {
	return bytes.Equal(p.Key(), k)
}
