// Package kdf implements the per-entity derived-key manager: given the
// master key and a leaf entity label, it produces a subkey scoped to that
// one entity's computation and tracks the block-cipher resource counter
// long CMAC runs need.
package kdf

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Mode selects how DeriveForEntity behaves.
type Mode int

const (
	// ModeUnkeyed means there is no master key; the caller's handle IS the
	// working key and DeriveForEntity returns it unchanged.
	ModeUnkeyed Mode = iota
	// ModeHMAC derives an HMAC key per entity.
	ModeHMAC
	// ModeCMAC derives a block-cipher key per entity and tracks its
	// resource counter.
	ModeCMAC
)

// TagWidth selects the HKDF output width: a 256-bit or 512-bit tag.
type TagWidth int

const (
	Tag256 TagWidth = 32
	Tag512 TagWidth = 64
)

// Resource holds the block budget of a single derived CMAC key for one
// entity's computation. DeriveForEntity raises it to floor(fileSize/tagSize)
// when the key is derived; it is never lowered, and blocks actually
// processed are not counted against it.
type Resource struct {
	counter uint64
}

// Counter returns the current resource counter value.
func (r *Resource) Counter() uint64 {
	if r == nil {
		return 0
	}
	return r.counter
}

func (r *Resource) raiseTo(blocks uint64) {
	if blocks > r.counter {
		r.counter = blocks
	}
}

// DerivedKey is the per-entity subkey returned by Manager.DeriveForEntity.
// Its lifetime is the duration of one entity's computation; callers MUST
// call Release before moving on to the next entity.
type DerivedKey struct {
	Bytes    []byte
	Resource *Resource // non-nil only in ModeCMAC
}

// Release zeroizes the key material. Safe to call on a nil *DerivedKey.
func (k *DerivedKey) Release() {
	if k == nil {
		return
	}
	for i := range k.Bytes {
		k.Bytes[i] = 0
	}
}

// Manager derives per-entity subkeys from a master key.
type Manager struct {
	master   []byte
	mode     Mode
	keyLen   int
	tagSize  int
	width    TagWidth
	noDerive bool
}

// NewManager builds a Manager. keyLen is the byte length the derived key
// must have (the HMAC engine's hash size, or the CMAC cipher's native key
// size). tagSize is the primitive's output width, used only to compute the
// CMAC resource counter (floor(fileSize/tagSize)).
func NewManager(master []byte, mode Mode, keyLen, tagSize int, width TagWidth, noDerive bool) *Manager {
	return &Manager{
		master:   master,
		mode:     mode,
		keyLen:   keyLen,
		tagSize:  tagSize,
		width:    width,
		noDerive: noDerive,
	}
}

// DeriveForEntity computes the working key for leaf entity label L, given
// the entity's on-disk size (used only for the CMAC resource counter; pass
// 0 for non-file entities).
func (m *Manager) DeriveForEntity(label string, fileSize int64) (*DerivedKey, error) {
	if m.mode == ModeUnkeyed {
		return &DerivedKey{Bytes: m.master}, nil
	}

	var keyBytes []byte
	if m.noDerive {
		keyBytes = append([]byte(nil), m.master...)
	} else {
		derived, err := m.hkdfExpand(label)
		if err != nil {
			return nil, fmt.Errorf("deriving key for %q: %w", label, err)
		}
		keyBytes = derived
	}

	dk := &DerivedKey{Bytes: keyBytes}
	if m.mode == ModeCMAC {
		dk.Resource = &Resource{}
		if m.tagSize > 0 && fileSize > 0 {
			dk.Resource.raiseTo(uint64(fileSize) / uint64(m.tagSize))
		}
	}
	return dk, nil
}

// hkdfExpand computes k' = KDF_HMAC(master, label=L, seed=empty, tag=width)
// using HKDF-Extract-then-Expand with an empty salt, then truncates/derives
// exactly keyLen bytes for the target engine.
func (m *Manager) hkdfExpand(label string) ([]byte, error) {
	newHash := sha256.New
	if m.width == Tag512 {
		newHash = sha512.New
	}

	reader := hkdf.New(newHash, m.master, nil, []byte(label))
	out := make([]byte, m.keyLen)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, err
	}
	return out, nil
}
