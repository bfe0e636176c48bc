package primitive

import (
	"crypto/cipher"
	"crypto/hmac"
	"fmt"
	"hash"
	"strings"

	"github.com/aead/cmac"

	"github.com/icodeguard/icodeguard/internal/errs"
)

// KeyEngine classifies which keying discipline a selected primitive uses.
type KeyEngine int

const (
	// EngineUnkeyed means the primitive takes no key at all.
	EngineUnkeyed KeyEngine = iota
	// EngineHMAC means the primitive is HMAC over a named hash.
	EngineHMAC
	// EngineCMAC means the primitive is CMAC over a named block cipher.
	EngineCMAC
)

const hmacPrefix = "hmac-"
const cmacPrefix = "cmac-"

// defaultUnkeyed is used when the caller passes an empty algorithm name.
const defaultUnkeyed = "streebog256"

// Select resolves an algorithm name to a ready-to-use Facade: an
// "hmac-<name>" name picks the HMAC engine over the named hash, a
// "cmac-<name>" name picks the CMAC engine over the named block cipher, and
// anything else is looked up as an unkeyed hash. A name requiring a key
// engine with no key material present is an error the caller surfaces as
// errs.KeyUsage.
func Select(algorithmName string) (*Facade, KeyEngine, error) {
	name := algorithmName
	if name == "" {
		name = defaultUnkeyed
	}

	switch {
	case strings.HasPrefix(name, hmacPrefix):
		inner := strings.TrimPrefix(name, hmacPrefix)
		ent, ok := hmacHashes[inner]
		if !ok {
			return nil, EngineHMAC, errs.New(errs.KeyUsage, fmt.Sprintf("unknown hmac hash %q", inner))
		}
		return &Facade{
			tagSize:   ent.tagSize,
			methodOID: name,
			newHash:   ent.factory,
			keyed:     true,
		}, EngineHMAC, nil

	case strings.HasPrefix(name, cmacPrefix):
		inner := strings.TrimPrefix(name, cmacPrefix)
		ent, ok := cmacCiphers[inner]
		if !ok {
			return nil, EngineCMAC, errs.New(errs.KeyUsage, fmt.Sprintf("unknown cmac cipher %q", inner))
		}
		return &Facade{
			tagSize:   ent.tagSize,
			methodOID: name,
			newBlock:  ent.factory,
			keySize:   ent.keySize,
		}, EngineCMAC, nil

	default:
		ent, ok := unkeyedHashes[name]
		if !ok {
			return nil, EngineUnkeyed, errs.New(errs.KeyUsage, fmt.Sprintf("unknown algorithm %q", name))
		}
		return &Facade{
			tagSize:   ent.tagSize,
			methodOID: name,
			newHash:   ent.factory,
		}, EngineUnkeyed, nil
	}
}

// KeyLen reports the key length a selected engine expects: the inner
// hash's output size for HMAC, or the block cipher's native key size for
// CMAC. Unkeyed engines expect no key and report 0.
func (f *Facade) KeyLen() int {
	switch {
	case f.newBlock != nil:
		return f.keySize
	case f.keyed:
		return f.tagSize
	default:
		return 0
	}
}

func newHMAC(newHash hashFactory, key []byte) hash.Hash {
	return hmac.New(newHash, key)
}

func newCMAC(block cipher.Block) (hash.Hash, error) {
	h, err := cmac.New(block)
	if err != nil {
		return nil, errs.Wrap(errs.KeyUsage, err, "constructing cmac")
	}
	return h, nil
}
