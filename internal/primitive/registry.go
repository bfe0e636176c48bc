package primitive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"go.cypherpunks.ru/gogost/v5/gost3412128"
	"go.cypherpunks.ru/gogost/v5/gost34112012256"
	"go.cypherpunks.ru/gogost/v5/gost34112012512"
)

// hashFactory constructs a fresh, zero-state hash.Hash for one entity's
// computation. Factories are kept in a registry rather than shared
// instances because hash.Hash is not safe for concurrent reuse across
// entities and the evaluator always wants a clean start.
type hashFactory func() hash.Hash

// blockFactory constructs a cipher.Block bound to a key, for the CMAC path.
type blockFactory func(key []byte) (cipher.Block, error)

// unkeyedHashes are the hash primitives selectable by --algorithm when no
// key file is present.
var unkeyedHashes = map[string]struct {
	factory hashFactory
	tagSize int
}{
	"streebog256": {gost34112012256.New, 32},
	"streebog512": {gost34112012512.New, 64},
	"sha256":      {sha256.New, sha256.Size},
	"sha512":      {sha512.New, sha512.Size},
	"crc64":       {newCRC64, 8},
}

// hmacHashes are the hash primitives usable as the inner hash of an HMAC
// engine, keyed off a "hmac-<name>" method OID.
var hmacHashes = map[string]struct {
	factory hashFactory
	tagSize int
}{
	"streebog256": {gost34112012256.New, 32},
	"streebog512": {gost34112012512.New, 64},
	"sha256":      {sha256.New, sha256.Size},
	"sha512":      {sha512.New, sha512.Size},
}

// cmacCiphers are the block ciphers usable under CMAC, keyed off a
// "cmac-<name>" method OID. tagSize is the cipher's block size (the CMAC
// output width); keySize is the cipher's native key length, which differs
// from the block size for kuznechik.
var cmacCiphers = map[string]struct {
	factory blockFactory
	tagSize int
	keySize int
}{
	"kuznechik": {
		// gogost's constructor panics on a bad key length instead of
		// returning an error the way crypto/aes does.
		func(key []byte) (cipher.Block, error) { return gost3412128.NewCipher(key), nil },
		gost3412128.BlockSize,
		gost3412128.KeySize,
	},
	"aes": {
		func(key []byte) (cipher.Block, error) { return aes.NewCipher(key) },
		aes.BlockSize,
		16,
	},
}
