package primitive

import (
	"encoding/binary"
	"hash"
)

// CRC-64/ECMA-182: MSB-first (non-reflected), polynomial
// 0x42F0E1EBA9EA3693, zero init, no final complement. Not the same
// algorithm as stdlib hash/crc64, which is reflected with pre/post
// complement (CRC-64/XZ) and produces a different check value.
const crc64Poly = 0x42F0E1EBA9EA3693

var crc64Table [256]uint64

func init() {
	for i := range crc64Table {
		crc := uint64(i) << 56
		for j := 0; j < 8; j++ {
			if crc&(1<<63) != 0 {
				crc = crc<<1 ^ crc64Poly
			} else {
				crc <<= 1
			}
		}
		crc64Table[i] = crc
	}
}

type crc64Hash struct {
	sum uint64
}

func newCRC64() hash.Hash {
	return &crc64Hash{}
}

func (h *crc64Hash) Write(p []byte) (int, error) {
	s := h.sum
	for _, b := range p {
		s = s<<8 ^ crc64Table[byte(s>>56)^b]
	}
	h.sum = s
	return len(p), nil
}

func (h *crc64Hash) Sum(b []byte) []byte {
	var out [8]byte
	binary.BigEndian.PutUint64(out[:], h.sum)
	return append(b, out[:]...)
}

func (h *crc64Hash) Reset() { h.sum = 0 }

func (h *crc64Hash) Size() int { return 8 }

func (h *crc64Hash) BlockSize() int { return 1 }
