package htable

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/icodeguard/icodeguard/internal/errs"
	"github.com/icodeguard/icodeguard/internal/keypair"
)

// Magic is the two-byte literal that opens every binary table file.
var Magic = [2]byte{'h', 't'}

// maxFieldValue is the reader's sanity ceiling on bucket_count, entry_count,
// key_len and value_len; anything larger is rejected as WrongLength rather
// than attempted as an allocation.
const maxFieldValue = 65536

// Export writes the table to path in the binary format:
//
//	"ht" (2 bytes) | bucket_count (u64 BE)
//	per bucket: entry_count (u64 BE)
//	  per entry: key_len (u64 BE) | value_len (u64 BE) | key | value
func (t *Table) Export(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(errs.OpenFile, err, "create database file")
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := t.WriteTo(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return errs.Wrap(errs.ReadData, err, "flush database file")
	}
	return f.Sync()
}

// WriteTo serializes the table in binary form to w.
func (t *Table) WriteTo(w io.Writer) error {
	if _, err := w.Write(Magic[:]); err != nil {
		return errs.Wrap(errs.ReadData, err, "write magic")
	}
	if err := writeU64(w, uint64(len(t.buckets))); err != nil {
		return err
	}
	for _, bucket := range t.buckets {
		if err := writeU64(w, uint64(len(bucket))); err != nil {
			return err
		}
		for _, p := range bucket {
			if err := writeU64(w, uint64(len(p.Key()))); err != nil {
				return err
			}
			if err := writeU64(w, uint64(len(p.Value()))); err != nil {
				return err
			}
			if _, err := w.Write(p.Key()); err != nil {
				return errs.Wrap(errs.ReadData, err, "write key bytes")
			}
			if _, err := w.Write(p.Value()); err != nil {
				return errs.Wrap(errs.ReadData, err, "write value bytes")
			}
		}
	}
	return nil
}

// Import loads a binary table file from path into a new Table. The bucket
// count comes from the file; the hash function is the default DJBX33A.
func Import(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.OpenFile, err, "open database file")
	}
	defer f.Close()
	return ReadFrom(bufio.NewReader(f))
}

// ReadFrom parses a binary table from r.
func ReadFrom(r io.Reader) (*Table, error) {
	var magic [2]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, errs.Wrap(errs.NotEqualData, err, "read magic")
	}
	if magic != Magic {
		return nil, errs.New(errs.NotEqualData, fmt.Sprintf("bad magic: %q", magic))
	}

	bucketCount, err := readU64(r)
	if err != nil {
		return nil, err
	}
	if bucketCount > maxFieldValue {
		return nil, errs.New(errs.WrongLength, fmt.Sprintf("bucket_count too large: %d", bucketCount))
	}

	tbl := &Table{hashFn: DJBX33A}
	tbl.buckets = make([][]*keypair.Pair, int(bucketCount))

	for i := range tbl.buckets {
		entryCount, err := readU64(r)
		if err != nil {
			return nil, err
		}
		if entryCount > maxFieldValue {
			return nil, errs.New(errs.WrongLength, fmt.Sprintf("entry_count too large: %d", entryCount))
		}

		bucket := make([]*keypair.Pair, 0, entryCount)
		for j := uint64(0); j < entryCount; j++ {
			keyLen, err := readU64(r)
			if err != nil {
				return nil, err
			}
			if keyLen > maxFieldValue {
				return nil, errs.New(errs.WrongLength, fmt.Sprintf("key_len too large: %d", keyLen))
			}
			valLen, err := readU64(r)
			if err != nil {
				return nil, err
			}
			if valLen > maxFieldValue {
				return nil, errs.New(errs.WrongLength, fmt.Sprintf("value_len too large: %d", valLen))
			}

			key := make([]byte, keyLen)
			if _, err := io.ReadFull(r, key); err != nil {
				return nil, errs.Wrap(errs.NotEqualData, err, "read key bytes")
			}
			val := make([]byte, valLen)
			if _, err := io.ReadFull(r, val); err != nil {
				return nil, errs.Wrap(errs.NotEqualData, err, "read value bytes")
			}
			bucket = append(bucket, keypair.New(key, val))
			tbl.count++
		}
		tbl.buckets[i] = bucket
	}

	return tbl, nil
}

func writeU64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	if _, err := w.Write(buf[:]); err != nil {
		return errs.Wrap(errs.ReadData, err, "write u64")
	}
	return nil
}

func readU64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, errs.Wrap(errs.NotEqualData, err, "read u64")
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}
