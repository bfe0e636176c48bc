// Package elfseg implements the ELF segment analyzer: it enumerates the
// loadable, non-writable PT_LOAD segments of an ELF file and produces a
// synthetic per-segment database key.
package elfseg

import (
	"debug/elf"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/icodeguard/icodeguard/internal/errs"
)

// Segment describes one loadable, non-writable PT_LOAD program header,
// ready for keying and hashing.
type Segment struct {
	ID     string // "<path>/<hex8(p_offset)>"
	Offset uint64 // p_offset
	Size   uint64 // p_filesz
}

// IsELF reports whether path parses as an ELF object. A failure to open or
// parse is reported as "not ELF" rather than an error: callers fall back to
// whole-file handling for any file that isn't a recognizable ELF image.
func IsELF(path string) bool {
	f, err := elf.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// Segments enumerates every loadable, non-writable PT_LOAD segment of the
// ELF file at path, in program-header order.
func Segments(path string) ([]Segment, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.OpenFile, err, fmt.Sprintf("open elf %s", path))
	}
	defer f.Close()

	var out []Segment
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		if prog.Flags&elf.PF_W != 0 {
			continue
		}
		out = append(out, Segment{
			ID:     fmt.Sprintf("%s/%08x", path, prog.Off),
			Offset: prog.Off,
			Size:   prog.Filesz,
		})
	}
	return out, nil
}

// ReadOnlyMap memory-maps [offset, offset+size) of the file at path as a
// read-only private mapping and hands the bytes to fn; the mapping is torn
// down before ReadOnlyMap returns, scoping it to one segment computation.
func ReadOnlyMap(path string, offset, size uint64, fn func([]byte) error) error {
	if size == 0 {
		return fn(nil)
	}

	f, err := os.Open(path)
	if err != nil {
		return errs.Wrap(errs.OpenFile, err, fmt.Sprintf("open %s for mmap", path))
	}
	defer f.Close()

	m, err := mmap.MapRegion(f, int(size), mmap.RDONLY, 0, int64(offset))
	if err != nil {
		return errs.Wrap(errs.MmapFile, err, fmt.Sprintf("mmap %s at offset %d", path, offset))
	}
	defer m.Unmap()

	return fn([]byte(m))
}
