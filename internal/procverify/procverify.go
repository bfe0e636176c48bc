// Package procverify implements the process verifier (UNIX only): it
// parses /proc/<pid>/maps, attaches to the target via ptrace, reads live
// memory pages, and checks them against codes recorded in the content
// database under the ELF synthetic segment-id scheme.
//
// The walker state that an iterative C implementation would keep as
// file-scope globals (rp_counter, old_name) is owned here by one
// *walkState per call to VerifyPID, not by the package.
package procverify

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/icodeguard/icodeguard/internal/control"
	"github.com/icodeguard/icodeguard/internal/database"
	"github.com/icodeguard/icodeguard/internal/elfseg"
	"github.com/icodeguard/icodeguard/internal/errs"
	"github.com/icodeguard/icodeguard/internal/htable"
	"github.com/icodeguard/icodeguard/internal/kdf"
	"github.com/icodeguard/icodeguard/internal/primitive"
	"github.com/icodeguard/icodeguard/internal/stats"
)

// readChunk bounds every /proc/<pid>/mem read to at most this many bytes.
const readChunk = 4096

// MemAddr is one parsed /proc/<pid>/maps line's address range and file
// offset.
type MemAddr struct {
	Start  uint64
	End    uint64
	Offset uint64
	Perms  string
	Path   string
}

// Logger receives one human-readable line per segment outcome requiring
// attention.
type Logger func(format string, args ...any)

// Options configures one process-verifier run.
type Options struct {
	Facade   *primitive.Facade
	Keys     *kdf.Manager
	Controls *control.Set
	Log      Logger
}

// Verifier drives C10 over a loaded content Table.
type Verifier struct {
	table *htable.Table
	stats *stats.Statistics
	opts  Options
}

// New builds a process Verifier over table, tallying into st.
func New(table *htable.Table, st *stats.Statistics, opts Options) *Verifier {
	if opts.Log == nil {
		opts.Log = func(string, ...any) {}
	}
	return &Verifier{table: table, stats: st, opts: opts}
}

// walkState owns the per-call mutable state that replaces what would
// otherwise be file-scope globals: the one-shot duplicate-mapping counter
// and the name of the most recently seen mapped file.
type walkState struct {
	rpCounter int
	lastName  string
}

// VerifyPIDRange verifies every numeric /proc subdirectory in [minPID,
// maxPID], excluding the caller's own PID.
func (v *Verifier) VerifyPIDRange(minPID, maxPID int) error {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return errs.Wrap(errs.AccessFile, err, "read /proc")
	}
	self := os.Getpid()
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		if pid == self || pid < minPID || pid > maxPID {
			continue
		}
		v.VerifyPID(pid)
	}
	return nil
}

// VerifyPID verifies every readable, non-writable mapped segment for one PID.
func (v *Verifier) VerifyPID(pid int) {
	v.stats.IncProcesses()

	info, err := os.Stat(fmt.Sprintf("/proc/%d", pid))
	if err != nil || !info.IsDir() {
		v.stats.IncSkippedProcesses()
		return
	}

	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		v.stats.IncSkippedProcesses()
		return
	}
	defer f.Close()

	st := &walkState{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		mem, ok := parseMapsLine(scanner.Text())
		if !ok {
			continue
		}
		v.verifySegmentMapping(pid, mem, st)
	}
}

// parseMapsLine parses one "start-end perms p_offset major:minor inode path"
// line. Lines for the null page or without a backing path are rejected.
func parseMapsLine(line string) (MemAddr, bool) {
	fields := strings.Fields(line)
	if len(fields) < 6 {
		return MemAddr{}, false
	}

	addrRange := strings.SplitN(fields[0], "-", 2)
	if len(addrRange) != 2 {
		return MemAddr{}, false
	}
	start, err := strconv.ParseUint(addrRange[0], 16, 64)
	if err != nil {
		return MemAddr{}, false
	}
	end, err := strconv.ParseUint(addrRange[1], 16, 64)
	if err != nil {
		return MemAddr{}, false
	}
	if start == 0 && end == 0 {
		return MemAddr{}, false
	}

	offset, err := strconv.ParseUint(fields[2], 16, 64)
	if err != nil {
		return MemAddr{}, false
	}

	path := strings.Join(fields[5:], " ")
	if path == "" {
		return MemAddr{}, false
	}

	return MemAddr{Start: start, End: end, Offset: offset, Perms: fields[1], Path: path}, true
}

// verifySegmentMapping applies the verification rules to one parsed mapping.
func (v *Verifier) verifySegmentMapping(pid int, mem MemAddr, st *walkState) {
	// Bracketed pseudo-files ([heap], [stack], [vdso], ...) are currently
	// skipped.
	if strings.HasPrefix(mem.Path, "[") {
		return
	}

	// Writable segments are always skipped.
	if strings.Contains(mem.Perms, "w") {
		return
	}
	// Unreadable segments are skipped too, adjusting rpCounter.
	if len(mem.Perms) == 0 || mem.Perms[0] != 'r' {
		st.rpCounter = 0
		return
	}

	// Duplicate-mapping heuristic over consecutive readable private
	// mappings ("r--p" or "r-xp") of the same file: the first mapping of a
	// file resets the counter, and each further consecutive one bumps it;
	// every even count (the third, fifth, ... mapping) is suppressed. The
	// counter restarts whenever the file changes, so it can misbehave when
	// mappings of different files interleave. The state lives in st, one
	// per VerifyPID call.
	if mem.Perms == "r--p" || mem.Perms == "r-xp" {
		if mem.Path == st.lastName {
			st.rpCounter++
			if st.rpCounter%2 == 0 {
				return
			}
		} else {
			st.rpCounter = 0
		}
	}
	st.lastName = mem.Path

	v.stats.IncSegments()

	if v.opts.Controls != nil && v.opts.Controls.IsExcludedLink(mem.Path) {
		v.stats.IncSkippedLinks()
		return
	}

	if _, err := os.Stat(mem.Path); err != nil {
		v.stats.IncSkippedSegments()
		v.opts.Log("segment %s of pid %d has been modified", mem.Path, pid)
		return
	}

	label, expected, length, err := v.expectedCode(mem)
	if err != nil {
		v.stats.IncSkippedSegments()
		v.opts.Log("segment %s of pid %d has been modified", mem.Path, pid)
		return
	}

	dk, err := v.opts.Keys.DeriveForEntity(label, 0)
	if err != nil {
		v.stats.IncSkippedSegments()
		v.opts.Log("segment %s of pid %d has been modified", mem.Path, pid)
		return
	}
	defer dk.Release()

	actual, err := readLiveMemory(v.opts.Facade, dk.Bytes, pid, mem.Start, length)
	if err != nil || !bytes.Equal(actual, expected) {
		v.stats.IncSkippedSegments()
		v.opts.Log("segment %s of pid %d has been modified", mem.Path, pid)
		return
	}
}

// expectedCode resolves the expected integrity code, its derived-key label
// and the number of live bytes to check for one mapping: ELF files key by
// synthetic segment id (length from the 8-byte prefix); non-ELF files key
// by path, recomputing on-disk if the mapping offset is nonzero, and check
// the whole mapping.
func (v *Verifier) expectedCode(mem MemAddr) (label string, code []byte, length uint64, err error) {
	length = mem.End - mem.Start
	if elfseg.IsELF(mem.Path) {
		segID := fmt.Sprintf("%s/%08x", mem.Path, mem.Offset)
		raw := v.table.Get([]byte(segID))
		if raw == nil {
			return "", nil, 0, errs.New(errs.HTableKeyNotFound, "no segment entry for "+segID)
		}
		entry, err := database.UnmarshalEntryValue(v.opts.Facade.TagSize(), raw)
		if err != nil {
			return "", nil, 0, err
		}
		return segID, entry.Code, entry.Size, nil
	}

	raw := v.table.Get([]byte(mem.Path + "\x00"))
	if raw == nil {
		return "", nil, 0, errs.New(errs.HTableKeyNotFound, "no entry for "+mem.Path)
	}
	if mem.Offset == 0 {
		return mem.Path, raw, length, nil
	}

	dk, err := v.opts.Keys.DeriveForEntity(mem.Path, 0)
	if err != nil {
		return "", nil, 0, err
	}
	defer dk.Release()
	onDisk, err := v.opts.Facade.CodeFileRange(dk.Bytes, mem.Path, int64(mem.Offset), int64(length))
	if err != nil {
		return "", nil, 0, err
	}
	return mem.Path, onDisk, length, nil
}
