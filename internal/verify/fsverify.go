// Package verify implements the file-system verifier: it re-computes
// integrity codes and compares them against entries loaded from the
// content database, detecting changed, deleted and new files.
package verify

import (
	"bytes"
	"os"

	"github.com/icodeguard/icodeguard/internal/htable"
	"github.com/icodeguard/icodeguard/internal/kdf"
	"github.com/icodeguard/icodeguard/internal/keypair"
	"github.com/icodeguard/icodeguard/internal/primitive"
	"github.com/icodeguard/icodeguard/internal/stats"
	"github.com/icodeguard/icodeguard/internal/walker"
)

// Logger receives one human-readable line per outcome requiring attention:
// one stderr line per entity failure.
type Logger func(format string, args ...any)

// Options configures one verifier run.
type Options struct {
	Facade        *primitive.Facade
	Keys          *kdf.Manager
	Offset        int64
	Size          int64
	SearchDeleted bool
	Log           Logger
}

// Verifier drives file-system verification over a loaded content Table.
type Verifier struct {
	table *htable.Table
	stats *stats.Statistics
	opts  Options
}

// New builds a Verifier over table, tallying into st.
func New(table *htable.Table, st *stats.Statistics, opts Options) *Verifier {
	if opts.Size == 0 {
		opts.Size = -1
	}
	if opts.Log == nil {
		opts.Log = func(string, ...any) {}
	}
	return &Verifier{table: table, stats: st, opts: opts}
}

// VerifyFromDatabase iterates every whole-file entry in the table (value
// length == tag_size) and recomputes it. Segment entries (value length ==
// tag_size+8) are left for the process verifier and skipped here.
func (v *Verifier) VerifyFromDatabase() {
	tagSize := v.opts.Facade.TagSize()

	var pairs []*keypair.Pair
	v.table.Iterate(func(p *keypair.Pair) bool {
		pairs = append(pairs, p)
		return true
	})

	for _, p := range pairs {
		if len(p.Value()) != tagSize {
			continue // segment entry, handled by process verification
		}
		v.verifyOne(trimNUL(p.Key()), p.Value())
	}
}

func (v *Verifier) verifyOne(path string, expected []byte) {
	code, err := v.recompute(path)
	if err != nil {
		v.stats.IncDeletedFiles()
		v.opts.Log("%s is lost", path)
		return
	}
	if !bytes.Equal(code, expected) {
		v.stats.IncChangedFiles()
		v.opts.Log("%s has been modified", path)
		return
	}
	v.stats.IncHashedFiles()
}

func (v *Verifier) recompute(path string) ([]byte, error) {
	dk, err := v.opts.Keys.DeriveForEntity(path, 0)
	if err != nil {
		return nil, err
	}
	defer dk.Release()
	return v.opts.Facade.CodeFileRange(dk.Bytes, path, v.opts.Offset, v.opts.Size)
}

// VerifyFromDirectory traverses the given include roots/files, excluding
// each discovered entry from the table
// (destructive removal) and recomputing its code. Entries missing from the
// database are counted as new; if SearchDeleted is set, whatever remains in
// the table after the walk (restricted to whole-file entries) is reported
// deleted.
func (v *Verifier) VerifyFromDirectory(opts walker.Options) error {
	err := walker.Walk(opts, func(path string, _ os.FileInfo) error {
		v.verifyDiscovered(path)
		return nil
	})
	if err != nil {
		return err
	}

	if v.opts.SearchDeleted {
		v.reportResidualDeleted()
	}
	return nil
}

func (v *Verifier) verifyDiscovered(path string) {
	key := []byte(path + "\x00")
	pair, err := v.table.Exclude(key)
	if err != nil {
		v.stats.IncNewFiles()
		v.opts.Log("%s is new", path)
		return
	}
	v.verifyOne(path, pair.Value())
}

func (v *Verifier) reportResidualDeleted() {
	tagSize := v.opts.Facade.TagSize()
	var residual []*keypair.Pair
	v.table.Iterate(func(p *keypair.Pair) bool {
		residual = append(residual, p)
		return true
	})
	for _, p := range residual {
		if len(p.Value()) != tagSize {
			continue
		}
		v.stats.IncDeletedFiles()
		v.opts.Log("%s is lost", trimNUL(p.Key()))
	}
}

func trimNUL(key []byte) string {
	s := string(key)
	if n := len(s); n > 0 && s[n-1] == 0 {
		return s[:n-1]
	}
	return s
}
