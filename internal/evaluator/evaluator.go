// Package evaluator drives, for one entity at a time, the derived-key
// manager and primitive facade over the whole file and, when enabled, its
// ELF segments, inserting the results into the content database.
package evaluator

import (
	"fmt"
	"os"

	"github.com/icodeguard/icodeguard/internal/control"
	"github.com/icodeguard/icodeguard/internal/database"
	"github.com/icodeguard/icodeguard/internal/elfseg"
	"github.com/icodeguard/icodeguard/internal/errs"
	"github.com/icodeguard/icodeguard/internal/htable"
	"github.com/icodeguard/icodeguard/internal/kdf"
	"github.com/icodeguard/icodeguard/internal/primitive"
	"github.com/icodeguard/icodeguard/internal/stats"
)

// SegmentMode selects how ELF segment analysis participates in one run.
type SegmentMode int

const (
	// IgnoreSegments never analyzes ELF structure (the default).
	IgnoreSegments SegmentMode = iota
	// WithSegments processes the whole file AND its segments.
	WithSegments
	// OnlySegments skips whole-file hashing and processes segments only.
	OnlySegments
)

// Options configures one Evaluator run.
type Options struct {
	Facade      *primitive.Facade
	Keys        *kdf.Manager
	Controls    *control.Set
	SegmentMode SegmentMode
	Offset      int64 // fragment start, --offset
	Size        int64 // fragment length; -1 means "to EOF", --size
	// Progress, when non-nil, is invoked once per entity after it is
	// processed. It is purely observational.
	Progress func(path string)
}

// Evaluator populates a content Table by computing codes for a stream of
// entities. One Evaluator instance is single-threaded and owned by one run.
type Evaluator struct {
	opts  Options
	table *htable.Table
	stats *stats.Statistics
}

// New builds an Evaluator that inserts into table and tallies into st.
func New(table *htable.Table, st *stats.Statistics, opts Options) *Evaluator {
	if opts.Size == 0 {
		opts.Size = -1
	}
	return &Evaluator{opts: opts, table: table, stats: st}
}

// EvaluatePath computes and records the integrity code(s) for one file.
func (e *Evaluator) EvaluatePath(path string) error {
	if e.opts.Controls != nil && e.opts.Controls.IsExcludedFile(path) {
		return nil
	}
	e.stats.IncTotalFiles()

	if e.opts.SegmentMode != OnlySegments {
		if err := e.evaluateWholeFile(path); err != nil {
			e.stats.IncSkippedFiles()
			return err
		}
		e.stats.IncHashedFiles()
	}

	if e.opts.SegmentMode != IgnoreSegments {
		e.evaluateSegments(path)
	}

	if e.opts.Progress != nil {
		e.opts.Progress(path)
	}
	return nil
}

func (e *Evaluator) evaluateWholeFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errs.Wrap(errs.AccessFile, err, fmt.Sprintf("stat %s", path))
	}

	dk, err := e.opts.Keys.DeriveForEntity(path, info.Size())
	if err != nil {
		return err
	}
	defer dk.Release()

	code, err := e.opts.Facade.CodeFileRange(dk.Bytes, path, e.opts.Offset, e.opts.Size)
	if err != nil {
		return err
	}

	value := database.EntryValue{Kind: database.KindWholeFile, Code: code}
	return e.table.Add([]byte(path+"\x00"), value.Marshal())
}

// evaluateSegments runs C6 over path; a failure to analyze ELF structure or
// a single segment's code is not fatal to the entity — per-segment
// failures increment skipped_executables and processing continues.
func (e *Evaluator) evaluateSegments(path string) {
	if !elfseg.IsELF(path) {
		return
	}

	segs, err := elfseg.Segments(path)
	if err != nil {
		e.stats.IncSkippedExecutables()
		return
	}

	e.stats.IncExecutables()
	for _, seg := range segs {
		if err := e.evaluateOneSegment(path, seg); err != nil {
			e.stats.IncSkippedExecutables()
			continue
		}
		e.stats.IncSegments()
	}
}

func (e *Evaluator) evaluateOneSegment(path string, seg elfseg.Segment) error {
	dk, err := e.opts.Keys.DeriveForEntity(seg.ID, int64(seg.Size))
	if err != nil {
		return err
	}
	defer dk.Release()

	var code []byte
	mapErr := elfseg.ReadOnlyMap(path, seg.Offset, seg.Size, func(buf []byte) error {
		code, err = e.opts.Facade.CodePtr(dk.Bytes, buf)
		return err
	})
	if mapErr != nil {
		return mapErr
	}
	if err != nil {
		return err
	}

	value := database.EntryValue{Kind: database.KindSegment, Size: seg.Size, Code: code}
	return e.table.Add([]byte(seg.ID), value.Marshal())
}
