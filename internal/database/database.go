package database

import (
	"bufio"
	"os"

	"github.com/icodeguard/icodeguard/internal/errs"
	"github.com/icodeguard/icodeguard/internal/htable"
	"github.com/icodeguard/icodeguard/internal/stats"
)

// recoverableOnLoad are the binary-parse failures that trigger a fallback
// to the text parser rather than aborting the load.
func recoverableOnLoad(err error) bool {
	kind, ok := errs.KindOf(err)
	if !ok {
		return false
	}
	switch kind {
	case errs.ReadData, errs.NotEqualData, errs.WrongLength, errs.OutOfMemory:
		return true
	default:
		return false
	}
}

// Load opens path and returns a Table, trying the binary format first. If
// binary parsing fails with a recognized recoverable error, the table is
// reinitialized and the file is re-read line by line as text. OpenFile,
// AccessFile and NullPointer failures are not recoverable and propagate.
func Load(path string, buckets int) (*htable.Table, error) {
	return LoadWithStats(path, buckets, nil)
}

// LoadWithStats is Load with per-line accounting: during a text-format
// fallback every non-empty line read bumps total_lines and every line that
// cannot be parsed or inserted bumps skipped_lines. st may be nil.
func LoadWithStats(path string, buckets int, st *stats.Statistics) (*htable.Table, error) {
	tbl, err := htable.Import(path)
	if err == nil {
		return tbl, nil
	}
	if !recoverableOnLoad(err) {
		return nil, err
	}
	return loadText(path, buckets, st)
}

func loadText(path string, buckets int, st *stats.Statistics) (*htable.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.OpenFile, err, "open database file for text fallback")
	}
	defer f.Close()

	tbl, err := htable.Create(buckets)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if st != nil {
			st.IncTotalLines()
		}
		key, value, err := ParseLine(line)
		if err != nil {
			if st != nil {
				st.IncSkippedLines()
			}
			continue
		}
		if addErr := tbl.Add(key, value); addErr != nil {
			if st != nil {
				st.IncSkippedLines()
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.Wrap(errs.ReadData, err, "scan database text file")
	}
	return tbl, nil
}

// SaveOptions controls Save's persistence format selection.
type SaveOptions struct {
	Format       Format
	MethodName   string // BSD method name; required when Format == FormatBSD
	ReverseOrder bool
	Tag          bool // when set, forces Format to FormatBSD
}

// Save persists tbl to path in the requested format. Setting opts.Tag
// forces BSD output regardless of opts.Format.
func Save(path string, tbl *htable.Table, opts SaveOptions) error {
	if opts.Tag {
		opts.Format = FormatBSD
	}

	if opts.Format == FormatBinary {
		return tbl.Export(path)
	}

	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(errs.OpenFile, err, "create database text file")
	}
	defer f.Close()

	if err := WriteText(f, tbl, WriteTextOptions{
		Format:       opts.Format,
		MethodName:   opts.MethodName,
		ReverseOrder: opts.ReverseOrder,
	}); err != nil {
		return err
	}
	return f.Sync()
}
