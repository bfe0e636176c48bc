// Package control implements the include/exclude sets that gate which
// entities an evaluate or verify run touches. The exclude sets are
// themselves backed by the bucketed hash table, so membership checks share
// the same lookup path as the content database.
package control

import (
	"path/filepath"

	"github.com/icodeguard/icodeguard/internal/htable"
	"github.com/icodeguard/icodeguard/internal/keypair"
)

// present is the sentinel value stored for every exclude-set member; only
// membership matters, not any associated payload.
var present = []byte{1}

// Set is a ControlSet: two ordered include sequences and three hash-table
// backed exclude sets.
type Set struct {
	IncludePaths []string
	IncludeFiles []string

	excludePaths *htable.Table
	excludeFiles *htable.Table
	excludeLinks *htable.Table
}

// New builds an empty ControlSet. buckets sizes the three exclude tables,
// matching the run's configured --hash-table-nodes.
func New(buckets int) *Set {
	paths, _ := htable.Create(buckets)
	files, _ := htable.Create(buckets)
	links, _ := htable.Create(buckets)
	return &Set{excludePaths: paths, excludeFiles: files, excludeLinks: links}
}

func absOrSelf(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// AddExcludePath adds a directory root to the exclude-paths set. Membership
// suppresses any evaluation or verification under that absolute path.
func (s *Set) AddExcludePath(path string) {
	key := []byte(absOrSelf(path))
	if s.excludePaths.Get(key) == nil {
		_ = s.excludePaths.Add(key, present)
	}
}

// AddExcludeFile adds one absolute file path to the exclude-files set.
func (s *Set) AddExcludeFile(path string) {
	key := []byte(absOrSelf(path))
	if s.excludeFiles.Get(key) == nil {
		_ = s.excludeFiles.Add(key, present)
	}
}

// AddExcludeLink adds one path to the exclude-links set: suppressed only
// when reached via a process memory map (--exclude-link).
func (s *Set) AddExcludeLink(path string) {
	key := []byte(absOrSelf(path))
	if s.excludeLinks.Get(key) == nil {
		_ = s.excludeLinks.Add(key, present)
	}
}

// IsExcludedFile reports whether path's absolute form is in exclude_files.
func (s *Set) IsExcludedFile(path string) bool {
	return s.excludeFiles.Get([]byte(absOrSelf(path))) != nil
}

// IsExcludedLink reports whether path's absolute form is in exclude_links.
func (s *Set) IsExcludedLink(path string) bool {
	return s.excludeLinks.Get([]byte(absOrSelf(path))) != nil
}

// IsExcludedPath reports whether path falls under any entry of
// exclude_paths, either by exact match or as a descendant.
func (s *Set) IsExcludedPath(path string) bool {
	abs := absOrSelf(path)
	excluded := false
	s.excludePaths.Iterate(func(p *keypair.Pair) bool {
		root := string(p.Key())
		if abs == root || len(abs) > len(root) && abs[:len(root)] == root && abs[len(root)] == filepath.Separator {
			excluded = true
			return false
		}
		return true
	})
	return excluded
}

// ExcludePathRoots returns the exclude_paths set as a plain slice, for
// handing to the C5 walker's Options.ExcludePaths.
func (s *Set) ExcludePathRoots() []string {
	var out []string
	s.excludePaths.Iterate(func(p *keypair.Pair) bool {
		out = append(out, string(p.Key()))
		return true
	})
	return out
}

// ExcludeFilePaths returns the exclude_files set as a plain slice, for
// handing to the C5 walker's Options.ExcludeFiles.
func (s *Set) ExcludeFilePaths() []string {
	var out []string
	s.excludeFiles.Iterate(func(p *keypair.Pair) bool {
		out = append(out, string(p.Key()))
		return true
	})
	return out
}
