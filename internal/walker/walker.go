// Package walker implements the file walker: it traverses a set of include
// roots, applying glob, exclude-path, and exclude-file filters, and hands
// every matching regular file to a caller-supplied callback.
package walker

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/icodeguard/icodeguard/internal/errs"
)

// DefaultPattern returns the platform-dependent default glob, matching every
// file on Unix and every file with an extension on Windows.
func DefaultPattern() string {
	if runtime.GOOS == "windows" {
		return "*.*"
	}
	return "*"
}

// Options controls one traversal.
type Options struct {
	Recursive    bool
	Pattern      string
	IncludePaths []string // directory roots, walked once each
	IncludeFiles []string // individual files, visited directly
	ExcludePaths []string // directory roots suppressed entirely
	ExcludeFiles []string // absolute paths never visited
	ExcludeLinks bool
}

// Visitor is invoked once per matching regular file with its (possibly
// relative) path. Returning an error from Visitor aborts the whole walk;
// Walk returns that error and visits no further roots.
type Visitor func(path string, info os.FileInfo) error

// Walk traverses every include root in opts, applying the glob pattern and
// exclude sets, and calls visit for each matching regular file.
func Walk(opts Options, visit Visitor) error {
	pattern := opts.Pattern
	if pattern == "" {
		pattern = DefaultPattern()
	}

	excludePaths := normalizeDirs(opts.ExcludePaths)
	excludeFiles := toAbsSet(opts.ExcludeFiles)

	for _, file := range opts.IncludeFiles {
		info, err := os.Lstat(file)
		if err != nil {
			continue
		}
		if shouldSkip(file, info, pattern, excludeFiles, nil, opts.ExcludeLinks) {
			continue
		}
		if err := visit(file, info); err != nil {
			return err
		}
	}

	for _, root := range opts.IncludePaths {
		root = trimTrailingSlash(root)
		if isExcludedRoot(root, excludePaths) {
			continue
		}
		if err := walkRoot(root, opts.Recursive, pattern, excludeFiles, excludePaths, opts.ExcludeLinks, visit); err != nil {
			return err
		}
	}

	return nil
}

func walkRoot(root string, recursive bool, pattern string, excludeFiles map[string]struct{}, excludePaths []string, excludeLinks bool, visit Visitor) error {
	info, err := os.Lstat(root)
	if err != nil {
		return errs.Wrap(errs.OpenFile, err, "stat root "+root)
	}

	if !info.IsDir() {
		if shouldSkip(root, info, pattern, excludeFiles, excludePaths, excludeLinks) {
			return nil
		}
		return visit(root, info)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return errs.Wrap(errs.AccessFile, err, "read dir "+root)
	}

	for _, entry := range entries {
		childPath := filepath.Join(root, entry.Name())

		if entry.IsDir() {
			if !recursive {
				continue
			}
			if isExcludedRoot(childPath, excludePaths) {
				continue
			}
			if err := walkRoot(childPath, recursive, pattern, excludeFiles, excludePaths, excludeLinks, visit); err != nil {
				return err
			}
			continue
		}

		childInfo, err := entry.Info()
		if err != nil {
			continue
		}
		if shouldSkip(childPath, childInfo, pattern, excludeFiles, excludePaths, excludeLinks) {
			continue
		}
		if err := visit(childPath, childInfo); err != nil {
			return err
		}
	}

	return nil
}

func shouldSkip(path string, info os.FileInfo, pattern string, excludeFiles map[string]struct{}, excludePaths []string, excludeLinks bool) bool {
	if info.IsDir() {
		return true
	}
	if excludeLinks && info.Mode()&os.ModeSymlink != 0 {
		return true
	}

	abs, err := filepath.Abs(path)
	if err == nil {
		if _, excluded := excludeFiles[abs]; excluded {
			return true
		}
	}
	if isExcludedRoot(path, excludePaths) {
		return true
	}

	matched, err := filepath.Match(pattern, filepath.Base(path))
	if err != nil || !matched {
		return true
	}
	return false
}

func isExcludedRoot(path string, excludePaths []string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	for _, excluded := range excludePaths {
		if abs == excluded || strings.HasPrefix(abs, excluded+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func normalizeDirs(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		p = trimTrailingSlash(p)
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		out = append(out, abs)
	}
	return out
}

func toAbsSet(paths []string) map[string]struct{} {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		set[abs] = struct{}{}
	}
	return set
}

func trimTrailingSlash(path string) string {
	if len(path) > 1 && strings.HasSuffix(path, string(filepath.Separator)) {
		return strings.TrimSuffix(path, string(filepath.Separator))
	}
	return path
}
