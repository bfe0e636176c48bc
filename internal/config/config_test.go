package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadControlAndOptions(t *testing.T) {
	dir := t.TempDir()
	excludeFile := filepath.Join(dir, "skip.txt")
	if err := os.WriteFile(excludeFile, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	excludeDir := filepath.Join(dir, "skipdir")
	if err := os.Mkdir(excludeDir, 0o700); err != nil {
		t.Fatal(err)
	}

	cfgPath := filepath.Join(dir, "icode.conf")
	contents := "[control]\n" +
		"path = " + dir + "\n" +
		"file = " + excludeFile + "\n" +
		excludeFile + "\n" +
		excludeDir + "\n" +
		"\n[options]\n" +
		"algorithm = sha256\n" +
		"recursive = true\n" +
		"hash-table-nodes = 64\n" +
		"bogus-key = 1\n"
	if err := os.WriteFile(cfgPath, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}

	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, format)
	}

	ctl, opts, err := Load(cfgPath, 16, warn)
	if err != nil {
		t.Fatal(err)
	}

	if len(ctl.IncludePaths) != 1 || ctl.IncludePaths[0] != dir {
		t.Fatalf("include paths = %v", ctl.IncludePaths)
	}
	if !ctl.IsExcludedFile(excludeFile) {
		t.Fatal("expected excludeFile in exclude-files set")
	}
	if !ctl.IsExcludedPath(filepath.Join(excludeDir, "nested.txt")) {
		t.Fatal("expected excludeDir to be an exclude-path root")
	}

	if opts.Algorithm != "sha256" {
		t.Fatalf("algorithm = %q, want sha256", opts.Algorithm)
	}
	if !opts.Recursive {
		t.Fatal("expected recursive = true")
	}
	if opts.HashTableNodes != 64 {
		t.Fatalf("hash-table-nodes = %d, want 64", opts.HashTableNodes)
	}
	if len(warnings) == 0 {
		t.Fatal("expected a warning for the unknown option key")
	}
}
