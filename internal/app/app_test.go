package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/icodeguard/icodeguard/internal/appopts"
	"github.com/icodeguard/icodeguard/internal/auditlog"
)

func newTestLog(t *testing.T) *auditlog.Log {
	t.Helper()
	log, err := auditlog.New(true)
	if err != nil {
		t.Fatalf("auditlog.New: %v", err)
	}
	return log
}

// TestComputeThenVerifyDetectsChange computes a database over a directory,
// modifies one file, and verifies the change is detected with a
// nonzero-worthy outcome while everything else stays clean.
func TestComputeThenVerifyDetectsChange(t *testing.T) {
	dir := t.TempDir()
	aPath := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(aPath, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}
	dbPath := filepath.Join(dir, "db.icodes")

	computeOpts := appopts.Options{
		Algorithm: "sha256",
		Database:  dbPath,
		Paths:     []string{dir},
	}
	a := New(computeOpts, newTestLog(t))
	if err := a.Compute(); err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if a.Stats().SkippedFiles() != 0 {
		t.Fatalf("unexpected skipped files during compute: %d", a.Stats().SkippedFiles())
	}

	if err := os.WriteFile(aPath, []byte("hellO"), 0o600); err != nil {
		t.Fatal(err)
	}

	verifyOpts := appopts.Options{
		Algorithm: "sha256",
		Database:  dbPath,
	}
	v := New(verifyOpts, newTestLog(t))
	if err := v.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	st := v.Stats()
	if st.ChangedFiles() != 1 {
		t.Errorf("ChangedFiles = %d, want 1", st.ChangedFiles())
	}
	if st.HashedFiles() != 0 {
		t.Errorf("HashedFiles = %d, want 0", st.HashedFiles())
	}
	if st.DeletedFiles() != 0 {
		t.Errorf("DeletedFiles = %d, want 0", st.DeletedFiles())
	}
	if !st.VerifyExitNonZero() {
		t.Error("VerifyExitNonZero() = false, want true after a detected change")
	}
}

// TestVerifyDeletedFileWithSearchDeleted mirrors scenario 5: a file the
// database knows about is removed; --search-deleted must surface it as
// deleted only when the flag is set.
func TestVerifyDeletedFileWithSearchDeleted(t *testing.T) {
	dir := t.TempDir()
	bPath := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(bPath, []byte("bee"), 0o600); err != nil {
		t.Fatal(err)
	}
	dbPath := filepath.Join(dir, "db.icodes")

	a := New(appopts.Options{Algorithm: "sha256", Database: dbPath, Paths: []string{dir}}, newTestLog(t))
	if err := a.Compute(); err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if err := os.Remove(bPath); err != nil {
		t.Fatal(err)
	}

	withoutFlag := New(appopts.Options{
		Algorithm: "sha256", Database: dbPath, Paths: []string{dir},
	}, newTestLog(t))
	if err := withoutFlag.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got := withoutFlag.Stats().DeletedFiles(); got != 0 {
		t.Errorf("DeletedFiles without --search-deleted = %d, want 0", got)
	}

	withFlag := New(appopts.Options{
		Algorithm: "sha256", Database: dbPath, Paths: []string{dir}, SearchDeleted: true,
	}, newTestLog(t))
	if err := withFlag.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got := withFlag.Stats().DeletedFiles(); got != 1 {
		t.Errorf("DeletedFiles with --search-deleted = %d, want 1", got)
	}
	if !withFlag.Stats().VerifyExitNonZero() {
		t.Error("VerifyExitNonZero() = false, want true with a deleted file reported")
	}
}

func TestCleanRemovesDatabaseFile(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "db.icodes")
	if err := os.WriteFile(dbPath, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	a := New(appopts.Options{Database: dbPath}, newTestLog(t))
	if err := a.Clean(); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatal("expected database file to be removed")
	}

	// Clean must also be idempotent when the file is already gone.
	if err := a.Clean(); err != nil {
		t.Fatalf("Clean on missing file: %v", err)
	}
}
