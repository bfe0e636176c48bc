package verify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/icodeguard/icodeguard/internal/database"
	"github.com/icodeguard/icodeguard/internal/htable"
	"github.com/icodeguard/icodeguard/internal/kdf"
	"github.com/icodeguard/icodeguard/internal/primitive"
	"github.com/icodeguard/icodeguard/internal/stats"
	"github.com/icodeguard/icodeguard/internal/walker"
)

func newFacade(t *testing.T) *primitive.Facade {
	t.Helper()
	f, _, err := primitive.Select("sha256")
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func buildTable(t *testing.T, facade *primitive.Facade, keys *kdf.Manager, path string) *htable.Table {
	t.Helper()
	tbl, _ := htable.Create(16)
	dk, err := keys.DeriveForEntity(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	code, err := facade.CodeFile(dk.Bytes, path)
	if err != nil {
		t.Fatal(err)
	}
	value := database.EntryValue{Kind: database.KindWholeFile, Code: code}
	if err := tbl.Add([]byte(path+"\x00"), value.Marshal()); err != nil {
		t.Fatal(err)
	}
	return tbl
}

func TestVerifyChangeDetection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}

	facade := newFacade(t)
	keys := kdf.NewManager(nil, kdf.ModeUnkeyed, 0, facade.TagSize(), kdf.Tag256, true)
	tbl := buildTable(t, facade, keys, path)

	if err := os.WriteFile(path, []byte("hellO"), 0o600); err != nil {
		t.Fatal(err)
	}

	st := &stats.Statistics{}
	v := New(tbl, st, Options{Facade: facade, Keys: keys})
	v.VerifyFromDatabase()

	if st.ChangedFiles() != 1 {
		t.Fatalf("changed = %d, want 1", st.ChangedFiles())
	}
	if st.HashedFiles() != 0 {
		t.Fatalf("hashed = %d, want 0", st.HashedFiles())
	}
	if st.DeletedFiles() != 0 {
		t.Fatalf("deleted = %d, want 0", st.DeletedFiles())
	}
	if !st.VerifyExitNonZero() {
		t.Fatal("expected nonzero verify exit")
	}
}

func TestVerifyDeletionWithSearchDeleted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}

	facade := newFacade(t)
	keys := kdf.NewManager(nil, kdf.ModeUnkeyed, 0, facade.TagSize(), kdf.Tag256, true)
	tbl := buildTable(t, facade, keys, path)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	st := &stats.Statistics{}
	v := New(tbl, st, Options{Facade: facade, Keys: keys, SearchDeleted: true})
	if err := v.VerifyFromDirectory(walker.Options{IncludePaths: []string{dir}}); err != nil {
		t.Fatal(err)
	}

	if st.DeletedFiles() != 1 {
		t.Fatalf("deleted = %d, want 1", st.DeletedFiles())
	}
}

func TestVerifyDeletionWithoutSearchDeleted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}

	facade := newFacade(t)
	keys := kdf.NewManager(nil, kdf.ModeUnkeyed, 0, facade.TagSize(), kdf.Tag256, true)
	tbl := buildTable(t, facade, keys, path)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	st := &stats.Statistics{}
	v := New(tbl, st, Options{Facade: facade, Keys: keys, SearchDeleted: false})
	if err := v.VerifyFromDirectory(walker.Options{IncludePaths: []string{dir}}); err != nil {
		t.Fatal(err)
	}
	if st.DeletedFiles() != 0 {
		t.Fatalf("deleted without search-deleted = %d, want 0", st.DeletedFiles())
	}
}
