package evaluator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/icodeguard/icodeguard/internal/control"
	"github.com/icodeguard/icodeguard/internal/database"
	"github.com/icodeguard/icodeguard/internal/htable"
	"github.com/icodeguard/icodeguard/internal/kdf"
	"github.com/icodeguard/icodeguard/internal/primitive"
	"github.com/icodeguard/icodeguard/internal/stats"
)

func newFacade(t *testing.T) *primitive.Facade {
	t.Helper()
	f, _, err := primitive.Select("sha256")
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestEvaluatePathWholeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}

	facade := newFacade(t)
	keys := kdf.NewManager(nil, kdf.ModeUnkeyed, 0, facade.TagSize(), kdf.Tag256, true)
	tbl, err := htable.Create(16)
	if err != nil {
		t.Fatal(err)
	}
	st := &stats.Statistics{}

	var progressed []string
	e := New(tbl, st, Options{
		Facade:      facade,
		Keys:        keys,
		SegmentMode: IgnoreSegments,
		Progress:    func(p string) { progressed = append(progressed, p) },
	})

	if err := e.EvaluatePath(path); err != nil {
		t.Fatal(err)
	}
	if st.TotalFiles() != 1 {
		t.Fatalf("total files = %d, want 1", st.TotalFiles())
	}
	if st.HashedFiles() != 1 {
		t.Fatalf("hashed files = %d, want 1", st.HashedFiles())
	}
	if len(progressed) != 1 || progressed[0] != path {
		t.Fatalf("progress callback = %v", progressed)
	}

	raw := tbl.Get([]byte(path + "\x00"))
	if raw == nil {
		t.Fatal("expected entry in table")
	}
	entry, err := database.UnmarshalEntryValue(facade.TagSize(), raw)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Kind != database.KindWholeFile {
		t.Fatalf("kind = %v, want KindWholeFile", entry.Kind)
	}
}

func TestEvaluatePathSkipsExcluded(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}

	facade := newFacade(t)
	keys := kdf.NewManager(nil, kdf.ModeUnkeyed, 0, facade.TagSize(), kdf.Tag256, true)
	tbl, err := htable.Create(16)
	if err != nil {
		t.Fatal(err)
	}
	st := &stats.Statistics{}

	ctl := control.New(16)
	ctl.AddExcludeFile(path)

	e := New(tbl, st, Options{Facade: facade, Keys: keys, Controls: ctl})
	if err := e.EvaluatePath(path); err != nil {
		t.Fatal(err)
	}
	if st.TotalFiles() != 0 {
		t.Fatalf("total files = %d, want 0 for excluded entity", st.TotalFiles())
	}
	if tbl.Get([]byte(path+"\x00")) != nil {
		t.Fatal("excluded file should not be inserted")
	}
}

func TestEvaluatePathMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.txt")

	facade := newFacade(t)
	keys := kdf.NewManager(nil, kdf.ModeUnkeyed, 0, facade.TagSize(), kdf.Tag256, true)
	tbl, err := htable.Create(16)
	if err != nil {
		t.Fatal(err)
	}
	st := &stats.Statistics{}

	e := New(tbl, st, Options{Facade: facade, Keys: keys})
	if err := e.EvaluatePath(path); err == nil {
		t.Fatal("expected error for missing file")
	}
	if st.SkippedFiles() != 1 {
		t.Fatalf("skipped files = %d, want 1", st.SkippedFiles())
	}
}
