package database

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/icodeguard/icodeguard/internal/htable"
	"github.com/icodeguard/icodeguard/internal/stats"
)

func TestBinaryToTextFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.txt")
	if err := os.WriteFile(path, []byte("6c40df5f0b497347 hello.bin\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tbl, err := Load(path, 16)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tbl.Count() != 1 {
		t.Fatalf("count = %d, want 1", tbl.Count())
	}

	want := []byte{0x6c, 0x40, 0xdf, 0x5f, 0x0b, 0x49, 0x73, 0x47}
	got := tbl.Get([]byte("hello.bin\x00"))
	if !bytes.Equal(got, want) {
		t.Fatalf("value = % x, want % x", got, want)
	}
}

func TestLinuxRoundTrip(t *testing.T) {
	tbl, _ := htable.Create(16)
	_ = tbl.Add([]byte("a.txt\x00"), []byte{0xde, 0xad, 0xbe, 0xef})

	var buf bytes.Buffer
	if err := WriteText(&buf, tbl, WriteTextOptions{Format: FormatLinux}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "deadbeef a.txt\n" {
		t.Fatalf("rendered = %q", buf.String())
	}

	key, value, err := ParseLine("deadbeef a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(key) != "a.txt\x00" || !bytes.Equal(value, []byte{0xde, 0xad, 0xbe, 0xef}) {
		t.Fatalf("parsed key=%q value=% x", key, value)
	}
}

func TestBSDRoundTrip(t *testing.T) {
	tbl, _ := htable.Create(16)
	_ = tbl.Add([]byte("a.txt\x00"), []byte{0xde, 0xad, 0xbe, 0xef})

	var buf bytes.Buffer
	if err := WriteText(&buf, tbl, WriteTextOptions{Format: FormatBSD, MethodName: "sha256"}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "sha256 (a.txt) = deadbeef\n" {
		t.Fatalf("rendered = %q", buf.String())
	}

	key, value, err := ParseLine("sha256 (a.txt) = deadbeef")
	if err != nil {
		t.Fatal(err)
	}
	if string(key) != "a.txt\x00" || !bytes.Equal(value, []byte{0xde, 0xad, 0xbe, 0xef}) {
		t.Fatalf("parsed key=%q value=% x", key, value)
	}
}

func TestReverseOrder(t *testing.T) {
	tbl, _ := htable.Create(16)
	_ = tbl.Add([]byte("a.txt\x00"), []byte{0xde, 0xad, 0xbe, 0xef})

	var buf bytes.Buffer
	if err := WriteText(&buf, tbl, WriteTextOptions{Format: FormatLinux, ReverseOrder: true}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "efbeadde a.txt\n" {
		t.Fatalf("rendered = %q", buf.String())
	}
}

func TestEntryValueRoundTrip(t *testing.T) {
	code := []byte{1, 2, 3, 4}

	whole := EntryValue{Kind: KindWholeFile, Code: code}
	raw := whole.Marshal()
	if len(raw) != len(code) {
		t.Fatalf("whole-file marshal length = %d, want %d", len(raw), len(code))
	}
	parsed, err := UnmarshalEntryValue(len(code), raw)
	if err != nil || parsed.Kind != KindWholeFile || !bytes.Equal(parsed.Code, code) {
		t.Fatalf("unmarshal whole-file: %+v, err=%v", parsed, err)
	}

	seg := EntryValue{Kind: KindSegment, Size: 0x1000, Code: code}
	raw = seg.Marshal()
	if len(raw) != len(code)+8 {
		t.Fatalf("segment marshal length = %d, want %d", len(raw), len(code)+8)
	}
	parsed, err = UnmarshalEntryValue(len(code), raw)
	if err != nil || parsed.Kind != KindSegment || parsed.Size != 0x1000 || !bytes.Equal(parsed.Code, code) {
		t.Fatalf("unmarshal segment: %+v, err=%v", parsed, err)
	}
}

func TestLoadWithStatsCountsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mixed.txt")
	contents := "6c40df5f0b497347 hello.bin\n" +
		"this line is not parseable\n" +
		"deadbeef other.bin\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}

	st := &stats.Statistics{}
	tbl, err := LoadWithStats(path, 16, st)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tbl.Count() != 2 {
		t.Fatalf("count = %d, want 2", tbl.Count())
	}
	if st.TotalLines() != 3 {
		t.Fatalf("total lines = %d, want 3", st.TotalLines())
	}
	if st.SkippedLines() != 1 {
		t.Fatalf("skipped lines = %d, want 1", st.SkippedLines())
	}
}

func TestSegmentEntryValueLayout(t *testing.T) {
	code := bytes.Repeat([]byte{0xaa}, 32)
	v := EntryValue{Kind: KindSegment, Size: 0x1234, Code: code}

	raw := v.Marshal()
	if len(raw) != 32+8 {
		t.Fatalf("segment value length = %d, want tag_size+8", len(raw))
	}
	if raw[0] != 0x34 || raw[1] != 0x12 {
		t.Fatalf("length prefix = % x, want little-endian 0x1234", raw[:8])
	}

	back, err := UnmarshalEntryValue(32, raw)
	if err != nil {
		t.Fatal(err)
	}
	if back.Kind != KindSegment || back.Size != 0x1234 || !bytes.Equal(back.Code, code) {
		t.Fatalf("round-trip = %+v", back)
	}

	whole, err := UnmarshalEntryValue(32, code)
	if err != nil {
		t.Fatal(err)
	}
	if whole.Kind != KindWholeFile {
		t.Fatalf("kind = %v, want KindWholeFile for a tag_size value", whole.Kind)
	}

	if _, err := UnmarshalEntryValue(32, code[:31]); err == nil {
		t.Fatal("expected WrongLength for a value matching neither layout")
	}
}
