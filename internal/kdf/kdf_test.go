package kdf

import (
	"bytes"
	"testing"
)

func TestUnkeyedReturnsMasterVerbatim(t *testing.T) {
	master := []byte("unkeyed-handle")
	m := NewManager(master, ModeUnkeyed, 0, 0, Tag256, false)

	dk, err := m.DeriveForEntity("/tmp/a.txt", 1024)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dk.Bytes, master) {
		t.Fatalf("unkeyed key = %q, want master verbatim", dk.Bytes)
	}
}

func TestNoDeriveUsesMasterForEveryEntity(t *testing.T) {
	master := bytes.Repeat([]byte{0x42}, 32)
	m := NewManager(master, ModeHMAC, 32, 32, Tag256, true)

	a, err := m.DeriveForEntity("/tmp/a.txt", 0)
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.DeriveForEntity("/tmp/b.txt", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes, master) || !bytes.Equal(b.Bytes, master) {
		t.Fatal("no-derive mode must hand back the master key verbatim")
	}
}

func TestDerivedKeysDifferPerLabel(t *testing.T) {
	master := bytes.Repeat([]byte{0x11}, 32)
	m := NewManager(master, ModeHMAC, 32, 32, Tag256, false)

	a, err := m.DeriveForEntity("/tmp/a.txt", 0)
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.DeriveForEntity("/tmp/b.txt", 0)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a.Bytes, b.Bytes) {
		t.Fatal("derived keys for distinct labels must differ")
	}
	if len(a.Bytes) != 32 {
		t.Fatalf("derived key length = %d, want 32", len(a.Bytes))
	}

	again, err := m.DeriveForEntity("/tmp/a.txt", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes, again.Bytes) {
		t.Fatal("derivation must be deterministic for the same label")
	}
}

func TestCMACResourceCounterTracksFileSize(t *testing.T) {
	master := bytes.Repeat([]byte{0x77}, 32)
	tagSize := 16
	m := NewManager(master, ModeCMAC, 32, tagSize, Tag256, false)

	const fileSize = 1600 // 100 blocks of 16 bytes
	dk, err := m.DeriveForEntity("/bin/ls", fileSize)
	if err != nil {
		t.Fatal(err)
	}
	wantBlocks := uint64(fileSize / tagSize)
	if dk.Resource.Counter() < wantBlocks {
		t.Fatalf("resource counter = %d, want >= %d", dk.Resource.Counter(), wantBlocks)
	}
}

func TestReleaseZeroizes(t *testing.T) {
	dk := &DerivedKey{Bytes: []byte{1, 2, 3, 4}}
	dk.Release()
	for _, b := range dk.Bytes {
		if b != 0 {
			t.Fatal("Release must zero every byte")
		}
	}
}
