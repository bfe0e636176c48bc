package keyfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadValidKeyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "master.key")
	contents := "# comment line\nhmac-sha256\n" + "deadbeef"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}

	mat, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if mat.MethodOID != "hmac-sha256" {
		t.Fatalf("MethodOID = %q, want hmac-sha256", mat.MethodOID)
	}
	if string(mat.Key) != "\xde\xad\xbe\xef" {
		t.Fatalf("Key = %x, want deadbeef", mat.Key)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/master.key"); err == nil {
		t.Fatal("expected error for missing key file")
	}
}

func TestLoadTruncatedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "master.key")
	if err := os.WriteFile(path, []byte("hmac-sha256\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for key file missing hex key line")
	}
}

func TestLoadBadHex(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "master.key")
	if err := os.WriteFile(path, []byte("hmac-sha256\nzz\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed hex key material")
	}
}
