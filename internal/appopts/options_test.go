package appopts

import (
	"testing"

	"github.com/icodeguard/icodeguard/internal/config"
)

func TestMergeConfigFlagWins(t *testing.T) {
	o := Options{Algorithm: "sha512"}
	o.MergeConfig(config.Options{Algorithm: "sha256"})
	if o.Algorithm != "sha512" {
		t.Fatalf("Algorithm = %q, want sha512 (flag must win over config)", o.Algorithm)
	}
}

func TestMergeConfigFillsZeroValue(t *testing.T) {
	o := Options{}
	o.MergeConfig(config.Options{Algorithm: "sha256"})
	if o.Algorithm != "sha256" {
		t.Fatalf("Algorithm = %q, want sha256 from config", o.Algorithm)
	}
}

func TestParseIntArgDecimalAndHex(t *testing.T) {
	cases := []struct {
		in   string
		def  int64
		want int64
	}{
		{"", 7, 7},
		{"42", 0, 42},
		{"0x2a", 0, 42},
		{"-1", 0, -1},
	}
	for _, c := range cases {
		got, err := ParseIntArg(c.in, c.def)
		if err != nil {
			t.Fatalf("ParseIntArg(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ParseIntArg(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestResolvedDatabaseDefault(t *testing.T) {
	o := Options{}
	if o.ResolvedDatabase() != DefaultDatabasePath() {
		t.Fatalf("ResolvedDatabase() = %q, want default", o.ResolvedDatabase())
	}
	o.Database = "/tmp/custom.icodes"
	if o.ResolvedDatabase() != "/tmp/custom.icodes" {
		t.Fatalf("ResolvedDatabase() did not honor explicit value")
	}
}

func TestResolvedHashTableNodesDefault(t *testing.T) {
	o := Options{}
	if o.ResolvedHashTableNodes() != DefaultHashTableNodes {
		t.Fatalf("ResolvedHashTableNodes() = %d, want default %d", o.ResolvedHashTableNodes(), DefaultHashTableNodes)
	}
	o.HashTableNodes = 64
	if o.ResolvedHashTableNodes() != 64 {
		t.Fatalf("ResolvedHashTableNodes() did not honor explicit value")
	}
}
