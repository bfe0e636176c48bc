// Package keyfile loads the master key material consumed by --key.
// Producing or managing the key itself is out of scope; this package only
// reads the opaque key file format this repository defines and hands the
// bytes plus the declared key engine to the primitive selector. The
// underlying crypto primitives themselves remain the library's (gogost,
// crypto/*, aead/cmac), never reimplemented here.
package keyfile

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/icodeguard/icodeguard/internal/errs"
)

// Material is the parsed contents of a key file: the raw master key bytes
// and the method OID (e.g. "hmac-sha256", "cmac-aes") the file declares for
// itself, which C4's Select uses to pick the HMAC or CMAC engine.
type Material struct {
	MethodOID string
	Key       []byte
}

// Load reads a key file at path. The format is two non-empty lines: the
// first names the method OID ("hmac-sha256", "hmac-streebog256",
// "hmac-sha512", "cmac-aes", or "cmac-kuznechik"); the second is the master
// key, hex-encoded. Blank lines and lines starting with "#" are skipped.
func Load(path string) (Material, error) {
	f, err := os.Open(path)
	if err != nil {
		return Material{}, errs.Wrap(errs.OpenFile, err, fmt.Sprintf("open key file %s", path))
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return Material{}, errs.Wrap(errs.ReadData, err, "read key file")
	}
	if len(lines) < 2 {
		return Material{}, errs.New(errs.OidName, fmt.Sprintf("key file %s: expected method OID and hex key lines", path))
	}

	key, err := hex.DecodeString(lines[1])
	if err != nil {
		return Material{}, errs.Wrap(errs.OidName, err, "decode key file hex material")
	}
	if len(key) == 0 {
		return Material{}, errs.New(errs.ZeroLength, "key file: empty key material")
	}

	return Material{MethodOID: lines[0], Key: key}, nil
}
