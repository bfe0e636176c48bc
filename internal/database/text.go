package database

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/icodeguard/icodeguard/internal/errs"
	"github.com/icodeguard/icodeguard/internal/htable"
	"github.com/icodeguard/icodeguard/internal/keypair"
)

// Format selects one of the three persistence formats.
type Format int

const (
	FormatBinary Format = iota
	FormatLinux
	FormatBSD
)

// WriteTextOptions controls the textual renderer.
type WriteTextOptions struct {
	Format       Format // FormatLinux or FormatBSD
	MethodName   string // used only by FormatBSD
	ReverseOrder bool   // reverse hex byte order in the rendering
}

// WriteText renders every entry in tbl to w in the requested textual
// format, in the table's own bucket-major, insertion-order iteration order.
func WriteText(w io.Writer, tbl *htable.Table, opts WriteTextOptions) error {
	bw := bufio.NewWriter(w)
	var failure error

	tbl.Iterate(func(p *keypair.Pair) bool {
		line := renderLine(p.Key(), p.Value(), opts)
		if _, err := bw.WriteString(line); err != nil {
			failure = errs.Wrap(errs.ReadData, err, "write database line")
			return false
		}
		return true
	})
	if failure != nil {
		return failure
	}
	if err := bw.Flush(); err != nil {
		return errs.Wrap(errs.ReadData, err, "flush database text")
	}
	return nil
}

func renderLine(key, value []byte, opts WriteTextOptions) string {
	code := value
	if opts.ReverseOrder {
		code = reversed(code)
	}
	hexCode := hex.EncodeToString(code)
	path := keyPath(key)

	if opts.Format == FormatBSD {
		method := opts.MethodName
		if method == "" {
			method = "unknown"
		}
		return fmt.Sprintf("%s (%s) = %s\n", method, path, hexCode)
	}
	return fmt.Sprintf("%s %s\n", hexCode, path)
}

// keyPath strips a trailing NUL the binary key may carry (the in-memory
// key for a whole-file entry is the NUL-terminated path string).
func keyPath(key []byte) string {
	return strings.TrimRight(string(key), "\x00")
}

func reversed(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}

// ParseLine tokenizes one line of the text database: split on "("
// first. No "(" means linux-style (hex code, then filename); "(" present
// means BSD-style (method name, filename in parens, code after "=").
func ParseLine(line string) (key []byte, value []byte, err error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil, nil, errs.New(errs.ZeroLength, "empty database line")
	}

	if idx := strings.IndexByte(line, '('); idx >= 0 {
		return parseBSDLine(line, idx)
	}
	return parseLinuxLine(line)
}

func parseLinuxLine(line string) ([]byte, []byte, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil, nil, errs.New(errs.NotEqualData, fmt.Sprintf("malformed linux-style line: %q", line))
	}
	code, err := hex.DecodeString(fields[0])
	if err != nil {
		return nil, nil, errs.Wrap(errs.NotEqualData, err, "decode hex code")
	}
	path := strings.Join(fields[1:], " ")
	return []byte(path + "\x00"), code, nil
}

func parseBSDLine(line string, openParen int) ([]byte, []byte, error) {
	closeParen := strings.LastIndexByte(line, ')')
	eq := strings.LastIndexByte(line, '=')
	if closeParen < openParen || eq < closeParen {
		return nil, nil, errs.New(errs.NotEqualData, fmt.Sprintf("malformed bsd-style line: %q", line))
	}

	path := strings.TrimSpace(line[openParen+1 : closeParen])
	hexPart := strings.TrimSpace(line[eq+1:])
	code, err := hex.DecodeString(hexPart)
	if err != nil {
		return nil, nil, errs.Wrap(errs.NotEqualData, err, "decode hex code")
	}
	return []byte(path + "\x00"), code, nil
}
