//go:build !unix

package procverify

import (
	"github.com/icodeguard/icodeguard/internal/errs"
	"github.com/icodeguard/icodeguard/internal/primitive"
)

// readLiveMemory has no implementation outside UNIX: process memory
// verification depends on ptrace, which is UNIX-only.
func readLiveMemory(facade *primitive.Facade, key []byte, pid int, start, length uint64) ([]byte, error) {
	return nil, errs.New(errs.AccessFile, "process verification is only supported on unix")
}
