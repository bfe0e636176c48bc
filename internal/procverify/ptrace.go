//go:build unix

package procverify

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/icodeguard/icodeguard/internal/errs"
	"github.com/icodeguard/icodeguard/internal/primitive"
)

// readLiveMemory attaches to pid via ptrace, reads length bytes starting at
// start from /proc/<pid>/mem in chunks of at most readChunk bytes, feeding
// each chunk through the incremental clean/update/finalize API, and
// detaches before returning. Attach is always matched by detach, including
// on every error path.
func readLiveMemory(facade *primitive.Facade, key []byte, pid int, start, length uint64) ([]byte, error) {
	if err := unix.PtraceAttach(pid); err != nil {
		return nil, errs.Wrap(errs.AccessFile, err, fmt.Sprintf("ptrace attach pid %d", pid))
	}
	defer unix.PtraceDetach(pid)

	var status unix.WaitStatus
	if _, err := unix.Wait4(pid, &status, 0, nil); err != nil {
		return nil, errs.Wrap(errs.AccessFile, err, fmt.Sprintf("wait4 pid %d", pid))
	}

	mem, err := os.Open(fmt.Sprintf("/proc/%d/mem", pid))
	if err != nil {
		return nil, errs.Wrap(errs.OpenFile, err, fmt.Sprintf("open /proc/%d/mem", pid))
	}
	defer mem.Close()

	if _, err := mem.Seek(int64(start), 0); err != nil {
		return nil, errs.Wrap(errs.AccessFile, err, fmt.Sprintf("seek /proc/%d/mem to %#x", pid, start))
	}

	inc, err := facade.NewIncremental(key)
	if err != nil {
		return nil, err
	}
	inc.Clean()

	buf := make([]byte, readChunk)
	var remaining = length
	for remaining > 0 {
		want := remaining
		if want > readChunk {
			want = readChunk
		}
		n, err := mem.Read(buf[:want])
		if n > 0 {
			inc.Update(buf[:n])
			remaining -= uint64(n)
		}
		if err != nil {
			return nil, errs.Wrap(errs.ReadData, err, fmt.Sprintf("read /proc/%d/mem", pid))
		}
	}

	return inc.Finalize(), nil
}
