// Package progressui implements the console progress reporter: a
// schollz/progressbar-backed bar ticked once per entity processed by the
// evaluator during a compute run.
package progressui

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Bar wraps a progressbar.ProgressBar scoped to one evaluate/verify run.
type Bar struct {
	bar       *progressbar.ProgressBar
	startTime time.Time
}

// New builds a Bar over total entities, labeled by description. Pass
// io.Discard as w to suppress all output (--dont-show-icode).
func New(total int, description string, w io.Writer) *Bar {
	bar := progressbar.NewOptions(
		total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &Bar{bar: bar, startTime: time.Now()}
}

// Tick advances the bar by one entity. It matches the evaluator/verifier
// Progress callback signature, ignoring the path argument.
func (b *Bar) Tick(string) {
	_ = b.bar.Add(1)
}

// Finish completes the bar, printing a trailing newline.
func (b *Bar) Finish() {
	_ = b.bar.Finish()
}

// Elapsed returns the time since the bar was created.
func (b *Bar) Elapsed() time.Duration {
	return time.Since(b.startTime)
}
