// Package stats holds the run counters updated by the evaluator and the two
// verifiers as they walk entities.
package stats

import "sync/atomic"

// Statistics accumulates counters for one evaluate or verify run. The zero
// value is ready to use. Fields are accessed through methods rather than
// directly so a future caller can observe a run from another goroutine (the
// progress reporter) without racing the single-threaded evaluator that
// mutates them.
type Statistics struct {
	totalFiles         atomic.Int64
	hashedFiles        atomic.Int64
	skippedFiles       atomic.Int64
	deletedFiles       atomic.Int64
	changedFiles       atomic.Int64
	newFiles           atomic.Int64
	executables        atomic.Int64
	skippedExecutables atomic.Int64
	skippedLinks       atomic.Int64
	processes          atomic.Int64
	skippedProcesses   atomic.Int64
	segments           atomic.Int64
	skippedSegments    atomic.Int64
	totalLines         atomic.Int64
	skippedLines       atomic.Int64
}

func (s *Statistics) IncTotalFiles()         { s.totalFiles.Add(1) }
func (s *Statistics) IncHashedFiles()        { s.hashedFiles.Add(1) }
func (s *Statistics) IncSkippedFiles()       { s.skippedFiles.Add(1) }
func (s *Statistics) IncDeletedFiles()       { s.deletedFiles.Add(1) }
func (s *Statistics) IncChangedFiles()       { s.changedFiles.Add(1) }
func (s *Statistics) IncNewFiles()           { s.newFiles.Add(1) }
func (s *Statistics) IncExecutables()        { s.executables.Add(1) }
func (s *Statistics) IncSkippedExecutables() { s.skippedExecutables.Add(1) }
func (s *Statistics) IncSkippedLinks()       { s.skippedLinks.Add(1) }
func (s *Statistics) IncProcesses()          { s.processes.Add(1) }
func (s *Statistics) IncSkippedProcesses()   { s.skippedProcesses.Add(1) }
func (s *Statistics) IncSegments()           { s.segments.Add(1) }
func (s *Statistics) IncSkippedSegments()    { s.skippedSegments.Add(1) }
func (s *Statistics) IncTotalLines()         { s.totalLines.Add(1) }
func (s *Statistics) IncSkippedLines()       { s.skippedLines.Add(1) }

func (s *Statistics) TotalFiles() int64         { return s.totalFiles.Load() }
func (s *Statistics) HashedFiles() int64        { return s.hashedFiles.Load() }
func (s *Statistics) SkippedFiles() int64       { return s.skippedFiles.Load() }
func (s *Statistics) DeletedFiles() int64       { return s.deletedFiles.Load() }
func (s *Statistics) ChangedFiles() int64       { return s.changedFiles.Load() }
func (s *Statistics) NewFiles() int64           { return s.newFiles.Load() }
func (s *Statistics) Executables() int64        { return s.executables.Load() }
func (s *Statistics) SkippedExecutables() int64 { return s.skippedExecutables.Load() }
func (s *Statistics) SkippedLinks() int64       { return s.skippedLinks.Load() }
func (s *Statistics) Processes() int64          { return s.processes.Load() }
func (s *Statistics) SkippedProcesses() int64   { return s.skippedProcesses.Load() }
func (s *Statistics) Segments() int64           { return s.segments.Load() }
func (s *Statistics) SkippedSegments() int64    { return s.skippedSegments.Load() }
func (s *Statistics) TotalLines() int64         { return s.totalLines.Load() }
func (s *Statistics) SkippedLines() int64       { return s.skippedLines.Load() }

// EvaluateExitNonZero reports whether a compute run should exit nonzero:
// skipped_files > 0.
func (s *Statistics) EvaluateExitNonZero() bool {
	return s.SkippedFiles() > 0
}

// VerifyExitNonZero reports whether a verify run should exit nonzero: any
// file skipped, modified, deleted or newly discovered.
func (s *Statistics) VerifyExitNonZero() bool {
	return s.SkippedFiles()+s.ChangedFiles()+s.DeletedFiles()+s.NewFiles() > 0
}
