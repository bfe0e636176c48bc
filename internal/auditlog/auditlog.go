// Package auditlog implements the audit/log sink: one structured line per
// per-entity failure, plus a summary record at the end of a run, built on
// go.uber.org/zap.
package auditlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log wraps a zap.SugaredLogger with the handful of call sites the
// evaluator, verifiers and CLI layer need: one line per entity outcome at
// the appropriate level, and a final structured summary.
type Log struct {
	sugar *zap.SugaredLogger
	quiet bool
}

// New builds a Log writing human-readable lines to stderr. quiet suppresses
// the summary record (--dont-show-stat) but never the per-entity lines.
func New(quiet bool) (*Log, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = ""
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Log{sugar: logger.Sugar(), quiet: quiet}, nil
}

// Sync flushes any buffered log entries. Call once before process exit.
func (l *Log) Sync() {
	_ = l.sugar.Sync()
}

// EntityFailed logs one stderr line for an entity that could not be
// processed (permission error, truncated read, missing file).
func (l *Log) EntityFailed(path string, err error) {
	l.sugar.Warnw("entity failed", "path", path, "error", err)
}

// ConfigWarn logs a recoverable configuration problem (unknown config key,
// unresolvable exclude entry) that gets logged and ignored rather than
// aborting the run.
func (l *Log) ConfigWarn(format string, args ...any) {
	l.sugar.Warnf(format, args...)
}

// Line logs a preformatted outcome line verbatim, for call sites (the
// file-system and process verifiers' Logger callbacks) that already render
// their own "%s is lost"/"%s has been modified" message.
func (l *Log) Line(format string, args ...any) {
	l.sugar.Warnf(format, args...)
}

// Summary is the end-of-run structured record printed unless
// --quiet/--dont-show-stat was given.
type Summary struct {
	TotalFiles         int64
	HashedFiles        int64
	SkippedFiles       int64
	DeletedFiles       int64
	ChangedFiles       int64
	NewFiles           int64
	Executables        int64
	SkippedExecutables int64
	SkippedLinks       int64
	Processes          int64
	SkippedProcesses   int64
	Segments           int64
	SkippedSegments    int64
}

// Emit writes the summary record unless the log was built with quiet=true.
func (l *Log) Emit(s Summary) {
	if l.quiet {
		return
	}
	l.sugar.Infow("run summary",
		"total_files", s.TotalFiles,
		"hashed_files", s.HashedFiles,
		"skipped_files", s.SkippedFiles,
		"deleted_files", s.DeletedFiles,
		"changed_files", s.ChangedFiles,
		"new_files", s.NewFiles,
		"executables", s.Executables,
		"skipped_executables", s.SkippedExecutables,
		"skipped_links", s.SkippedLinks,
		"processes", s.Processes,
		"skipped_processes", s.SkippedProcesses,
		"segments", s.Segments,
		"skipped_segments", s.SkippedSegments,
	)
}
