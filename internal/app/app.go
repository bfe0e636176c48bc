// Package app orchestrates one CLI invocation: it resolves options into a
// primitive facade, derived-key manager and control set, then drives the
// evaluator, file-system verifier and process verifier over a content
// database, the way a single ProcessFile entry point wires together a
// worker pipeline's stages.
package app

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/icodeguard/icodeguard/internal/appopts"
	"github.com/icodeguard/icodeguard/internal/auditlog"
	"github.com/icodeguard/icodeguard/internal/database"
	"github.com/icodeguard/icodeguard/internal/errs"
	"github.com/icodeguard/icodeguard/internal/evaluator"
	"github.com/icodeguard/icodeguard/internal/htable"
	"github.com/icodeguard/icodeguard/internal/kdf"
	"github.com/icodeguard/icodeguard/internal/keyfile"
	"github.com/icodeguard/icodeguard/internal/primitive"
	"github.com/icodeguard/icodeguard/internal/procverify"
	"github.com/icodeguard/icodeguard/internal/progressui"
	"github.com/icodeguard/icodeguard/internal/stats"
	"github.com/icodeguard/icodeguard/internal/verify"
	"github.com/icodeguard/icodeguard/internal/walker"
)

// App wires one resolved Options to the engine components and drives one
// of its four top-level operations: Compute, Verify, List, Clean.
type App struct {
	opts  appopts.Options
	log   *auditlog.Log
	stats *stats.Statistics
}

// New builds an App over already-merged options (flags over config file),
// per appopts.Options.MergeConfig.
func New(opts appopts.Options, log *auditlog.Log) *App {
	return &App{opts: opts, log: log, stats: &stats.Statistics{}}
}

// Stats exposes the run's accumulated counters, for the CLI layer's exit
// code decision and summary print.
func (a *App) Stats() *stats.Statistics {
	return a.stats
}

// buildFacadeAndKeys resolves the primitive-selection rule: a --key file
// auto-selects HMAC or CMAC per its declared method OID; otherwise
// --algorithm (or the default) selects an unkeyed hash.
func (a *App) buildFacadeAndKeys() (*primitive.Facade, *kdf.Manager, error) {
	if a.opts.KeyFile == "" {
		facade, engine, err := primitive.Select(a.opts.Algorithm)
		if err != nil {
			return nil, nil, err
		}
		if engine != primitive.EngineUnkeyed {
			return nil, nil, errs.New(errs.KeyUsage, fmt.Sprintf("algorithm %q needs a key file", a.opts.Algorithm))
		}
		mgr := kdf.NewManager(nil, kdf.ModeUnkeyed, 0, facade.TagSize(), kdf.Tag256, true)
		return facade, mgr, nil
	}

	mat, err := keyfile.Load(a.opts.KeyFile)
	if err != nil {
		return nil, nil, err
	}

	facade, engine, err := primitive.Select(mat.MethodOID)
	if err != nil {
		return nil, nil, err
	}
	if engine == primitive.EngineUnkeyed {
		return nil, nil, errs.New(errs.KeyUsage, fmt.Sprintf("key file declares unkeyed method %q", mat.MethodOID))
	}

	mode := kdf.ModeHMAC
	if engine == primitive.EngineCMAC {
		mode = kdf.ModeCMAC
	}
	width := kdf.Tag256
	if facade.KeyLen() > 32 {
		width = kdf.Tag512
	}
	mgr := kdf.NewManager(mat.Key, mode, facade.KeyLen(), facade.TagSize(), width, a.opts.NoDerive)
	return facade, mgr, nil
}

func classifyPath(path string) (isDir bool, ok bool) {
	info, err := os.Stat(path)
	if err != nil {
		return false, false
	}
	return info.IsDir(), true
}

func (a *App) walkerOptions() walker.Options {
	ctl := appopts.BuildControlSet(&a.opts, classifyPath)
	return walker.Options{
		Recursive:    a.opts.Recursive,
		Pattern:      a.opts.Pattern,
		IncludePaths: ctl.IncludePaths,
		IncludeFiles: ctl.IncludeFiles,
		ExcludePaths: ctl.ExcludePathRoots(),
		ExcludeFiles: ctl.ExcludeFilePaths(),
	}
}

func (a *App) saveOptions(facade *primitive.Facade) database.SaveOptions {
	return database.SaveOptions{
		Format:       parseFormat(a.opts.Format),
		MethodName:   facade.MethodOID(),
		ReverseOrder: a.opts.ReverseOrder,
		Tag:          a.opts.Tag,
	}
}

func parseFormat(name string) database.Format {
	switch strings.ToLower(name) {
	case "linux":
		return database.FormatLinux
	case "bsd":
		return database.FormatBSD
	default:
		return database.FormatBinary
	}
}

// Compute implements the default (non-verify, non-list) mode: walk the
// configured entities, evaluate each into a fresh (or, with --add, loaded)
// table, and save unless --no-database.
func (a *App) Compute() error {
	facade, keys, err := a.buildFacadeAndKeys()
	if err != nil {
		return err
	}

	var table *htable.Table
	if a.opts.Add {
		table, err = database.LoadWithStats(a.opts.ResolvedDatabase(), a.opts.ResolvedHashTableNodes(), a.stats)
		if err != nil {
			return err
		}
	} else {
		table, err = htable.Create(a.opts.ResolvedHashTableNodes())
		if err != nil {
			return err
		}
	}

	ctl := appopts.BuildControlSet(&a.opts, classifyPath)

	segMode := evaluator.IgnoreSegments
	switch {
	case a.opts.OnlySegments:
		segMode = evaluator.OnlySegments
	case a.opts.WithSegments:
		segMode = evaluator.WithSegments
	}

	offset, err := appopts.ParseIntArg(a.opts.Offset, 0)
	if err != nil {
		return errs.Wrap(errs.OidName, err, "parse --offset")
	}
	size, err := appopts.ParseIntArg(a.opts.Size, -1)
	if err != nil {
		return errs.Wrap(errs.OidName, err, "parse --size")
	}

	var bar *progressui.Bar
	progressWriter := io.Writer(os.Stderr)
	if a.opts.DontShowIcode {
		progressWriter = io.Discard
	}

	eval := evaluator.New(table, a.stats, evaluator.Options{
		Facade:      facade,
		Keys:        keys,
		Controls:    ctl,
		SegmentMode: segMode,
		Offset:      offset,
		Size:        size,
		Progress: func(path string) {
			if bar != nil {
				bar.Tick(path)
			}
		},
	})

	var candidates []string
	err = walker.Walk(a.walkerOptions(), func(path string, _ os.FileInfo) error {
		candidates = append(candidates, path)
		return nil
	})
	if err != nil {
		return err
	}

	bar = progressui.New(len(candidates), "hashing", progressWriter)
	for _, path := range candidates {
		if err := eval.EvaluatePath(path); err != nil {
			a.log.EntityFailed(path, err)
		}
	}
	bar.Finish()

	if !a.opts.NoDatabase {
		if err := database.Save(a.opts.ResolvedDatabase(), table, a.saveOptions(facade)); err != nil {
			return err
		}
	}
	return nil
}

// Verify implements --verify: strategy (A) when no include roots/files were
// given, strategy (B) otherwise, followed by process verification when a
// PID selector flag is present.
func (a *App) Verify() error {
	facade, keys, err := a.buildFacadeAndKeys()
	if err != nil {
		return err
	}

	table, err := database.LoadWithStats(a.opts.ResolvedDatabase(), a.opts.ResolvedHashTableNodes(), a.stats)
	if err != nil {
		return err
	}

	offset, err := appopts.ParseIntArg(a.opts.Offset, 0)
	if err != nil {
		return errs.Wrap(errs.OidName, err, "parse --offset")
	}
	size, err := appopts.ParseIntArg(a.opts.Size, -1)
	if err != nil {
		return errs.Wrap(errs.OidName, err, "parse --size")
	}

	v := verify.New(table, a.stats, verify.Options{
		Facade:        facade,
		Keys:          keys,
		Offset:        offset,
		Size:          size,
		SearchDeleted: a.opts.SearchDeleted,
		Log:           a.log.Line,
	})

	ctl := appopts.BuildControlSet(&a.opts, classifyPath)
	if len(ctl.IncludePaths) == 0 && len(ctl.IncludeFiles) == 0 {
		v.VerifyFromDatabase()
	} else if err := v.VerifyFromDirectory(a.walkerOptions()); err != nil {
		return err
	}

	if a.opts.PID != 0 || a.opts.OnlyOnePID != 0 || a.opts.MinPID != 0 || a.opts.MaxPID != 0 {
		pv := procverify.New(table, a.stats, procverify.Options{
			Facade:   facade,
			Keys:     keys,
			Controls: ctl,
			Log:      a.log.Line,
		})
		switch {
		case a.opts.OnlyOnePID != 0:
			pv.VerifyPID(a.opts.OnlyOnePID)
		case a.opts.PID != 0:
			pv.VerifyPID(a.opts.PID)
		default:
			minPID, maxPID := a.opts.MinPID, a.opts.MaxPID
			if maxPID == 0 {
				maxPID = 1 << 22
			}
			if err := pv.VerifyPIDRange(minPID, maxPID); err != nil {
				return err
			}
		}
	}

	return nil
}

// List implements --list: load the database and print it to stdout in the
// configured textual format (binary databases render as linux-style text).
func (a *App) List() error {
	facade, _, err := a.buildFacadeAndKeys()
	if err != nil {
		return err
	}

	table, err := database.LoadWithStats(a.opts.ResolvedDatabase(), a.opts.ResolvedHashTableNodes(), a.stats)
	if err != nil {
		return err
	}

	format := parseFormat(a.opts.Format)
	if format == database.FormatBinary {
		format = database.FormatLinux
	}
	return database.WriteText(os.Stdout, table, database.WriteTextOptions{
		Format:       format,
		MethodName:   facade.MethodOID(),
		ReverseOrder: a.opts.ReverseOrder,
	})
}

// Clean implements --clean: remove the configured (or default) database
// file.
func (a *App) Clean() error {
	path := a.opts.ResolvedDatabase()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.AccessFile, err, "remove database "+path)
	}
	return nil
}
