// Package cli implements the CLI surface: a cobra command tree exposing
// the full flag set for computing, verifying, listing and cleaning a
// content database.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/icodeguard/icodeguard/internal/app"
	"github.com/icodeguard/icodeguard/internal/appopts"
	"github.com/icodeguard/icodeguard/internal/auditlog"
	"github.com/icodeguard/icodeguard/internal/config"
	"github.com/icodeguard/icodeguard/internal/interactive"
	"github.com/icodeguard/icodeguard/internal/walker"
)

const appVersion = "1.0.0"

// CLI holds the cobra root command and the flag variables its one "icode"
// subcommand populates.
type CLI struct {
	rootCmd *cobra.Command
	opts    appopts.Options
}

// NewCLI builds the command tree.
func NewCLI() *CLI {
	c := &CLI{}
	c.setupCommands()
	return c
}

// Execute runs the CLI against os.Args.
func (c *CLI) Execute() error {
	return c.rootCmd.Execute()
}

func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:     "icodeguard",
		Short:   "File and process integrity verification engine",
		Long:    "icodeguard computes and verifies cryptographic integrity codes over files, file fragments, ELF loadable segments, and live process memory.",
		Version: appVersion,
	}

	icode := &cobra.Command{
		Use:   "icode [paths...]",
		Short: "Compute or verify integrity codes",
		RunE:  c.runIcode,
	}

	flags := icode.Flags()
	flags.StringVarP(&c.opts.Algorithm, "algorithm", "a", "", "unkeyed hash algorithm name")
	flags.StringVar(&c.opts.KeyFile, "key", "", "master key file path")
	flags.StringVarP(&c.opts.ConfigFile, "config", "c", "", "config file path")
	flags.StringVarP(&c.opts.Database, "database", "d", "", "database file path")
	flags.StringVarP(&c.opts.Database, "input", "i", "", "database file path (alias of --database)")
	flags.StringVarP(&c.opts.Database, "output", "o", "", "database file path (alias of --database)")
	flags.StringVar(&c.opts.Format, "format", "", "persistence format: binary|linux|bsd")
	flags.BoolVar(&c.opts.Tag, "tag", false, "force bsd output format")
	flags.BoolVarP(&c.opts.Recursive, "recursive", "r", false, "recurse into subdirectories")
	flags.StringVarP(&c.opts.Pattern, "pattern", "p", "", "file name glob pattern")
	flags.StringArrayVarP(&c.opts.Exclude, "exclude", "e", nil, "exclude a path or file")
	flags.StringArrayVar(&c.opts.ExcludeLinks, "exclude-link", nil, "suppress this path when reached via a process map")
	flags.IntVar(&c.opts.HashTableNodes, "hash-table-nodes", 0, "hash table bucket count [16,4096]")
	flags.BoolVar(&c.opts.NoDerive, "no-derive", false, "disable per-entity key derivation")
	flags.BoolVar(&c.opts.ReverseOrder, "reverse-order", false, "reverse hex byte order in text output")
	flags.BoolVar(&c.opts.WithSegments, "with-segments", false, "process whole files and ELF segments")
	flags.BoolVar(&c.opts.OnlySegments, "only-segments", false, "process ELF segments only")
	flags.IntVar(&c.opts.PID, "pid", 0, "verify a single live process")
	flags.IntVar(&c.opts.OnlyOnePID, "only-one-pid", 0, "verify exactly one pid, nothing else")
	flags.IntVar(&c.opts.MinPID, "min-pid", 0, "lower bound of the pid range to verify")
	flags.IntVar(&c.opts.MaxPID, "max-pid", 0, "upper bound of the pid range to verify")
	flags.StringVar(&c.opts.Offset, "offset", "", "fragment start within each file (decimal or 0x-hex)")
	flags.StringVar(&c.opts.Size, "size", "", "fragment length; -1 means to EOF")
	flags.BoolVar(&c.opts.SearchDeleted, "search-deleted", false, "flag residual database entries as deleted")
	flags.BoolVar(&c.opts.Add, "add", false, "load the database, append new computations, save")
	flags.BoolVarP(&c.opts.List, "list", "l", false, "print the loaded database to stdout")
	flags.BoolVarP(&c.opts.Verify, "verify", "v", false, "verification mode")
	flags.BoolVar(&c.opts.Clean, "clean", false, "remove the default database file")
	flags.BoolVarP(&c.opts.NoDatabase, "no-database", "n", false, "suppress database save")
	flags.BoolVar(&c.opts.DontShowIcode, "dont-show-icode", false, "suppress the progress bar")
	flags.BoolVar(&c.opts.DontShowStat, "dont-show-stat", false, "suppress the summary block")
	flags.BoolVar(&c.opts.Interactive, "interactive", false, "use the interactive file picker instead of positional arguments")

	c.rootCmd.AddCommand(icode)
}

func (c *CLI) runIcode(cmd *cobra.Command, args []string) error {
	if c.opts.ConfigFile != "" {
		warnLog, err := auditlog.New(false)
		if err != nil {
			return err
		}
		ctl, co, err := config.Load(c.opts.ConfigFile, appopts.DefaultHashTableNodes, warnLog.ConfigWarn)
		if err != nil {
			return err
		}
		c.opts.MergeConfig(co)
		c.opts.Paths = append(c.opts.Paths, ctl.IncludePaths...)
		c.opts.Files = append(c.opts.Files, ctl.IncludeFiles...)
		c.opts.Exclude = append(c.opts.Exclude, ctl.ExcludePathRoots()...)
		c.opts.Exclude = append(c.opts.Exclude, ctl.ExcludeFilePaths()...)
	}

	for _, a := range args {
		info, err := os.Stat(a)
		if err == nil && info.IsDir() {
			c.opts.Paths = append(c.opts.Paths, a)
		} else {
			c.opts.Files = append(c.opts.Files, a)
		}
	}

	log, err := auditlog.New(c.opts.DontShowStat)
	if err != nil {
		return err
	}
	defer log.Sync()

	if c.opts.Interactive {
		if err := c.runInteractive(); err != nil {
			return err
		}
	}

	a := app.New(c.opts, log)

	switch {
	case c.opts.Clean:
		err = a.Clean()
	case c.opts.List:
		err = a.List()
	case c.opts.Verify:
		err = a.Verify()
	default:
		err = a.Compute()
	}
	if err != nil {
		return err
	}

	st := a.Stats()
	log.Emit(auditlog.Summary{
		TotalFiles:         st.TotalFiles(),
		HashedFiles:        st.HashedFiles(),
		SkippedFiles:       st.SkippedFiles(),
		DeletedFiles:       st.DeletedFiles(),
		ChangedFiles:       st.ChangedFiles(),
		NewFiles:           st.NewFiles(),
		Executables:        st.Executables(),
		SkippedExecutables: st.SkippedExecutables(),
		SkippedLinks:       st.SkippedLinks(),
		Processes:          st.Processes(),
		SkippedProcesses:   st.SkippedProcesses(),
		Segments:           st.Segments(),
		SkippedSegments:    st.SkippedSegments(),
	})

	var exitNonZero bool
	if c.opts.Verify {
		exitNonZero = st.VerifyExitNonZero()
	} else if !c.opts.List && !c.opts.Clean {
		exitNonZero = st.EvaluateExitNonZero()
	}
	if exitNonZero {
		return fmt.Errorf("integrity check reported issues")
	}
	return nil
}

// runInteractive drives C14 over the positional-path-or-current-directory
// candidate set, appending the user's selection onto c.opts.Files so the
// same evaluator/verifier entry points run regardless of how files were
// chosen.
func (c *CLI) runInteractive() error {
	roots := c.opts.Paths
	if len(roots) == 0 {
		roots = []string{"."}
	}

	var candidates []string
	err := walker.Walk(walker.Options{
		Recursive:    c.opts.Recursive,
		Pattern:      c.opts.Pattern,
		IncludePaths: roots,
		IncludeFiles: c.opts.Files,
	}, func(path string, _ os.FileInfo) error {
		candidates = append(candidates, path)
		return nil
	})
	if err != nil {
		return err
	}

	picker := interactive.New()
	picker.Clear()
	sel, err := picker.Run(candidates)
	if err != nil {
		return err
	}

	switch sel.Mode {
	case interactive.ModeVerify:
		c.opts.Verify = true
	case interactive.ModeList:
		c.opts.List = true
	}
	c.opts.Paths = nil
	c.opts.Files = sel.Files
	return nil
}
