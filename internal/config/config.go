// Package config implements the config file reader: an INI-style file of
// section [control] (path/file/exclude/exclude-link plus unnamed
// filesystem-typed entries) and section [options] (long-form flag names),
// read with gopkg.in/ini.v1 and merged onto a CLI-built Options value.
package config

import (
	"os"

	"gopkg.in/ini.v1"

	"github.com/icodeguard/icodeguard/internal/control"
	"github.com/icodeguard/icodeguard/internal/errs"
)

// Warner receives one line per unknown config key: such keys are logged
// and ignored rather than aborting the load. The CLI wires this to the
// audit log.
type Warner func(format string, args ...any)

// Options mirrors the long-form flag surface that a config file's
// [options] section may set. Zero values mean "not set by the config
// file"; the CLI layer applies flag values over these so an explicit flag
// always wins.
type Options struct {
	Algorithm      string
	Key            string
	Database       string
	Format         string
	Tag            bool
	Recursive      bool
	Pattern        string
	HashTableNodes int
	NoDerive       bool
	ReverseOrder   bool
	WithSegments   bool
	OnlySegments   bool
	SearchDeleted  bool
	Add            bool
	List           bool
	Verify         bool
	Clean          bool
	NoDatabase     bool
	DontShowIcode  bool
	DontShowStat   bool
}

// knownOptionKeys lists every [options] key this reader recognizes; any
// other key is warned about and ignored.
var knownOptionKeys = map[string]bool{
	"algorithm": true, "key": true, "database": true, "format": true,
	"tag": true, "recursive": true, "pattern": true, "hash-table-nodes": true,
	"no-derive": true, "reverse-order": true, "with-segments": true,
	"only-segments": true, "search-deleted": true, "add": true, "list": true,
	"verify": true, "clean": true, "no-database": true,
	"dont-show-icode": true, "dont-show-stat": true,
}

// Load parses the INI file at path into a ControlSet and an Options
// overlay, warning via warn about any key it does not recognize.
func Load(path string, buckets int, warn Warner) (*control.Set, Options, error) {
	if warn == nil {
		warn = func(string, ...any) {}
	}

	// AllowBooleanKeys lets a bodiless line ("/some/path" with no "=value")
	// load as a key whose name is the line itself, which is how unnamed
	// [control] entries are recognized.
	f, err := ini.LoadSources(ini.LoadOptions{AllowBooleanKeys: true}, path)
	if err != nil {
		return nil, Options{}, errs.Wrap(errs.OpenFile, err, "open config "+path)
	}

	ctl := control.New(buckets)
	if sec, err := f.GetSection("control"); err == nil {
		loadControl(sec, ctl, warn)
	}

	var opts Options
	if sec, err := f.GetSection("options"); err == nil {
		loadOptions(sec, &opts, warn)
	}

	return ctl, opts, nil
}

func loadControl(sec *ini.Section, ctl *control.Set, warn Warner) {
	for _, key := range sec.Keys() {
		name := key.Name()
		switch name {
		case "path":
			ctl.IncludePaths = append(ctl.IncludePaths, key.String())
		case "file":
			ctl.IncludeFiles = append(ctl.IncludeFiles, key.String())
		case "exclude":
			dispatchExclude(ctl, key.String(), warn)
		case "exclude-link":
			ctl.AddExcludeLink(key.String())
		default:
			// Unnamed entries (INI keys with no "=" dispatch to ini.v1's
			// positional key name) are classified by filesystem type.
			dispatchExclude(ctl, name, warn)
		}
	}
}

// dispatchExclude classifies path by os.Stat and routes it to the matching
// exclude set: unnamed keys dispatch by filesystem type.
func dispatchExclude(ctl *control.Set, path string, warn Warner) {
	info, err := os.Stat(path)
	if err != nil {
		warn("config: cannot stat exclude entry %q: %v", path, err)
		return
	}
	if info.IsDir() {
		ctl.AddExcludePath(path)
	} else {
		ctl.AddExcludeFile(path)
	}
}

func loadOptions(sec *ini.Section, opts *Options, warn Warner) {
	for _, key := range sec.Keys() {
		name := key.Name()
		if !knownOptionKeys[name] {
			warn("config: unknown option key %q ignored", name)
			continue
		}
		switch name {
		case "algorithm":
			opts.Algorithm = key.String()
		case "key":
			opts.Key = key.String()
		case "database":
			opts.Database = key.String()
		case "format":
			opts.Format = key.String()
		case "tag":
			opts.Tag = key.MustBool(true)
		case "recursive":
			opts.Recursive = key.MustBool(true)
		case "pattern":
			opts.Pattern = key.String()
		case "hash-table-nodes":
			opts.HashTableNodes = key.MustInt(0)
		case "no-derive":
			opts.NoDerive = key.MustBool(true)
		case "reverse-order":
			opts.ReverseOrder = key.MustBool(true)
		case "with-segments":
			opts.WithSegments = key.MustBool(true)
		case "only-segments":
			opts.OnlySegments = key.MustBool(true)
		case "search-deleted":
			opts.SearchDeleted = key.MustBool(true)
		case "add":
			opts.Add = key.MustBool(true)
		case "list":
			opts.List = key.MustBool(true)
		case "verify":
			opts.Verify = key.MustBool(true)
		case "clean":
			opts.Clean = key.MustBool(true)
		case "no-database":
			opts.NoDatabase = key.MustBool(true)
		case "dont-show-icode":
			opts.DontShowIcode = key.MustBool(true)
		case "dont-show-stat":
			opts.DontShowStat = key.MustBool(true)
		}
	}
}
