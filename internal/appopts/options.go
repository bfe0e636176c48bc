// Package appopts holds the unified option set the CLI (C11) and config
// reader (C12) both populate before handing it to the app orchestrator.
// Flag values win over config-file values: the CLI layer parses the flags
// first and then fills in, from config.Options, only the options the flags
// left at their zero value.
package appopts

import (
	"runtime"
	"strconv"

	"github.com/icodeguard/icodeguard/internal/config"
	"github.com/icodeguard/icodeguard/internal/control"
)

// DefaultDatabasePath is the database path used when --database/-d/--input
// /-i/--output/-o is not given: /var/tmp/aktool.icodes on POSIX, aktool.icodes
// in the current directory on Windows.
func DefaultDatabasePath() string {
	if runtime.GOOS == "windows" {
		return "aktool.icodes"
	}
	return "/var/tmp/aktool.icodes"
}

// DefaultHashTableNodes is used when --hash-table-nodes is not given.
const DefaultHashTableNodes = 1024

// Options is the complete, merged CLI/config flag surface.
type Options struct {
	Algorithm      string
	KeyFile        string
	ConfigFile     string
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

	PID        int
	OnlyOnePID int
	MinPID     int
	MaxPID     int

	Offset string // decimal or "0x..." hex
	Size   string // decimal or "0x..." hex; "-1" means to EOF

	SearchDeleted bool
	Add           bool
	List          bool
	Verify        bool
	Clean         bool
	NoDatabase    bool
	DontShowIcode bool
	DontShowStat  bool
	Interactive   bool

	Paths        []string // include roots: directory positional args and config [control] paths
	Files        []string
	Exclude      []string // paths or files, classified by os.Stat at merge time
	ExcludeLinks []string
}

// MergeConfig overlays co (parsed from a config file) onto o wherever the
// corresponding flag was left at its zero value, i.e. the flag was not
// explicitly set; boolean options are ORed. It does not touch the include
// or exclude sets: the CLI layer appends the config's [control] include
// paths and files and its exclude paths and files onto Paths, Files and
// Exclude itself. [control] exclude-link entries are not carried over.
func (o *Options) MergeConfig(co config.Options) {
	if o.Algorithm == "" {
		o.Algorithm = co.Algorithm
	}
	if o.KeyFile == "" {
		o.KeyFile = co.Key
	}
	if o.Database == "" {
		o.Database = co.Database
	}
	if o.Format == "" {
		o.Format = co.Format
	}
	if o.Pattern == "" {
		o.Pattern = co.Pattern
	}
	if o.HashTableNodes == 0 {
		o.HashTableNodes = co.HashTableNodes
	}
	o.Tag = o.Tag || co.Tag
	o.Recursive = o.Recursive || co.Recursive
	o.NoDerive = o.NoDerive || co.NoDerive
	o.ReverseOrder = o.ReverseOrder || co.ReverseOrder
	o.WithSegments = o.WithSegments || co.WithSegments
	o.OnlySegments = o.OnlySegments || co.OnlySegments
	o.SearchDeleted = o.SearchDeleted || co.SearchDeleted
	o.Add = o.Add || co.Add
	o.List = o.List || co.List
	o.Verify = o.Verify || co.Verify
	o.Clean = o.Clean || co.Clean
	o.NoDatabase = o.NoDatabase || co.NoDatabase
	o.DontShowIcode = o.DontShowIcode || co.DontShowIcode
	o.DontShowStat = o.DontShowStat || co.DontShowStat
}

// ResolvedDatabase returns the effective database path: the flag value, or
// DefaultDatabasePath() if unset.
func (o *Options) ResolvedDatabase() string {
	if o.Database != "" {
		return o.Database
	}
	return DefaultDatabasePath()
}

// ResolvedHashTableNodes returns the effective bucket count: the flag
// value, or DefaultHashTableNodes if unset. control.New/htable.Create still
// clamp the result to [16, 4096].
func (o *Options) ResolvedHashTableNodes() int {
	if o.HashTableNodes != 0 {
		return o.HashTableNodes
	}
	return DefaultHashTableNodes
}

// BuildControlSet constructs a control.Set from o's Exclude/ExcludeLinks
// flags (classified by filesystem type) plus o.Paths/o.Files as the include
// sequences.
func BuildControlSet(o *Options, classify func(path string) (isDir bool, ok bool)) *control.Set {
	ctl := control.New(o.ResolvedHashTableNodes())
	ctl.IncludePaths = append(ctl.IncludePaths, o.Paths...)
	ctl.IncludeFiles = append(ctl.IncludeFiles, o.Files...)

	for _, e := range o.Exclude {
		isDir, ok := classify(e)
		if !ok {
			continue
		}
		if isDir {
			ctl.AddExcludePath(e)
		} else {
			ctl.AddExcludeFile(e)
		}
	}
	for _, e := range o.ExcludeLinks {
		ctl.AddExcludeLink(e)
	}
	return ctl
}

// ParseIntArg parses a CLI integer argument that accepts either a decimal
// literal or a "0x"-prefixed hex literal, matching the --offset/--size flag
// grammar. An empty string parses as def.
func ParseIntArg(s string, def int64) (int64, error) {
	if s == "" {
		return def, nil
	}
	if len(s) > 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		v, err := strconv.ParseInt(s[2:], 16, 64)
		return v, err
	}
	return strconv.ParseInt(s, 10, 64)
}
