package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"runtime"
	"slices"
	"strings"

	"github.com/facebookgo/stackerr"
)

type InputConfig struct {
	// Comma separated policy names, or "all".
	Policies string `json:"policies,omitempty"`
	Capacity int    `json:"capacity,omitempty"`
	// Synthetic access pattern; ignored when Trace is set.
	Pattern  string `json:"pattern,omitempty"`
	Trace    string `json:"trace,omitempty"` // File with one key per line.
	Length   int    `json:"length,omitempty"`
	Universe int    `json:"universe,omitempty"`
	Workers  int    `json:"workers,omitempty"`
	Seed     int64  `json:"seed,omitempty"`
	LogLevel string `json:"log-level,omitempty"`
}

func DefaultInputConfig() *InputConfig {
	return &InputConfig{
		Policies: "all",
		Capacity: 1024,
		Pattern:  "zipf",
		Length:   1 << 20,
		Universe: 1 << 16,
		Workers:  runtime.GOMAXPROCS(0),
		Seed:     1,
		LogLevel: "info",
	}
}

type Config struct {
	Policies []string
	Capacity int
	Pattern  string
	Trace    string
	Length   int
	Universe int
	Workers  int
	Seed     int64
	LogLevel slog.Level
}

const usage = `
Replays an access trace through one or more cache policies
and reports hits, misses and evictions.

Config values merge rules:
1) config file value overrides default
2) command line value overrides any
Options:
`

type Flags struct {
	ConfigPath string
	InputConfig
}

// config parses command flags, reads the config file if any,
// and returns the merged config.
func config(args []string) (*Config, error) {
	flg, err := parseFlags(args)
	if err != nil {
		return nil, err
	}
	fileConf := DefaultInputConfig()
	if flg.ConfigPath != "" {
		data, err := os.ReadFile(flg.ConfigPath)
		if err != nil {
			return nil, stackerr.Newf("Config file read error: %v", err)
		}
		if err := json.Unmarshal(data, fileConf); err != nil {
			return nil, stackerr.Newf("Config parse error: %v", err)
		}
	}
	merge(fileConf, &flg.InputConfig)
	return parseConfig(fileConf)
}

func parseFlags(args []string) (Flags, error) {
	var (
		f   Flags
		set = flag.NewFlagSet("tinylfu-sim", flag.ContinueOnError)
		def = DefaultInputConfig()
	)
	set.Usage = func() {
		fmt.Fprintf(set.Output(), "Usage of %s:\n%s", set.Name(), usage)
		set.PrintDefaults()
	}
	describe := func(usage string, defVal any) string {
		if _, ok := defVal.(string); ok {
			return usage + fmt.Sprintf(" (default %q)", defVal)
		}
		return usage + fmt.Sprintf(" (default %v)", defVal)
	}
	set.StringVar(&f.ConfigPath, "config", "", "path to json config")
	set.StringVar(&f.Policies, "policies", "", describe("policies to compare: "+strings.Join(policyNames(), ", ")+" or all", def.Policies))
	set.IntVar(&f.Capacity, "capacity", 0, describe("maximum entries per cache", def.Capacity))
	set.StringVar(&f.Pattern, "pattern", "", describe("synthetic pattern: "+strings.Join(patternNames(), ", "), def.Pattern))
	set.StringVar(&f.Trace, "trace", "", "trace file with one key per line; overrides -pattern")
	set.IntVar(&f.Length, "length", 0, describe("synthetic trace length", def.Length))
	set.IntVar(&f.Universe, "universe", 0, describe("distinct keys of the synthetic trace", def.Universe))
	set.IntVar(&f.Workers, "workers", 0, describe("concurrent replaying goroutines", def.Workers))
	set.Int64Var(&f.Seed, "seed", 0, describe("synthetic trace seed", def.Seed))
	set.StringVar(&f.LogLevel, "log-level", "", describe("log level: debug, info, warn, error", def.LogLevel))
	if err := set.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return f, err
		}
		return f, stackerr.Wrap(err)
	}
	return f, nil
}

// merge overwrites each field of def
// that is set to a non-zero value in override.
func merge(def, override *InputConfig) {
	var (
		defVal      = reflect.ValueOf(def).Elem()
		overrideVal = reflect.ValueOf(override).Elem()
	)
	for i := range defVal.NumField() {
		if field := overrideVal.Field(i); !field.IsZero() {
			defVal.Field(i).Set(field)
		}
	}
}

func parseConfig(in *InputConfig) (*Config, error) {
	parsed := &Config{
		Capacity: in.Capacity,
		Pattern:  in.Pattern,
		Trace:    in.Trace,
		Length:   in.Length,
		Universe: in.Universe,
		Workers:  in.Workers,
		Seed:     in.Seed,
	}
	var err error
	if parsed.Policies, err = parsePolicies(in.Policies); err != nil {
		return nil, err
	}
	if err := parsed.LogLevel.UnmarshalText([]byte(in.LogLevel)); err != nil {
		return nil, stackerr.Newf("Log level parse error: %v", err)
	}
	switch {
	case parsed.Capacity < 1:
		return nil, stackerr.Newf("Capacity must be positive, got %d.", parsed.Capacity)
	case parsed.Workers < 1:
		return nil, stackerr.Newf("Workers must be positive, got %d.", parsed.Workers)
	}
	if parsed.Trace != "" {
		return parsed, nil
	}
	if _, ok := patterns[parsed.Pattern]; !ok {
		return nil, stackerr.Newf("Unknown pattern %q.", parsed.Pattern)
	}
	if parsed.Length < 1 || parsed.Universe < 1 {
		return nil, stackerr.Newf("Length and universe must be positive, got %d and %d.",
			parsed.Length, parsed.Universe)
	}
	return parsed, nil
}

func parsePolicies(list string) ([]string, error) {
	if strings.TrimSpace(list) == "all" {
		return policyNames(), nil
	}
	var names []string
	for name := range strings.SplitSeq(list, ",") {
		name = strings.TrimSpace(name)
		if _, ok := policies[name]; !ok {
			return nil, stackerr.Newf("Unknown policy %q.", name)
		}
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, stackerr.New("No policies selected.")
	}
	return names, nil
}
