// Command h5features writes speech feature batches into container files.
//
// Usage:
//
//	h5features write -o out.h5f -g features [-format dense] [-chunk-size 0.1MB] input.parquet...
//	h5features inspect [-g group] file.h5f
//	h5features export-index -g group -o index.parquet file.h5f
//	h5features watch -dir inputs -o out.h5f -g features
//	h5features config-schema
//	h5features version
//
// Exit status is 0 on success, 2 when the write is rejected, 3 on
// malformed input and 1 on any other error.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"sort"
	"syscall"

	"github.com/14thibea/h5features/h5features"
	"github.com/14thibea/h5features/internal/config"
	"github.com/14thibea/h5features/internal/logging"
)

const (
	exitRuntime   = 1
	exitRejected  = 2
	exitMalformed = 3
)

type command struct {
	run   func(ctx context.Context, args []string, stdout io.Writer) error
	usage string
}

var commands = map[string]command{
	"write":         {runWrite, "write batches from input files into a group"},
	"inspect":       {runInspect, "list the groups of a file, or the files of a group"},
	"export-index":  {runExportIndex, "export the file index of a group to Parquet"},
	"watch":         {runWatch, "write every new input file of a directory"},
	"config-schema": {runConfigSchema, "print the JSON schema of the configuration file"},
	"version":       {runVersion, "print version and exit"},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := mainImpl(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "h5features: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func mainImpl(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		printUsage(os.Stderr)
		return errors.New("missing command")
	}
	cmd, ok := commands[args[0]]
	if !ok {
		printUsage(os.Stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
	err := cmd.run(ctx, args[1:], stdout)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, h5features.ErrMalformedInput):
		return exitMalformed
	case h5features.IsValidation(err):
		return exitRejected
	}
	return exitRuntime
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "usage: h5features <command> [flags] [args]")
	fmt.Fprintln(w)
	for _, name := range names {
		fmt.Fprintf(w, "  %-14s %s\n", name, commands[name].usage)
	}
}

// common holds the flags shared by commands that read the configuration.
type common struct {
	fs       *flag.FlagSet
	config   string
	logLevel string
	logJSON  bool
}

func newCommon(name string) *common {
	c := &common{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	c.fs.StringVar(&c.config, "config", "", "YAML configuration file")
	c.fs.StringVar(&c.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	c.fs.BoolVar(&c.logJSON, "log-json", false, "Log JSON records")
	return c
}

// set returns the names of the flags given on the command line.
func (c *common) set() map[string]bool {
	set := make(map[string]bool)
	c.fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// load reads the configuration, applies the logging flags and sets up
// logging. The caller applies its own flags and validates again.
func (c *common) load() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if c.config != "" {
		var err error
		if cfg, err = config.Load(c.config); err != nil {
			return nil, err
		}
	}
	set := c.set()
	if set["log-level"] {
		cfg.Log.Level = c.logLevel
	}
	if set["log-json"] {
		cfg.Log.JSON = c.logJSON
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logging.Init(level, cfg.Log.JSON)
	return cfg, nil
}

func runConfigSchema(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("config-schema", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	raw, err := config.Schema()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "%s\n", raw)
	return err
}

func runVersion(ctx context.Context, args []string, stdout io.Writer) error {
	version, goVersion, revision, dirty := getBuildInfo()
	fmt.Fprintf(stdout, "h5features %s\n", version)
	fmt.Fprintf(stdout, "  Go version:     %s\n", goVersion)
	fmt.Fprintf(stdout, "  Revision:       %s\n", revision)
	fmt.Fprintf(stdout, "  Schema version: %s\n", h5features.Version)
	if dirty {
		fmt.Fprintf(stdout, "  Modified:       true\n")
	}
	return nil
}

func getBuildInfo() (version, goVersion, revision string, dirty bool) {
	version = "unknown"
	goVersion = "unknown"
	revision = "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	version = info.Main.Version
	if version == "" || version == "(devel)" {
		version = "dev"
	}
	goVersion = info.GoVersion
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	return
}
