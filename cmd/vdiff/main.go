// Command vdiff compares images with the vdiff shader catalog and metrics.
//
// Usage:
//
//	vdiff modes [-format text|json]
//	vdiff shader [-mode ID] [-lang wgsl|spirv|glsl|msl|hlsl] [-o FILE]
//	vdiff metrics [flags] A B
//	vdiff render [flags] -o OUT.png A B
//
// Every subcommand accepts -config FILE (YAML defaults) and -v.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/gogpu/vdiff"
)

// Exit codes.
const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

// errComparisonFailed makes run exit with exitFail without printing.
var errComparisonFailed = errors.New("comparison failed")

type command struct {
	summary string
	run     func(args []string, stdout, stderr io.Writer) error
}

var commands = map[string]command{
	"modes":   {"list comparison modes", runModes},
	"shader":  {"print a mode's shader in a target language", runShader},
	"metrics": {"compute similarity metrics for two images", runMetrics},
	"render":  {"render a mode on the GPU to a PNG file", runRender},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" || args[0] == "--help" {
		usage(stderr)
		return exitUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "vdiff: unknown command %q\n", args[0])
		usage(stderr)
		return exitUsage
	}

	err := cmd.run(args[1:], stdout, stderr)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errComparisonFailed):
		return exitFail
	case errors.Is(err, flag.ErrHelp):
		return exitUsage
	}
	fmt.Fprintf(stderr, "vdiff %s: %v\n", args[0], err)
	return exitUsage
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: vdiff <command> [flags]")
	fmt.Fprintln(w)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-8s %s\n", name, commands[name].summary)
	}
}

// common holds the flags every subcommand shares.
type common struct {
	config  string
	verbose bool
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *common) {
	fs := flag.NewFlagSet("vdiff "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	c := &common{}
	fs.StringVar(&c.config, "config", "", "YAML file with default settings")
	fs.BoolVar(&c.verbose, "v", false, "log diagnostics to stderr")
	return fs, c
}

// setup loads the config and installs the logger.
func (c *common) setup(stderr io.Writer) (*Config, error) {
	if c.verbose {
		vdiff.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}
	return loadConfig(c.config)
}

// flagSet reports whether name was given on the command line.
func flagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func logger() *slog.Logger { return vdiff.Logger() }
