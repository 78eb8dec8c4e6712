// Command redirects patches the kernel image so that calls to selected
// runtime functions are redirected to kernel implementations. Redirects are
// declared with a "//go:redirect-from SYMBOL" directive on the target
// function.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

// kernelDir is scanned for redirect directives, relative to the module root.
const kernelDir = "kernel"

var output io.Writer = os.Stdout

// scan locates the redirect directives of the module rooted at root.
func scan(root string) ([]*redirect, error) {
	modPath, err := modulePath(root)
	if err != nil {
		return nil, fmt.Errorf("this tool must be run from the module root: %w", err)
	}

	goFiles, err := collectGoFiles(root, kernelDir)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("scanning %d files of module %s", len(goFiles), modPath)

	return findRedirects(root, modPath, goFiles)
}

// countCmd implements subcommands.Command for the "count" command.
type countCmd struct{}

// Name implements subcommands.Command.Name.
func (*countCmd) Name() string { return "count" }

// Synopsis implements subcommands.Command.Synopsis.
func (*countCmd) Synopsis() string { return "print the number of redirects" }

// Usage implements subcommands.Command.Usage.
func (*countCmd) Usage() string {
	return "count - print the number of redirect entries to reserve in the image\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (*countCmd) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*countCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	redirects, err := scan(".")
	if err != nil {
		logrus.WithError(err).Error("scan failed")
		return subcommands.ExitFailure
	}

	fmt.Fprintf(output, "%d", len(redirects))
	return subcommands.ExitSuccess
}

// populateCmd implements subcommands.Command for the "populate-table" command.
type populateCmd struct{}

// Name implements subcommands.Command.Name.
func (*populateCmd) Name() string { return "populate-table" }

// Synopsis implements subcommands.Command.Synopsis.
func (*populateCmd) Synopsis() string { return "write the redirect table into a kernel image" }

// Usage implements subcommands.Command.Usage.
func (*populateCmd) Usage() string {
	return "populate-table IMAGE - resolve the redirects and write them into the image\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (*populateCmd) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*populateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	redirects, err := scan(".")
	if err != nil {
		logrus.WithError(err).Error("scan failed")
		return subcommands.ExitFailure
	}

	if err = populateTable(redirects, f.Arg(0)); err != nil {
		logrus.WithError(err).Error("populate failed")
		return subcommands.ExitFailure
	}

	for _, r := range redirects {
		logrus.Debugf("%s (0x%x) -> %s (0x%x)", r.src, r.srcVMA, r.dst, r.dstVMA)
	}
	return subcommands.ExitSuccess
}

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(&countCmd{}, "")
	subcommands.Register(&populateCmd{}, "")

	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	os.Exit(int(subcommands.Execute(context.Background())))
}
