// Command tabledump prints the descriptor tables built by the kernel and
// decodes raw segment and gate descriptors.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&gdtCmd{}, "")
	subcommands.Register(&idtCmd{}, "")
	subcommands.Register(&decodeCmd{}, "")
	subcommands.Register(&selectorCmd{}, "")

	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	os.Exit(int(subcommands.Execute(context.Background())))
}
