package main

import (
	"fmt"
	"os"

	"errorcollector/cmd/importer"

	"github.com/urfave/cli"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "errorcollector CMD"
	app.Usage = "The error collector command line interface"

	app.Commands = []cli.Command{
		importCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var importCMD = cli.Command{
	Name:      "import",
	Usage:     "replay a JSON-lines dump of webhook payloads into the store",
	Action:    importAction,
	ArgsUsage: "FILE",
	Flags:     []cli.Flag{},
	Description: `Reads one webhook payload per line from FILE and runs each
through the same normalization, filtering and persistence path as the live
webhook endpoint. Useful to backfill payloads captured while the collector
was down.`,
}

func importAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: import FILE")
	}
	return importer.Run(c.Args().First())
}
