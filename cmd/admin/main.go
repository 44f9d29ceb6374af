// Command admin performs operator tasks against the DigiShe database:
// applying migrations, activating businesses, promoting admins and printing
// a business summary.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	commander.Register(&migrateCmd{}, "database")
	commander.Register(&activateCmd{}, "accounts")
	commander.Register(&promoteCmd{}, "accounts")
	commander.Register(&summaryCmd{}, "reports")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
