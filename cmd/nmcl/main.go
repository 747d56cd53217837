package main

import (
	"context"
	"flag"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/subcommands"
)

const (
	programName   = "nmcl"
	defaultConfig = "nmcl.hcl"
)

func main() {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.Bool("h", false, "alias for help")
	fs.Bool("help", false, "print usage")

	cdr := subcommands.NewCommander(fs, programName)
	cdr.Register(&InitCommand{}, "")
	cdr.Register(&InstancesCommand{}, "")
	cdr.Register(&CreateCommand{}, "")
	cdr.Register(&LaunchCommand{}, "")
	cdr.Register(&VanillaCommand{}, "")
	cdr.Register(&FabricsCommand{}, "")
	cdr.Register(&AccountsCommand{}, "")
	cdr.Register(&LoginCommand{}, "")
	cdr.Register(&LogoutCommand{}, "")
	cdr.Register(&CleanCommand{}, "")
	cdr.Register(cdr.HelpCommand(), "help")
	cdr.Register(cdr.FlagsCommand(), "help")
	cdr.Register(cdr.CommandsCommand(), "help")

	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	switch cdr.Execute(ctx) {
	case subcommands.ExitFailure:
		os.Exit(1)
	case subcommands.ExitUsageError:
		os.Exit(2)
	}
}
