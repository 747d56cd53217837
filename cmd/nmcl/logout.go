package main

import (
	"context"
	"flag"

	"github.com/charmbracelet/log"
	"github.com/google/subcommands"
)

type LogoutCommand struct {
	ConfigPath string
}

func (*LogoutCommand) Name() string     { return "logout" }
func (*LogoutCommand) Synopsis() string { return "remove a stored account" }
func (*LogoutCommand) Usage() string {
	return `Usage: nmcl logout <account id>

	Removes a stored account. The id is listed by "nmcl accounts".

Flags:
`
}

func (cmd *LogoutCommand) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&cmd.ConfigPath, "config", defaultConfig, "config file path")
}

func (cmd *LogoutCommand) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if fs.NArg() != 1 {
		log.Error("expected exactly one account id")
		return subcommands.ExitUsageError
	}
	id := fs.Arg(0)

	s, ok := buildServices(cmd.ConfigPath, false)
	if !ok {
		return subcommands.ExitFailure
	}
	defer s.Close()

	if err := s.Accounts.Remove(id); err != nil {
		log.Errorf("remove %q: %v", id, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
