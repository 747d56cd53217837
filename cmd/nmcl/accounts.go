package main

import (
	"context"
	"flag"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/google/subcommands"
)

type AccountsCommand struct {
	ConfigPath string
}

func (*AccountsCommand) Name() string     { return "accounts" }
func (*AccountsCommand) Synopsis() string { return "list stored accounts" }
func (*AccountsCommand) Usage() string {
	return `Usage: nmcl accounts

	Lists stored account ids with their player names.

Flags:
`
}

func (cmd *AccountsCommand) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&cmd.ConfigPath, "config", defaultConfig, "config file path")
}

func (cmd *AccountsCommand) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	s, ok := buildServices(cmd.ConfigPath, false)
	if !ok {
		return subcommands.ExitFailure
	}
	defer s.Close()

	all, err := s.Accounts.All()
	if err != nil {
		log.Errorf("read accounts: %v", err)
		return subcommands.ExitFailure
	}
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		acc := all[id]
		fmt.Printf("%s\t%s\t%s\n", id, acc.Minecraft.Username, acc.Minecraft.UUID)
	}
	return subcommands.ExitSuccess
}
