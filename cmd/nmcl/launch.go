package main

import (
	"context"
	"flag"

	"github.com/charmbracelet/log"
	"github.com/google/subcommands"

	"github.com/sdauwidhwa/NMCL/account"
	"github.com/sdauwidhwa/NMCL/launcher"
)

type LaunchCommand struct {
	ConfigPath string
	Account    string
}

func (*LaunchCommand) Name() string     { return "launch" }
func (*LaunchCommand) Synopsis() string { return "start an instance" }
func (*LaunchCommand) Usage() string {
	return `Usage: nmcl launch [-account a-1] <name>

	Starts the named instance and waits for it to exit. Without
	-account the game runs with an offline placeholder identity.

Flags:
`
}

func (cmd *LaunchCommand) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&cmd.ConfigPath, "config", defaultConfig, "config file path")
	fs.StringVar(&cmd.Account, "account", "", "account id to play as")
}

func (cmd *LaunchCommand) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if fs.NArg() != 1 {
		log.Error("expected exactly one instance name")
		return subcommands.ExitUsageError
	}
	name := fs.Arg(0)

	s, ok := buildServices(cmd.ConfigPath, false)
	if !ok {
		return subcommands.ExitFailure
	}
	defer s.Close()

	id := launcher.Offline()
	if cmd.Account != "" {
		auth := &account.Authenticator{Client: s.Client}
		acc, err := account.Use(ctx, s.Accounts, auth, cmd.Account)
		if err != nil {
			log.Errorf("account %q: %v", cmd.Account, err)
			return subcommands.ExitFailure
		}
		id = launcher.Identity{
			UUID:        acc.Minecraft.UUID,
			AccessToken: acc.Minecraft.AccessToken,
			Username:    acc.Minecraft.Username,
		}
	}

	if err := s.Launcher.Launch(ctx, name, id); err != nil {
		log.Errorf("launch %q: %v", name, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
