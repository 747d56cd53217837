package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/subcommands"
)

type VanillaCommand struct {
	ConfigPath string
	All        bool
}

func (*VanillaCommand) Name() string     { return "vanilla" }
func (*VanillaCommand) Synopsis() string { return "list game versions" }
func (*VanillaCommand) Usage() string {
	return `Usage: nmcl vanilla [-all]

	Lists installable game versions, newest first. Only releases are
	shown unless -all is given.

Flags:
`
}

func (cmd *VanillaCommand) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&cmd.ConfigPath, "config", defaultConfig, "config file path")
	fs.BoolVar(&cmd.All, "all", false, "include snapshots and old versions")
}

func (cmd *VanillaCommand) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	s, ok := buildServices(cmd.ConfigPath, false)
	if !ok {
		return subcommands.ExitFailure
	}
	defer s.Close()

	versions, err := s.Store.Resolver.ListVanilla(ctx)
	if err != nil {
		log.Errorf("list versions: %v", err)
		return subcommands.ExitFailure
	}
	for _, v := range versions {
		if !cmd.All && v.Type != "release" {
			continue
		}
		fmt.Printf("%s\t%s\n", v.ID, v.Type)
	}
	return subcommands.ExitSuccess
}
