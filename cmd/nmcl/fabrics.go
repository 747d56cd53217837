package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/subcommands"
)

type FabricsCommand struct {
	ConfigPath string
	Vanilla    string
	All        bool
}

func (*FabricsCommand) Name() string     { return "fabrics" }
func (*FabricsCommand) Synopsis() string { return "list fabric loader versions" }
func (*FabricsCommand) Usage() string {
	return `Usage: nmcl fabrics -mc 1.20.4 [-all]

	Lists fabric loader builds compatible with a game version. Only
	stable builds are shown unless -all is given.

Flags:
`
}

func (cmd *FabricsCommand) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&cmd.ConfigPath, "config", defaultConfig, "config file path")
	fs.StringVar(&cmd.Vanilla, "mc", "", "game version (required)")
	fs.BoolVar(&cmd.All, "all", false, "include unstable builds")
}

func (cmd *FabricsCommand) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if cmd.Vanilla == "" {
		log.Error("-mc is required")
		return subcommands.ExitUsageError
	}

	s, ok := buildServices(cmd.ConfigPath, false)
	if !ok {
		return subcommands.ExitFailure
	}
	defer s.Close()

	loaders, err := s.Store.Resolver.ListLoaders(ctx, cmd.Vanilla)
	if err != nil {
		log.Errorf("list loaders for %q: %v", cmd.Vanilla, err)
		return subcommands.ExitFailure
	}
	for _, lv := range loaders {
		if !cmd.All && !lv.Loader.Stable {
			continue
		}
		fmt.Println(lv.Loader.Version)
	}
	return subcommands.ExitSuccess
}
