package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/subcommands"
)

type InstancesCommand struct {
	ConfigPath string
}

func (*InstancesCommand) Name() string     { return "instances" }
func (*InstancesCommand) Synopsis() string { return "list installed instances" }
func (*InstancesCommand) Usage() string {
	return `Usage: nmcl instances

	Lists the instances installed under the data directory.

Flags:
`
}

func (cmd *InstancesCommand) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&cmd.ConfigPath, "config", defaultConfig, "config file path")
}

func (cmd *InstancesCommand) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	s, ok := buildServices(cmd.ConfigPath, false)
	if !ok {
		return subcommands.ExitFailure
	}
	defer s.Close()

	names, err := s.Store.List()
	if err != nil {
		log.Errorf("list instances: %v", err)
		return subcommands.ExitFailure
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return subcommands.ExitSuccess
}
