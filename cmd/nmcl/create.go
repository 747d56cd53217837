package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/subcommands"

	"github.com/sdauwidhwa/NMCL/instance"
	"github.com/sdauwidhwa/NMCL/manifest"
)

type CreateCommand struct {
	ConfigPath    string
	Vanilla       string
	Loader        string
	LoaderVersion string
	NoCache       bool
}

func (*CreateCommand) Name() string     { return "create" }
func (*CreateCommand) Synopsis() string { return "install a new instance" }
func (*CreateCommand) Usage() string {
	return `Usage: nmcl create [-mc 1.20.4] [-loader fabric -lv 0.15.0] <name>

	Resolves the version manifest, downloads the client, libraries
	and assets, and stores the instance under the given name.

Flags:
`
}

func (cmd *CreateCommand) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&cmd.ConfigPath, "config", defaultConfig, "config file path")
	fs.StringVar(&cmd.Vanilla, "mc", "", "game version (required)")
	fs.StringVar(&cmd.Loader, "loader", "", "mod loader type")
	fs.StringVar(&cmd.LoaderVersion, "lv", "", "mod loader version")
	fs.BoolVar(&cmd.NoCache, "nocache", false, "disable response cache")
}

func (cmd *CreateCommand) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if fs.NArg() != 1 {
		log.Error("expected exactly one instance name")
		return subcommands.ExitUsageError
	}
	if cmd.Vanilla == "" {
		log.Error("-mc is required")
		return subcommands.ExitUsageError
	}
	name := fs.Arg(0)

	s, ok := buildServices(cmd.ConfigPath, cmd.NoCache)
	if !ok {
		return subcommands.ExitFailure
	}
	defer s.Close()

	tr := instance.NewTracker()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for p := range tr.Events() {
			fmt.Fprintf(os.Stderr, "\r%d/%d", p.Done, p.Total)
		}
		fmt.Fprintln(os.Stderr)
	}()

	spec := manifest.Spec{
		Vanilla:       cmd.Vanilla,
		LoaderType:    cmd.Loader,
		LoaderVersion: cmd.LoaderVersion,
	}
	err := s.Store.Create(ctx, name, spec, tr)
	wg.Wait()
	if err != nil {
		log.Errorf("create %q: %v", name, err)
		return subcommands.ExitFailure
	}
	log.Info("instance created", "name", name, "version", cmd.Vanilla)
	return subcommands.ExitSuccess
}
