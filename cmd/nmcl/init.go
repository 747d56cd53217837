package main

import (
	"context"
	"flag"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/subcommands"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/google/renameio/v2"

	"github.com/sdauwidhwa/NMCL/config"
)

type InitCommand struct {
	OutputPath string
	Force      bool
}

func (*InitCommand) Name() string     { return "init" }
func (*InitCommand) Synopsis() string { return "write a default config file" }
func (*InitCommand) Usage() string {
	return `Usage: nmcl init [-o nmcl.hcl] [-f]

	Writes a config file populated with the defaults. Refuses to
	overwrite an existing file unless -f is given.

Flags:
`
}

func (cmd *InitCommand) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&cmd.OutputPath, "o", defaultConfig, "output config path")
	fs.BoolVar(&cmd.Force, "f", false, "overwrite an existing file")
}

func (cmd *InitCommand) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if !cmd.Force {
		if _, err := os.Stat(cmd.OutputPath); err == nil {
			log.Errorf("%q already exists, use -f to overwrite", cmd.OutputPath)
			return subcommands.ExitFailure
		}
	}

	def := config.Default()
	conf := hclwrite.NewEmptyFile()
	body := conf.Body()
	body.SetAttributeValue("data_dir", cty.StringVal(def.DataDir))
	body.SetAttributeValue("java", cty.StringVal(def.Java))
	body.SetAttributeValue("concurrency", cty.NumberIntVal(int64(def.Concurrency)))
	body.SetAttributeValue("launcher_name", cty.StringVal(def.LauncherName))
	body.SetAttributeValue("launcher_version", cty.StringVal(def.LauncherVersion))
	body.AppendNewline()
	res := body.AppendNewBlock("resolution", nil).Body()
	res.SetAttributeValue("width", cty.NumberIntVal(int64(def.Resolution.Width)))
	res.SetAttributeValue("height", cty.NumberIntVal(int64(def.Resolution.Height)))

	if err := renameio.WriteFile(cmd.OutputPath, conf.Bytes(), 0644); err != nil {
		log.Errorf("write %q: %v", cmd.OutputPath, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
