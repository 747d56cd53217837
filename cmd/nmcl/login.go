package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/subcommands"
	"github.com/pkg/browser"

	"github.com/sdauwidhwa/NMCL/account"
)

type LoginCommand struct {
	ConfigPath string
	Timeout    time.Duration
}

func (*LoginCommand) Name() string     { return "login" }
func (*LoginCommand) Synopsis() string { return "add a Microsoft account" }
func (*LoginCommand) Usage() string {
	return `Usage: nmcl login [-timeout 5m]

	Opens the Microsoft sign-in page in a browser, waits for the
	redirect on a loopback port and stores the resulting account.

Flags:
`
}

func (cmd *LoginCommand) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&cmd.ConfigPath, "config", defaultConfig, "config file path")
	fs.DurationVar(&cmd.Timeout, "timeout", 5*time.Minute, "how long to wait for the sign-in")
}

func (cmd *LoginCommand) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	s, ok := buildServices(cmd.ConfigPath, false)
	if !ok {
		return subcommands.ExitFailure
	}
	defer s.Close()

	recv, err := account.NewReceiver()
	if err != nil {
		log.Errorf("start receiver: %v", err)
		return subcommands.ExitFailure
	}
	defer recv.Close()

	auth := &account.Authenticator{
		Client:      s.Client,
		RedirectURL: recv.RedirectURL(),
	}

	loginURL := auth.LoginURL()
	if err := browser.OpenURL(loginURL); err != nil {
		log.Warnf("open browser: %v", err)
		fmt.Println("Open this page to sign in:")
		fmt.Println(loginURL)
	}

	ctx, cancel := context.WithTimeout(ctx, cmd.Timeout)
	defer cancel()
	code, err := recv.Wait(ctx)
	if err != nil {
		log.Errorf("wait for sign-in: %v", err)
		return subcommands.ExitFailure
	}

	acc, err := auth.Login(ctx, code)
	if err != nil {
		log.Errorf("%v", err)
		return subcommands.ExitFailure
	}

	id, err := s.Accounts.Add(acc)
	if err != nil {
		log.Errorf("store account: %v", err)
		return subcommands.ExitFailure
	}
	log.Info("account added", "id", id, "player", acc.Minecraft.Username)
	return subcommands.ExitSuccess
}
