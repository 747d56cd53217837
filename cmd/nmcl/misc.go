package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/akrylysov/pogreb"
	pogrebfs "github.com/akrylysov/pogreb/fs"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/sdauwidhwa/NMCL/account"
	"github.com/sdauwidhwa/NMCL/config"
	"github.com/sdauwidhwa/NMCL/fetcher"
	"github.com/sdauwidhwa/NMCL/instance"
	"github.com/sdauwidhwa/NMCL/launcher"
	"github.com/sdauwidhwa/NMCL/manifest"
)

func cacheDir(cfg config.Config) (string, error) {
	if cfg.CacheDir != "" {
		return cfg.CacheDir, nil
	}
	c, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(c, programName), nil
}

func makeCache(cfg config.Config) (string, error) {
	c, err := cacheDir(cfg)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(c, 0700); err != nil {
		return "", err
	}
	return c, nil
}

func newDiagWr(p *hclparse.Parser) hcl.DiagnosticWriter {
	files := p.Files()
	stderr := os.Stderr
	fd := int(stderr.Fd())
	istty, color := fdinfo(fd)
	if !istty {
		return hcl.NewDiagnosticTextWriter(stderr, files, 80, color)
	}
	width := uint(80)
	if w, _, err := term.GetSize(fd); err != nil {
		log.Debug("get term size", "err", err)
	} else if w > 0 {
		width = uint(w)
	}
	return hcl.NewDiagnosticTextWriter(stderr, files, width, color)
}

func fdinfo(fd int) (istty, color bool) {
	istty = term.IsTerminal(fd)
	if istty {
		color = true
	}
	// See https://no-color.org
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		color = false
	}
	return
}

// loadConfig reads and decodes the HCL config file. A missing file is
// not an error; defaults and environment apply either way.
func loadConfig(path string) (config.Config, bool) {
	var c config.Config

	src, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := c.Fill(); err != nil {
			log.Errorf("config: %v", err)
			return c, false
		}
		return c, true
	}
	if err != nil {
		log.Errorf("read %q: %v", path, err)
		return c, false
	}

	parser := hclparse.NewParser()
	diagWr := newDiagWr(parser)

	file, diags := parser.ParseHCL(src, path)
	if !diags.HasErrors() {
		diags = append(diags, gohcl.DecodeBody(file.Body, nil, &c)...)
	}
	if err := diagWr.WriteDiagnostics(diags); err != nil {
		log.Errorf("write diags: %v", err)
		return c, false
	}
	if diags.HasErrors() {
		return c, false
	}

	if err := c.Fill(); err != nil {
		log.Errorf("config: %v", err)
		return c, false
	}
	return c, true
}

// services is the wired object graph every command runs against.
type services struct {
	Config   config.Config
	DB       *pogreb.DB
	Client   *fetcher.Client
	Store    *instance.Store
	Launcher *launcher.Launcher
	Accounts *account.Store
}

// buildServices wires the full stack from a config file path. With
// nocache set the HTTP response cache is kept in memory.
func buildServices(cfgPath string, nocache bool) (*services, bool) {
	cfg, ok := loadConfig(cfgPath)
	if !ok {
		return nil, false
	}

	root, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		log.Errorf("data dir %q: %v", cfg.DataDir, err)
		return nil, false
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		log.Errorf("make data dir %q: %v", root, err)
		return nil, false
	}

	var db *pogreb.DB
	if nocache {
		// BUG pogreb.Open always calls os.MkdirAll
		db, err = pogreb.Open(".", &pogreb.Options{FileSystem: pogrebfs.Mem})
	} else {
		var cachePath string
		cachePath, err = makeCache(cfg)
		if err == nil {
			db, err = pogreb.Open(filepath.Join(cachePath, "db"), nil)
		}
	}
	if err != nil {
		log.Errorf("open cache: %v", err)
		return nil, false
	}

	queue := fetcher.NewQueue(cfg.Concurrency)
	client := &fetcher.Client{Queue: queue, Cache: db}
	files := osfs.New(root)
	store := &instance.Store{
		Files:    files,
		Resolver: &manifest.Resolver{Client: client},
		Downloader: &fetcher.Downloader{
			Files:  files,
			Client: client,
		},
	}

	s := &services{
		Config: cfg,
		DB:     db,
		Client: client,
		Store:  store,
		Launcher: &launcher.Launcher{
			Store:   store,
			Root:    root,
			Java:    cfg.Java,
			Name:    cfg.LauncherName,
			Version: cfg.LauncherVersion,
			Width:   cfg.Resolution.Width,
			Height:  cfg.Resolution.Height,
		},
		Accounts: &account.Store{Path: cfg.AccountsPath},
	}
	return s, true
}

// Close flushes the account store and closes the cache.
func (s *services) Close() {
	if err := s.Accounts.Close(); err != nil {
		log.Errorf("close accounts: %v", err)
	}
	if err := s.DB.Close(); err != nil {
		log.Errorf("close cache: %v", err)
	}
}
