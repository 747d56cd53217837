package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	gopath "path"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-billy/v5"
)

// ErrFailedVerification reports a size or digest mismatch after a
// completed transfer. The partially written file is left on disk for
// inspection; no automatic cleanup or retry.
var ErrFailedVerification = errors.New("failed verification")

// DefaultTempDir receives ad hoc downloads that name no destination.
const DefaultTempDir = ".temp/download"

// Expected are the integrity requirements for a downloaded file.
// Nil Size and empty Sums mean "no test given": an existing file is
// accepted as-is.
type Expected struct {
	Size *int64
	Sums map[string]string // algorithm name to hex digest
}

// Size is a convenience for building an Expected size in place.
func Size(n int64) *int64 { return &n }

func (e Expected) algorithms() []string {
	if len(e.Sums) == 0 {
		return nil
	}
	names := make([]string, 0, len(e.Sums))
	for name := range e.Sums {
		if newHash(name) == nil {
			continue
		}
		names = append(names, name)
	}
	return names
}

// Downloader idempotently materializes remote resources into Files.
// Each transfer runs through the Client and therefore the shared
// Queue. Existing files that pass verification are never refetched.
type Downloader struct {
	Files   billy.Filesystem
	Client  *Client
	TempDir string

	mu     sync.Mutex
	serial int
	prefix string
}

// Download fetches rawurl to path, verifying want before skipping or
// after transferring. An empty path picks a serial-numbered name under
// TempDir with the extension inferred from the URL. Returns the
// destination path.
func (d *Downloader) Download(ctx context.Context, rawurl, path string, want Expected) (string, error) {
	if path == "" {
		path = d.tempPath(rawurl)
	}

	ok, err := d.verify(path, want)
	if err != nil {
		return "", err
	}
	if ok {
		return path, nil
	}

	if dir := gopath.Dir(path); dir != "." {
		if err := d.Files.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
	}
	if err := d.transfer(ctx, rawurl, path, want); err != nil {
		return "", err
	}

	ok, err = d.verify(path, want)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrFailedVerification, path)
	}
	return path, nil
}

// verify reports whether path is a regular file meeting want. A
// missing file never verifies; a file with no expectations always
// does.
func (d *Downloader) verify(path string, want Expected) (bool, error) {
	fi, err := d.Files.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if fi.IsDir() {
		return false, nil
	}
	if want.Size != nil && fi.Size() != *want.Size {
		return false, nil
	}
	algos := want.algorithms()
	if len(algos) == 0 {
		return true, nil
	}
	sums, err := digestFile(d.Files, path, algos)
	if err != nil {
		return false, err
	}
	for _, name := range algos {
		if !strings.EqualFold(sums[name], want.Sums[name]) {
			return false, nil
		}
	}
	return true, nil
}

func (d *Downloader) transfer(ctx context.Context, rawurl, path string, want Expected) (err error) {
	flags := os.O_WRONLY | os.O_TRUNC | os.O_CREATE
	f, err := d.Files.OpenFile(path, flags, 0644)
	if err != nil {
		return err
	}
	defer func() {
		cerr := f.Close()
		if err == nil {
			err = cerr
		}
	}()
	return d.Client.Stream(ctx, rawurl, f)
}

func (d *Downloader) tempPath(rawurl string) string {
	dir := d.TempDir
	if dir == "" {
		dir = DefaultTempDir
	}
	ext := ""
	if u, err := url.Parse(rawurl); err == nil {
		ext = gopath.Ext(u.Path)
	} else {
		log.Debug("parse url", "url", rawurl, "err", err)
	}

	d.mu.Lock()
	if d.prefix == "" {
		stamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
		d.prefix = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	}
	n := d.serial
	d.serial++
	d.mu.Unlock()

	return d.Files.Join(dir, fmt.Sprintf("%s-%d%s", d.prefix, n, ext))
}
