package fetcher

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"
	"os"

	"golang.org/x/crypto/sha3"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-billy/v5"
)

// digests computes the named digests in one pass over r. Unknown
// algorithm names are ignored.
func digests(r io.Reader, algorithms []string) (map[string]string, error) {
	hashes := make(map[string]hash.Hash, len(algorithms))
	ww := make([]io.Writer, 0, len(algorithms))
	for _, name := range algorithms {
		h := newHash(name)
		if h == nil {
			continue
		}
		hashes[name] = h
		ww = append(ww, h)
	}
	if len(ww) == 0 {
		return map[string]string{}, nil
	}
	if _, err := io.Copy(io.MultiWriter(ww...), r); err != nil {
		return nil, err
	}
	sums := make(map[string]string, len(hashes))
	for name, h := range hashes {
		sums[name] = fmt.Sprintf("%x", h.Sum(nil))
	}
	return sums, nil
}

func digestFile(fs billy.Basic, path string, algorithms []string) (map[string]string, error) {
	f, err := fs.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			log.Debug("close", "path", path, "err", cerr)
		}
	}()
	return digests(f, algorithms)
}

func newHash(name string) hash.Hash {
	switch name {
	case "md5":
		return md5.New()
	case "sha1":
		return sha1.New()
	case "sha256":
		return sha256.New()
	case "sha512":
		return sha512.New()
	case "keccak256":
		return sha3.New256()
	}
	return nil
}
