// Package instance manages named installations on disk: their merged
// manifest, patch history and downloaded resources. An instance is
// identified solely by its directory name under versions/.
package instance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	gopath "path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/sdauwidhwa/NMCL/fetcher"
	"github.com/sdauwidhwa/NMCL/manifest"
)

var (
	ErrInvalidName   = errors.New("invalid instance name")
	ErrAlreadyExists = errors.New("instance already exists")
)

const (
	VersionsDir  = "versions"
	LibrariesDir = "libraries"
	AssetsDir    = "assets"

	ManifestFile   = "manifest.json"
	PatchesFile    = "manifest_patches.json"
	EvaluatedFile  = "manifest_evaluated.json"
	LaunchArgsFile = "launch_args.json"
)

// DefaultAssetsBase is the resource CDN holding loose asset objects,
// addressed by the first two hex digits of their hash, then the hash.
const DefaultAssetsBase = "https://resources.download.minecraft.net"

// Store is the on-disk instance collection rooted at a data
// directory. Files is that directory; all paths are relative to it.
type Store struct {
	Files      billy.Filesystem
	Resolver   *manifest.Resolver
	Downloader *fetcher.Downloader
	AssetsBase string
}

func (s *Store) assetsBase() string {
	if s.AssetsBase != "" {
		return s.AssetsBase
	}
	return DefaultAssetsBase
}

// Dir returns the instance directory path relative to the data root.
func (s *Store) Dir(name string) string {
	return s.Files.Join(VersionsDir, name)
}

// List enumerates instance directory names, creating the versions root
// when absent. No manifest validation happens here.
func (s *Store) List() ([]string, error) {
	if err := s.Files.MkdirAll(VersionsDir, 0755); err != nil {
		return nil, err
	}
	entries, err := s.Files.ReadDir(VersionsDir)
	if err != nil {
		return nil, err
	}
	names := []string{}
	for _, fi := range entries {
		if fi.IsDir() {
			names = append(names, fi.Name())
		}
	}
	return names, nil
}

// Create resolves spec into an effective manifest, persists the
// instance and populates its resources, reporting counts to tr. The
// existence check and the directory write are not atomic across
// processes; concurrent creates for one name can race. Partial state
// is left on disk when a step fails, for inspection and retry.
func (s *Store) Create(ctx context.Context, name string, spec manifest.Spec, tr *Tracker) error {
	defer tr.Close()

	if name == "" {
		return ErrInvalidName
	}
	existing, err := s.List()
	if err != nil {
		return err
	}
	for _, n := range existing {
		if n == name {
			return fmt.Errorf("%w: %q", ErrAlreadyExists, name)
		}
	}

	merged, patches, err := s.Resolver.Compose(ctx, spec)
	if err != nil {
		return err
	}
	merged["id"] = name

	dir := s.Dir(name)
	if err := s.Files.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := s.writeJSON(s.Files.Join(dir, ManifestFile), merged); err != nil {
		return err
	}
	if err := s.writeJSON(s.Files.Join(dir, PatchesFile), patches); err != nil {
		return err
	}

	return s.populate(ctx, name, tr)
}

// ReadManifest loads and decodes an instance's persisted manifest.
func (s *Store) ReadManifest(name string) (*manifest.Manifest, error) {
	b, err := util.ReadFile(s.Files, s.Files.Join(s.Dir(name), ManifestFile))
	if err != nil {
		return nil, err
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode %s manifest: %w", name, err)
	}
	return manifest.Decode(raw)
}

// WriteInstanceFile persists v as JSON under the instance directory.
// Used by the launch orchestrator for its diagnostic documents.
func (s *Store) WriteInstanceFile(name, file string, v interface{}) error {
	return s.writeJSON(s.Files.Join(s.Dir(name), file), v)
}

// writeJSON writes v atomically: temp file in the target directory,
// then rename over the destination.
func (s *Store) writeJSON(path string, v interface{}) (err error) {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	dir := gopath.Dir(path)
	if err := s.Files.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := util.TempFile(s.Files, dir, gopath.Base(path)+".tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err = f.Write(b); err != nil {
		_ = f.Close()
		_ = s.Files.Remove(tmp)
		return err
	}
	if err = f.Close(); err != nil {
		_ = s.Files.Remove(tmp)
		return err
	}
	return s.Files.Rename(tmp, path)
}
