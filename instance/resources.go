package instance

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-billy/v5/util"
	"golang.org/x/sync/errgroup"

	"github.com/sdauwidhwa/NMCL/fetcher"
	"github.com/sdauwidhwa/NMCL/manifest"
	"github.com/sdauwidhwa/NMCL/rules"
)

// assetIndex is the subset of the index document we consume: every
// loose resource by content hash.
type assetIndex struct {
	Objects map[string]struct {
		Hash string `json:"hash"`
		Size int64  `json:"size"`
	} `json:"objects"`
}

// populate downloads everything the instance's evaluated manifest
// references: the asset index and each object it names, the client and
// server jars, and every library artifact. Transfers fan out through
// the shared fetch queue; each finished unit steps tr once.
func (s *Store) populate(ctx context.Context, name string, tr *Tracker) error {
	m, err := s.ReadManifest(name)
	if err != nil {
		return err
	}
	ev := manifest.Evaluate(m, rules.Host())
	dir := s.Dir(name)

	g, ctx := errgroup.WithContext(ctx)

	if ev.AssetIndex != nil {
		idx := *ev.AssetIndex
		tr.AddTotal(1)
		g.Go(func() error {
			if err := s.populateAssets(ctx, g, name, idx, tr); err != nil {
				return err
			}
			return nil
		})
	}

	for _, kind := range []string{"client", "server"} {
		d, ok := ev.Downloads[kind]
		if !ok {
			continue
		}
		d, kind := d, kind
		tr.AddTotal(1)
		g.Go(func() error {
			dest := s.Files.Join(dir, kind+".jar")
			want := fetcher.Expected{Sums: map[string]string{"sha1": d.SHA1}}
			if d.Size > 0 {
				want.Size = fetcher.Size(d.Size)
			}
			if _, err := s.Downloader.Download(ctx, d.URL, dest, want); err != nil {
				return err
			}
			tr.Step()
			return nil
		})
	}

	tr.AddTotal(len(ev.Libraries))
	for _, lib := range ev.Libraries {
		lib := lib
		g.Go(func() error {
			defer tr.Step()
			if lib.Downloads == nil || lib.Downloads.Artifact == nil {
				log.Warn("library has no artifact", "name", lib.Name)
				return nil
			}
			art := lib.Downloads.Artifact
			dest := s.Files.Join(LibrariesDir, art.Path)
			want := fetcher.Expected{}
			if art.SHA1 != "" {
				want.Sums = map[string]string{"sha1": art.SHA1}
			}
			if art.Size > 0 {
				want.Size = fetcher.Size(art.Size)
			}
			_, err := s.Downloader.Download(ctx, art.URL, dest, want)
			return err
		})
	}

	return g.Wait()
}

func (s *Store) populateAssets(ctx context.Context, g *errgroup.Group, name string, idx manifest.AssetIndex, tr *Tracker) error {
	idxPath := s.Files.Join(AssetsDir, "indexes", name+".json")
	want := fetcher.Expected{}
	if idx.SHA1 != "" {
		want.Sums = map[string]string{"sha1": idx.SHA1}
	}
	if idx.Size > 0 {
		want.Size = fetcher.Size(idx.Size)
	}
	if _, err := s.Downloader.Download(ctx, idx.URL, idxPath, want); err != nil {
		return err
	}
	tr.Step()

	b, err := util.ReadFile(s.Files, idxPath)
	if err != nil {
		return err
	}
	var index assetIndex
	if err := json.Unmarshal(b, &index); err != nil {
		return fmt.Errorf("decode asset index %s: %w", name, err)
	}

	tr.AddTotal(len(index.Objects))
	for assetName, obj := range index.Objects {
		obj := obj
		if len(obj.Hash) < 2 {
			log.Warn("asset object has no hash", "asset", assetName)
			tr.Step()
			continue
		}
		g.Go(func() error {
			prefix := obj.Hash[:2]
			url := fmt.Sprintf("%s/%s/%s", s.assetsBase(), prefix, obj.Hash)
			dest := s.Files.Join(AssetsDir, "objects", prefix, obj.Hash)
			want := fetcher.Expected{Sums: map[string]string{"sha1": obj.Hash}}
			if obj.Size > 0 {
				want.Size = fetcher.Size(obj.Size)
			}
			if _, err := s.Downloader.Download(ctx, url, dest, want); err != nil {
				return err
			}
			tr.Step()
			return nil
		})
	}
	return nil
}
