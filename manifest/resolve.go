package manifest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sdauwidhwa/NMCL/fetcher"
)

var (
	// ErrNotFound reports a version id absent from the remote catalog.
	ErrNotFound = errors.New("version not found")

	// ErrUnrecognizedFormat reports a library entry with neither a
	// download descriptor nor derivable Maven coordinates.
	ErrUnrecognizedFormat = errors.New("unrecognized manifest format")
)

const (
	DefaultCatalogURL = "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json"
	DefaultLoaderBase = "https://meta.fabricmc.net"

	// LoaderFabric is the only supported mod loader type.
	LoaderFabric = "fabric"

	// Inheritance chains in the wild are one or two manifests deep.
	// The walk is bounded anyway so a cyclic chain cannot hang us.
	maxChainDepth = 16
)

// Version is one remote catalog entry.
type Version struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// LoaderVersion is one entry of the loader list endpoint.
type LoaderVersion struct {
	Loader struct {
		Version string `json:"version"`
		Stable  bool   `json:"stable"`
	} `json:"loader"`
}

// Spec names the version to resolve. A zero LoaderType means plain
// vanilla; otherwise LoaderVersion selects the loader build.
type Spec struct {
	Vanilla       string
	LoaderType    string
	LoaderVersion string
}

// Resolver composes effective manifests from the remote version
// catalog and the mod loader profile endpoint.
type Resolver struct {
	Client     *fetcher.Client
	CatalogURL string // defaults to DefaultCatalogURL
	LoaderBase string // defaults to DefaultLoaderBase
}

func (r *Resolver) catalogURL() string {
	if r.CatalogURL != "" {
		return r.CatalogURL
	}
	return DefaultCatalogURL
}

func (r *Resolver) loaderBase() string {
	if r.LoaderBase != "" {
		return r.LoaderBase
	}
	return DefaultLoaderBase
}

// ListVanilla fetches the remote version catalog.
func (r *Resolver) ListVanilla(ctx context.Context) ([]Version, error) {
	var catalog struct {
		Versions []Version `json:"versions"`
	}
	if err := r.Client.GetJSON(ctx, r.catalogURL(), &catalog); err != nil {
		return nil, err
	}
	return catalog.Versions, nil
}

// ListLoaders fetches the loader builds available for a vanilla
// version.
func (r *Resolver) ListLoaders(ctx context.Context, vanilla string) ([]LoaderVersion, error) {
	u := fmt.Sprintf("%s/v2/versions/loader/%s", r.loaderBase(), vanilla)
	var list []LoaderVersion
	if err := r.Client.GetJSON(ctx, u, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Compose resolves spec into one effective manifest: it fetches the
// root descriptor, walks inheritsFrom collecting the patch chain, and
// deep-merges the chain oldest ancestor first. It returns the merged
// manifest and the unmerged chain, leaf first, for audit persistence.
func (r *Resolver) Compose(ctx context.Context, spec Spec) (map[string]interface{}, []map[string]interface{}, error) {
	root, err := r.fetch(ctx, spec)
	if err != nil {
		return nil, nil, err
	}

	patches := []map[string]interface{}{root}
	for {
		parent, _ := patches[len(patches)-1]["inheritsFrom"].(string)
		if parent == "" {
			break
		}
		if len(patches) >= maxChainDepth {
			return nil, nil, fmt.Errorf("inheritance chain deeper than %d at %q", maxChainDepth, parent)
		}
		cur, err := r.fetchVanilla(ctx, parent)
		if err != nil {
			return nil, nil, err
		}
		patches = append(patches, cur)
	}

	merged := map[string]interface{}{}
	for i := len(patches) - 1; i >= 0; i-- {
		merged = Merge(merged, patches[i])
	}
	delete(merged, "inheritsFrom")
	return merged, patches, nil
}

func (r *Resolver) fetch(ctx context.Context, spec Spec) (map[string]interface{}, error) {
	switch {
	case spec.Vanilla != "" && spec.LoaderType == "" && spec.LoaderVersion == "":
		return r.fetchVanilla(ctx, spec.Vanilla)
	case spec.Vanilla != "" && strings.EqualFold(spec.LoaderType, LoaderFabric) && spec.LoaderVersion != "":
		return r.fetchLoader(ctx, spec.Vanilla, spec.LoaderVersion)
	}
	return nil, fmt.Errorf("%w: invalid version spec %q/%q/%q", ErrNotFound, spec.Vanilla, spec.LoaderType, spec.LoaderVersion)
}

func (r *Resolver) fetchVanilla(ctx context.Context, id string) (map[string]interface{}, error) {
	versions, err := r.ListVanilla(ctx)
	if err != nil {
		return nil, err
	}
	for _, v := range versions {
		if v.ID != id {
			continue
		}
		var m map[string]interface{}
		// Version descriptor URLs are content-addressed, safe to cache.
		if err := r.Client.GetJSONCached(ctx, v.URL, &m); err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
}

func (r *Resolver) fetchLoader(ctx context.Context, vanilla, loader string) (map[string]interface{}, error) {
	u := fmt.Sprintf("%s/v2/versions/loader/%s/%s/profile/json", r.loaderBase(), vanilla, loader)
	var m map[string]interface{}
	if err := r.Client.GetJSONCached(ctx, u, &m); err != nil {
		return nil, err
	}
	if err := normalizeLibraries(m); err != nil {
		return nil, err
	}
	return m, nil
}

// normalizeLibraries gives loader-supplied libraries that carry only
// name and repository url a concrete downloads.artifact, derived from
// the Maven coordinate.
func normalizeLibraries(m map[string]interface{}) error {
	libs, _ := m["libraries"].([]interface{})
	for _, e := range libs {
		lib, ok := e.(map[string]interface{})
		if !ok {
			return fmt.Errorf("%w: library is not an object", ErrUnrecognizedFormat)
		}
		if _, ok := lib["downloads"]; !ok {
			name, _ := lib["name"].(string)
			repo, _ := lib["url"].(string)
			if name != "" && repo != "" {
				if path, ok := MavenPath(name); ok {
					if !strings.HasSuffix(repo, "/") {
						repo += "/"
					}
					lib["downloads"] = map[string]interface{}{
						"artifact": map[string]interface{}{
							"path": path,
							"url":  repo + path,
						},
					}
				}
			}
		}
		downloads, _ := lib["downloads"].(map[string]interface{})
		if downloads == nil || downloads["artifact"] == nil {
			return fmt.Errorf("%w: library %v", ErrUnrecognizedFormat, lib["name"])
		}
	}
	return nil
}
