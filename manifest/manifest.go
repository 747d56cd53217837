// Package manifest models Minecraft version manifests: their JSON
// shape, the inheritsFrom patch chain, and resolution against the
// remote version catalog and mod loader endpoints.
package manifest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sdauwidhwa/NMCL/rules"
)

// Artifact locates one downloadable file.
type Artifact struct {
	Path string `json:"path,omitempty"`
	URL  string `json:"url"`
	SHA1 string `json:"sha1,omitempty"`
	Size int64  `json:"size,omitempty"`
}

type Downloads struct {
	Artifact *Artifact `json:"artifact,omitempty"`
}

// Library is one classpath or native entry. Name is a colon-delimited
// Maven coordinate, group:artifact:version with an optional fourth
// classifier part marking platform natives.
type Library struct {
	Name      string       `json:"name"`
	URL       string       `json:"url,omitempty"`
	Downloads *Downloads   `json:"downloads,omitempty"`
	Rules     []rules.Rule `json:"rules,omitempty"`
}

// Classifier returns the fourth coordinate part, if any.
func (l Library) Classifier() string {
	parts := strings.Split(l.Name, ":")
	if len(parts) == 4 {
		return parts[3]
	}
	return ""
}

// Key identifies a library for classpath deduplication, group:artifact
// without version.
func (l Library) Key() string {
	parts := strings.Split(l.Name, ":")
	if len(parts) < 2 {
		return l.Name
	}
	return parts[0] + ":" + parts[1]
}

type AssetIndex struct {
	ID   string `json:"id,omitempty"`
	URL  string `json:"url"`
	SHA1 string `json:"sha1,omitempty"`
	Size int64  `json:"size,omitempty"`
}

type Arguments struct {
	JVM  []Argument `json:"jvm,omitempty"`
	Game []Argument `json:"game,omitempty"`
}

// Manifest is the typed view of a version descriptor. Merging happens
// on the raw JSON tree; this type is decoded from the merged result
// for evaluation and launch.
type Manifest struct {
	ID           string              `json:"id"`
	Type         string              `json:"type,omitempty"`
	MainClass    string              `json:"mainClass,omitempty"`
	InheritsFrom string              `json:"inheritsFrom,omitempty"`
	Downloads    map[string]Artifact `json:"downloads,omitempty"`
	Libraries    []Library           `json:"libraries,omitempty"`
	Arguments    Arguments           `json:"arguments,omitempty"`
	AssetIndex   *AssetIndex         `json:"assetIndex,omitempty"`
}

// Decode converts a raw manifest tree into the typed view, ignoring
// keys the launcher does not consume.
func Decode(raw map[string]interface{}) (*Manifest, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}

// MavenPath derives the repository-relative jar path from a three-part
// coordinate, group/as/dirs/artifact/version/artifact-version.jar.
func MavenPath(name string) (string, bool) {
	parts := strings.Split(name, ":")
	if len(parts) != 3 {
		return "", false
	}
	group, artifact, version := parts[0], parts[1], parts[2]
	groupPath := strings.ReplaceAll(group, ".", "/")
	return fmt.Sprintf("%s/%s/%s/%s-%s.jar", groupPath, artifact, version, artifact, version), true
}
