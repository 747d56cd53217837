package launcher

import (
	"path/filepath"
	"strings"

	"github.com/sdauwidhwa/NMCL/manifest"
)

// BuildClasspath maps libraries to their on-disk jar locations and
// joins them with sep. Libraries sharing a group:artifact key are
// deduplicated, the later entry wins but keeps the position of the
// first occurrence. The instance's client jar goes last.
func BuildClasspath(libs []manifest.Library, libsRoot, clientJar, sep string) string {
	var order []string
	byKey := map[string]manifest.Library{}
	for _, lib := range libs {
		if lib.Name == "" {
			continue
		}
		key := lib.Key()
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = lib
	}

	parts := make([]string, 0, len(order)+1)
	for _, key := range order {
		if p := jarPath(libsRoot, byKey[key].Name); p != "" {
			parts = append(parts, p)
		}
	}
	parts = append(parts, clientJar)
	return strings.Join(parts, sep)
}

// jarPath derives <libsRoot>/<group-as-dirs>/<artifact>/<version>/
// <artifact>-<version>.jar from a coordinate, ignoring any classifier.
func jarPath(libsRoot, name string) string {
	parts := strings.Split(name, ":")
	if len(parts) < 3 {
		return ""
	}
	group, artifact, version := parts[0], parts[1], parts[2]
	groupPath := filepath.FromSlash(strings.ReplaceAll(group, ".", "/"))
	return filepath.Join(libsRoot, groupPath, artifact, version, artifact+"-"+version+".jar")
}
