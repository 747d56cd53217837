package launcher

import (
	"archive/zip"
	"io"
	"os"
	gopath "path"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/sdauwidhwa/NMCL/instance"
	"github.com/sdauwidhwa/NMCL/manifest"
)

func nativeClassifier(goos string) string {
	switch goos {
	case "windows":
		return "natives-windows"
	case "darwin":
		return "natives-macos"
	case "linux":
		return "natives-linux"
	}
	return ""
}

func nativeSuffix(goos string) string {
	switch goos {
	case "windows":
		return ".dll"
	case "darwin":
		return ".dylib"
	case "linux":
		return ".so"
	}
	return ""
}

// unpackNatives extracts platform shared libraries from every native
// jar into the instance's natives directory. Entries are flattened to
// their basename; collisions across jars silently overwrite.
func (l *Launcher) unpackNatives(ev *manifest.Manifest, instName, classifier, suffix string) error {
	fs := l.Store.Files
	nativesDir := fs.Join(l.Store.Dir(instName), "natives")
	if err := fs.MkdirAll(nativesDir, 0755); err != nil {
		return err
	}
	if classifier == "" || suffix == "" {
		return nil
	}

	for _, lib := range ev.Libraries {
		if lib.Classifier() != classifier {
			continue
		}
		if lib.Downloads == nil || lib.Downloads.Artifact == nil {
			log.Warn("native library has no artifact", "name", lib.Name)
			continue
		}
		jarFile := fs.Join(instance.LibrariesDir, lib.Downloads.Artifact.Path)
		if err := l.extractJar(jarFile, nativesDir, suffix); err != nil {
			return err
		}
	}
	return nil
}

func (l *Launcher) extractJar(jarFile, nativesDir, suffix string) (err error) {
	fs := l.Store.Files
	fi, err := fs.Stat(jarFile)
	if err != nil {
		return err
	}
	f, err := fs.OpenFile(jarFile, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			log.Debug("close", "path", jarFile, "err", cerr)
		}
	}()

	z, err := zip.NewReader(f, fi.Size())
	if err != nil {
		return err
	}
	for _, entry := range z.File {
		name := entry.Name
		if len(name) == 0 || name[len(name)-1] == '/' {
			continue
		}
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		dest := fs.Join(nativesDir, gopath.Base(name))
		if err := l.extractEntry(entry, dest); err != nil {
			return err
		}
	}
	return nil
}

func (l *Launcher) extractEntry(entry *zip.File, dest string) (err error) {
	r, err := entry.Open()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil {
			log.Debug("close zip entry", "name", entry.Name, "err", cerr)
		}
	}()

	flags := os.O_WRONLY | os.O_TRUNC | os.O_CREATE
	w, err := l.Store.Files.OpenFile(dest, flags, 0644)
	if err != nil {
		return err
	}
	defer func() {
		cerr := w.Close()
		if err == nil {
			err = cerr
		}
	}()
	_, err = io.Copy(w, r)
	return err
}
