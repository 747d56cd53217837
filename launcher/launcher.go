// Package launcher turns a stored instance into a running game
// process: it evaluates the manifest against the live platform,
// unpacks natives, builds the classpath and argument list, and spawns
// the process capturing its output into a structured log.
package launcher

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sdauwidhwa/NMCL/instance"
	"github.com/sdauwidhwa/NMCL/manifest"
	"github.com/sdauwidhwa/NMCL/rules"
)

const (
	DefaultMainClass = "net.minecraft.client.main.Main"
	DefaultJava      = "java"
	DefaultWidth     = 854
	DefaultHeight    = 480

	logDir = "nmcllog"
)

// Identity is the credential substituted into launch arguments.
type Identity struct {
	UUID        string
	AccessToken string
	Username    string
}

// Offline is the placeholder identity used when no account is
// selected.
func Offline() Identity {
	return Identity{
		UUID:        "00000000-0000-0000-0000-000000000000",
		AccessToken: "0",
		Username:    "player",
	}
}

// Launcher spawns game processes from stored instances. Root is the
// absolute OS path of the data directory backing Store.Files; the
// spawned process needs real paths for its working directory and
// classpath.
type Launcher struct {
	Store *instance.Store
	Root  string

	Java    string
	Name    string // launcher_name placeholder
	Version string // launcher_version placeholder
	Width   int
	Height  int
}

func (l *Launcher) java() string {
	if l.Java != "" {
		return l.Java
	}
	return DefaultJava
}

// Launch prepares and spawns the instance. It blocks until the game
// exits and its log is written; resolution failures before the spawn
// are returned, while a spawn or runtime failure is recorded in the
// launch log and reported to the operator only.
func (l *Launcher) Launch(ctx context.Context, instName string, id Identity) error {
	m, err := l.Store.ReadManifest(instName)
	if err != nil {
		return err
	}
	ev := manifest.Evaluate(m, rules.Host())
	if err := l.Store.WriteInstanceFile(instName, instance.EvaluatedFile, ev); err != nil {
		return err
	}

	if err := l.unpackNatives(ev, instName, nativeClassifier(runtime.GOOS), nativeSuffix(runtime.GOOS)); err != nil {
		return err
	}

	instDir := filepath.Join(l.Root, instance.VersionsDir, instName)
	classpath := BuildClasspath(
		ev.Libraries,
		filepath.Join(l.Root, instance.LibrariesDir),
		filepath.Join(instDir, "client.jar"),
		string(os.PathListSeparator),
	)

	vars := l.substitutions(ev, instName, instDir, classpath, id)
	mainClass := ev.MainClass
	if mainClass == "" {
		mainClass = DefaultMainClass
	}

	jvmArgs := substitute(manifest.Flatten(ev.Arguments.JVM), vars)
	gameArgs := substitute(manifest.Flatten(ev.Arguments.Game), vars)

	final := make([]string, 0, len(jvmArgs)+1+len(gameArgs))
	final = append(final, jvmArgs...)
	final = append(final, mainClass)
	final = append(final, gameArgs...)

	if err := l.Store.WriteInstanceFile(instName, instance.LaunchArgsFile, final); err != nil {
		return err
	}

	l.run(instName, instDir, final)
	return nil
}

func (l *Launcher) substitutions(ev *manifest.Manifest, instName, instDir, classpath string, id Identity) map[string]string {
	name, version := l.Name, l.Version
	if name == "" {
		name = "NMCL"
	}
	if version == "" {
		version = "1.0"
	}
	width, height := l.Width, l.Height
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	assetsIndex := "legacy"
	if ev.AssetIndex != nil {
		assetsIndex = instName
	}
	versionName, versionType := ev.ID, ev.Type
	if versionName == "" {
		versionName = "unknown"
	}
	if versionType == "" {
		versionType = "release"
	}
	return map[string]string{
		"natives_directory": filepath.Join(instDir, "natives"),
		"launcher_name":     name,
		"launcher_version":  version,
		"classpath":         classpath,
		"assets_root":       filepath.Join(l.Root, instance.AssetsDir),
		"assets_index_name": assetsIndex,
		"auth_uuid":         id.UUID,
		"auth_access_token": id.AccessToken,
		"auth_player_name":  id.Username,
		"user_type":         "mojang",
		"version_name":      versionName,
		"version_type":      versionType,
		"game_directory":    instDir,
		"resolution_width":  strconv.Itoa(width),
		"resolution_height": strconv.Itoa(height),
	}
}

// logEntry is one line of the per-launch structured log.
type logEntry struct {
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Message   string `json:"message,omitempty"`
	Code      *int   `json:"code,omitempty"`
}

type runLog struct {
	mu      sync.Mutex
	entries []logEntry
}

func (rl *runLog) add(kind, message string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.entries = append(rl.entries, logEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Type:      kind,
		Message:   message,
	})
}

func (rl *runLog) exit(code int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.entries = append(rl.entries, logEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Type:      "exit",
		Code:      &code,
	})
}

// run spawns the process and captures stdout/stderr line by line. The
// accumulated log is written under the instance's log directory; a
// write failure is reported, never propagated, since the game has
// already started.
func (l *Launcher) run(instName, instDir string, args []string) {
	rl := &runLog{}
	stamp := time.Now().Format("2006-01-02T1504")
	logFile := l.Store.Files.Join(logDir, stamp+".json")

	cmd := exec.Command(l.java(), args...)
	cmd.Dir = instDir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		rl.add("error", err.Error())
		l.writeLog(instName, logFile, rl)
		log.Error("launch", "instance", instName, "err", err)
		return
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		rl.add("error", err.Error())
		l.writeLog(instName, logFile, rl)
		log.Error("launch", "instance", instName, "err", err)
		return
	}

	if err := cmd.Start(); err != nil {
		rl.add("error", err.Error())
		l.writeLog(instName, logFile, rl)
		log.Error("spawn", "instance", instName, "java", l.java(), "err", err)
		return
	}
	log.Info("game started", "instance", instName, "pid", cmd.Process.Pid)

	var wg sync.WaitGroup
	scan := func(kind string, r *bufio.Scanner) {
		defer wg.Done()
		for r.Scan() {
			rl.add(kind, r.Text())
		}
	}
	wg.Add(2)
	go scan("stdout", bufio.NewScanner(stdout))
	go scan("stderr", bufio.NewScanner(stderr))
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			rl.exit(ee.ExitCode())
		} else {
			rl.add("error", err.Error())
		}
	} else {
		rl.exit(0)
	}

	l.writeLog(instName, logFile, rl)
	log.Info("game exited", "instance", instName, "log", logFile)
}

// writeLog persists the accumulated entries as a JSON array under the
// instance's log directory.
func (l *Launcher) writeLog(instName, logFile string, rl *runLog) {
	rl.mu.Lock()
	entries := rl.entries
	rl.mu.Unlock()
	if entries == nil {
		entries = []logEntry{}
	}
	if err := l.Store.WriteInstanceFile(instName, logFile, entries); err != nil {
		log.Error("write log", "instance", instName, "path", logFile, "err", err)
	}
}
