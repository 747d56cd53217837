package rules

import "runtime"

// Environment is the platform a manifest is evaluated against.
type Environment struct {
	OS       HostOS
	Features map[string]bool
}

type HostOS struct {
	Name    string // windows, osx or linux
	Version string
	Arch    string
}

// Host derives the environment once from the running platform.
// Manifest rules use Mojang's platform names, not Go's.
func Host() Environment {
	return Environment{
		OS: HostOS{
			Name:    osName(runtime.GOOS),
			Version: osVersion(),
			Arch:    archName(runtime.GOARCH),
		},
		Features: map[string]bool{},
	}
}

func osName(goos string) string {
	switch goos {
	case "windows":
		return "windows"
	case "darwin":
		return "osx"
	case "linux":
		return "linux"
	}
	return ""
}

// archName uses the node os.arch() vocabulary that manifest rules are
// written against. Arch patterns are searched, not anchored, so the
// 64-bit name must not contain the 32-bit one: the stock "x86" rule
// has to miss on x64 hosts.
func archName(goarch string) string {
	switch goarch {
	case "386":
		return "ia32"
	case "amd64":
		return "x64"
	case "arm":
		return "arm"
	case "arm64":
		return "arm64"
	}
	return goarch
}
