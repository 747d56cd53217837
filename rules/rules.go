// Package rules decides whether a library or argument applies to the
// host platform. Version manifests attach allow/disallow rules to
// entries; the default is allow, explicit allow rules narrow the set,
// and any matching disallow rule vetoes.
package rules

import (
	"regexp"

	"github.com/charmbracelet/log"
)

const (
	ActionAllow    = "allow"
	ActionDisallow = "disallow"
)

type OS struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
	Arch    string `json:"arch,omitempty"`
}

type Rule struct {
	Action   string          `json:"action"`
	OS       *OS             `json:"os,omitempty"`
	Features map[string]bool `json:"features,omitempty"`
}

// Matches reports whether every constraint the rule lists holds in env.
// A rule with no constraints matches everything.
func (r Rule) Matches(env Environment) bool {
	for feature, required := range r.Features {
		if env.Features[feature] != required {
			return false
		}
	}
	if r.OS == nil {
		return true
	}
	if r.OS.Name != "" && r.OS.Name != env.OS.Name {
		return false
	}
	if r.OS.Version != "" && !matchPattern(r.OS.Version, env.OS.Version) {
		return false
	}
	if r.OS.Arch != "" && !matchPattern(r.OS.Arch, env.OS.Arch) {
		return false
	}
	return true
}

// Evaluate applies the rule list to env. An empty list allows.
// Any matching disallow rule denies; otherwise, if allow rules are
// present at least one of them must match.
func Evaluate(rr []Rule, env Environment) bool {
	if len(rr) == 0 {
		return true
	}
	hasAllow := false
	for _, r := range rr {
		if r.Action == ActionDisallow && r.Matches(env) {
			return false
		}
		if r.Action == ActionAllow {
			hasAllow = true
		}
	}
	if !hasAllow {
		return true
	}
	for _, r := range rr {
		if r.Action == ActionAllow && r.Matches(env) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, value string) bool {
	ok, err := regexp.MatchString(pattern, value)
	if err != nil {
		log.Debug("bad rule pattern", "pattern", pattern, "err", err)
		return false
	}
	return ok
}
