package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linuxEnv() Environment {
	return Environment{
		OS:       HostOS{Name: "linux", Version: "6.1.0", Arch: "x64"},
		Features: map[string]bool{},
	}
}

func TestEvaluate_EmptyRules(t *testing.T) {
	assert.True(t, Evaluate(nil, linuxEnv()))
	assert.True(t, Evaluate([]Rule{}, linuxEnv()))
}

func TestEvaluate_MatchingDisallow(t *testing.T) {
	rr := []Rule{
		{Action: ActionDisallow, OS: &OS{Name: "linux"}},
	}
	assert.False(t, Evaluate(rr, linuxEnv()))
}

func TestEvaluate_DisallowVetoesAllow(t *testing.T) {
	rr := []Rule{
		{Action: ActionAllow},
		{Action: ActionDisallow, OS: &OS{Name: "linux"}},
	}
	assert.False(t, Evaluate(rr, linuxEnv()))
}

func TestEvaluate_AllowMatchesDisallowDoesNot(t *testing.T) {
	rr := []Rule{
		{Action: ActionAllow, OS: &OS{Name: "linux"}},
		{Action: ActionDisallow, OS: &OS{Name: "osx"}},
	}
	assert.True(t, Evaluate(rr, linuxEnv()))
}

func TestEvaluate_AllowNarrows(t *testing.T) {
	// Allow rules present but none match: denied.
	rr := []Rule{
		{Action: ActionAllow, OS: &OS{Name: "windows"}},
		{Action: ActionAllow, OS: &OS{Name: "osx"}},
	}
	assert.False(t, Evaluate(rr, linuxEnv()))
}

func TestEvaluate_BareAllowMatchesAnywhere(t *testing.T) {
	rr := []Rule{{Action: ActionAllow}}
	assert.True(t, Evaluate(rr, linuxEnv()))
}

func TestRule_Features(t *testing.T) {
	env := linuxEnv()
	env.Features["is_demo_user"] = true

	r := Rule{Action: ActionAllow, Features: map[string]bool{"is_demo_user": true}}
	assert.True(t, r.Matches(env))

	r = Rule{Action: ActionAllow, Features: map[string]bool{"is_demo_user": false}}
	assert.False(t, r.Matches(env))

	// A feature absent from the environment counts as false.
	r = Rule{Action: ActionAllow, Features: map[string]bool{"has_custom_resolution": true}}
	assert.False(t, r.Matches(env))
}

func TestRule_VersionAndArchPatterns(t *testing.T) {
	env := Environment{OS: HostOS{Name: "windows", Version: "10.0.19045", Arch: "x64"}}

	r := Rule{OS: &OS{Name: "windows", Version: `^10\.`}}
	assert.True(t, r.Matches(env))

	r = Rule{OS: &OS{Version: `^11\.`}}
	assert.False(t, r.Matches(env))

	// Patterns are searched, not anchored.
	r = Rule{OS: &OS{Version: `19045`}}
	assert.True(t, r.Matches(env))

	// The stock 32-bit rule must not catch 64-bit hosts.
	r = Rule{OS: &OS{Arch: "x86"}}
	assert.False(t, r.Matches(env))
	r = Rule{OS: &OS{Arch: "x64"}}
	assert.True(t, r.Matches(env))
}

func TestArchName(t *testing.T) {
	assert.Equal(t, "x64", archName("amd64"))
	assert.Equal(t, "ia32", archName("386"))
	assert.Equal(t, "arm64", archName("arm64"))
	assert.Equal(t, "riscv64", archName("riscv64"))
}

func TestRule_BadPatternNeverMatches(t *testing.T) {
	r := Rule{OS: &OS{Version: `(`}}
	assert.False(t, r.Matches(linuxEnv()))
}

func TestHost(t *testing.T) {
	env := Host()
	require.NotNil(t, env.Features)
	assert.Contains(t, []string{"windows", "osx", "linux", ""}, env.OS.Name)
	// Version-gated rules rely on the host release string being there.
	assert.NotEmpty(t, env.OS.Version)
}
