package manifest

import "github.com/sdauwidhwa/NMCL/rules"

// Evaluate applies env to m: libraries whose rules do not match are
// dropped, conditional arguments are kept with their values or dropped,
// and the surviving entries are ready for placeholder substitution.
// m itself is not modified.
func Evaluate(m *Manifest, env rules.Environment) *Manifest {
	out := *m

	out.Libraries = make([]Library, 0, len(m.Libraries))
	for _, lib := range m.Libraries {
		if !rules.Evaluate(lib.Rules, env) {
			continue
		}
		out.Libraries = append(out.Libraries, lib)
	}

	out.Arguments = Arguments{
		JVM:  evaluateArgs(m.Arguments.JVM, env),
		Game: evaluateArgs(m.Arguments.Game, env),
	}
	return &out
}

func evaluateArgs(args []Argument, env rules.Environment) []Argument {
	out := make([]Argument, 0, len(args))
	for _, a := range args {
		if a.Literal {
			out = append(out, a)
			continue
		}
		if !rules.Evaluate(a.Rules, env) {
			continue
		}
		out = append(out, Argument{Values: a.Values})
	}
	return out
}
