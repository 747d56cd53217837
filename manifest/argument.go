package manifest

import (
	"encoding/json"
	"fmt"

	"github.com/sdauwidhwa/NMCL/rules"
)

// Argument is one jvm/game argument entry: either a bare string, which
// always applies, or an object carrying rules and a value that may be
// a string or a list of strings spliced in when the rules allow.
type Argument struct {
	Values  []string
	Rules   []rules.Rule
	Literal bool
}

func (a *Argument) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		a.Values = []string{s}
		a.Rules = nil
		a.Literal = true
		return nil
	}

	var obj struct {
		Rules []rules.Rule    `json:"rules"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("decode argument: %w", err)
	}
	a.Rules = obj.Rules
	a.Literal = false
	a.Values = nil
	if len(obj.Value) == 0 {
		return nil
	}
	if err := json.Unmarshal(obj.Value, &s); err == nil {
		a.Values = []string{s}
		return nil
	}
	var vv []string
	if err := json.Unmarshal(obj.Value, &vv); err != nil {
		return fmt.Errorf("decode argument value: %w", err)
	}
	a.Values = vv
	return nil
}

func (a Argument) MarshalJSON() ([]byte, error) {
	if a.Literal && len(a.Values) == 1 && len(a.Rules) == 0 {
		return json.Marshal(a.Values[0])
	}
	obj := map[string]interface{}{}
	if len(a.Rules) > 0 {
		obj["rules"] = a.Rules
	}
	if len(a.Values) == 1 {
		obj["value"] = a.Values[0]
	} else {
		obj["value"] = a.Values
	}
	return json.Marshal(obj)
}

// Flatten splices argument values into one flat ordered list.
func Flatten(args []Argument) []string {
	var out []string
	for _, a := range args {
		out = append(out, a.Values...)
	}
	return out
}
