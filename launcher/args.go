package launcher

import "regexp"

var placeholderPattern = regexp.MustCompile(`\$\{([a-zA-Z_]+)\}`)

// substitute expands ${placeholder} tokens in each argument from vars.
// Unknown placeholders pass through literally.
func substitute(args []string, vars map[string]string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = placeholderPattern.ReplaceAllStringFunc(arg, func(token string) string {
			key := token[2 : len(token)-1]
			if v, ok := vars[key]; ok {
				return v
			}
			return token
		})
	}
	return out
}
