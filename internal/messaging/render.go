// Package messaging turns templates and shop data into ready-to-send customer messages.
package messaging

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
)

// Vars maps placeholder names to values. Values are expected to be strings or numbers
// already formatted by the caller; nil means unset.
type Vars map[string]any

// Result is a rendered template. Missing lists, sorted and without duplicates, the
// placeholders the body used that had no entry in Vars.
type Result struct {
	Text    string
	Missing []string
}

var placeholderRE = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Render substitutes every {{key}} in body with the stringified value of vars[key].
// Tokens are matched literally: "{{ name }}" is not the same key as "{{name}}".
// Substituted values are never rescanned, so a value containing "{{x}}" is kept verbatim.
//
// Nil values and absent keys render as the empty string. A zero number renders as "0".
func Render(body string, vars Vars) Result {
	var missing []string
	text := placeholderRE.ReplaceAllStringFunc(body, func(token string) string {
		key := token[2 : len(token)-2]
		v, ok := vars[key]
		if !ok {
			missing = append(missing, key)
			return ""
		}
		return stringify(v)
	})

	slices.Sort(missing)
	return Result{Text: text, Missing: slices.Compact(missing)}
}

// Placeholders returns the distinct keys referenced by body in order of first use.
func Placeholders(body string) []string {
	var keys []string
	for _, m := range placeholderRE.FindAllStringSubmatch(body, -1) {
		if !slices.Contains(keys, m[1]) {
			keys = append(keys, m[1])
		}
	}
	return keys
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
