// Package naming derives test names from a template and a case value.
//
// Two placeholder syntaxes are understood:
//   - property paths such as $name or $user.profile.name, resolved against
//     record values
//   - positional tokens %s, %d and %j, consumed from sequence values in order
//     or filled once from any other value
//
// Property paths are resolved first; positional tokens are filled in the text
// that remains. A template with no placeholders gets a " (case i: value)"
// suffix instead.
package naming

import (
	"fmt"
	"regexp"

	"github.com/specvital/each/pkg/value"
)

const (
	// DefaultTemplate is used when a caller registers cases without a name.
	DefaultTemplate = "test case"

	caseSuffixFormat = " (case %d: %s)"
)

var (
	PropertyPattern   = regexp.MustCompile(`\$[A-Za-z_][A-Za-z0-9_-]*(?:\.[A-Za-z_][A-Za-z0-9_-]*)*`)
	PositionalPattern = regexp.MustCompile(`%[sdj]`)
)

// Format renders the name for the case v at index. It never fails: tokens
// that cannot be resolved are left in the output as written.
func Format(template string, v any, index int) string {
	kind := value.KindOf(v)
	if !hasPlaceholders(template, kind) {
		return template + CaseSuffix(v, index)
	}

	name := template
	if kind == value.KindRecord {
		name = interpolateProperties(name, v)
	}
	return interpolatePositional(name, v, kind)
}

// HasPlaceholders reports whether template has a token that Format would try
// to fill for v. Property tokens only count when v is a record.
func HasPlaceholders(template string, v any) bool {
	return hasPlaceholders(template, value.KindOf(v))
}

func hasPlaceholders(template string, kind value.Kind) bool {
	if PositionalPattern.MatchString(template) {
		return true
	}
	return kind == value.KindRecord && PropertyPattern.MatchString(template)
}

// CaseSuffix is the text appended to templates without placeholders.
func CaseSuffix(v any, index int) string {
	var rendered string
	switch value.KindOf(v) {
	case value.KindSequence:
		rendered = "[" + value.Join(v, ", ") + "]"
	case value.KindRecord:
		rendered = value.JSON(v)
	default:
		rendered = value.String(v)
	}
	return fmt.Sprintf(caseSuffixFormat, index, rendered)
}

func interpolateProperties(template string, v any) string {
	r := value.NewResolver(v)
	return PropertyPattern.ReplaceAllStringFunc(template, func(token string) string {
		if s, ok := r.Lookup(token[1:]); ok {
			return s
		}
		return token
	})
}

func interpolatePositional(template string, v any, kind value.Kind) string {
	if kind == value.KindSequence {
		elems := value.Elements(v)
		cursor := 0
		return PositionalPattern.ReplaceAllStringFunc(template, func(token string) string {
			if cursor >= len(elems) {
				return token
			}
			e := elems[cursor]
			cursor++
			return render(token, e)
		})
	}

	loc := PositionalPattern.FindStringIndex(template)
	if loc == nil {
		return template
	}
	return template[:loc[0]] + render(template[loc[0]:loc[1]], v) + template[loc[1]:]
}

func render(token string, v any) string {
	switch token {
	case "%d":
		return value.FormatNumber(v)
	case "%j":
		return value.JSON(v)
	default:
		return value.String(v)
	}
}
