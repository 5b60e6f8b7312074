// Package template implements {{dotted.path}} placeholder substitution for
// scenario and prompt text.
//
// Substitution is fail-open: tokens whose path cannot be resolved are left in
// the output verbatim, so a partially configured tenant still produces a
// usable prompt. Callers that want strictness run Validate first.
package template

import (
	"fmt"
	"regexp"
	"strings"
)

var tokenRe = regexp.MustCompile(`\{\{\s*([\w.-]+)\s*\}\}`)

// Result is the outcome of resolving a template against a context.
type Result struct {
	Resolved   string
	Unresolved []string
}

// Validation reports which template variables a context cannot satisfy.
type Validation struct {
	Valid   bool
	Missing []string
}

// Process substitutes every {{dotted.path}} token in tmpl with its value from
// ctx. Unresolvable tokens are preserved verbatim.
func Process(tmpl string, ctx map[string]any) string {
	return Resolve(tmpl, ctx).Resolved
}

// Resolve is Process with a typed result that also reports unresolved paths.
func Resolve(tmpl string, ctx map[string]any) Result {
	var unresolved []string
	resolved := tokenRe.ReplaceAllStringFunc(tmpl, func(token string) string {
		path := tokenRe.FindStringSubmatch(token)[1]
		v, ok := lookup(ctx, path)
		if !ok || v == nil {
			unresolved = append(unresolved, path)
			return token
		}
		return stringify(v)
	})
	return Result{Resolved: resolved, Unresolved: unresolved}
}

// ExtractVariables returns the raw dotted paths referenced by tmpl, in order
// of appearance, duplicates included.
func ExtractVariables(tmpl string) []string {
	matches := tokenRe.FindAllStringSubmatch(tmpl, -1)
	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, m[1])
	}
	return paths
}

// Validate cross-checks the variables in tmpl against ctx and reports the
// paths that would be left unresolved.
func Validate(tmpl string, ctx map[string]any) Validation {
	var missing []string
	seen := make(map[string]bool)
	for _, path := range ExtractVariables(tmpl) {
		if seen[path] {
			continue
		}
		seen[path] = true
		if v, ok := lookup(ctx, path); !ok || v == nil {
			missing = append(missing, path)
		}
	}
	return Validation{Valid: len(missing) == 0, Missing: missing}
}

// lookup descends ctx one path segment at a time. Any missing intermediate
// key ends the descent.
func lookup(ctx map[string]any, path string) (any, bool) {
	var current any = ctx
	for _, seg := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, stringify(e))
		}
		return strings.Join(parts, ", ")
	case float64:
		// JSON numbers decode as float64; print integers without a fraction.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
