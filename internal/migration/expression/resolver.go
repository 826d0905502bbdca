// Package expression resolves the parameter-expression values of the source
// format: it unwraps {"value": ..., "type": "Expression"} objects (at any
// wrap depth), substitutes dataset().<name> placeholder tokens, and leaves
// cross-environment indirections (global parameters, library variables)
// intact as plain strings.
package expression

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// maxUnwrapDepth bounds wrapper unwrapping on top of the identity-based
// cycle guard. Real documents wrap once, malformed ones twice; anything
// deeper is broken input.
const maxUnwrapDepth = 32

var (
	// datasetParamRe matches @dataset().name and @{dataset().name} tokens.
	datasetParamRe = regexp.MustCompile(`@\{?dataset\(\)\.([A-Za-z0-9_]+)\}?`)

	// wholeDatasetParamRe matches strings that are exactly one token, in
	// which case the bound value is returned untouched instead of being
	// stringified into a template.
	wholeDatasetParamRe = regexp.MustCompile(`^@\{?dataset\(\)\.([A-Za-z0-9_]+)\}?$`)

	globalParameterRe = regexp.MustCompile(`pipeline\(\)\.globalParameters\.([A-Za-z0-9_]+)`)
	libraryVariableRe = regexp.MustCompile(`pipeline\(\)\.libraryVariables\.[A-Za-z0-9_]+`)
)

// ResolveError describes why a value could not be resolved.
type ResolveError struct {
	Reason string
	Value  any
}

func (e *ResolveError) Error() string {
	return e.Reason
}

// IsWrapper reports whether v is a parameter expression wrapper object.
func IsWrapper(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	t, _ := m["type"].(string)
	if !strings.EqualFold(t, "Expression") {
		return false
	}
	_, hasValue := m["value"]
	return hasValue
}

// Unwrap removes expression wrapper objects until a non-wrapper value
// remains. Circular or over-deep wrapping is a resolution failure, never an
// infinite loop.
func Unwrap(v any) (any, error) {
	visited := make(map[uintptr]bool)
	for depth := 0; IsWrapper(v); depth++ {
		if depth >= maxUnwrapDepth {
			return nil, &ResolveError{Reason: fmt.Sprintf("expression wrapper exceeds depth limit %d", maxUnwrapDepth), Value: v}
		}
		ptr := reflect.ValueOf(v).Pointer()
		if visited[ptr] {
			return nil, &ResolveError{Reason: "circular expression wrapper", Value: v}
		}
		visited[ptr] = true
		v = v.(map[string]any)["value"]
	}
	return v, nil
}

// Resolve extracts the literal value of v against the given parameter
// bindings: wrappers are unwrapped, dataset().<name> tokens inside strings
// are substituted with their (recursively resolved) bound values, and the
// substituted result is validated. Non-string scalars pass through
// unchanged. Indirection strings (pipeline().globalParameters.*,
// pipeline().libraryVariables.*) survive verbatim; resolving them to values
// is a cross-environment concern outside this resolver.
func Resolve(v any, bindings map[string]any) (any, error) {
	return resolve(v, bindings, 0)
}

func resolve(v any, bindings map[string]any, depth int) (any, error) {
	if depth >= maxUnwrapDepth {
		return nil, &ResolveError{Reason: fmt.Sprintf("parameter resolution exceeds depth limit %d", maxUnwrapDepth), Value: v}
	}

	unwrapped, err := Unwrap(v)
	if err != nil {
		return nil, err
	}

	s, isString := unwrapped.(string)
	if !isString {
		return unwrapped, nil
	}

	// A string that is exactly one placeholder token resolves to the bound
	// value itself, preserving its type.
	if m := wholeDatasetParamRe.FindStringSubmatch(s); m != nil {
		bound, ok := bindings[m[1]]
		if !ok {
			return nil, &ResolveError{Reason: fmt.Sprintf("dataset parameter '%s' has no binding", m[1]), Value: v}
		}
		resolved, err := resolve(bound, bindings, depth+1)
		if err != nil {
			return nil, err
		}
		return validate(resolved)
	}

	// Embedded tokens are substituted textually.
	var substErr error
	result := datasetParamRe.ReplaceAllStringFunc(s, func(match string) string {
		name := datasetParamRe.FindStringSubmatch(match)[1]
		bound, ok := bindings[name]
		if !ok {
			substErr = &ResolveError{Reason: fmt.Sprintf("dataset parameter '%s' has no binding", name), Value: v}
			return match
		}
		resolved, err := resolve(bound, bindings, depth+1)
		if err != nil {
			substErr = err
			return match
		}
		return stringify(resolved)
	})
	if substErr != nil {
		return nil, substErr
	}

	return validate(result)
}

// validate rejects substitution results that are effectively unset: empty
// after trimming, or the literal texts "undefined"/"null". Non-string
// values are never rejected.
func validate(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, &ResolveError{Reason: "resolved value is empty", Value: v}
	}
	if trimmed == "undefined" || trimmed == "null" {
		return nil, &ResolveError{Reason: fmt.Sprintf("resolved value is the literal text %q", trimmed), Value: v}
	}
	return s, nil
}

// stringify converts a resolved value to its textual form for embedding
// into a template string.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// HasDatasetToken reports whether s contains a dataset parameter
// placeholder token.
func HasDatasetToken(s string) bool {
	return datasetParamRe.MatchString(s)
}

// IsLibraryVariableRef reports whether s contains a library-variable
// indirection (pipeline().libraryVariables.<Library>_<Name>).
func IsLibraryVariableRef(s string) bool {
	return libraryVariableRe.MatchString(s)
}

// IsGlobalParameterRef reports whether s contains a global-parameter
// indirection (pipeline().globalParameters.<Name>).
func IsGlobalParameterRef(s string) bool {
	return globalParameterRe.MatchString(s)
}

// RewriteGlobalParameters re-addresses global-parameter indirections to
// library variables: pipeline().globalParameters.X becomes
// pipeline().libraryVariables.<library>_X. With an empty library name the
// string is returned unchanged.
func RewriteGlobalParameters(s, library string) string {
	if library == "" || !globalParameterRe.MatchString(s) {
		return s
	}
	return globalParameterRe.ReplaceAllString(s, "pipeline().libraryVariables."+library+"_$1")
}
