// Package migration is the pipeline transformation engine: it walks a source
// pipeline's activity tree, inlines dataset references, rewrites parameter
// expressions into the shapes the target format expects, and surfaces the
// pipeline-to-pipeline invocations the deployment order is computed from.
package migration

import (
	"fabric-migrator/internal/adf"
	"fabric-migrator/internal/common/logging"
	"fabric-migrator/internal/migration/activities"
	"fabric-migrator/internal/migration/core"
	"fabric-migrator/internal/migration/expression"
)

// Engine composes the walker, the transformers and the expression passes
// into the per-pipeline transformation. Transformation is a pure function of
// (pipeline document, catalog snapshot); concurrent calls on distinct
// pipelines share no mutable state.
type Engine struct {
	registry core.TransformerRegistry
	walker   *Walker
	catalog  core.Catalog
	library  string
	log      logging.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLibrary sets the variable-library name global parameters are
// re-addressed to. Empty leaves global-parameter indirections verbatim.
func WithLibrary(name string) Option {
	return func(e *Engine) { e.library = name }
}

// WithLogger sets the engine logger.
func WithLogger(log logging.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithRegistry overrides the transformer registry. Tests use this to
// exercise degradation paths.
func WithRegistry(registry core.TransformerRegistry) Option {
	return func(e *Engine) { e.registry = registry }
}

// NewEngine creates a transformation engine over a catalog snapshot.
func NewEngine(catalog core.Catalog, opts ...Option) *Engine {
	e := &Engine{
		registry: activities.NewRegistry(),
		catalog:  catalog,
		log:      logging.GetGlobalLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.walker = NewWalker(e.registry)
	return e
}

// Result is the outcome of transforming one pipeline.
type Result struct {
	// Pipeline is the rewritten document, structurally valid for the
	// target format. The input pipeline is never mutated.
	Pipeline *adf.Pipeline
	// Diagnostics lists every degradation encountered, in traversal order.
	Diagnostics []core.Diagnostic
	// Invocations are the ExecutePipeline edges discovered at any depth.
	Invocations []core.InvocationEdge
	// Connections are the distinct external connection ids the transformed
	// pipeline now depends on.
	Connections []string
}

// Transform rewrites one pipeline into its target-format shape.
func (e *Engine) Transform(p *adf.Pipeline) *Result {
	tc := core.NewContext(p.Name, e.catalog, e.log)

	props := adf.CloneMap(p.Properties)
	if props == nil {
		props = make(map[string]any)
	}

	transformed := e.walker.WalkList(tc, p.Activities)
	props["activities"] = adf.RawActivityList(transformed)

	// First pass: re-address global parameters throughout the document.
	if e.library != "" {
		rewriteGlobalParameters(props, e.library)
	}

	// Second, narrower pass: wrapper objects whose inner string is a
	// library-variable indirection are flattened to the plain string. These
	// wrappers can only be recognized after the rewriting pass has run.
	flattenLibraryVariableWrappers(props)

	out := &adf.Pipeline{
		Name:       p.Name,
		Activities: adf.ActivityList(props["activities"]),
		Properties: props,
	}
	if params, ok := props["parameters"].(map[string]any); ok {
		out.Parameters = params
	}
	if vars, ok := props["variables"].(map[string]any); ok {
		out.Variables = vars
	}

	return &Result{
		Pipeline:    out,
		Diagnostics: tc.Diags.Items(),
		Invocations: tc.Invocations(),
		Connections: tc.Connections(),
	}
}

// rewriteGlobalParameters rewrites every global-parameter indirection
// string in the document to its library-variable form, in place.
func rewriteGlobalParameters(v any, library string) {
	switch t := v.(type) {
	case map[string]any:
		for key, value := range t {
			if s, ok := value.(string); ok {
				t[key] = expression.RewriteGlobalParameters(s, library)
				continue
			}
			rewriteGlobalParameters(value, library)
		}
	case []any:
		for i, item := range t {
			if s, ok := item.(string); ok {
				t[i] = expression.RewriteGlobalParameters(s, library)
				continue
			}
			rewriteGlobalParameters(item, library)
		}
	}
}

// flattenLibraryVariableWrappers replaces expression wrapper objects whose
// unwrapped value is a library-variable indirection with the plain string,
// so the indirection survives serialization instead of an opaque object.
func flattenLibraryVariableWrappers(v any) {
	switch t := v.(type) {
	case map[string]any:
		for key, value := range t {
			if flat, ok := libraryVariableLiteral(value); ok {
				t[key] = flat
				continue
			}
			flattenLibraryVariableWrappers(value)
		}
	case []any:
		for i, item := range t {
			if flat, ok := libraryVariableLiteral(item); ok {
				t[i] = flat
				continue
			}
			flattenLibraryVariableWrappers(item)
		}
	}
}

func libraryVariableLiteral(v any) (string, bool) {
	if !expression.IsWrapper(v) {
		return "", false
	}
	inner, err := expression.Unwrap(v)
	if err != nil {
		return "", false
	}
	s, ok := inner.(string)
	if !ok || !expression.IsLibraryVariableRef(s) {
		return "", false
	}
	return s, true
}
