package core

import (
	"fabric-migrator/internal/adf"
	"fabric-migrator/internal/common/logging"
)

// Catalog is the resolved dataset/connection snapshot a transformation runs
// against. Lookups never perform I/O; the snapshot is built up front.
type Catalog interface {
	// Resolve returns the dataset definition for a dataset name.
	Resolve(name string) (*adf.DatasetDefinition, bool)
	// ConnectionFor returns the pre-established target connection id for a
	// dataset or linked-service name.
	ConnectionFor(name string) (string, bool)
	// Supports decides whether a source connector type has a target
	// equivalent. Pure function of the current supported-type snapshot.
	Supports(sourceType string) Decision
}

// Decision is the outcome of a connector-support check.
type Decision struct {
	Supported bool
	Reason    string
}

// InvocationEdge records one pipeline-invokes-pipeline reference discovered
// during traversal, at any nesting depth.
type InvocationEdge struct {
	Caller   string `json:"caller"`
	Callee   string `json:"callee"`
	Activity string `json:"activity"`
}

// Context carries the per-pipeline state of one transformation: the catalog
// snapshot, the diagnostics sink, and the traversal discoveries. It is not
// shared between concurrently transforming pipelines.
type Context struct {
	Pipeline string
	Catalog  Catalog
	Diags    *Diagnostics
	Log      logging.Logger

	edges       []InvocationEdge
	connections []string
	seenConns   map[string]bool
}

// NewContext creates a transform context for one pipeline.
func NewContext(pipeline string, catalog Catalog, log logging.Logger) *Context {
	if log == nil {
		log = logging.GetGlobalLogger()
	}
	return &Context{
		Pipeline:  pipeline,
		Catalog:   catalog,
		Diags:     &Diagnostics{},
		Log:       log.WithFields(logging.String("pipeline", pipeline)),
		seenConns: make(map[string]bool),
	}
}

// Warn records a warning diagnostic and logs it.
func (c *Context) Warn(code Code, activity, detail string) {
	c.Diags.Add(Diagnostic{
		Code:     code,
		Severity: SeverityWarning,
		Pipeline: c.Pipeline,
		Activity: activity,
		Detail:   detail,
	})
	c.Log.Warn(detail, logging.String("code", string(code)), logging.String("activity", activity))
}

// Fail records an error diagnostic and logs it. The transformation still
// continues; errors mean a field or role was omitted, not that the pipeline
// was abandoned.
func (c *Context) Fail(code Code, activity, detail string) {
	c.Diags.Add(Diagnostic{
		Code:     code,
		Severity: SeverityError,
		Pipeline: c.Pipeline,
		Activity: activity,
		Detail:   detail,
	})
	c.Log.Error(detail, nil, logging.String("code", string(code)), logging.String("activity", activity))
}

// RecordInvocation registers a caller-invokes-callee edge for the
// deployment order calculator.
func (c *Context) RecordInvocation(callee, activity string) {
	c.edges = append(c.edges, InvocationEdge{
		Caller:   c.Pipeline,
		Callee:   callee,
		Activity: activity,
	})
}

// Invocations returns the edges discovered so far, in traversal order.
func (c *Context) Invocations() []InvocationEdge {
	return c.edges
}

// RecordConnection registers a target connection the transformed pipeline
// now depends on. Duplicates collapse.
func (c *Context) RecordConnection(id string) {
	if id == "" || c.seenConns[id] {
		return
	}
	c.seenConns[id] = true
	c.connections = append(c.connections, id)
}

// Connections returns the distinct connection ids in first-seen order.
func (c *Context) Connections() []string {
	return c.connections
}

// Transformer rewrites one leaf activity into its target-format shape.
// Implementations record degradations on the context rather than failing;
// a returned error is itself converted into a diagnostic by the walker.
type Transformer interface {
	Transform(tc *Context, act adf.Activity) (adf.Activity, error)
}

// TransformerRegistry resolves an activity kind to its transformer.
type TransformerRegistry interface {
	Get(kind string) (Transformer, bool)
}
