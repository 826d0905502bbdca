package migration

import (
	"fabric-migrator/internal/adf"
	"fabric-migrator/internal/common/logging"
	"fabric-migrator/internal/migration/core"
	"fabric-migrator/internal/migration/order"
)

// RunResult is the outcome of transforming every pipeline of one run, plus
// the deployment order computed over the discovered invocation edges.
type RunResult struct {
	Results []*Result
	// Order covers every pipeline in the run. Nil when a dependency cycle
	// was detected; the cycle is reported in Diagnostics instead.
	Order []order.Entry
	// Diagnostics aggregates every pipeline's diagnostics plus any
	// run-level ones, such as a dependency cycle.
	Diagnostics []core.Diagnostic
}

// TransformAll transforms each pipeline independently, then joins on the
// deployment order calculation. Per-pipeline transformation has no ordering
// dependency; the order calculation needs every pipeline's traversal output
// and therefore runs last.
func (e *Engine) TransformAll(pipelines []*adf.Pipeline) *RunResult {
	run := &RunResult{}

	names := make([]string, 0, len(pipelines))
	var edges []core.InvocationEdge
	for _, p := range pipelines {
		result := e.Transform(p)
		run.Results = append(run.Results, result)
		run.Diagnostics = append(run.Diagnostics, result.Diagnostics...)
		edges = append(edges, result.Invocations...)
		names = append(names, p.Name)
	}

	entries, err := order.Compute(names, edges)
	if err != nil {
		detail := err.Error()
		e.log.Error("deployment order computation failed", err)
		run.Diagnostics = append(run.Diagnostics, core.Diagnostic{
			Code:     core.DependencyCycle,
			Severity: core.SeverityError,
			Detail:   detail,
		})
		return run
	}
	run.Order = entries

	e.log.Info("migration run transformed",
		logging.Int("pipelines", len(pipelines)),
		logging.Int("diagnostics", len(run.Diagnostics)))
	return run
}

// Err aggregates the run's error-severity diagnostics into one error
// value, or nil when the run degraded at most to warnings.
func (r *RunResult) Err() error {
	return core.Aggregate(r.Diagnostics)
}

// OrderedResults returns the per-pipeline results in deployment order,
// callees first. Without a computed order (dependency cycle) the
// transformation order is kept.
func (r *RunResult) OrderedResults() []*Result {
	if r.Order == nil {
		return r.Results
	}
	byName := make(map[string]*Result, len(r.Results))
	for _, result := range r.Results {
		byName[result.Pipeline.Name] = result
	}
	out := make([]*Result, 0, len(r.Results))
	for _, entry := range r.Order {
		if result, ok := byName[entry.Pipeline]; ok {
			out = append(out, result)
		}
	}
	return out
}

// ActivityCount returns the total number of activities across all
// transformed pipelines, containers included.
func (r *RunResult) ActivityCount() int {
	total := 0
	for _, result := range r.Results {
		VisitActivities(result.Pipeline.Activities, func(adf.Activity) {
			total++
		})
	}
	return total
}

// VisitActivities calls fn for every activity in the list, descending into
// every container shape, in document order.
func VisitActivities(list []adf.Activity, fn func(adf.Activity)) {
	for _, act := range list {
		fn(act)
		shape, ok := containerShapes[act.Kind()]
		if !ok {
			continue
		}
		tp := act.TypeProperties()
		if tp == nil {
			continue
		}
		if shape.caseListKey != "" {
			if cases, ok := tp[shape.caseListKey].([]any); ok {
				for _, item := range cases {
					if caseObj, ok := item.(map[string]any); ok {
						VisitActivities(adf.ActivityList(caseObj[shape.caseItemKey]), fn)
					}
				}
			}
		}
		for _, key := range shape.listKeys {
			VisitActivities(adf.ActivityList(tp[key]), fn)
		}
	}
}
