package activities

import (
	"fabric-migrator/internal/adf"
	"fabric-migrator/internal/migration/core"
)

func init() {
	Register("ExecutePipeline", &ExecutePipelineTransformer{})
}

// ExecutePipelineTransformer rewrites ExecutePipeline activities. It has no
// dataset roles; its job is to unwrap the invocation parameters to literals
// and to record the caller-invokes-callee edge for the deployment order
// calculator, however deeply nested the activity sits.
type ExecutePipelineTransformer struct{}

func (t *ExecutePipelineTransformer) Transform(tc *core.Context, act adf.Activity) (adf.Activity, error) {
	out := act.Clone()
	tp := out.EnsureTypeProperties()

	if ref, ok := tp["pipeline"].(map[string]any); ok {
		if callee, ok := ref["referenceName"].(string); ok && callee != "" {
			tc.RecordInvocation(callee, act.Name())
		} else {
			tc.Warn(core.UnresolvableExpression, act.Name(), "ExecutePipeline activity has no pipeline reference name")
		}
	} else {
		tc.Warn(core.UnresolvableExpression, act.Name(), "ExecutePipeline activity has no pipeline reference")
	}

	if params, ok := tp["parameters"].(map[string]any); ok {
		unwrapParameters(tc, act.Name(), params)
	}

	stripSourceFields(out)
	return out, nil
}
