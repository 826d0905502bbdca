package activities

import (
	"fabric-migrator/internal/adf"
	"fabric-migrator/internal/migration/core"
	"fabric-migrator/internal/migration/expression"
)

func init() {
	Register("Script", &ScriptTransformer{})
}

// ScriptTransformer rewrites Script activities, which address their store
// through an activity-level linked service instead of a dataset. The linked
// service becomes an activity-level external connection reference.
type ScriptTransformer struct{}

func (t *ScriptTransformer) Transform(tc *core.Context, act adf.Activity) (adf.Activity, error) {
	out := act.Clone()
	attachConnection(tc, out, act.LinkedServiceName())

	// Script block parameter values can arrive wrapped.
	if tp := out.TypeProperties(); tp != nil {
		if scripts, ok := tp["scripts"].([]any); ok {
			for _, item := range scripts {
				block, ok := item.(map[string]any)
				if !ok {
					continue
				}
				if params, ok := block["parameters"].([]any); ok {
					t.unwrapScriptParameters(tc, act.Name(), params)
				}
			}
		}
	}

	stripSourceFields(out)
	return out, nil
}

func (t *ScriptTransformer) unwrapScriptParameters(tc *core.Context, activity string, params []any) {
	for _, item := range params {
		param, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if !expression.IsWrapper(param["value"]) {
			continue
		}
		literal, err := expression.Unwrap(param["value"])
		if err != nil {
			name, _ := param["name"].(string)
			tc.Warn(core.UnresolvableExpression, activity, "script parameter '"+name+"': "+err.Error())
			delete(param, "value")
			continue
		}
		param["value"] = literal
	}
}
