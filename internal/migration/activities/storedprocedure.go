package activities

import (
	"fabric-migrator/internal/adf"
	"fabric-migrator/internal/migration/core"
	"fabric-migrator/internal/migration/expression"
)

func init() {
	Register("SqlServerStoredProcedure", &StoredProcedureTransformer{})
}

// StoredProcedureTransformer rewrites SqlServerStoredProcedure activities:
// the activity-level linked service becomes an external connection
// reference, and wrapped stored-procedure parameter values are unwrapped to
// literals before the document is emitted.
type StoredProcedureTransformer struct{}

func (t *StoredProcedureTransformer) Transform(tc *core.Context, act adf.Activity) (adf.Activity, error) {
	out := act.Clone()
	attachConnection(tc, out, act.LinkedServiceName())

	if tp := out.TypeProperties(); tp != nil {
		if params, ok := tp["storedProcedureParameters"].(map[string]any); ok {
			for name, item := range params {
				param, ok := item.(map[string]any)
				if !ok {
					continue
				}
				if !expression.IsWrapper(param["value"]) {
					continue
				}
				literal, err := expression.Unwrap(param["value"])
				if err != nil {
					tc.Warn(core.UnresolvableExpression, act.Name(), "stored procedure parameter '"+name+"': "+err.Error())
					delete(param, "value")
					continue
				}
				param["value"] = literal
			}
		}
	}

	stripSourceFields(out)
	return out, nil
}
