package activities

import (
	"fabric-migrator/internal/adf"
	"fabric-migrator/internal/migration/core"
	"fabric-migrator/internal/migration/inline"
)

func init() {
	Register("Copy", &CopyTransformer{})
}

// CopyTransformer rewrites Copy activities: the input dataset is inlined
// under typeProperties.source.datasetSettings and the output dataset under
// typeProperties.sink.datasetSettings.
type CopyTransformer struct{}

func (t *CopyTransformer) Transform(tc *core.Context, act adf.Activity) (adf.Activity, error) {
	out := act.Clone()
	tp := out.EnsureTypeProperties()

	t.inlineRole(tc, out, tp, "source", act.Inputs())
	t.inlineRole(tc, out, tp, "sink", act.Outputs())

	stripSourceFields(out)
	return out, nil
}

func (t *CopyTransformer) inlineRole(tc *core.Context, act adf.Activity, tp map[string]any, role string, refs []adf.DatasetReference) {
	if len(refs) == 0 {
		tc.Warn(core.DatasetNotFound, act.Name(), "Copy activity declares no "+role+" dataset")
		return
	}

	section, ok := tp[role].(map[string]any)
	if !ok {
		section = make(map[string]any)
		tp[role] = section
	}

	settings, ok := inliner.Inline(tc, refs[0], inline.Options{
		Role:             role,
		Activity:         act.Name(),
		RequireStorePath: hasWildcard(section),
	})
	if ok {
		section["datasetSettings"] = settings
	}
}
