package activities

import (
	"fabric-migrator/internal/adf"
	"fabric-migrator/internal/migration/core"
	"fabric-migrator/internal/migration/inline"
)

func init() {
	Register("Delete", &DeleteTransformer{})
}

// DeleteTransformer rewrites Delete activities, which carry a single dataset
// reference under typeProperties.dataset and store settings that may declare
// wildcard paths.
type DeleteTransformer struct{}

func (t *DeleteTransformer) Transform(tc *core.Context, act adf.Activity) (adf.Activity, error) {
	out := act.Clone()
	tp := out.EnsureTypeProperties()

	ref, ok := adf.ParseDatasetReference(tp["dataset"])
	if !ok {
		tc.Warn(core.DatasetNotFound, act.Name(), "Delete activity declares no dataset reference")
		stripSourceFields(out)
		return out, nil
	}

	settings, ok := inliner.Inline(tc, ref, inline.Options{
		Activity:         act.Name(),
		RequireStorePath: hasWildcard(tp),
	})
	if ok {
		tp["datasetSettings"] = settings
	}

	delete(tp, "dataset")
	stripSourceFields(out)
	return out, nil
}
