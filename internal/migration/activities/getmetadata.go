package activities

import (
	"fabric-migrator/internal/adf"
	"fabric-migrator/internal/migration/core"
	"fabric-migrator/internal/migration/inline"
)

func init() {
	Register("GetMetadata", &GetMetadataTransformer{})
}

// GetMetadataTransformer rewrites GetMetadata activities: the dataset
// reference under typeProperties.dataset is inlined directly as
// typeProperties.datasetSettings.
type GetMetadataTransformer struct{}

func (t *GetMetadataTransformer) Transform(tc *core.Context, act adf.Activity) (adf.Activity, error) {
	out := act.Clone()
	tp := out.EnsureTypeProperties()

	ref, ok := adf.ParseDatasetReference(tp["dataset"])
	if !ok {
		tc.Warn(core.DatasetNotFound, act.Name(), "GetMetadata activity declares no dataset reference")
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
