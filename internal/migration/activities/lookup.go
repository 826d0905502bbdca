package activities

import (
	"fabric-migrator/internal/adf"
	"fabric-migrator/internal/migration/core"
	"fabric-migrator/internal/migration/inline"
)

func init() {
	Register("Lookup", &LookupTransformer{})
}

// LookupTransformer rewrites Lookup activities. The single dataset reference
// lives under typeProperties.dataset in the source format; the target format
// wants it inlined under typeProperties.source.datasetSettings.
type LookupTransformer struct{}

func (t *LookupTransformer) Transform(tc *core.Context, act adf.Activity) (adf.Activity, error) {
	out := act.Clone()
	tp := out.EnsureTypeProperties()

	ref, ok := adf.ParseDatasetReference(tp["dataset"])
	if !ok {
		tc.Warn(core.DatasetNotFound, act.Name(), "Lookup activity declares no dataset reference")
		stripSourceFields(out)
		return out, nil
	}

	section, ok := tp["source"].(map[string]any)
	if !ok {
		section = make(map[string]any)
		tp["source"] = section
	}

	settings, ok := inliner.Inline(tc, ref, inline.Options{
		Activity:         act.Name(),
		RequireStorePath: hasWildcard(section),
	})
	if ok {
		section["datasetSettings"] = settings
	}

	delete(tp, "dataset")
	stripSourceFields(out)
	return out, nil
}
