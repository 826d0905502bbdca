package activities

import (
	"fabric-migrator/internal/adf"
	"fabric-migrator/internal/migration/core"
)

func init() {
	Register("Web", &WebTransformer{})
}

// WebTransformer rewrites Web activities. Their optional dataset and linked
// service attachments are source-only, and the connectivity-gateway
// reference must survive as an empty object.
type WebTransformer struct{}

func (t *WebTransformer) Transform(tc *core.Context, act adf.Activity) (adf.Activity, error) {
	out := act.Clone()

	if tp := out.TypeProperties(); tp != nil {
		delete(tp, "datasets")
		delete(tp, "linkedServices")
	}

	stripSourceFields(out)
	return out, nil
}
