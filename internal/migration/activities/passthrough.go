package activities

import (
	"fabric-migrator/internal/adf"
	"fabric-migrator/internal/migration/core"
)

// passthroughKinds are leaf activities with no dataset addressing; they
// only need the source-only fields stripped.
var passthroughKinds = []string{
	"SetVariable",
	"AppendVariable",
	"Wait",
	"Fail",
	"Filter",
	"WebHook",
}

func init() {
	for _, kind := range passthroughKinds {
		Register(kind, &PassthroughTransformer{})
	}
}

// PassthroughTransformer handles activity kinds whose typeProperties carry
// no source-format addressing.
type PassthroughTransformer struct{}

func (t *PassthroughTransformer) Transform(tc *core.Context, act adf.Activity) (adf.Activity, error) {
	out := act.Clone()
	stripSourceFields(out)
	return out, nil
}
