package migration

import (
	"fmt"

	"fabric-migrator/internal/adf"
	"fabric-migrator/internal/migration/core"
)

// containerShape enumerates where a container activity keeps its nested
// activity lists. The walker is driven entirely off this table; a new
// container kind is a one-entry change.
type containerShape struct {
	// listKeys are typeProperties keys holding nested activity lists,
	// visited in declared order.
	listKeys []string
	// caseListKey names a typeProperties key holding a list of case
	// objects, each carrying its own nested activity list under
	// caseItemKey. Cases are visited before listKeys, so a Switch visits
	// every case and then the default branch.
	caseListKey string
	caseItemKey string
}

var containerShapes = map[string]containerShape{
	"ForEach":     {listKeys: []string{"activities"}},
	"Until":       {listKeys: []string{"activities"}},
	"IfCondition": {listKeys: []string{"ifTrueActivities", "ifFalseActivities"}},
	"Switch":      {listKeys: []string{"defaultActivities"}, caseListKey: "cases", caseItemKey: "activities"},
}

// Walker recursively rewrites every activity in a pipeline. It is a pure,
// position-preserving rewrite: every activity in the source tree maps to
// exactly one activity at the same structural position in the output, and
// unknown leaf kinds pass through with a diagnostic instead of aborting.
type Walker struct {
	registry core.TransformerRegistry
}

// NewWalker creates a walker dispatching to the given transformer registry.
func NewWalker(registry core.TransformerRegistry) *Walker {
	return &Walker{registry: registry}
}

// WalkList rewrites one activity list in document order. An empty list is
// valid and produces an empty output list.
func (w *Walker) WalkList(tc *core.Context, list []adf.Activity) []adf.Activity {
	out := make([]adf.Activity, len(list))
	for i, act := range list {
		out[i] = w.walkActivity(tc, act)
	}
	return out
}

func (w *Walker) walkActivity(tc *core.Context, act adf.Activity) adf.Activity {
	kind := act.Kind()

	if shape, ok := containerShapes[kind]; ok {
		return w.walkContainer(tc, act, shape)
	}

	transformer, ok := w.registry.Get(kind)
	if !ok {
		tc.Warn(core.UnknownActivityType, act.Name(),
			fmt.Sprintf("no transformer registered for activity type '%s'; passed through unmodified", kind))
		return act.Clone()
	}

	out, err := transformer.Transform(tc, act)
	if err != nil {
		tc.Fail(core.UnknownActivityType, act.Name(),
			fmt.Sprintf("transformer for '%s' failed: %v; passed through unmodified", kind, err))
		return act.Clone()
	}
	return out
}

func (w *Walker) walkContainer(tc *core.Context, act adf.Activity, shape containerShape) adf.Activity {
	out := act.Clone()
	tp := out.TypeProperties()
	if tp == nil {
		return out
	}

	if shape.caseListKey != "" {
		if cases, ok := tp[shape.caseListKey].([]any); ok {
			for _, item := range cases {
				caseObj, ok := item.(map[string]any)
				if !ok {
					continue
				}
				if _, present := caseObj[shape.caseItemKey]; present {
					nested := adf.ActivityList(caseObj[shape.caseItemKey])
					caseObj[shape.caseItemKey] = adf.RawActivityList(w.WalkList(tc, nested))
				}
			}
		}
	}

	for _, key := range shape.listKeys {
		if _, present := tp[key]; !present {
			continue
		}
		nested := adf.ActivityList(tp[key])
		tp[key] = adf.RawActivityList(w.WalkList(tc, nested))
	}

	return out
}
