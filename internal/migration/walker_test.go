package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabric-migrator/internal/adf"
	"fabric-migrator/internal/migration/activities"
	"fabric-migrator/internal/migration/core"
	"fabric-migrator/internal/testutil"
)

func walkerCatalog() *testutil.FakeCatalog {
	return testutil.NewFakeCatalog().
		WithDataset(testutil.DelimitedTextDataset("DS_In")).
		WithConnection("DS_In", "conn-in")
}

func leafCopy(name string) adf.Activity {
	return adf.Activity{
		"name": name,
		"type": "Copy",
		"inputs": []any{map[string]any{
			"referenceName": "DS_In",
			"type":          "DatasetReference",
			"parameters": map[string]any{
				"p_container": "raw", "p_directory": "in", "p_file": "a.csv",
			},
		}},
		"outputs":        []any{},
		"typeProperties": map[string]any{},
	}
}

func forEach(name string, nested ...adf.Activity) adf.Activity {
	return adf.Activity{
		"name": name,
		"type": "ForEach",
		"typeProperties": map[string]any{
			"items":      map[string]any{"value": "@pipeline().parameters.files", "type": "Expression"},
			"activities": adf.RawActivityList(nested),
		},
	}
}

// leafAt digs a transformed leaf back out of nested single-child ForEach
// containers.
func leafAt(t *testing.T, act adf.Activity, depth int) adf.Activity {
	t.Helper()
	for i := 0; i < depth; i++ {
		nested := adf.ActivityList(act.TypeProperties()["activities"])
		require.Len(t, nested, 1)
		act = nested[0]
	}
	return act
}

func assertTransformedCopy(t *testing.T, act adf.Activity) {
	t.Helper()
	_, present := act["inputs"]
	assert.False(t, present)
	source, ok := act.TypeProperties()["source"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, source, "datasetSettings")
}

func TestWalkLeafAtEveryDepth(t *testing.T) {
	w := NewWalker(activities.NewRegistry())

	for depth := 1; depth <= 4; depth++ {
		act := leafCopy("CopyLeaf")
		for i := depth; i > 0; i-- {
			act = forEach("Loop", act)
		}

		tc := core.NewContext("PL_Depth", walkerCatalog(), nil)
		out := w.WalkList(tc, []adf.Activity{act})
		require.Len(t, out, 1)

		leaf := leafAt(t, out[0], depth)
		assert.Equal(t, "CopyLeaf", leaf.Name())
		assertTransformedCopy(t, leaf)
	}
}

func TestWalkIfConditionBothBranches(t *testing.T) {
	act := adf.Activity{
		"name": "Branch",
		"type": "IfCondition",
		"typeProperties": map[string]any{
			"expression":        map[string]any{"value": "@equals(1,1)", "type": "Expression"},
			"ifTrueActivities":  adf.RawActivityList([]adf.Activity{leafCopy("CopyTrue")}),
			"ifFalseActivities": adf.RawActivityList([]adf.Activity{leafCopy("CopyFalse")}),
		},
	}

	tc := core.NewContext("PL_If", walkerCatalog(), nil)
	out := NewWalker(activities.NewRegistry()).WalkList(tc, []adf.Activity{act})

	tp := out[0].TypeProperties()
	assertTransformedCopy(t, adf.ActivityList(tp["ifTrueActivities"])[0])
	assertTransformedCopy(t, adf.ActivityList(tp["ifFalseActivities"])[0])
}

func TestWalkSwitchCasesAndDefault(t *testing.T) {
	act := adf.Activity{
		"name": "Route",
		"type": "Switch",
		"typeProperties": map[string]any{
			"on": map[string]any{"value": "@pipeline().parameters.mode", "type": "Expression"},
			"cases": []any{
				map[string]any{
					"value":      "full",
					"activities": adf.RawActivityList([]adf.Activity{leafCopy("CopyFull")}),
				},
				map[string]any{
					"value":      "delta",
					"activities": adf.RawActivityList([]adf.Activity{leafCopy("CopyDelta")}),
				},
			},
			"defaultActivities": adf.RawActivityList([]adf.Activity{leafCopy("CopyDefault")}),
		},
	}

	tc := core.NewContext("PL_Switch", walkerCatalog(), nil)
	out := NewWalker(activities.NewRegistry()).WalkList(tc, []adf.Activity{act})

	tp := out[0].TypeProperties()
	cases := tp["cases"].([]any)
	require.Len(t, cases, 2)
	for i, want := range []string{"CopyFull", "CopyDelta"} {
		nested := adf.ActivityList(cases[i].(map[string]any)["activities"])
		require.Len(t, nested, 1)
		assert.Equal(t, want, nested[0].Name())
		assertTransformedCopy(t, nested[0])
	}
	assertTransformedCopy(t, adf.ActivityList(tp["defaultActivities"])[0])
}

func TestWalkUntil(t *testing.T) {
	act := adf.Activity{
		"name": "Poll",
		"type": "Until",
		"typeProperties": map[string]any{
			"expression": map[string]any{"value": "@variables('done')", "type": "Expression"},
			"activities": adf.RawActivityList([]adf.Activity{leafCopy("CopyPoll")}),
			"timeout":    "0.12:00:00",
		},
	}

	tc := core.NewContext("PL_Until", walkerCatalog(), nil)
	out := NewWalker(activities.NewRegistry()).WalkList(tc, []adf.Activity{act})

	tp := out[0].TypeProperties()
	assertTransformedCopy(t, adf.ActivityList(tp["activities"])[0])
	assert.Equal(t, "0.12:00:00", tp["timeout"])
}

func TestWalkMixedShapesNested(t *testing.T) {
	inner := adf.Activity{
		"name": "InnerBranch",
		"type": "IfCondition",
		"typeProperties": map[string]any{
			"ifTrueActivities": adf.RawActivityList([]adf.Activity{leafCopy("DeepCopy")}),
		},
	}
	act := forEach("Outer", inner)

	tc := core.NewContext("PL_Mixed", walkerCatalog(), nil)
	out := NewWalker(activities.NewRegistry()).WalkList(tc, []adf.Activity{act})

	branch := adf.ActivityList(out[0].TypeProperties()["activities"])[0]
	leaf := adf.ActivityList(branch.TypeProperties()["ifTrueActivities"])[0]
	assertTransformedCopy(t, leaf)
}

func TestWalkPreservesOrderAndPosition(t *testing.T) {
	list := []adf.Activity{
		leafCopy("First"),
		forEach("Middle", leafCopy("Nested")),
		{"name": "Last", "type": "Wait", "typeProperties": map[string]any{"waitTimeInSeconds": float64(5)}},
	}

	tc := core.NewContext("PL_Order", walkerCatalog(), nil)
	out := NewWalker(activities.NewRegistry()).WalkList(tc, list)

	require.Len(t, out, 3)
	assert.Equal(t, "First", out[0].Name())
	assert.Equal(t, "Middle", out[1].Name())
	assert.Equal(t, "Last", out[2].Name())
}

func TestWalkUnknownKindPassesThrough(t *testing.T) {
	act := adf.Activity{
		"name":           "Mystery",
		"type":           "AzureFunctionActivity",
		"typeProperties": map[string]any{"functionName": "fn"},
	}

	tc := core.NewContext("PL_Unknown", walkerCatalog(), nil)
	out := NewWalker(activities.NewRegistry()).WalkList(tc, []adf.Activity{act})

	require.Len(t, out, 1)
	assert.Equal(t, "fn", out[0].TypeProperties()["functionName"])

	require.Equal(t, 1, tc.Diags.Len())
	d := tc.Diags.Items()[0]
	assert.Equal(t, core.UnknownActivityType, d.Code)
	assert.Equal(t, core.SeverityWarning, d.Severity)
	assert.Equal(t, "Mystery", d.Activity)
}

func TestWalkEmptyLists(t *testing.T) {
	tc := core.NewContext("PL_Empty", walkerCatalog(), nil)
	w := NewWalker(activities.NewRegistry())

	out := w.WalkList(tc, nil)
	assert.Empty(t, out)

	container := forEach("Empty")
	out = w.WalkList(tc, []adf.Activity{container})
	require.Len(t, out, 1)
	assert.Empty(t, adf.ActivityList(out[0].TypeProperties()["activities"]))
	assert.Equal(t, 0, tc.Diags.Len())
}

func TestWalkInvocationEdgeInsideContainers(t *testing.T) {
	exec := adf.Activity{
		"name": "RunChild",
		"type": "ExecutePipeline",
		"typeProperties": map[string]any{
			"pipeline": map[string]any{"referenceName": "PL_Child", "type": "PipelineReference"},
		},
	}
	act := forEach("L1", forEach("L2", forEach("L3", exec)))

	tc := core.NewContext("PL_Parent", walkerCatalog(), nil)
	NewWalker(activities.NewRegistry()).WalkList(tc, []adf.Activity{act})

	edges := tc.Invocations()
	require.Len(t, edges, 1)
	assert.Equal(t, "PL_Child", edges[0].Callee)
	assert.Equal(t, "PL_Parent", edges[0].Caller)
}
