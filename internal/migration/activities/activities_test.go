package activities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabric-migrator/internal/adf"
	"fabric-migrator/internal/migration/core"
	"fabric-migrator/internal/testutil"
)

func newCatalog() *testutil.FakeCatalog {
	return testutil.NewFakeCatalog().
		WithDataset(testutil.DelimitedTextDataset("DS_In")).
		WithDataset(testutil.DelimitedTextDataset("DS_Out")).
		WithDataset(testutil.SqlTableDataset("DS_Orders")).
		WithConnection("DS_In", "conn-in").
		WithConnection("DS_Out", "conn-out").
		WithConnection("DS_Orders", "conn-sql").
		WithConnection("LS_Sql", "conn-ls-sql")
}

func newContext(cat core.Catalog) *core.Context {
	return core.NewContext("PL_Test", cat, nil)
}

func datasetRef(name string, params map[string]any) map[string]any {
	ref := map[string]any{
		"referenceName": name,
		"type":          "DatasetReference",
	}
	if params != nil {
		ref["parameters"] = params
	}
	return ref
}

func blobParams() map[string]any {
	return map[string]any{
		"p_container": "raw",
		"p_directory": "in",
		"p_file":      "data.csv",
	}
}

func TestCopyTransform(t *testing.T) {
	act := adf.Activity{
		"name": "CopyOrders",
		"type": "Copy",
		"inputs": []any{
			datasetRef("DS_In", blobParams()),
		},
		"outputs": []any{
			datasetRef("DS_Out", blobParams()),
		},
		"typeProperties": map[string]any{
			"source": map[string]any{"type": "DelimitedTextSource"},
			"sink":   map[string]any{"type": "DelimitedTextSink"},
		},
	}

	tc := newContext(newCatalog())
	out, err := (&CopyTransformer{}).Transform(tc, act)
	require.NoError(t, err)

	for _, field := range []string{"inputs", "outputs", "dataset", "linkedServiceName"} {
		_, present := out[field]
		assert.False(t, present, field)
	}

	tp := out.TypeProperties()
	source := tp["source"].(map[string]any)
	sink := tp["sink"].(map[string]any)

	srcSettings := source["datasetSettings"].(map[string]any)
	assert.Equal(t, "DelimitedText", srcSettings["type"])
	assert.Equal(t, map[string]any{"connection": "conn-in"}, srcSettings["externalReferences"])

	sinkSettings := sink["datasetSettings"].(map[string]any)
	assert.Equal(t, map[string]any{"connection": "conn-out"}, sinkSettings["externalReferences"])

	// Kind-specific source/sink configuration survives.
	assert.Equal(t, "DelimitedTextSource", source["type"])
	assert.Equal(t, "DelimitedTextSink", sink["type"])

	assert.Equal(t, []string{"conn-in", "conn-out"}, tc.Connections())
	assert.False(t, tc.Diags.HasErrors())
}

func TestCopyTransformWildcardSource(t *testing.T) {
	def := testutil.DelimitedTextDataset("DS_Wild")
	def.TypeProperties["location"].(map[string]any)["fileSystem"] = "archive"
	cat := newCatalog().WithDataset(def).WithConnection("DS_Wild", "conn-w")

	act := adf.Activity{
		"name":   "CopyWild",
		"type":   "Copy",
		"inputs": []any{datasetRef("DS_Wild", map[string]any{"p_directory": "in", "p_file": "*"})},
		"outputs": []any{
			datasetRef("DS_Out", blobParams()),
		},
		"typeProperties": map[string]any{
			"source": map[string]any{
				"type": "DelimitedTextSource",
				"storeSettings": map[string]any{
					"type":             "AzureBlobFSReadSettings",
					"wildcardFileName": "*.csv",
				},
			},
			"sink": map[string]any{"type": "DelimitedTextSink"},
		},
	}

	tc := newContext(cat)
	out, err := (&CopyTransformer{}).Transform(tc, act)
	require.NoError(t, err)

	source := out.TypeProperties()["source"].(map[string]any)
	location := source["datasetSettings"].(map[string]any)["typeProperties"].(map[string]any)["location"].(map[string]any)
	assert.Equal(t, "archive", location["fileSystem"])
}

func TestCopyTransformMissingDataset(t *testing.T) {
	act := adf.Activity{
		"name":    "CopyBroken",
		"type":    "Copy",
		"inputs":  []any{datasetRef("DS_Nowhere", nil)},
		"outputs": []any{datasetRef("DS_Out", blobParams())},
	}

	tc := newContext(newCatalog())
	out, err := (&CopyTransformer{}).Transform(tc, act)
	require.NoError(t, err)

	tp := out.TypeProperties()
	source, _ := tp["source"].(map[string]any)
	_, present := source["datasetSettings"]
	assert.False(t, present)

	sink := tp["sink"].(map[string]any)
	_, present = sink["datasetSettings"]
	assert.True(t, present)

	assert.True(t, tc.Diags.HasErrors())
	assert.Equal(t, core.DatasetNotFound, tc.Diags.Items()[0].Code)
}

func TestCopyTransformInputNotMutated(t *testing.T) {
	act := adf.Activity{
		"name":    "CopyOrders",
		"type":    "Copy",
		"inputs":  []any{datasetRef("DS_In", blobParams())},
		"outputs": []any{datasetRef("DS_Out", blobParams())},
	}

	tc := newContext(newCatalog())
	_, err := (&CopyTransformer{}).Transform(tc, act)
	require.NoError(t, err)

	_, present := act["inputs"]
	assert.True(t, present)
	_, present = act.EnsureTypeProperties()["source"]
	assert.False(t, present)
}

func TestLookupTransform(t *testing.T) {
	act := adf.Activity{
		"name": "LookupConfig",
		"type": "Lookup",
		"typeProperties": map[string]any{
			"dataset": datasetRef("DS_Orders", nil),
			"source":  map[string]any{"type": "AzureSqlSource"},
		},
	}

	tc := newContext(newCatalog())
	out, err := (&LookupTransformer{}).Transform(tc, act)
	require.NoError(t, err)

	tp := out.TypeProperties()
	_, present := tp["dataset"]
	assert.False(t, present)

	settings := tp["source"].(map[string]any)["datasetSettings"].(map[string]any)
	assert.Equal(t, "AzureSqlTable", settings["type"])
	assert.Equal(t, map[string]any{"connection": "conn-sql"}, settings["externalReferences"])
	assert.False(t, tc.Diags.HasErrors())
}

func TestGetMetadataTransform(t *testing.T) {
	act := adf.Activity{
		"name": "CheckFolder",
		"type": "GetMetadata",
		"typeProperties": map[string]any{
			"dataset":   datasetRef("DS_In", blobParams()),
			"fieldList": []any{"childItems"},
		},
	}

	tc := newContext(newCatalog())
	out, err := (&GetMetadataTransformer{}).Transform(tc, act)
	require.NoError(t, err)

	tp := out.TypeProperties()
	_, present := tp["dataset"]
	assert.False(t, present)
	settings := tp["datasetSettings"].(map[string]any)
	assert.Equal(t, "DelimitedText", settings["type"])
	assert.Equal(t, []any{"childItems"}, tp["fieldList"])
}

func TestDeleteTransform(t *testing.T) {
	act := adf.Activity{
		"name": "PurgeLanding",
		"type": "Delete",
		"typeProperties": map[string]any{
			"dataset": datasetRef("DS_In", blobParams()),
			"storeSettings": map[string]any{
				"type":               "AzureBlobFSReadSettings",
				"wildcardFolderPath": "in/*",
			},
		},
	}

	tc := newContext(newCatalog())
	out, err := (&DeleteTransformer{}).Transform(tc, act)
	require.NoError(t, err)

	tp := out.TypeProperties()
	_, present := tp["dataset"]
	assert.False(t, present)
	require.Contains(t, tp, "datasetSettings")
	location := tp["datasetSettings"].(map[string]any)["typeProperties"].(map[string]any)["location"].(map[string]any)
	assert.Equal(t, "raw", location["fileSystem"])
}

func TestExecutePipelineTransform(t *testing.T) {
	act := adf.Activity{
		"name": "RunChild",
		"type": "ExecutePipeline",
		"typeProperties": map[string]any{
			"pipeline": map[string]any{
				"referenceName": "PL_Child",
				"type":          "PipelineReference",
			},
			"parameters": map[string]any{
				"wrapped": testutil.Wrap("@pipeline().parameters.p_in"),
				"literal": "plain",
			},
			"waitOnCompletion": true,
		},
	}

	tc := newContext(newCatalog())
	out, err := (&ExecutePipelineTransformer{}).Transform(tc, act)
	require.NoError(t, err)

	edges := tc.Invocations()
	require.Len(t, edges, 1)
	assert.Equal(t, core.InvocationEdge{Caller: "PL_Test", Callee: "PL_Child", Activity: "RunChild"}, edges[0])

	params := out.TypeProperties()["parameters"].(map[string]any)
	assert.Equal(t, "@pipeline().parameters.p_in", params["wrapped"])
	assert.Equal(t, "plain", params["literal"])
	assert.Equal(t, true, out.TypeProperties()["waitOnCompletion"])
}

func TestExecutePipelineMissingReference(t *testing.T) {
	act := adf.Activity{
		"name":           "RunNothing",
		"type":           "ExecutePipeline",
		"typeProperties": map[string]any{},
	}

	tc := newContext(newCatalog())
	_, err := (&ExecutePipelineTransformer{}).Transform(tc, act)
	require.NoError(t, err)

	assert.Empty(t, tc.Invocations())
	require.Equal(t, 1, tc.Diags.Len())
	assert.Equal(t, core.SeverityWarning, tc.Diags.Items()[0].Severity)
}

func TestStoredProcedureTransform(t *testing.T) {
	act := adf.Activity{
		"name": "CallProc",
		"type": "SqlServerStoredProcedure",
		"linkedServiceName": map[string]any{
			"referenceName": "LS_Sql",
			"type":          "LinkedServiceReference",
		},
		"typeProperties": map[string]any{
			"storedProcedureName": "dbo.usp_Load",
			"storedProcedureParameters": map[string]any{
				"BatchId": map[string]any{
					"value": testutil.Wrap("@pipeline().RunId"),
					"type":  "String",
				},
				"Literal": map[string]any{"value": "x", "type": "String"},
			},
		},
	}

	tc := newContext(newCatalog())
	out, err := (&StoredProcedureTransformer{}).Transform(tc, act)
	require.NoError(t, err)

	_, present := out["linkedServiceName"]
	assert.False(t, present)
	assert.Equal(t, map[string]any{"connection": "conn-ls-sql"}, out["externalReferences"])

	params := out.TypeProperties()["storedProcedureParameters"].(map[string]any)
	assert.Equal(t, "@pipeline().RunId", params["BatchId"].(map[string]any)["value"])
	assert.Equal(t, "x", params["Literal"].(map[string]any)["value"])
}

func TestScriptTransform(t *testing.T) {
	act := adf.Activity{
		"name": "RunScript",
		"type": "Script",
		"linkedServiceName": map[string]any{
			"referenceName": "LS_Sql",
			"type":          "LinkedServiceReference",
		},
		"typeProperties": map[string]any{
			"scripts": []any{
				map[string]any{
					"type": "Query",
					"text": "SELECT 1",
					"parameters": []any{
						map[string]any{"name": "p1", "value": testutil.Wrap("abc"), "type": "String"},
					},
				},
			},
		},
	}

	tc := newContext(newCatalog())
	out, err := (&ScriptTransformer{}).Transform(tc, act)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"connection": "conn-ls-sql"}, out["externalReferences"])
	scripts := out.TypeProperties()["scripts"].([]any)
	param := scripts[0].(map[string]any)["parameters"].([]any)[0].(map[string]any)
	assert.Equal(t, "abc", param["value"])
}

func TestScriptTransformMissingConnection(t *testing.T) {
	act := adf.Activity{
		"name": "RunScript",
		"type": "Script",
		"linkedServiceName": map[string]any{
			"referenceName": "LS_Unknown",
			"type":          "LinkedServiceReference",
		},
	}

	tc := newContext(newCatalog())
	out, err := (&ScriptTransformer{}).Transform(tc, act)
	require.NoError(t, err)

	_, present := out["externalReferences"]
	assert.False(t, present)
	assert.True(t, tc.Diags.HasErrors())
}

func TestWebTransform(t *testing.T) {
	act := adf.Activity{
		"name": "NotifyApi",
		"type": "Web",
		"typeProperties": map[string]any{
			"url":            "https://example.com/hook",
			"method":         "POST",
			"datasets":       []any{datasetRef("DS_In", nil)},
			"linkedServices": []any{map[string]any{"referenceName": "LS_Sql"}},
			"connectVia": map[string]any{
				"referenceName": "MyIR",
				"type":          "IntegrationRuntimeReference",
			},
		},
	}

	tc := newContext(newCatalog())
	out, err := (&WebTransformer{}).Transform(tc, act)
	require.NoError(t, err)

	tp := out.TypeProperties()
	_, present := tp["datasets"]
	assert.False(t, present)
	_, present = tp["linkedServices"]
	assert.False(t, present)
	assert.Equal(t, map[string]any{}, tp["connectVia"])
	assert.Equal(t, "https://example.com/hook", tp["url"])
}

func TestPassthroughTransform(t *testing.T) {
	act := adf.Activity{
		"name":   "SetFlag",
		"type":   "SetVariable",
		"inputs": []any{datasetRef("DS_In", nil)},
		"typeProperties": map[string]any{
			"variableName": "flag",
			"value":        "true",
		},
	}

	tc := newContext(newCatalog())
	out, err := (&PassthroughTransformer{}).Transform(tc, act)
	require.NoError(t, err)

	_, present := out["inputs"]
	assert.False(t, present)
	assert.Equal(t, "flag", out.TypeProperties()["variableName"])
}

func TestRegistryCoversExpectedKinds(t *testing.T) {
	reg := NewRegistry()
	expected := []string{
		"Copy", "Lookup", "GetMetadata", "Delete", "ExecutePipeline",
		"Script", "SqlServerStoredProcedure", "Web",
		"SetVariable", "AppendVariable", "Wait", "Fail", "Filter", "WebHook",
	}
	for _, kind := range expected {
		_, found := reg.Get(kind)
		assert.True(t, found, kind)
	}
	_, found := reg.Get("ForEach")
	assert.False(t, found, "container kinds are walker territory, not transformers")
}

func TestRegisterDuplicate(t *testing.T) {
	err := Register("Copy", &CopyTransformer{})
	assert.Error(t, err)
}
