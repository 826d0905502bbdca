package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosticsCollect(t *testing.T) {
	var d Diagnostics
	assert.Equal(t, 0, d.Len())
	assert.False(t, d.HasErrors())
	assert.NoError(t, d.Err())

	d.Add(Diagnostic{Code: UnknownActivityType, Severity: SeverityWarning, Pipeline: "PL_A", Activity: "X", Detail: "w"})
	assert.Equal(t, 1, d.Len())
	assert.False(t, d.HasErrors())
	assert.NoError(t, d.Err())

	d.Add(Diagnostic{Code: DatasetNotFound, Severity: SeverityError, Pipeline: "PL_A", Activity: "Y", Detail: "gone"})
	d.Add(Diagnostic{Code: DependencyCycle, Severity: SeverityError, Detail: "loop"})
	assert.True(t, d.HasErrors())

	err := d.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DatasetNotFound")
	assert.Contains(t, err.Error(), "DependencyCycle")
	assert.NotContains(t, err.Error(), "UnknownActivityType")
}

func TestDiagnosticString(t *testing.T) {
	tests := []struct {
		name string
		diag Diagnostic
		want string
	}{
		{
			"with activity",
			Diagnostic{Code: DatasetNotFound, Pipeline: "PL_A", Activity: "Copy1", Detail: "gone"},
			"[DatasetNotFound] PL_A/Copy1: gone",
		},
		{
			"pipeline only",
			Diagnostic{Code: UnresolvableExpression, Pipeline: "PL_A", Detail: "bad"},
			"[UnresolvableExpression] PL_A: bad",
		},
		{
			"run level",
			Diagnostic{Code: DependencyCycle, Detail: "loop"},
			"[DependencyCycle] loop",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.diag.String())
		})
	}
}

func TestContextRecordsEdgesAndConnections(t *testing.T) {
	c := NewContext("PL_A", nil, nil)

	c.RecordInvocation("PL_B", "Run1")
	c.RecordInvocation("PL_C", "Run2")
	assert.Equal(t, []InvocationEdge{
		{Caller: "PL_A", Callee: "PL_B", Activity: "Run1"},
		{Caller: "PL_A", Callee: "PL_C", Activity: "Run2"},
	}, c.Invocations())

	c.RecordConnection("conn-1")
	c.RecordConnection("conn-2")
	c.RecordConnection("conn-1")
	c.RecordConnection("")
	assert.Equal(t, []string{"conn-1", "conn-2"}, c.Connections())
}
