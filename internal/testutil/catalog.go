// Package testutil provides shared fakes and fixture builders for tests.
package testutil

import (
	"fabric-migrator/internal/adf"
	"fabric-migrator/internal/migration/core"
)

// FakeCatalog is an in-memory catalog snapshot for tests.
type FakeCatalog struct {
	Datasets    map[string]*adf.DatasetDefinition
	Connections map[string]string
	Unsupported map[string]bool
}

// NewFakeCatalog creates an empty fake catalog.
func NewFakeCatalog() *FakeCatalog {
	return &FakeCatalog{
		Datasets:    make(map[string]*adf.DatasetDefinition),
		Connections: make(map[string]string),
		Unsupported: make(map[string]bool),
	}
}

// WithDataset adds a dataset definition.
func (f *FakeCatalog) WithDataset(def *adf.DatasetDefinition) *FakeCatalog {
	f.Datasets[def.Name] = def
	return f
}

// WithConnection maps a component name to a connection id.
func (f *FakeCatalog) WithConnection(name, id string) *FakeCatalog {
	f.Connections[name] = id
	return f
}

func (f *FakeCatalog) Resolve(name string) (*adf.DatasetDefinition, bool) {
	def, ok := f.Datasets[name]
	return def, ok
}

func (f *FakeCatalog) ConnectionFor(name string) (string, bool) {
	id, ok := f.Connections[name]
	return id, ok && id != ""
}

func (f *FakeCatalog) Supports(sourceType string) core.Decision {
	if f.Unsupported[sourceType] {
		return core.Decision{Supported: false, Reason: "unsupported in test snapshot"}
	}
	return core.Decision{Supported: true}
}

// DelimitedTextDataset builds a parameterized blob-style dataset definition
// whose location fields reference dataset parameters.
func DelimitedTextDataset(name string) *adf.DatasetDefinition {
	return &adf.DatasetDefinition{
		Name:          name,
		Type:          "DelimitedText",
		LinkedService: "LS_Storage",
		Parameters: map[string]any{
			"p_container": map[string]any{"type": "string"},
			"p_directory": map[string]any{"type": "string"},
			"p_file":      map[string]any{"type": "string"},
		},
		TypeProperties: map[string]any{
			"location": map[string]any{
				"type":       "AzureBlobFSLocation",
				"fileSystem": map[string]any{"value": "@dataset().p_container", "type": "Expression"},
				"folderPath": map[string]any{"value": "@dataset().p_directory", "type": "Expression"},
				"fileName":   map[string]any{"value": "@dataset().p_file", "type": "Expression"},
			},
			"columnDelimiter":  ",",
			"firstRowAsHeader": true,
		},
	}
}

// SqlTableDataset builds a relational dataset definition with no location.
func SqlTableDataset(name string) *adf.DatasetDefinition {
	return &adf.DatasetDefinition{
		Name:          name,
		Type:          "AzureSqlTable",
		LinkedService: "LS_Sql",
		TypeProperties: map[string]any{
			"schema": "dbo",
			"table":  "Orders",
		},
	}
}

// Wrap builds an expression wrapper object around a value.
func Wrap(value any) map[string]any {
	return map[string]any{"value": value, "type": "Expression"}
}
