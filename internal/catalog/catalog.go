// Package catalog provides the resolved lookup snapshot a transformation
// runs against: dataset definitions, linked services, and the mapping from
// source component names to pre-established target connection ids. The
// snapshot is immutable once built; lookups never perform I/O.
package catalog

import (
	"encoding/json"
	"fmt"
	"sort"

	"fabric-migrator/internal/adf"
	"fabric-migrator/internal/migration/core"
)

// DefaultSupportedTypes is the baseline snapshot of source dataset types
// with a target equivalent. Overridable per run.
var DefaultSupportedTypes = []string{
	"AmazonS3Object",
	"Avro",
	"AzurePostgreSqlTable",
	"AzureSqlDWTable",
	"AzureSqlTable",
	"Binary",
	"DelimitedText",
	"Excel",
	"Json",
	"LakehouseTable",
	"OracleTable",
	"Orc",
	"Parquet",
	"RestResource",
	"SnowflakeV2Table",
	"SqlServerTable",
	"Xml",
}

// Decide is the connector-support decision: a pure function of the source
// type and the current supported-type snapshot. No cached state, so a
// refreshed snapshot never needs invalidation.
func Decide(sourceType string, supported []string) core.Decision {
	for _, t := range supported {
		if t == sourceType {
			return core.Decision{Supported: true}
		}
	}
	return core.Decision{
		Supported: false,
		Reason:    fmt.Sprintf("connector type '%s' has no target equivalent in the current snapshot", sourceType),
	}
}

// Catalog is an immutable dataset/connection lookup snapshot.
type Catalog struct {
	datasets       map[string]*adf.DatasetDefinition
	linkedServices map[string]*adf.LinkedService
	connections    map[string]string
	supported      []string
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithSupportedTypes overrides the supported-connector snapshot.
func WithSupportedTypes(types []string) Option {
	return func(c *Catalog) {
		if len(types) > 0 {
			c.supported = types
		}
	}
}

// New builds a catalog from parsed template components and a connection
// mapping (source component name to target connection id).
func New(comps *adf.Components, connections map[string]string, opts ...Option) *Catalog {
	c := &Catalog{
		datasets:       comps.Datasets,
		linkedServices: comps.LinkedServices,
		connections:    connections,
		supported:      DefaultSupportedTypes,
	}
	if c.datasets == nil {
		c.datasets = make(map[string]*adf.DatasetDefinition)
	}
	if c.linkedServices == nil {
		c.linkedServices = make(map[string]*adf.LinkedService)
	}
	if c.connections == nil {
		c.connections = make(map[string]string)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the dataset definition for a dataset name.
func (c *Catalog) Resolve(name string) (*adf.DatasetDefinition, bool) {
	def, ok := c.datasets[name]
	return def, ok
}

// LinkedService returns the linked service definition for a name.
func (c *Catalog) LinkedService(name string) (*adf.LinkedService, bool) {
	ls, ok := c.linkedServices[name]
	return ls, ok
}

// ConnectionFor returns the target connection id mapped to a dataset or
// linked-service name.
func (c *Catalog) ConnectionFor(name string) (string, bool) {
	id, ok := c.connections[name]
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Supports decides whether a source connector type has a target equivalent.
func (c *Catalog) Supports(sourceType string) core.Decision {
	return Decide(sourceType, c.supported)
}

// DatasetNames returns the known dataset names, sorted.
func (c *Catalog) DatasetNames() []string {
	names := make([]string, 0, len(c.datasets))
	for name := range c.datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadConnectionMappings decodes a connection mapping document: a JSON
// object from source component name to target connection id.
func LoadConnectionMappings(data []byte) (map[string]string, error) {
	var mappings map[string]string
	if err := json.Unmarshal(data, &mappings); err != nil {
		return nil, fmt.Errorf("failed to decode connection mappings: %w", err)
	}
	return mappings, nil
}
