// Package inline turns dataset references into the inlined datasetSettings
// blocks the target format requires: the dataset definition's typeProperties
// template with every parameter placeholder resolved, plus the external
// connection reference for the dataset's store.
package inline

import (
	"fmt"

	"fabric-migrator/internal/adf"
	"fabric-migrator/internal/migration/core"
	"fabric-migrator/internal/migration/expression"
)

// Options selects how a dataset reference is inlined for one activity role.
type Options struct {
	// Role is the dataset role within the activity: "source", "sink", or
	// "" for single-role activities.
	Role string
	// Activity names the owning activity for diagnostics.
	Activity string
	// RequireStorePath forces the resolved container/filesystem identifier
	// onto the location block. Store settings with wildcard paths need it
	// because the target format loses the dataset indirection that would
	// otherwise supply it.
	RequireStorePath bool
}

// locationPathKeys are the location fields that carry the resolved
// container-or-filesystem identifier, in fallback preference order.
var locationPathKeys = []string{"fileSystem", "container"}

// Inliner produces datasetSettings blocks from dataset references.
type Inliner struct{}

// New creates an Inliner.
func New() *Inliner {
	return &Inliner{}
}

// Inline resolves ref through the catalog and returns the datasetSettings
// block for the given role. A nil result with ok=false means the dataset
// could not be resolved at all; the caller leaves the role un-inlined.
func (in *Inliner) Inline(tc *core.Context, ref adf.DatasetReference, opts Options) (map[string]any, bool) {
	def, ok := tc.Catalog.Resolve(ref.Name)
	if !ok {
		tc.Fail(core.DatasetNotFound, opts.Activity,
			fmt.Sprintf("dataset '%s' is not defined in the template", ref.Name))
		return nil, false
	}

	if decision := tc.Catalog.Supports(def.Type); !decision.Supported {
		tc.Warn(core.UnsupportedConnector, opts.Activity,
			fmt.Sprintf("dataset '%s' uses connector type '%s': %s", ref.Name, def.Type, decision.Reason))
	}

	props := adf.CloneMap(def.TypeProperties)
	if props == nil {
		props = make(map[string]any)
	}
	in.resolveProperties(tc, props, ref, opts)

	if opts.RequireStorePath {
		in.ensureStorePath(tc, props, def, ref, opts)
	}

	settings := map[string]any{
		"annotations":    []any{},
		"type":           def.Type,
		"typeProperties": props,
	}
	if def.Schema != nil {
		settings["schema"] = def.Schema
	} else {
		settings["schema"] = []any{}
	}

	if id, ok := connectionFor(tc.Catalog, ref.Name, def.LinkedService); ok {
		settings["externalReferences"] = map[string]any{"connection": id}
		tc.RecordConnection(id)
	} else {
		tc.Fail(core.DatasetNotFound, opts.Activity,
			fmt.Sprintf("no target connection mapped for dataset '%s'", ref.Name))
	}

	return settings, true
}

// connectionFor resolves the target connection by dataset name first, then
// by the dataset's linked service name.
func connectionFor(catalog core.Catalog, datasetName, linkedService string) (string, bool) {
	if id, ok := catalog.ConnectionFor(datasetName); ok {
		return id, true
	}
	if linkedService != "" {
		if id, ok := catalog.ConnectionFor(linkedService); ok {
			return id, true
		}
	}
	return "", false
}

// resolveProperties substitutes parameter placeholders throughout the
// copied typeProperties template. Values that are neither wrappers nor
// placeholder-bearing strings are preserved verbatim, including opaque
// nested configuration like compression or format settings. Fields that
// fail to resolve are omitted with a diagnostic.
func (in *Inliner) resolveProperties(tc *core.Context, m map[string]any, ref adf.DatasetReference, opts Options) {
	for key, value := range m {
		switch v := value.(type) {
		case map[string]any:
			if expression.IsWrapper(v) {
				resolved, err := expression.Resolve(v, ref.Parameters)
				if err != nil {
					tc.Warn(core.UnresolvableExpression, opts.Activity,
						fmt.Sprintf("dataset '%s' field '%s': %v", ref.Name, key, err))
					delete(m, key)
					continue
				}
				m[key] = resolved
				continue
			}
			in.resolveProperties(tc, v, ref, opts)
		case []any:
			for _, item := range v {
				if child, ok := item.(map[string]any); ok {
					in.resolveProperties(tc, child, ref, opts)
				}
			}
		case string:
			if !expression.HasDatasetToken(v) {
				continue
			}
			resolved, err := expression.Resolve(v, ref.Parameters)
			if err != nil {
				tc.Warn(core.UnresolvableExpression, opts.Activity,
					fmt.Sprintf("dataset '%s' field '%s': %v", ref.Name, key, err))
				delete(m, key)
				continue
			}
			m[key] = resolved
		}
	}
}

// ensureStorePath backfills the container/filesystem identifier on location
// when wildcard store settings require it. If normal resolution left both
// path keys absent, the dataset definition's own unparameterized location
// value is resolved through the same substitution path. Datasets with no
// location concept (relational sources) are left alone.
func (in *Inliner) ensureStorePath(tc *core.Context, props map[string]any, def *adf.DatasetDefinition, ref adf.DatasetReference, opts Options) {
	location, ok := props["location"].(map[string]any)
	if !ok {
		return
	}
	for _, key := range locationPathKeys {
		if _, present := location[key]; present {
			return
		}
	}

	defLocation := def.Location()
	if defLocation == nil {
		return
	}
	for _, key := range locationPathKeys {
		raw, present := defLocation[key]
		if !present {
			continue
		}
		// Resolution failures here were already reported when the cloned
		// template was processed; only the final absence warrants another
		// diagnostic.
		resolved, err := expression.Resolve(raw, ref.Parameters)
		if err != nil {
			continue
		}
		location[key] = resolved
		return
	}

	tc.Warn(core.UnresolvableExpression, opts.Activity,
		fmt.Sprintf("dataset '%s' declares wildcard paths but no container or file system could be resolved", ref.Name))
}
