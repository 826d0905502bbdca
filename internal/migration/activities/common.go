package activities

import (
	"fmt"

	"fabric-migrator/internal/adf"
	"fabric-migrator/internal/migration/core"
	"fabric-migrator/internal/migration/expression"
	"fabric-migrator/internal/migration/inline"
)

// inliner is shared by all transformers; it is stateless.
var inliner = inline.New()

// sourceOnlyFields are the source-format addressing fields no transformed
// activity may carry.
var sourceOnlyFields = []string{"inputs", "outputs", "dataset", "linkedService", "linkedServiceName"}

// stripSourceFields removes source-only addressing from an activity and
// resets any connectivity-gateway reference to an empty object. The target
// format expects the connectVia key to exist, so it is cleared, not deleted.
func stripSourceFields(act adf.Activity) {
	for _, field := range sourceOnlyFields {
		delete(act, field)
	}
	if tp := act.TypeProperties(); tp != nil {
		if _, present := tp["connectVia"]; present {
			tp["connectVia"] = map[string]any{}
		}
	}
}

// hasWildcard reports whether an activity section's store settings declare
// a wildcard folder path or file name.
func hasWildcard(section map[string]any) bool {
	if section == nil {
		return false
	}
	store, ok := section["storeSettings"].(map[string]any)
	if !ok {
		return false
	}
	_, hasFolder := store["wildcardFolderPath"]
	_, hasFile := store["wildcardFileName"]
	return hasFolder || hasFile
}

// unwrapParameters replaces wrapper-object values in a parameter map with
// their unwrapped literals before they are merged into typeProperties.
// Leaving a wrapper in place would serialize an opaque object where the
// target format expects a plain value.
func unwrapParameters(tc *core.Context, activity string, params map[string]any) {
	for name, value := range params {
		if !expression.IsWrapper(value) {
			continue
		}
		literal, err := expression.Unwrap(value)
		if err != nil {
			tc.Warn(core.UnresolvableExpression, activity,
				fmt.Sprintf("parameter '%s': %v", name, err))
			delete(params, name)
			continue
		}
		params[name] = literal
	}
}

// attachConnection resolves an activity-level linked service to its target
// connection and records it as the activity's external reference.
func attachConnection(tc *core.Context, act adf.Activity, linkedService string) {
	if linkedService == "" {
		tc.Warn(core.DatasetNotFound, act.Name(), "activity declares no linked service to resolve a connection from")
		return
	}
	id, ok := tc.Catalog.ConnectionFor(linkedService)
	if !ok {
		tc.Fail(core.DatasetNotFound, act.Name(),
			fmt.Sprintf("no target connection mapped for linked service '%s'", linkedService))
		return
	}
	act["externalReferences"] = map[string]any{"connection": id}
	tc.RecordConnection(id)
}
