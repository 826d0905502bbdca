// Package adf models the source-format components extracted from an Azure
// Data Factory ARM deployment template: pipelines, activities, datasets and
// linked services. Activities keep their raw JSON shape so the transformation
// engine can rewrite them without losing fields it does not understand.
package adf

// Activity is one step of a pipeline. It is a thin view over the decoded JSON
// object so unknown fields survive a rewrite untouched.
type Activity map[string]any

// Name returns the activity name, or "" when absent.
func (a Activity) Name() string {
	s, _ := a["name"].(string)
	return s
}

// Kind returns the activity's "type" discriminator (Copy, ForEach, ...).
func (a Activity) Kind() string {
	s, _ := a["type"].(string)
	return s
}

// TypeProperties returns the activity's typeProperties bag, or nil.
func (a Activity) TypeProperties() map[string]any {
	m, _ := a["typeProperties"].(map[string]any)
	return m
}

// EnsureTypeProperties returns the typeProperties bag, creating it if absent.
func (a Activity) EnsureTypeProperties() map[string]any {
	if m, ok := a["typeProperties"].(map[string]any); ok {
		return m
	}
	m := make(map[string]any)
	a["typeProperties"] = m
	return m
}

// Clone returns a deep copy of the activity.
func (a Activity) Clone() Activity {
	return Activity(CloneMap(a))
}

// Inputs returns the dataset references declared under "inputs".
func (a Activity) Inputs() []DatasetReference {
	return referenceList(a["inputs"])
}

// Outputs returns the dataset references declared under "outputs".
func (a Activity) Outputs() []DatasetReference {
	return referenceList(a["outputs"])
}

// LinkedServiceName returns the referenceName of the activity-level linked
// service, or "" when the activity has none.
func (a Activity) LinkedServiceName() string {
	ls, ok := a["linkedServiceName"].(map[string]any)
	if !ok {
		return ""
	}
	s, _ := ls["referenceName"].(string)
	return s
}

// DatasetReference is a named, parameterized pointer to a dataset definition.
type DatasetReference struct {
	Name       string
	Parameters map[string]any
}

// ParseDatasetReference extracts a DatasetReference from a decoded JSON
// value of the shape {"referenceName": ..., "type": "DatasetReference",
// "parameters": {...}}.
func ParseDatasetReference(v any) (DatasetReference, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return DatasetReference{}, false
	}
	name, ok := m["referenceName"].(string)
	if !ok || name == "" {
		return DatasetReference{}, false
	}
	ref := DatasetReference{Name: name}
	if params, ok := m["parameters"].(map[string]any); ok {
		ref.Parameters = params
	}
	return ref, true
}

func referenceList(v any) []DatasetReference {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	refs := make([]DatasetReference, 0, len(list))
	for _, item := range list {
		if ref, ok := ParseDatasetReference(item); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

// ActivityList converts a decoded JSON array into a slice of Activities.
// Non-object entries are dropped.
func ActivityList(v any) []Activity {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	acts := make([]Activity, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			acts = append(acts, Activity(m))
		}
	}
	return acts
}

// RawActivityList converts a slice of Activities back into the []any shape
// the JSON encoder expects.
func RawActivityList(acts []Activity) []any {
	raw := make([]any, len(acts))
	for i, act := range acts {
		raw[i] = map[string]any(act)
	}
	return raw
}

// Pipeline is one source pipeline extracted from the deployment template.
type Pipeline struct {
	Name       string
	Activities []Activity
	Parameters map[string]any
	Variables  map[string]any

	// Properties is the full decoded properties block, kept so fields the
	// engine does not rewrite (folder, annotations, concurrency) survive.
	Properties map[string]any
}

// Clone returns a deep copy of the pipeline.
func (p *Pipeline) Clone() *Pipeline {
	out := &Pipeline{
		Name:       p.Name,
		Properties: CloneMap(p.Properties),
	}
	out.Activities = make([]Activity, len(p.Activities))
	for i, act := range p.Activities {
		out.Activities[i] = act.Clone()
	}
	if p.Parameters != nil {
		out.Parameters = CloneMap(p.Parameters)
	}
	if p.Variables != nil {
		out.Variables = CloneMap(p.Variables)
	}
	return out
}

// DatasetDefinition is the resolved shape a DatasetReference points to.
type DatasetDefinition struct {
	Name           string
	Type           string
	LinkedService  string
	Parameters     map[string]any
	TypeProperties map[string]any
	Schema         any
}

// Location returns the dataset definition's own location sub-object, or nil
// for dataset types with no location concept (relational sources).
func (d *DatasetDefinition) Location() map[string]any {
	if d.TypeProperties == nil {
		return nil
	}
	loc, _ := d.TypeProperties["location"].(map[string]any)
	return loc
}

// LinkedService is a named connection definition from the source template.
type LinkedService struct {
	Name           string
	Type           string
	TypeProperties map[string]any
}

// CloneValue deep-copies a decoded JSON value.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = CloneValue(item)
		}
		return out
	default:
		return v
	}
}

// CloneMap deep-copies a decoded JSON object.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}
