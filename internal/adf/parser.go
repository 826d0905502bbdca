package adf

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"
)

const (
	resourcePipeline      = "Microsoft.DataFactory/factories/pipelines"
	resourceDataset       = "Microsoft.DataFactory/factories/datasets"
	resourceLinkedService = "Microsoft.DataFactory/factories/linkedServices"
	resourceTrigger       = "Microsoft.DataFactory/factories/triggers"
)

// Components holds everything the parser extracted from one deployment
// template, keyed the way the rest of the tool consumes it.
type Components struct {
	Pipelines      []*Pipeline
	Datasets       map[string]*DatasetDefinition
	LinkedServices map[string]*LinkedService

	// Triggers lists trigger resource names. Triggers have no target
	// equivalent in a pipeline migration but are worth surfacing by name so
	// operators know what scheduling to re-create.
	Triggers []string

	// Skipped lists resources of kinds the migration does not cover
	// (managed virtual networks, the factory resource itself).
	Skipped []string
}

type armTemplate struct {
	Resources []armResource `json:"resources"`
}

type armResource struct {
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// factoryNameRe matches the ARM naming convention
// [concat(parameters('factoryName'), '/ComponentName')].
var factoryNameRe = regexp.MustCompile(`^\[concat\(parameters\('factoryName'\),\s*'/(.+)'\)\]$`)

// ParseTemplate decodes an ARM deployment template and returns its typed
// components. Resources of unrecognized kinds are skipped, never fatal.
func ParseTemplate(data []byte) (*Components, error) {
	var tmpl armTemplate
	if err := json.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("failed to decode deployment template: %w", err)
	}
	if len(tmpl.Resources) == 0 {
		return nil, fmt.Errorf("deployment template contains no resources")
	}

	comps := &Components{
		Datasets:       make(map[string]*DatasetDefinition),
		LinkedServices: make(map[string]*LinkedService),
	}

	for _, res := range tmpl.Resources {
		name := componentName(res.Name)
		switch res.Type {
		case resourcePipeline:
			pipeline, err := parsePipeline(name, res.Properties)
			if err != nil {
				return nil, fmt.Errorf("pipeline '%s': %w", name, err)
			}
			comps.Pipelines = append(comps.Pipelines, pipeline)

		case resourceDataset:
			dataset, err := parseDataset(name, res.Properties)
			if err != nil {
				return nil, fmt.Errorf("dataset '%s': %w", name, err)
			}
			comps.Datasets[name] = dataset

		case resourceLinkedService:
			ls, err := parseLinkedService(name, res.Properties)
			if err != nil {
				return nil, fmt.Errorf("linked service '%s': %w", name, err)
			}
			comps.LinkedServices[name] = ls

		case resourceTrigger:
			comps.Triggers = append(comps.Triggers, name)

		default:
			comps.Skipped = append(comps.Skipped, name)
		}
	}

	return comps, nil
}

// componentName strips the factory-name concat wrapper from a resource name.
func componentName(raw string) string {
	if m := factoryNameRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	// Plain "factory/component" names appear in exported child templates.
	if idx := strings.LastIndex(raw, "/"); idx >= 0 {
		return raw[idx+1:]
	}
	return raw
}

func parsePipeline(name string, props map[string]any) (*Pipeline, error) {
	if props == nil {
		return nil, fmt.Errorf("missing properties block")
	}

	pipeline := &Pipeline{
		Name:       name,
		Properties: props,
		Activities: ActivityList(props["activities"]),
	}
	if params, ok := props["parameters"].(map[string]any); ok {
		pipeline.Parameters = params
	}
	if vars, ok := props["variables"].(map[string]any); ok {
		pipeline.Variables = vars
	}
	return pipeline, nil
}

func parseDataset(name string, props map[string]any) (*DatasetDefinition, error) {
	var decoded struct {
		Type              string `mapstructure:"type"`
		LinkedServiceName struct {
			ReferenceName string `mapstructure:"referenceName"`
		} `mapstructure:"linkedServiceName"`
		Parameters     map[string]any `mapstructure:"parameters"`
		TypeProperties map[string]any `mapstructure:"typeProperties"`
		Schema         any            `mapstructure:"schema"`
	}
	if err := mapstructure.Decode(props, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode dataset properties: %w", err)
	}
	if decoded.Type == "" {
		return nil, fmt.Errorf("dataset has no type")
	}

	return &DatasetDefinition{
		Name:           name,
		Type:           decoded.Type,
		LinkedService:  decoded.LinkedServiceName.ReferenceName,
		Parameters:     decoded.Parameters,
		TypeProperties: decoded.TypeProperties,
		Schema:         decoded.Schema,
	}, nil
}

func parseLinkedService(name string, props map[string]any) (*LinkedService, error) {
	var decoded struct {
		Type           string         `mapstructure:"type"`
		TypeProperties map[string]any `mapstructure:"typeProperties"`
	}
	if err := mapstructure.Decode(props, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode linked service properties: %w", err)
	}
	if decoded.Type == "" {
		return nil, fmt.Errorf("linked service has no type")
	}

	return &LinkedService{
		Name:           name,
		Type:           decoded.Type,
		TypeProperties: decoded.TypeProperties,
	}, nil
}
