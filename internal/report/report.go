// Package report renders migration run summaries for humans and machines:
// Markdown for review, JSON for tooling, CSV for spreadsheets.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"fabric-migrator/internal/adf"
	"fabric-migrator/internal/migration"
	"fabric-migrator/internal/migration/core"
	"fabric-migrator/internal/migration/order"
)

// PipelineSummary profiles one transformed pipeline.
type PipelineSummary struct {
	Name        string   `json:"name"`
	Activities  int      `json:"activities"`
	Connections []string `json:"connections,omitempty"`
	Diagnostics int      `json:"diagnostics"`
}

// Summary is the full profile of one migration run.
type Summary struct {
	RunID          string            `json:"runId"`
	GeneratedAt    time.Time         `json:"generatedAt"`
	Pipelines      []PipelineSummary `json:"pipelines"`
	ActivityCounts map[string]int    `json:"activityCounts"`
	Order          []order.Entry     `json:"deploymentOrder,omitempty"`
	Diagnostics    []core.Diagnostic `json:"diagnostics,omitempty"`
}

// Build profiles a transformation run.
func Build(runID string, run *migration.RunResult) *Summary {
	s := &Summary{
		RunID:          runID,
		GeneratedAt:    time.Now().UTC(),
		ActivityCounts: make(map[string]int),
		Order:          run.Order,
		Diagnostics:    run.Diagnostics,
	}

	diagsByPipeline := make(map[string]int)
	for _, diag := range run.Diagnostics {
		diagsByPipeline[diag.Pipeline]++
	}

	for _, result := range run.Results {
		count := 0
		migration.VisitActivities(result.Pipeline.Activities, func(act adf.Activity) {
			count++
			s.ActivityCounts[act.Kind()]++
		})
		s.Pipelines = append(s.Pipelines, PipelineSummary{
			Name:        result.Pipeline.Name,
			Activities:  count,
			Connections: result.Connections,
			Diagnostics: diagsByPipeline[result.Pipeline.Name],
		})
	}

	return s
}

// JSON renders the summary as indented JSON.
func (s *Summary) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Markdown renders the summary as a review document.
func (s *Summary) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Migration run %s\n\n", s.RunID)
	fmt.Fprintf(&b, "Generated %s\n\n", s.GeneratedAt.Format(time.RFC3339))

	b.WriteString("## Pipelines\n\n")
	b.WriteString("| Pipeline | Activities | Connections | Diagnostics |\n")
	b.WriteString("| --- | ---: | ---: | ---: |\n")
	for _, p := range s.Pipelines {
		fmt.Fprintf(&b, "| %s | %d | %d | %d |\n", p.Name, p.Activities, len(p.Connections), p.Diagnostics)
	}
	b.WriteString("\n")

	if len(s.ActivityCounts) > 0 {
		b.WriteString("## Activities by type\n\n")
		b.WriteString("| Type | Count |\n")
		b.WriteString("| --- | ---: |\n")
		for _, kind := range sortedKeys(s.ActivityCounts) {
			fmt.Fprintf(&b, "| %s | %d |\n", kind, s.ActivityCounts[kind])
		}
		b.WriteString("\n")
	}

	if len(s.Order) > 0 {
		b.WriteString("## Deployment order\n\n")
		b.WriteString("| Level | Pipeline | Depends on |\n")
		b.WriteString("| ---: | --- | --- |\n")
		for _, entry := range s.Order {
			fmt.Fprintf(&b, "| %d | %s | %s |\n", entry.Level, entry.Pipeline, strings.Join(entry.DependsOn, ", "))
		}
		b.WriteString("\n")
	}

	if len(s.Diagnostics) > 0 {
		b.WriteString("## Diagnostics\n\n")
		for _, diag := range s.Diagnostics {
			fmt.Fprintf(&b, "- %s\n", diag.String())
		}
		b.WriteString("\n")
	}

	return b.String()
}

// CSV renders the per-pipeline profile as CSV.
func (s *Summary) CSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"pipeline", "activities", "connections", "diagnostics"}); err != nil {
		return nil, err
	}
	for _, p := range s.Pipelines {
		record := []string{
			p.Name,
			strconv.Itoa(p.Activities),
			strconv.Itoa(len(p.Connections)),
			strconv.Itoa(p.Diagnostics),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
