// Package core holds the shared types of the transformation engine:
// the transform context, the per-activity transformer contract, and the
// diagnostic taxonomy transformations degrade into instead of failing.
package core

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Code identifies a diagnostic category.
type Code string

const (
	// DatasetNotFound means a dataset reference or its target connection
	// could not be resolved through the catalog.
	DatasetNotFound Code = "DatasetNotFound"
	// UnresolvableExpression means wrapper unwrapping exceeded the depth
	// guard or substitution produced a rejected literal.
	UnresolvableExpression Code = "UnresolvableExpression"
	// UnknownActivityType means no transformer is registered for the
	// activity kind; the activity passed through unmodified.
	UnknownActivityType Code = "UnknownActivityType"
	// DependencyCycle means two or more pipelines mutually invoke each
	// other, so no deployment order exists.
	DependencyCycle Code = "DependencyCycle"
	// UnsupportedConnector means the dataset's connector type has no
	// Fabric equivalent in the current supported-type snapshot.
	UnsupportedConnector Code = "UnsupportedConnector"
)

// Severity of a diagnostic. Warnings leave the output usable; errors mean
// the affected field or role was omitted.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic records one degradation encountered during transformation.
type Diagnostic struct {
	Code     Code     `json:"code"`
	Severity Severity `json:"severity"`
	Pipeline string   `json:"pipeline,omitempty"`
	Activity string   `json:"activity,omitempty"`
	Detail   string   `json:"detail"`
}

func (d Diagnostic) String() string {
	if d.Activity != "" {
		return fmt.Sprintf("[%s] %s/%s: %s", d.Code, d.Pipeline, d.Activity, d.Detail)
	}
	if d.Pipeline != "" {
		return fmt.Sprintf("[%s] %s: %s", d.Code, d.Pipeline, d.Detail)
	}
	return fmt.Sprintf("[%s] %s", d.Code, d.Detail)
}

// Diagnostics collects the degradations of one transformation run.
type Diagnostics struct {
	items []Diagnostic
}

// Add appends a diagnostic.
func (d *Diagnostics) Add(diag Diagnostic) {
	d.items = append(d.items, diag)
}

// Items returns the recorded diagnostics in order.
func (d *Diagnostics) Items() []Diagnostic {
	return d.items
}

// Len returns the number of recorded diagnostics.
func (d *Diagnostics) Len() int {
	return len(d.items)
}

// HasErrors reports whether any diagnostic has error severity.
func (d *Diagnostics) HasErrors() bool {
	for _, diag := range d.items {
		if diag.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Err aggregates error-severity diagnostics into a single error value,
// or nil when none were recorded.
func (d *Diagnostics) Err() error {
	return Aggregate(d.items)
}

// Aggregate joins the error-severity diagnostics of a run into one error
// value, or nil when none are present.
func Aggregate(diags []Diagnostic) error {
	var result *multierror.Error
	for _, diag := range diags {
		if diag.Severity == SeverityError {
			result = multierror.Append(result, fmt.Errorf("%s", diag.String()))
		}
	}
	return result.ErrorOrNil()
}
