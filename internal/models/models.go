package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// UnknownName is displayed for projects and resources without a name
const UnknownName = "Unknown"

// ServiceDelimiter separates the service identifier from the rest of a resource name
const ServiceDelimiter = "."

// Cost is a monetary amount that infracost emits either as a JSON number or
// as a numeric string. Null, empty and absent values decode to zero.
type Cost float64

// UnmarshalJSON accepts numbers, numeric strings, empty strings and null
func (c *Cost) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		*c = 0
		return nil
	}

	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid cost value %s: %w", raw, err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*c = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid cost value %q: %w", s, err)
		}
		*c = Cost(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid cost value %s: %w", raw, err)
	}
	*c = Cost(v)
	return nil
}

// Float returns the cost as a float64
func (c Cost) Float() float64 {
	return float64(c)
}

// CostReport is the breakdown document produced by `infracost breakdown --format json`
type CostReport struct {
	Version          string    `json:"version,omitempty"`
	Currency         string    `json:"currency,omitempty"`
	TimeGenerated    string    `json:"timeGenerated,omitempty"`
	TotalMonthlyCost Cost      `json:"totalMonthlyCost"`
	TotalHourlyCost  Cost      `json:"totalHourlyCost"`
	Projects         []Project `json:"projects"`
}

// Project is a single infracost project, usually one Terraform root module
type Project struct {
	Name      string    `json:"name"`
	Breakdown Breakdown `json:"breakdown"`
}

// Breakdown holds the resources priced for a project
type Breakdown struct {
	Resources        []Resource `json:"resources"`
	TotalMonthlyCost Cost       `json:"totalMonthlyCost"`
	TotalHourlyCost  Cost       `json:"totalHourlyCost"`
}

// Resource is one priced resource, e.g. "aws_ecs_service.api"
type Resource struct {
	Name         string `json:"name" yaml:"name"`
	ResourceType string `json:"resourceType,omitempty" yaml:"resourceType,omitempty"`
	MonthlyCost  Cost   `json:"monthlyCost" yaml:"monthlyCost"`
	HourlyCost   Cost   `json:"hourlyCost,omitempty" yaml:"hourlyCost,omitempty"`
}

// DisplayName returns the project name, or UnknownName if it has none
func (p Project) DisplayName() string {
	if p.Name == "" {
		return UnknownName
	}
	return p.Name
}

// ResourceTotal sums the monthly cost of every resource in the project
func (p Project) ResourceTotal() float64 {
	total := 0.0
	for _, r := range p.Breakdown.Resources {
		total += r.MonthlyCost.Float()
	}
	return total
}

// DisplayName returns the resource name, or UnknownName if it has none
func (r Resource) DisplayName() string {
	if r.Name == "" {
		return UnknownName
	}
	return r.Name
}

// ServiceKey returns the part of a resource name before the first delimiter.
// Names without a delimiter are their own key.
func ServiceKey(name string) string {
	key, _, _ := strings.Cut(name, ServiceDelimiter)
	return key
}

// ResourceTotal sums the monthly cost of every resource across all projects
func (r *CostReport) ResourceTotal() float64 {
	total := 0.0
	for _, p := range r.Projects {
		total += p.ResourceTotal()
	}
	return total
}

// AnnualCost derives the annual figure from the monthly total
func (r *CostReport) AnnualCost() float64 {
	return r.TotalMonthlyCost.Float() * 12
}

// ServiceGroup aggregates the resources that share a service key
type ServiceGroup struct {
	Service   string     `json:"service" yaml:"service"`
	Total     float64    `json:"totalMonthlyCost" yaml:"totalMonthlyCost"`
	Resources []Resource `json:"resources" yaml:"resources"`
}

// GroupByService aggregates resources by service key and orders the groups by
// descending total. Groups with equal totals keep the order in which their
// first resource appeared; resources keep their input order within a group.
func GroupByService(resources []Resource) []ServiceGroup {
	index := make(map[string]int)
	groups := make([]ServiceGroup, 0)

	for _, resource := range resources {
		key := ServiceKey(resource.Name)
		i, exists := index[key]
		if !exists {
			i = len(groups)
			index[key] = i
			groups = append(groups, ServiceGroup{Service: key})
		}
		groups[i].Resources = append(groups[i].Resources, resource)
		groups[i].Total += resource.MonthlyCost.Float()
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Total > groups[j].Total
	})

	return groups
}

// ProjectSummary is a project with its resources grouped by service
type ProjectSummary struct {
	Name     string         `json:"name" yaml:"name"`
	Services []ServiceGroup `json:"services" yaml:"services"`
}

// Summary is the rendering input shared by all output formats
type Summary struct {
	GeneratedAt time.Time        `json:"generatedAt" yaml:"generatedAt"`
	Currency    string           `json:"currency" yaml:"currency"`
	MonthlyCost float64          `json:"totalMonthlyCost" yaml:"totalMonthlyCost"`
	HourlyCost  float64          `json:"totalHourlyCost" yaml:"totalHourlyCost"`
	AnnualCost  float64          `json:"totalAnnualCost" yaml:"totalAnnualCost"`
	Projects    []ProjectSummary `json:"projects" yaml:"projects"`
}

// NewSummary groups a cost report for rendering
func NewSummary(report *CostReport, generatedAt time.Time) *Summary {
	currency := report.Currency
	if currency == "" {
		currency = "USD"
	}

	summary := &Summary{
		GeneratedAt: generatedAt,
		Currency:    currency,
		MonthlyCost: report.TotalMonthlyCost.Float(),
		HourlyCost:  report.TotalHourlyCost.Float(),
		AnnualCost:  report.AnnualCost(),
		Projects:    make([]ProjectSummary, 0, len(report.Projects)),
	}

	for _, project := range report.Projects {
		summary.Projects = append(summary.Projects, ProjectSummary{
			Name:     project.DisplayName(),
			Services: GroupByService(project.Breakdown.Resources),
		})
	}

	return summary
}
