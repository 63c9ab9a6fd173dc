package accessibility

import (
	"time"
)

// WCAGCriteria represents the specific WCAG success criteria a rule covers.
type WCAGCriteria string

const (
	Criteria1_3_1 WCAGCriteria = "1.3.1" // Info and Relationships
	Criteria2_1_1 WCAGCriteria = "2.1.1" // Keyboard
	Criteria2_4_3 WCAGCriteria = "2.4.3" // Focus Order
	Criteria4_1_2 WCAGCriteria = "4.1.2" // Name, Role, Value
)

// ViolationImpact represents the potential impact of an accessibility violation.
type ViolationImpact string

const (
	ImpactCritical ViolationImpact = "critical"
	ImpactSerious  ViolationImpact = "serious"
	ImpactModerate ViolationImpact = "moderate"
	ImpactMinor    ViolationImpact = "minor"
)

// AccessibilityRule describes one check of the tab widget ARIA contract.
type AccessibilityRule struct {
	ID          string          `json:"id" yaml:"id"`
	Description string          `json:"description" yaml:"description"`
	Impact      ViolationImpact `json:"impact" yaml:"impact"`
	WCAG        WCAGCriteria    `json:"wcag" yaml:"wcag"`
}

// AccessibilityViolation represents a single accessibility issue found during an audit.
type AccessibilityViolation struct {
	Rule    string          `json:"rule" yaml:"rule"`
	Impact  ViolationImpact `json:"impact" yaml:"impact"`
	WCAG    WCAGCriteria    `json:"wcag" yaml:"wcag"`
	Element string          `json:"element" yaml:"element"`
	Node    int             `json:"node" yaml:"node"`
	Index   int             `json:"index" yaml:"index"` // tab position, -1 for the tablist
	Message string          `json:"message" yaml:"message"`
}

// ContainerReport holds the results for one tab container.
type ContainerReport struct {
	Node       int                      `json:"node" yaml:"node"`
	Element    string                   `json:"element" yaml:"element"`
	Tabs       int                      `json:"tabs" yaml:"tabs"`
	Selected   []int                    `json:"selected" yaml:"selected"`
	Violations []AccessibilityViolation `json:"violations" yaml:"violations"`
	Passed     []string                 `json:"passed" yaml:"passed"`
}

// AccessibilitySummary provides high-level statistics about an audit.
type AccessibilitySummary struct {
	Containers      int `json:"containers" yaml:"containers"`
	TotalRules      int `json:"total_rules" yaml:"total_rules"`
	PassedRules     int `json:"passed_rules" yaml:"passed_rules"`
	FailedRules     int `json:"failed_rules" yaml:"failed_rules"`
	TotalViolations int `json:"total_violations" yaml:"total_violations"`

	CriticalImpact int `json:"critical_impact" yaml:"critical_impact"`
	SeriousImpact  int `json:"serious_impact" yaml:"serious_impact"`
	ModerateImpact int `json:"moderate_impact" yaml:"moderate_impact"`
	MinorImpact    int `json:"minor_impact" yaml:"minor_impact"`

	OverallScore float64 `json:"overall_score" yaml:"overall_score"` // 0-100
}

// AccessibilityReport contains the complete results of an audit.
type AccessibilityReport struct {
	ID         string               `json:"id" yaml:"id"`
	Timestamp  time.Time            `json:"timestamp" yaml:"timestamp"`
	Target     string               `json:"target,omitempty" yaml:"target,omitempty"`
	Summary    AccessibilitySummary `json:"summary" yaml:"summary"`
	Containers []ContainerReport    `json:"containers" yaml:"containers"`
}

// Passed reports whether the audit found no violations.
func (r *AccessibilityReport) Passed() bool {
	return r.Summary.TotalViolations == 0
}

// Violations returns every violation across containers.
func (r *AccessibilityReport) Violations() []AccessibilityViolation {
	var out []AccessibilityViolation
	for _, c := range r.Containers {
		out = append(out, c.Violations...)
	}
	return out
}

// ReportFormat specifies the format for accessibility reports.
type ReportFormat string

const (
	FormatConsole ReportFormat = "console"
	FormatJSON    ReportFormat = "json"
	FormatYAML    ReportFormat = "yaml"
)

// AuditConfiguration selects what an audit inspects.
type AuditConfiguration struct {
	ContainerSelector string `json:"container_selector" yaml:"container_selector"`
	TablistSelector   string `json:"tablist_selector" yaml:"tablist_selector"`
	TabpanelSelector  string `json:"tabpanel_selector" yaml:"tabpanel_selector"`
	Target            string `json:"target,omitempty" yaml:"target,omitempty"`
}
