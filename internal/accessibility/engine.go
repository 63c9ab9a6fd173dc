// Package accessibility audits tab widget markup against the ARIA tabs
// pattern. It works on already annotated documents, either produced by the
// tabs package or written by hand.
package accessibility

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/conneroisu/a11ytabs/internal/dom"
	"github.com/conneroisu/a11ytabs/internal/errors"
	"github.com/conneroisu/a11ytabs/internal/logging"
	"github.com/conneroisu/a11ytabs/internal/tabs"
)

// structure is the tab widget layout found in one container. Tabs entries
// are nil for tablist items without a link or button; Panels entries are
// nil past the last panel.
type structure struct {
	container dom.Element
	tablist   dom.Element
	items     []dom.Element
	tabs      []dom.Element
	panels    []dom.Element
}

type finding struct {
	el      dom.Element
	index   int
	message string
}

type rule struct {
	AccessibilityRule
	check func(s *structure) []finding
}

// Engine runs the tab rules over containers.
type Engine struct {
	rules  []rule
	logger logging.Logger
}

// NewEngine creates an engine with the default rule set.
func NewEngine(logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Engine{
		rules:  defaultRules(),
		logger: logger.WithComponent("accessibility_engine"),
	}
}

// Rules returns the rules the engine checks.
func (engine *Engine) Rules() []AccessibilityRule {
	out := make([]AccessibilityRule, len(engine.rules))
	for i, r := range engine.rules {
		out[i] = r.AccessibilityRule
	}
	return out
}

// Check audits a single container.
func Check(container dom.Element, tablistSelector, tabpanelSelector string) *AccessibilityReport {
	return NewEngine(nil).Check(context.Background(), container, AuditConfiguration{
		TablistSelector:  tablistSelector,
		TabpanelSelector: tabpanelSelector,
	})
}

// CheckDocument audits every container under root.
func CheckDocument(root tabs.Querier, config AuditConfiguration) (*AccessibilityReport, error) {
	return NewEngine(nil).CheckDocument(context.Background(), root, config)
}

// Check audits a single container.
func (engine *Engine) Check(
	ctx context.Context,
	container dom.Element,
	config AuditConfiguration,
) *AccessibilityReport {
	config = withDefaults(config)
	report := engine.newReport(config)
	report.Containers = append(report.Containers, engine.checkContainer(container, config))
	report.Summary = engine.generateSummary(report.Containers)
	engine.logResult(ctx, report)
	return report
}

// CheckDocument audits every container under root matching
// config.ContainerSelector.
func (engine *Engine) CheckDocument(
	ctx context.Context,
	root tabs.Querier,
	config AuditConfiguration,
) (*AccessibilityReport, error) {
	config = withDefaults(config)
	for _, sel := range []string{config.ContainerSelector, config.TablistSelector, config.TabpanelSelector} {
		if err := dom.Validate(sel); err != nil {
			return nil, err
		}
	}

	containers := root.QuerySelectorAll(config.ContainerSelector)
	if len(containers) == 0 {
		return nil, errors.NewValidationError(errors.ErrCodeNoContainers,
			"no tab containers match "+config.ContainerSelector).
			WithContext("selector", config.ContainerSelector)
	}

	report := engine.newReport(config)
	for _, container := range containers {
		report.Containers = append(report.Containers, engine.checkContainer(container, config))
	}
	report.Summary = engine.generateSummary(report.Containers)
	engine.logResult(ctx, report)
	return report, nil
}

func withDefaults(config AuditConfiguration) AuditConfiguration {
	if config.ContainerSelector == "" {
		config.ContainerSelector = tabs.DefaultContainerSelector
	}
	if config.TablistSelector == "" {
		config.TablistSelector = tabs.DefaultTablistSelector
	}
	if config.TabpanelSelector == "" {
		config.TabpanelSelector = tabs.DefaultTabpanelSelector
	}
	return config
}

func (engine *Engine) newReport(config AuditConfiguration) *AccessibilityReport {
	return &AccessibilityReport{
		ID:        "report_" + uuid.NewString(),
		Timestamp: time.Now(),
		Target:    config.Target,
	}
}

func (engine *Engine) logResult(ctx context.Context, report *AccessibilityReport) {
	engine.logger.Info(ctx, "Accessibility audit completed",
		"containers", report.Summary.Containers,
		"violations", report.Summary.TotalViolations,
		"score", report.Summary.OverallScore)
}

func (engine *Engine) checkContainer(container dom.Element, config AuditConfiguration) ContainerReport {
	result := ContainerReport{
		Node:    container.Key(),
		Element: describe(container),
	}

	s := scan(container, config)
	if s.tablist == nil {
		result.Violations = append(result.Violations, AccessibilityViolation{
			Rule:    "tablist-present",
			Impact:  ImpactCritical,
			WCAG:    Criteria1_3_1,
			Element: describe(container),
			Node:    container.Key(),
			Index:   -1,
			Message: "No element matches tablist selector " + config.TablistSelector,
		})
		return result
	}

	result.Tabs = len(s.items)
	for i, tab := range s.tabs {
		if tab != nil && attr(tab, "aria-selected") == "true" {
			result.Selected = append(result.Selected, i)
		}
	}

	for _, r := range engine.rules {
		findings := r.check(s)
		if len(findings) == 0 {
			result.Passed = append(result.Passed, r.ID)
			continue
		}
		for _, f := range findings {
			result.Violations = append(result.Violations, AccessibilityViolation{
				Rule:    r.ID,
				Impact:  r.Impact,
				WCAG:    r.WCAG,
				Element: describe(f.el),
				Node:    f.el.Key(),
				Index:   f.index,
				Message: f.message,
			})
		}
	}
	return result
}

func scan(container dom.Element, config AuditConfiguration) *structure {
	s := &structure{container: container}
	s.tablist = container.QuerySelector(config.TablistSelector)
	if s.tablist == nil {
		return s
	}
	s.items = s.tablist.Children()
	panels := container.QuerySelectorAll(config.TabpanelSelector)

	s.tabs = make([]dom.Element, len(s.items))
	s.panels = make([]dom.Element, len(s.items))
	for i, item := range s.items {
		s.tabs[i] = item.QuerySelector(tabs.ClickableSelector)
		if i < len(panels) {
			s.panels[i] = panels[i]
		}
	}
	return s
}

func (engine *Engine) generateSummary(containers []ContainerReport) AccessibilitySummary {
	summary := AccessibilitySummary{Containers: len(containers)}

	for _, c := range containers {
		checked := len(c.Passed)
		failed := make(map[string]bool)
		for _, violation := range c.Violations {
			failed[violation.Rule] = true
			summary.TotalViolations++
			switch violation.Impact {
			case ImpactCritical:
				summary.CriticalImpact++
			case ImpactSerious:
				summary.SeriousImpact++
			case ImpactModerate:
				summary.ModerateImpact++
			case ImpactMinor:
				summary.MinorImpact++
			}
		}
		summary.PassedRules += checked
		summary.FailedRules += len(failed)
		summary.TotalRules += checked + len(failed)
	}

	if summary.TotalRules > 0 {
		summary.OverallScore = float64(summary.PassedRules) / float64(summary.TotalRules) * 100
	}
	return summary
}

func attr(el dom.Element, name string) string {
	v, _ := el.Attribute(name)
	return v
}

// describe renders a short element reference such as <a#one> or <section>.
func describe(el dom.Element) string {
	if el == nil {
		return ""
	}
	if id := attr(el, "id"); id != "" {
		return fmt.Sprintf("<%s#%s>", el.TagName(), id)
	}
	return fmt.Sprintf("<%s>", el.TagName())
}
