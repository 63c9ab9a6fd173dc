package accessibility

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseReportFormat accepts console (or text), json and yaml.
func ParseReportFormat(s string) (ReportFormat, error) {
	switch strings.ToLower(s) {
	case "", "console", "text":
		return FormatConsole, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported report format %q (want console, json or yaml)", s)
	}
}

// WriteReport renders report to w in the given format.
func WriteReport(w io.Writer, report *AccessibilityReport, format ReportFormat) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return enc.Close()
	case FormatConsole, "":
		return writeConsole(w, report)
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}
}

// WriteRules lists rules in the given format.
func WriteRules(w io.Writer, rules []AccessibilityRule, format ReportFormat) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rules)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rules); err != nil {
			return fmt.Errorf("failed to encode rules: %w", err)
		}
		return enc.Close()
	case FormatConsole, "":
		var b strings.Builder
		for _, r := range rules {
			fmt.Fprintf(&b, "%-24s %-9s WCAG %-6s %s\n", r.ID, r.Impact, r.WCAG, r.Description)
		}
		_, err := io.WriteString(w, b.String())
		return err
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}
}

func writeConsole(w io.Writer, report *AccessibilityReport) error {
	var b strings.Builder

	b.WriteString("\n🔍 Tab Accessibility Audit\n")
	b.WriteString(strings.Repeat("═", 31) + "\n\n")
	if report.Target != "" {
		fmt.Fprintf(&b, "Target:             %s\n", report.Target)
	}
	fmt.Fprintf(&b, "Containers audited: %d\n", report.Summary.Containers)
	fmt.Fprintf(&b, "Total violations:   %d\n", report.Summary.TotalViolations)
	fmt.Fprintf(&b, "Critical:           %d\n", report.Summary.CriticalImpact)
	fmt.Fprintf(&b, "Score:              %.1f/100\n\n", report.Summary.OverallScore)

	for _, c := range report.Containers {
		fmt.Fprintf(&b, "📦 %s (node %d, %d tabs)\n", c.Element, c.Node, c.Tabs)
		if len(c.Violations) == 0 {
			b.WriteString("   ✅ No accessibility issues found\n\n")
			continue
		}
		for _, v := range c.Violations {
			fmt.Fprintf(&b, "   • %s\n", v.Message)
			fmt.Fprintf(&b, "     Rule: %s | Impact: %s | WCAG: %s\n", v.Rule, v.Impact, v.WCAG)
			fmt.Fprintf(&b, "     Element: %s\n", v.Element)
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
