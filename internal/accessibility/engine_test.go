package accessibility

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/a11ytabs/internal/dom"
	"github.com/conneroisu/a11ytabs/internal/errors"
	"github.com/conneroisu/a11ytabs/internal/logging"
	"github.com/conneroisu/a11ytabs/internal/tabs"
)

const plainTabs = `<!DOCTYPE html>
<html lang="en">
<body>
  <div data-a11y-tabs id="tabs">
    <ul>
      <li><a href="#one">One</a></li>
      <li><a href="#two">Two</a></li>
      <li><button type="button">Three</button></li>
    </ul>
    <section id="one"><p>First</p></section>
    <section id="two">Second</section>
    <section id="three"><p>Third</p></section>
  </div>
</body>
</html>`

func parse(t *testing.T, markup string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(markup)
	require.NoError(t, err)
	return doc
}

func rulesHit(report *AccessibilityReport) map[string]int {
	hits := make(map[string]int)
	for _, v := range report.Violations() {
		hits[v.Rule]++
	}
	return hits
}

func TestNewEngine_LoadsRules(t *testing.T) {
	engine := NewEngine(logging.NewDiscardLogger())
	ids := make([]string, 0)
	for _, r := range engine.Rules() {
		ids = append(ids, r.ID)
		assert.NotEmpty(t, r.Description)
		assert.NotEmpty(t, r.WCAG)
	}
	assert.Contains(t, ids, "tablist-role")
	assert.Contains(t, ids, "roving-tabindex")
	assert.Contains(t, ids, "tabpanel-visibility")
}

func TestCheck_UnannotatedMarkup(t *testing.T) {
	doc := parse(t, plainTabs)
	report := Check(doc.QuerySelector("#tabs"), "", "")

	require.Len(t, report.Containers, 1)
	assert.False(t, report.Passed())
	assert.Equal(t, 3, report.Containers[0].Tabs)
	assert.Empty(t, report.Containers[0].Selected)

	hits := rulesHit(report)
	assert.Equal(t, 1, hits["tablist-role"])
	assert.Equal(t, 3, hits["tab-item-presentation"])
	assert.Equal(t, 3, hits["tab-role"])
	assert.Equal(t, 1, hits["single-selected-tab"])
	assert.Equal(t, 3, hits["roving-tabindex"])
	assert.Equal(t, 3, hits["tab-controls-panel"])
	assert.Equal(t, 3, hits["tabpanel-role"])
	assert.Equal(t, 3, hits["tabpanel-visibility"])
	assert.Less(t, report.Summary.OverallScore, 100.0)
}

func TestCheck_AnnotatedMarkupPasses(t *testing.T) {
	doc := parse(t, plainTabs)
	container := doc.QuerySelector("#tabs")
	w, err := tabs.New(container, tabs.Config{ActiveIndex: 1})
	require.NoError(t, err)

	report := Check(container, "", "")
	assert.True(t, report.Passed(), "violations: %v", report.Violations())
	assert.Equal(t, []int{1}, report.Containers[0].Selected)
	assert.Equal(t, 100.0, report.Summary.OverallScore)

	w.Goto(2, true)
	report = Check(container, "", "")
	assert.True(t, report.Passed(), "violations: %v", report.Violations())

	w.Destroy(true)
	report = Check(container, "", "")
	assert.False(t, report.Passed())
}

func TestCheck_DetectsInconsistentState(t *testing.T) {
	doc := parse(t, plainTabs)
	container := doc.QuerySelector("#tabs")
	w, err := tabs.New(container, tabs.Config{})
	require.NoError(t, err)

	// Select a second tab behind the widget's back.
	second := w.Tabs()[1]
	second.SetAttribute("aria-selected", "true")
	w.Panels()[0].SetAttribute("aria-hidden", "true")

	hits := rulesHit(Check(container, "", ""))
	assert.Equal(t, 1, hits["single-selected-tab"])
	assert.Equal(t, 1, hits["roving-tabindex"])
	assert.Equal(t, 2, hits["tabpanel-visibility"])
}

func TestCheck_MissingTablist(t *testing.T) {
	doc := parse(t, `<div id="tabs"><section>Only</section></div>`)
	report := Check(doc.QuerySelector("#tabs"), "", "")

	violations := report.Violations()
	require.Len(t, violations, 1)
	assert.Equal(t, "tablist-present", violations[0].Rule)
	assert.Equal(t, ImpactCritical, violations[0].Impact)
	assert.Equal(t, "<div#tabs>", violations[0].Element)
}

func TestCheck_MissingPanelsAndClickables(t *testing.T) {
	doc := parse(t, `<div id="tabs"><ul><li>plain</li><li><a href="#x">X</a></li></ul></div>`)
	hits := rulesHit(Check(doc.QuerySelector("#tabs"), "", ""))
	assert.Equal(t, 2, hits["tab-role"], "one item lacks a clickable, the other lacks role=tab")
	assert.Equal(t, 1, hits["tab-controls-panel"])
}

func TestCheckDocument(t *testing.T) {
	doc := parse(t, `<html><body>
	  <div data-a11y-tabs><ul><li><a href="#a">A</a></li></ul><section id="a">a</section></div>
	  <div data-a11y-tabs><ul><li><a href="#b">B</a></li></ul><section id="b">b</section></div>
	</body></html>`)
	_, err := tabs.Mount(doc, tabs.MountOptions{})
	require.NoError(t, err)

	report, err := CheckDocument(doc, AuditConfiguration{Target: "fixture.html"})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Summary.Containers)
	assert.True(t, report.Passed())
	assert.Equal(t, "fixture.html", report.Target)

	_, err = CheckDocument(doc, AuditConfiguration{ContainerSelector: ".none"})
	assert.Equal(t, errors.ErrCodeNoContainers, errors.GetCode(err))

	_, err = NewEngine(nil).CheckDocument(context.Background(), doc, AuditConfiguration{TablistSelector: "[["})
	assert.Equal(t, errors.ErrCodeInvalidSelector, errors.GetCode(err))
}

func TestWriteReport(t *testing.T) {
	doc := parse(t, plainTabs)
	report := Check(doc.QuerySelector("#tabs"), "", "")

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteReport(&buf, report, FormatJSON))

		var decoded AccessibilityReport
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, report.Summary, decoded.Summary)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteReport(&buf, report, FormatYAML))

		var decoded map[string]interface{}
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		assert.Contains(t, decoded, "summary")
		assert.Contains(t, decoded, "containers")
	})

	t.Run("console", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteReport(&buf, report, FormatConsole))
		out := buf.String()
		assert.Contains(t, out, "Containers audited: 1")
		assert.Contains(t, out, "Rule: tablist-role")
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Error(t, WriteReport(&bytes.Buffer{}, report, ReportFormat("html")))
	})
}

func TestParseReportFormat(t *testing.T) {
	testCases := []struct {
		input    string
		expected ReportFormat
		wantErr  bool
	}{
		{"", FormatConsole, false},
		{"text", FormatConsole, false},
		{"JSON", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"html", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			format, err := ParseReportFormat(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, format)
		})
	}
}
