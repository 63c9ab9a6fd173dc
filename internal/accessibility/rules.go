package accessibility

import "fmt"

func defaultRules() []rule {
	return []rule{
		{
			AccessibilityRule: AccessibilityRule{
				ID:          "tablist-role",
				Description: "The tablist must have role=tablist",
				Impact:      ImpactCritical,
				WCAG:        Criteria4_1_2,
			},
			check: checkTablistRole,
		},
		{
			AccessibilityRule: AccessibilityRule{
				ID:          "tab-item-presentation",
				Description: "Tablist items must have role=presentation",
				Impact:      ImpactModerate,
				WCAG:        Criteria1_3_1,
			},
			check: checkPresentation,
		},
		{
			AccessibilityRule: AccessibilityRule{
				ID:          "tab-role",
				Description: "Each tablist item must contain a link or button with role=tab",
				Impact:      ImpactCritical,
				WCAG:        Criteria4_1_2,
			},
			check: checkTabRole,
		},
		{
			AccessibilityRule: AccessibilityRule{
				ID:          "single-selected-tab",
				Description: "Exactly one tab must have aria-selected=true",
				Impact:      ImpactSerious,
				WCAG:        Criteria4_1_2,
			},
			check: checkSingleSelected,
		},
		{
			AccessibilityRule: AccessibilityRule{
				ID:          "roving-tabindex",
				Description: "The selected tab must have tabindex=0 and every other tab tabindex=-1",
				Impact:      ImpactSerious,
				WCAG:        Criteria2_1_1,
			},
			check: checkRovingTabindex,
		},
		{
			AccessibilityRule: AccessibilityRule{
				ID:          "tab-controls-panel",
				Description: "Each tab's aria-controls must name the id of its tabpanel",
				Impact:      ImpactSerious,
				WCAG:        Criteria1_3_1,
			},
			check: checkControls,
		},
		{
			AccessibilityRule: AccessibilityRule{
				ID:          "tabpanel-role",
				Description: "Each tabpanel must have role=tabpanel",
				Impact:      ImpactCritical,
				WCAG:        Criteria4_1_2,
			},
			check: checkPanelRole,
		},
		{
			AccessibilityRule: AccessibilityRule{
				ID:          "tabpanel-visibility",
				Description: "Only the selected tab's panel may be exposed; the others need aria-hidden=true",
				Impact:      ImpactSerious,
				WCAG:        Criteria1_3_1,
			},
			check: checkPanelVisibility,
		},
		{
			AccessibilityRule: AccessibilityRule{
				ID:          "tabpanel-focusable",
				Description: "The selected tabpanel or its first child element must be focusable",
				Impact:      ImpactMinor,
				WCAG:        Criteria2_4_3,
			},
			check: checkPanelFocusable,
		},
	}
}

func checkTablistRole(s *structure) []finding {
	if attr(s.tablist, "role") == "tablist" {
		return nil
	}
	return []finding{{el: s.tablist, index: -1, message: "Tablist is missing role=tablist"}}
}

func checkPresentation(s *structure) []finding {
	var out []finding
	for i, item := range s.items {
		if attr(item, "role") != "presentation" {
			out = append(out, finding{el: item, index: i, message: fmt.Sprintf("Tablist item %d is missing role=presentation", i)})
		}
	}
	return out
}

func checkTabRole(s *structure) []finding {
	var out []finding
	for i, tab := range s.tabs {
		switch {
		case tab == nil:
			out = append(out, finding{el: s.items[i], index: i, message: fmt.Sprintf("Tablist item %d has no link or button", i)})
		case attr(tab, "role") != "tab":
			out = append(out, finding{el: tab, index: i, message: fmt.Sprintf("Tab %d is missing role=tab", i)})
		}
	}
	return out
}

func checkSingleSelected(s *structure) []finding {
	selected := 0
	for _, tab := range s.tabs {
		if tab != nil && attr(tab, "aria-selected") == "true" {
			selected++
		}
	}
	if selected == 1 || len(s.items) == 0 {
		return nil
	}
	return []finding{{el: s.tablist, index: -1, message: fmt.Sprintf("%d tabs are selected, want exactly 1", selected)}}
}

func checkRovingTabindex(s *structure) []finding {
	var out []finding
	for i, tab := range s.tabs {
		if tab == nil {
			continue
		}
		want := "-1"
		if attr(tab, "aria-selected") == "true" {
			want = "0"
		}
		if got, ok := tab.Attribute("tabindex"); !ok || got != want {
			out = append(out, finding{el: tab, index: i, message: fmt.Sprintf("Tab %d has tabindex %q, want %q", i, got, want)})
		}
	}
	return out
}

func checkControls(s *structure) []finding {
	var out []finding
	for i, tab := range s.tabs {
		if tab == nil {
			continue
		}
		panel := s.panels[i]
		if panel == nil {
			out = append(out, finding{el: tab, index: i, message: fmt.Sprintf("Tab %d has no tabpanel", i)})
			continue
		}
		controls := attr(tab, "aria-controls")
		if controls == "" || controls != attr(panel, "id") {
			out = append(out, finding{el: tab, index: i, message: fmt.Sprintf("Tab %d aria-controls %q does not match its tabpanel id %q", i, controls, attr(panel, "id"))})
		}
	}
	return out
}

func checkPanelRole(s *structure) []finding {
	var out []finding
	for i, panel := range s.panels {
		if panel != nil && attr(panel, "role") != "tabpanel" {
			out = append(out, finding{el: panel, index: i, message: fmt.Sprintf("Tabpanel %d is missing role=tabpanel", i)})
		}
	}
	return out
}

func checkPanelVisibility(s *structure) []finding {
	var out []finding
	for i, panel := range s.panels {
		tab := s.tabs[i]
		if panel == nil || tab == nil {
			continue
		}
		selected := attr(tab, "aria-selected") == "true"
		hidden := attr(panel, "aria-hidden") == "true"
		switch {
		case selected && hidden:
			out = append(out, finding{el: panel, index: i, message: fmt.Sprintf("Tabpanel %d belongs to the selected tab but is aria-hidden", i)})
		case !selected && !hidden:
			out = append(out, finding{el: panel, index: i, message: fmt.Sprintf("Tabpanel %d is exposed while its tab is not selected", i)})
		}
	}
	return out
}

func checkPanelFocusable(s *structure) []finding {
	var out []finding
	for i, panel := range s.panels {
		tab := s.tabs[i]
		if panel == nil || tab == nil || attr(tab, "aria-selected") != "true" {
			continue
		}
		target := panel.FirstElementChild()
		if target == nil {
			target = panel
		}
		if attr(target, "tabindex") != "0" {
			out = append(out, finding{el: target, index: i, message: fmt.Sprintf("Selected tabpanel %d has no focusable entry point", i)})
		}
	}
	return out
}
