package tabs

import "github.com/conneroisu/a11ytabs/internal/dom"

// GotoTab moves the selection of binding b from activeIndex to targetIndex.
//
// A target without a tab or panel yields OutOfRange and touches nothing;
// navigation never wraps. Otherwise EventBeforeSelect is dispatched from
// container and any listener may veto with dom.Rejected, again leaving the
// document untouched. An approved transition is committed and followed by
// EventAfterSelect.
//
// With moveFocus set, focus ends on the target panel's focusable element;
// the target tab is always focused first.
func GotoTab(container dom.Element, b *Binding, activeIndex, targetIndex int, moveFocus bool) Outcome {
	targetTab, targetPanel := b.Pair(targetIndex)
	if targetTab == nil || targetPanel == nil {
		return refused(OutOfRange)
	}
	currentTab, currentPanel := b.Pair(activeIndex)

	detail := SelectDetail{
		CurrentTab:      currentTab,
		TargetTab:       targetTab,
		CurrentTabpanel: currentPanel,
		TargetTabpanel:  targetPanel,
	}
	if notify(container, EventBeforeSelect, detail, true) == dom.Rejected {
		return refused(Rejected)
	}

	if activeIndex == targetIndex {
		// Reselecting the active tab must not deselect it.
		currentTab, currentPanel = nil, nil
	}
	switchTab(b, currentTab, targetTab, currentPanel, targetPanel, moveFocus)

	notify(container, EventAfterSelect, detail, false)
	return committed(targetIndex)
}

// NextTab selects the tab after activeIndex.
func NextTab(container dom.Element, b *Binding, activeIndex int, moveFocus bool) Outcome {
	return GotoTab(container, b, activeIndex, activeIndex+1, moveFocus)
}

// PrevTab selects the tab before activeIndex.
func PrevTab(container dom.Element, b *Binding, activeIndex int, moveFocus bool) Outcome {
	return GotoTab(container, b, activeIndex, activeIndex-1, moveFocus)
}

// switchTab applies the attribute and focus changes of a committed
// transition in their fixed order. currentTab and currentPanel may be nil.
func switchTab(b *Binding, currentTab, targetTab, currentPanel, targetPanel dom.Element, moveFocus bool) {
	targetTab.SetAttribute(attrTabindex, "0")
	targetTab.SetAttribute(attrAriaSelected, "true")
	targetTab.Focus()

	if currentTab != nil {
		currentTab.SetAttribute(attrTabindex, "-1")
		currentTab.RemoveAttribute(attrAriaSelected)
	}

	if currentPanel != nil {
		currentPanel.SetAttribute(attrAriaHidden, "true")
		b.blurPanel(currentPanel)
	}
	targetPanel.RemoveAttribute(attrAriaHidden)

	focusable := b.focusPanel(targetPanel)
	if moveFocus {
		focusable.Focus()
	}
}
