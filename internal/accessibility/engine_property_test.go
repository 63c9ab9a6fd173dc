//go:build property

package accessibility

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/a11ytabs/internal/dom"
	"github.com/conneroisu/a11ytabs/internal/tabs"
)

// TestAuditAfterNavigation checks that a widget never leaves its container
// in a state the audit rejects.
func TestAuditAfterNavigation(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("audit passes after any navigation", prop.ForAll(
		func(n int, targets []int) bool {
			var b strings.Builder
			b.WriteString(`<div id="tabs"><ul>`)
			for i := 0; i < n; i++ {
				fmt.Fprintf(&b, `<li><button>%d</button></li>`, i)
			}
			b.WriteString(`</ul>`)
			for i := 0; i < n; i++ {
				fmt.Fprintf(&b, `<section><p>%d</p></section>`, i)
			}
			b.WriteString(`</div>`)

			doc, err := dom.ParseString(b.String())
			if err != nil {
				return false
			}
			container := doc.QuerySelector("#tabs")
			w, err := tabs.New(container, tabs.Config{})
			if err != nil {
				return false
			}
			for _, target := range targets {
				w.Goto(target-1, target%2 == 0)
				if !Check(container, "", "").Passed() {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 6),
		gen.SliceOf(gen.IntRange(0, 8)),
	))

	properties.TestingRun(t)
}
