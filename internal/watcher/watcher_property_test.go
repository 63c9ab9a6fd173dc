//go:build property

package watcher

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestDebouncerProperties validates the grouping guarantees of the debouncer
func TestDebouncerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(9876)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	// Property: a flush emits each distinct path exactly once
	properties.Property("flush emits each path once", prop.ForAll(
		func(paths []int) bool {
			if len(paths) == 0 {
				return true
			}
			d := &Debouncer{
				delay:  time.Hour,
				events: make(chan ChangeEvent, len(paths)),
				output: make(chan []ChangeEvent, 1),
			}
			distinct := make(map[string]bool)
			for _, p := range paths {
				name := fmt.Sprintf("file-%d.html", p)
				distinct[name] = true
				d.addEvent(ChangeEvent{Type: EventTypeModified, Path: name})
			}
			d.timer.Stop()
			d.flush()

			events := <-d.output
			if len(events) != len(distinct) {
				return false
			}
			seen := make(map[string]bool)
			for _, e := range events {
				if seen[e.Path] || !distinct[e.Path] {
					return false
				}
				seen[e.Path] = true
			}
			return len(d.pending) == 0
		},
		gen.SliceOf(gen.IntRange(0, 10)),
	))

	// Property: only the watched file passes, and never as an editor temp file
	properties.Property("path and temp filters compose", prop.ForAll(
		func(name string, suffix string) bool {
			target := filepath.Join(string(filepath.Separator), "site", name+".html")
			path := target + suffix
			return (PathFilter(target)(path) && NoTempFilter(path)) == (suffix == "")
		},
		gen.Identifier(),
		gen.OneConstOf("", "~", ".swp", ".bak", "x"),
	))

	properties.TestingRun(t)
}
