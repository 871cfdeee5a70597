// Package responder maps free-text chat input to suggested actions using
// simple keyword matching. It sits at the boundary of the engine: its
// suggestions ultimately call StartFlow or HandleAction and it is
// otherwise unrelated to the state machine's correctness.
package responder

import (
	"sort"
	"strings"

	"github.com/montage-ui/guideflow/pkg/api"
)

type (
	// Matcher scores registered phrase sets against user input
	Matcher struct {
		entries []*Entry
	}

	// Entry pairs trigger keywords with the action they suggest
	Entry struct {
		Keywords []string
		Action   *api.SuggestedAction
	}

	scored struct {
		action *api.SuggestedAction
		hits   int
		order  int
	}
)

// New creates a matcher preloaded with the demo phrase sets
func New() *Matcher {
	m := &Matcher{}
	m.Add([]string{"new client", "client", "onboard", "setup", "account"},
		&api.SuggestedAction{
			ID:    "start-client-setup",
			Label: "Set up a new client",
			Flow:  "client-setup",
		})
	m.Add([]string{"bulk", "upload", "spreadsheet", "import", "excel"},
		&api.SuggestedAction{
			ID:    "start-bulk-upload",
			Label: "Bulk upload clients",
			Flow:  "bulk-upload",
		})
	return m
}

// Add registers a phrase set
func (m *Matcher) Add(keywords []string, action *api.SuggestedAction) {
	m.entries = append(m.entries, &Entry{
		Keywords: keywords,
		Action:   action,
	})
}

// Match returns the actions whose keywords appear in the input, best match
// first. Ties keep registration order.
func (m *Matcher) Match(input string) []*api.SuggestedAction {
	lowered := strings.ToLower(input)

	var matches []scored
	for i, entry := range m.entries {
		hits := 0
		for _, kw := range entry.Keywords {
			if strings.Contains(lowered, kw) {
				hits++
			}
		}
		if hits > 0 {
			matches = append(matches, scored{
				action: entry.Action,
				hits:   hits,
				order:  i,
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].hits != matches[j].hits {
			return matches[i].hits > matches[j].hits
		}
		return matches[i].order < matches[j].order
	})

	res := make([]*api.SuggestedAction, len(matches))
	for i, s := range matches {
		res[i] = s.action
	}
	return res
}
