package retrieval

import (
	"fmt"
	"sort"
	"strings"
)

// NoMatchesMessage is returned instead of an empty context so downstream
// prompts never interpolate an empty string.
const NoMatchesMessage = "No matching knowledge found for this query."

// SerializeContext renders hits into one model-ready string.
//
// Blocks are emitted in ascending score order: the most relevant block sits
// at the end of the context, where a model's recency bias favors it. The
// character budget is spent from the highest-scored block backward, so when
// space runs out the lowest-scored blocks are the ones dropped. The single
// highest-scored block is always kept, even when it alone exceeds the budget.
func SerializeContext(hits []Hit, charBudget int) string {
	if len(hits) == 0 {
		return NoMatchesMessage
	}
	if charBudget <= 0 {
		charBudget = 32000
	}

	ordered := make([]Hit, len(hits))
	copy(ordered, hits)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Score < ordered[j].Score })

	blocks := make([]string, len(ordered))
	for i, h := range ordered {
		blocks[i] = renderBlock(h)
	}

	// Walk from the best block down, keeping blocks while budget remains.
	remaining := charBudget
	keepFrom := len(blocks) - 1
	remaining -= len(blocks[len(blocks)-1])
	for i := len(blocks) - 2; i >= 0; i-- {
		cost := len(blocks[i]) + 2
		if cost > remaining {
			break
		}
		remaining -= cost
		keepFrom = i
	}

	return strings.Join(blocks[keepFrom:], "\n\n")
}

func renderBlock(h Hit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s (relevance: %.2f)\n", h.Node.Title, h.Score)
	fmt.Fprintf(&b, "Type: %s | Confidence: %.2f\n", h.Node.ClaimType, h.Node.Confidence)
	if h.Node.Definition != "" {
		fmt.Fprintf(&b, "%s\n", h.Node.Definition)
	}
	if h.Node.Summary != "" && h.Node.Summary != h.Node.Definition {
		fmt.Fprintf(&b, "Summary: %s\n", h.Node.Summary)
	}
	if len(h.Related) > 0 {
		b.WriteString("Related:\n")
		for _, r := range h.Related {
			line := fmt.Sprintf("- [%s] %s", r.Category, r.Title)
			if r.Summary != "" {
				line += ": " + r.Summary
			}
			b.WriteString(line + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
