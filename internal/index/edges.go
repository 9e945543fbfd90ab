package index

import (
	"fmt"

	"github.com/starford/scribe/internal/models"
	"github.com/starford/scribe/internal/parser"
)

// buildEdges collapses raw link occurrences into one edge per target title,
// in first-seen order. Edges are unresolved.
func buildEdges(noteID string, links []parser.WikiLink) []models.LinkEdge {
	pos := make(map[string]int, len(links))
	var out []models.LinkEdge
	for _, l := range links {
		if l.Target == "" {
			continue
		}
		if i, ok := pos[l.Target]; ok {
			out[i].Occurrences++
			continue
		}
		pos[l.Target] = len(out)
		out = append(out, models.LinkEdge{
			SourceNoteID: noteID,
			TargetTitle:  l.Target,
			Occurrences:  1,
		})
	}
	return out
}

// normalizeTags normalizes and deduplicates names, keeping first-seen order.
func normalizeTags(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = parser.NormalizeTag(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// TagColor derives a stable HSL color from a tag name.
func TagColor(name string) string {
	var hash uint32
	for _, r := range name {
		hash = uint32(r) + ((hash << 5) - hash)
	}
	return fmt.Sprintf("hsl(%d, 70%%, 50%%)", hash%360)
}
