package parser

import "strings"

// scanWikiLinks finds [[...]] occurrences. A link must close on the line it
// opens on; a newline, a lone ']' or a nested "[[" abandons the opener and
// scanning resumes after it.
func scanWikiLinks(s string) []WikiLink {
	var out []WikiLink
	i := 0
	for i < len(s) {
		open := strings.Index(s[i:], "[[")
		if open < 0 {
			break
		}
		start := i + open + 2
		end, next := closeWikiLink(s, start)
		if end < 0 {
			i = next
			continue
		}
		if wl, ok := newWikiLink(s[start:end]); ok {
			out = append(out, wl)
		}
		i = end + 2
	}
	return out
}

// closeWikiLink returns the index of the closing "]]" for a link whose inner
// text starts at start, or -1 and the position to resume scanning from.
func closeWikiLink(s string, start int) (int, int) {
	for k := start; k < len(s); k++ {
		switch s[k] {
		case '\n', maskByte:
			return -1, k + 1
		case '[':
			if strings.HasPrefix(s[k:], "[[") {
				return -1, k
			}
		case ']':
			if strings.HasPrefix(s[k:], "]]") {
				return k, 0
			}
			return -1, k + 1
		}
	}
	return -1, len(s)
}

func newWikiLink(inner string) (WikiLink, bool) {
	target, alias := inner, ""
	if i := strings.IndexByte(inner, '|'); i >= 0 {
		target, alias = inner[:i], inner[i+1:]
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return WikiLink{}, false
	}
	return WikiLink{Target: target, Alias: strings.TrimSpace(alias)}, true
}
