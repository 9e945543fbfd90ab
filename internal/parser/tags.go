package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeTag lowercases name and strips a leading '#'. It returns an empty
// string when nothing usable remains.
func NormalizeTag(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimLeft(name, "#")
	name = strings.TrimRight(name, "/-")
	if name == "" {
		return ""
	}
	return cases.Lower(language.Und).String(name)
}

// collectTags merges frontmatter tags and inline tags, deduplicated after
// normalization.
func collectTags(body string, fm map[string]any) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(raw string) {
		t := NormalizeTag(raw)
		if t == "" {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	if fm != nil {
		switch v := fm["tags"].(type) {
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					add(s)
				}
			}
		case string:
			for _, s := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || unicode.IsSpace(r) }) {
				add(s)
			}
		}
	}

	scanTags(body, add)
	return out
}

// scanTags reports every inline tag in s. A '#' opens a tag when a letter
// follows it directly and the rune before it does not glue it to a word, a
// URL, an entity or an attribute value. ATX headings put a space after their
// '#' run and so never match.
func scanTags(s string, emit func(string)) {
	prev := ' '
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == '#' && canOpenTag(prev) {
			j := i + size
			first, _ := utf8.DecodeRuneInString(s[j:])
			if j < len(s) && unicode.IsLetter(first) {
				k := j
				for k < len(s) {
					c, n := utf8.DecodeRuneInString(s[k:])
					if !isTagRune(c) {
						break
					}
					k += n
				}
				emit(s[j:k])
				last, _ := utf8.DecodeLastRuneInString(s[j:k])
				prev = last
				i = k
				continue
			}
		}
		prev = r
		i += size
	}
}

// canOpenTag reports whether a '#' preceded by prev may start a tag.
func canOpenTag(prev rune) bool {
	if unicode.IsLetter(prev) || unicode.IsDigit(prev) {
		return false
	}
	switch prev {
	case '_', '#', '/', '&', '=', '"', '\'', maskByte:
		return false
	}
	return true
}

func isTagRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '/'
}
