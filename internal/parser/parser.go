// Package parser extracts frontmatter, wiki-links, and tags from Markdown content.
//
// Extraction never fails: malformed or unterminated syntax is treated as plain
// text. Code spans and code blocks are masked before scanning, so neither
// links nor tags are reported from inside them.
package parser

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

// WikiLink is one raw [[Target]] or [[Target|Alias]] occurrence.
type WikiLink struct {
	Target string `json:"target"`
	Alias  string `json:"alias,omitempty"`
}

// Result holds the output of parsing a note.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Links       []WikiLink
	Tags        []string
	Title       string
}

// Parse splits frontmatter from the body and extracts links, tags and a title.
func Parse(content string) *Result {
	fm, root, body := splitFrontmatter(content)
	masked := maskCode(body)
	return &Result{
		Frontmatter: fm,
		Body:        body,
		Links:       append(frontmatterLinks(root), scanWikiLinks(masked)...),
		Tags:        collectTags(masked, fm),
		Title:       deriveTitle(fm, body),
	}
}

// ExtractWikiLinks returns every wiki-link occurrence in content, duplicates
// included, in document order. Links in frontmatter string values count.
func ExtractWikiLinks(content string) []WikiLink {
	_, root, body := splitFrontmatter(content)
	return append(frontmatterLinks(root), scanWikiLinks(maskCode(body))...)
}

// ExtractTags returns the normalized, deduplicated tag names of content in
// first-seen order. Frontmatter "tags" entries come first.
func ExtractTags(content string) []string {
	fm, _, body := splitFrontmatter(content)
	return collectTags(maskCode(body), fm)
}

// DeriveTitle returns the frontmatter title, else the first H1 heading, else
// an empty string.
func DeriveTitle(content string) string {
	fm, _, body := splitFrontmatter(content)
	return deriveTitle(fm, body)
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body and returns it both decoded and as its root node.
// If no valid frontmatter is found the entire content is body.
func splitFrontmatter(content string) (map[string]any, *yaml.Node, string) {
	const delim = "---"
	data := []byte(content)
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, nil, content
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, nil, content
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var doc yaml.Node
	if err := yaml.Unmarshal(yamlBlock, &doc); err != nil {
		return nil, nil, content
	}
	if len(doc.Content) == 0 {
		return nil, nil, body
	}
	root := doc.Content[0]
	var fm map[string]any
	if err := root.Decode(&fm); err != nil {
		return nil, nil, content
	}
	return fm, root, body
}

// frontmatterLinks scans the string values under n, in document order.
// Mapping keys are skipped.
func frontmatterLinks(n *yaml.Node) []WikiLink {
	if n == nil {
		return nil
	}
	var out []WikiLink
	var walk func(*yaml.Node)
	walk = func(n *yaml.Node) {
		switch n.Kind {
		case yaml.ScalarNode:
			if n.ShortTag() == "!!str" {
				out = append(out, scanWikiLinks(n.Value)...)
			}
		case yaml.MappingNode:
			for i := 1; i < len(n.Content); i += 2 {
				walk(n.Content[i])
			}
		case yaml.SequenceNode:
			for _, c := range n.Content {
				walk(c)
			}
		}
	}
	walk(n)
	return out
}

func deriveTitle(fm map[string]any, body string) string {
	if fm != nil {
		if s, ok := fm["title"].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
