package parser

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// maskByte replaces masked source bytes. It is neither whitespace nor a
// bracket, so nothing next to a masked region can open a link or a tag.
const maskByte = 0x00

var md = goldmark.New()

// maskCode returns body with the contents of code spans, fenced code blocks
// and indented code blocks overwritten by maskByte. Newlines are preserved so
// line-based rules still hold.
func maskCode(body string) (masked string) {
	src := []byte(body)
	defer func() {
		if r := recover(); r != nil {
			masked = body
		}
	}()

	doc := md.Parser().Parse(text.NewReader(src))
	out := []byte(body)
	blank := func(start, stop int) {
		if start < 0 || stop > len(out) {
			return
		}
		for i := start; i < stop; i++ {
			if out[i] != '\n' {
				out[i] = maskByte
			}
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.FencedCodeBlock:
			if node.Info != nil {
				blank(node.Info.Segment.Start, node.Info.Segment.Stop)
			}
			blankLines(node, blank)
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock:
			blankLines(node, blank)
			return ast.WalkSkipChildren, nil
		case *ast.CodeSpan:
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					blank(t.Segment.Start, t.Segment.Stop)
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return string(out)
}

func blankLines(n ast.Node, blank func(start, stop int)) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		blank(seg.Start, seg.Stop)
	}
}
