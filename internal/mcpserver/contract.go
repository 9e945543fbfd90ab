package mcpserver

// NoteFormatContract describes how Scribe reads links and tags out of a note,
// for LLM consumers that create or edit notes.
const NoteFormatContract = `# Scribe Note Format

A note has a title, a folder and a Markdown body. Scribe indexes two things
from the body: wiki-links and tags.

## Title

The title is the name other notes link to. When create_note is called
without a title, Scribe takes the frontmatter ` + "`" + `title` + "`" + ` field, then the
first ` + "`" + `# heading` + "`" + `. Titles match exactly, including case.

## Wiki-links

- ` + "`" + `[[Other Note]]` + "`" + ` links to the note titled "Other Note".
- ` + "`" + `[[Other Note|shown text]]` + "`" + ` links the same note with display text.
- A link to a title that does not exist yet is kept and resolves as soon as
  a note with that title is created.
- Links inside inline code or fenced code blocks are ignored.

## Tags

- Inline: ` + "`" + `#research` + "`" + `, ` + "`" + `#research/statistics` + "`" + ` (hierarchy with slashes).
- A tag starts with a letter right after the ` + "`" + `#` + "`" + `, so ` + "`" + `#123` + "`" + ` is not a tag.
- The ` + "`" + `#` + "`" + ` must not be glued to a word: ` + "`" + `(#idea)` + "`" + ` is a tag, ` + "`" + `C#sharp` + "`" + ` is not.
- ` + "`" + `# Heading` + "`" + ` (hash followed by a space) is a heading, not a tag.
- Frontmatter ` + "`" + `tags:` + "`" + ` as a YAML list or comma separated string.
- Tags are case-insensitive: ` + "`" + `#Go` + "`" + ` and ` + "`" + `#go` + "`" + ` are one tag.

## Example

` + "```" + `markdown
---
title: Weekly standup 2025-01-20
tags:
  - meeting-notes
---

# Weekly standup 2025-01-20

- [[Alice]] to review the [[Design Doc]] #followup
- Bob to update [[Roadmap|the roadmap]]
` + "```" + `
`
