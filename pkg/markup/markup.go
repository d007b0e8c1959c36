// Package markup builds structured documents for hover and documentation
// output and renders them as Markdown, plain text or HTML.
package markup

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

type block interface {
	markdown() string
	plain() string
}

// Document is an ordered list of blocks.
type Document struct {
	blocks []block
}

// Len returns the number of top-level blocks.
func (d *Document) Len() int { return len(d.blocks) }

// AddParagraph appends an empty paragraph and returns it for filling.
func (d *Document) AddParagraph() *Paragraph {
	p := &Paragraph{}
	d.blocks = append(d.blocks, p)
	return p
}

// AddHeading appends a heading of the given level, from 1 to 6.
func (d *Document) AddHeading(level int) *Paragraph {
	h := &heading{level: min(max(level, 1), 6)}
	d.blocks = append(d.blocks, h)
	return &h.Paragraph
}

// AddCodeBlock appends a fenced code block.
func (d *Document) AddCodeBlock(code, language string) {
	d.blocks = append(d.blocks, codeBlock{code: strings.TrimRight(code, "\n"), language: language})
}

// AddRuler appends a horizontal rule.
func (d *Document) AddRuler() {
	d.blocks = append(d.blocks, ruler{})
}

// AddBulletList appends an empty bullet list.
func (d *Document) AddBulletList() *BulletList {
	l := &BulletList{}
	d.blocks = append(d.blocks, l)
	return l
}

// Append moves the blocks of other to the end of d.
func (d *Document) Append(other *Document) {
	if other == nil {
		return
	}
	d.blocks = append(d.blocks, other.blocks...)
}

// AsMarkdown renders the document as CommonMark.
func (d *Document) AsMarkdown() string {
	return render(d.blocks, block.markdown)
}

// AsPlainText renders the document without markup.
func (d *Document) AsPlainText() string {
	return render(d.blocks, block.plain)
}

// AsHTML renders the Markdown form of the document to HTML.
func (d *Document) AsHTML() (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var out bytes.Buffer
	if err := md.Convert([]byte(d.AsMarkdown()), &out); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return out.String(), nil
}

func render(blocks []block, fn func(block) string) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if text := fn(b); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

type chunk struct {
	text string
	code bool
}

// Paragraph is a run of text and inline code.
type Paragraph struct {
	chunks []chunk
}

// AppendText adds plain text. Consecutive chunks are separated by a space.
func (p *Paragraph) AppendText(text string) *Paragraph {
	if text = strings.TrimSpace(text); text != "" {
		p.chunks = append(p.chunks, chunk{text: text})
	}
	return p
}

// AppendCode adds inline code.
func (p *Paragraph) AppendCode(code string) *Paragraph {
	if code = strings.TrimSpace(code); code != "" {
		p.chunks = append(p.chunks, chunk{text: code, code: true})
	}
	return p
}

func (p *Paragraph) markdown() string {
	parts := make([]string, 0, len(p.chunks))
	for _, c := range p.chunks {
		if c.code {
			parts = append(parts, inlineCode(c.text))
		} else {
			parts = append(parts, escapeMarkdown(c.text))
		}
	}
	return strings.Join(parts, " ")
}

func (p *Paragraph) plain() string {
	parts := make([]string, 0, len(p.chunks))
	for _, c := range p.chunks {
		parts = append(parts, c.text)
	}
	return strings.Join(parts, " ")
}

// inlineCode wraps code in a backtick fence longer than any backtick run
// it contains.
func inlineCode(code string) string {
	longest, run := 0, 0
	for _, r := range code {
		if r == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	fence := strings.Repeat("`", longest+1)
	if strings.HasPrefix(code, "`") || strings.HasSuffix(code, "`") {
		return fence + " " + code + " " + fence
	}
	return fence + code + fence
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
)

func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

type heading struct {
	Paragraph
	level int
}

func (h *heading) markdown() string {
	return strings.Repeat("#", h.level) + " " + h.Paragraph.markdown()
}

func (h *heading) plain() string { return h.Paragraph.plain() }

type codeBlock struct {
	code     string
	language string
}

func (c codeBlock) markdown() string {
	fence := "```"
	for strings.Contains(c.code, fence) {
		fence += "`"
	}
	return fence + c.language + "\n" + c.code + "\n" + fence
}

func (c codeBlock) plain() string { return c.code }

type ruler struct{}

func (ruler) markdown() string { return "---" }

func (ruler) plain() string { return "" }

// BulletList is a list whose items are documents.
type BulletList struct {
	items []*Document
}

// AddItem appends an item and returns its document.
func (l *BulletList) AddItem() *Document {
	item := &Document{}
	l.items = append(l.items, item)
	return item
}

func (l *BulletList) markdown() string {
	return l.renderItems((*Document).AsMarkdown)
}

func (l *BulletList) plain() string {
	return l.renderItems((*Document).AsPlainText)
}

func (l *BulletList) renderItems(fn func(*Document) string) string {
	lines := make([]string, 0, len(l.items))
	for _, item := range l.items {
		text := strings.ReplaceAll(fn(item), "\n", "\n  ")
		lines = append(lines, "- "+text)
	}
	return strings.Join(lines, "\n")
}
