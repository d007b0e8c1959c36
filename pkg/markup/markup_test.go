package markup_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/asmbridge/pkg/markup"
)

func sample() *markup.Document {
	doc := &markup.Document{}
	doc.AddHeading(3).AppendText("Add X-form")
	doc.AddParagraph().AppendText("See more on page").AppendText("64")
	doc.AddCodeBlock("add RT,RA,RB\n", "powerpc")
	doc.AddRuler()
	list := doc.AddBulletList()
	list.AddItem().AddParagraph().AppendText("sets").AppendCode("CR0")
	list.AddItem().AddParagraph().AppendText("no overflow")
	return doc
}

func TestDocument_AsMarkdown(t *testing.T) {
	t.Parallel()

	want := "### Add X-form\n\n" +
		"See more on page 64\n\n" +
		"```powerpc\nadd RT,RA,RB\n```\n\n" +
		"---\n\n" +
		"- sets `CR0`\n- no overflow"

	if diff := cmp.Diff(want, sample().AsMarkdown()); diff != "" {
		t.Errorf("AsMarkdown() mismatch (-want +got):\n%s", diff)
	}
}

func TestDocument_AsPlainText(t *testing.T) {
	t.Parallel()

	want := "Add X-form\n\n" +
		"See more on page 64\n\n" +
		"add RT,RA,RB\n\n" +
		"- sets CR0\n- no overflow"

	if diff := cmp.Diff(want, sample().AsPlainText()); diff != "" {
		t.Errorf("AsPlainText() mismatch (-want +got):\n%s", diff)
	}
}

func TestDocument_AsHTML(t *testing.T) {
	t.Parallel()

	doc := &markup.Document{}
	doc.AddHeading(1).AppendText("Title")
	doc.AddParagraph().AppendText("hello").AppendCode("x")

	html, err := doc.AsHTML()
	require.NoError(t, err)
	assert.Equal(t, "<h1>Title</h1>\n<p>hello <code>x</code></p>\n", html)
}

func TestParagraph_Escaping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fill func(*markup.Paragraph)
		want string
	}{
		{
			name: "emphasis characters",
			fill: func(p *markup.Paragraph) { p.AppendText("a*b_c") },
			want: `a\*b\_c`,
		},
		{
			name: "code is not escaped",
			fill: func(p *markup.Paragraph) { p.AppendCode("a*b") },
			want: "`a*b`",
		},
		{
			name: "backtick in code",
			fill: func(p *markup.Paragraph) { p.AppendCode("a`b") },
			want: "``a`b``",
		},
		{
			name: "leading backtick in code",
			fill: func(p *markup.Paragraph) { p.AppendCode("`x") },
			want: "`` `x ``",
		},
		{
			name: "blank chunks dropped",
			fill: func(p *markup.Paragraph) { p.AppendText("  ").AppendText("x").AppendCode("") },
			want: "x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := &markup.Document{}
			tt.fill(doc.AddParagraph())
			assert.Equal(t, tt.want, doc.AsMarkdown())
		})
	}
}

func TestDocument_Append(t *testing.T) {
	t.Parallel()

	doc := &markup.Document{}
	doc.AddParagraph().AppendText("one")

	other := &markup.Document{}
	other.AddParagraph().AppendText("two")
	other.AddRuler()

	doc.Append(other)
	doc.Append(nil)

	assert.Equal(t, 3, doc.Len())
	assert.Equal(t, "one\n\ntwo\n\n---", doc.AsMarkdown())
	assert.Equal(t, "one\n\ntwo", doc.AsPlainText())
}

func TestDocument_CodeBlockFence(t *testing.T) {
	t.Parallel()

	doc := &markup.Document{}
	doc.AddCodeBlock("```\ninner\n```", "")

	assert.Equal(t, "````\n```\ninner\n```\n````", doc.AsMarkdown())
}

func TestDocument_HeadingLevelClamped(t *testing.T) {
	t.Parallel()

	doc := &markup.Document{}
	doc.AddHeading(0).AppendText("low")
	doc.AddHeading(9).AppendText("high")

	assert.Equal(t, "# low\n\n###### high", doc.AsMarkdown())
}

func TestBulletList_NestedItems(t *testing.T) {
	t.Parallel()

	doc := &markup.Document{}
	item := doc.AddBulletList().AddItem()
	item.AddParagraph().AppendText("first")
	item.AddParagraph().AppendText("second")

	assert.Equal(t, "- first\n  \n  second", doc.AsMarkdown())
}
