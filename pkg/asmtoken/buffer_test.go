package asmtoken_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/asmbridge/pkg/asmtoken"
	"github.com/yaklabco/asmbridge/pkg/preproc"
	"github.com/yaklabco/asmbridge/pkg/source"
)

func TestTokenAt_RoundTrip(t *testing.T) {
	t.Parallel()

	buf, _ := collectPreprocessed(t, "lbl: addi 3,3,1\n\tb lbl\n")
	require.Positive(t, buf.Len())

	for i := range buf.Len() {
		tok, ok := buf.TokenAt(buf.Offset(i))
		require.True(t, ok, "token %d", i)
		assert.Equal(t, buf.Token(i), tok, "token %d", i)
	}
}

func TestTokenAt_Bounds(t *testing.T) {
	t.Parallel()

	// Buffer "\nA\n B": A at 1, B at 4. Offset 3 lies in the separator gap.
	host := &fakeHost{}
	collector := asmtoken.NewCollector(host, nil)
	host.watcher(ident("A", 1, preproc.StartOfLine))
	host.watcher(ident("B", 3, preproc.StartOfLine|preproc.LeadingSpace))

	buf, err := collector.Consume()
	require.NoError(t, err)
	require.Equal(t, "\nA\n B", buf.Text())

	tests := []struct {
		name   string
		offset int
		want   string
		found  bool
	}{
		{name: "negative", offset: -1},
		{name: "before first token", offset: 0},
		{name: "start of A", offset: 1, want: "A", found: true},
		{name: "just past A", offset: 2, want: "A", found: true},
		{name: "separator gap", offset: 3},
		{name: "start of B", offset: 4, want: "B", found: true},
		{name: "just past B", offset: 5, want: "B", found: true},
		{name: "beyond buffer", offset: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tok, ok := buf.TokenAt(tt.offset)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.want, tok.Text())
			}
		})
	}
}

func TestOffsetFor(t *testing.T) {
	t.Parallel()

	buf, sm := collectPreprocessed(t, "li 3, 1\n")

	loc := sm.FileStart(sm.MainFile()).Offset(3)
	offset, ok := buf.OffsetFor(loc)
	require.True(t, ok)
	assert.Equal(t, 4, offset)
	assert.Equal(t, loc, buf.Location(buf.Token(1)))

	_, ok = buf.OffsetFor(loc.Offset(2))
	assert.False(t, ok, "whitespace has no token")
}

func TestMacroExpansion_SpansWholeRun(t *testing.T) {
	t.Parallel()

	src := "#define PAIR 1, 2\n.long PAIR\n.long 3\n"
	buf, sm := collectPreprocessed(t, src)

	useLoc, ok := sm.LocForLineCol(sm.MainFile(), 2, 7)
	require.True(t, ok)

	text, ok := buf.MacroExpansion(useLoc, sm)
	require.True(t, ok)
	assert.Equal(t, "1, 2", text)

	plainLoc, ok := sm.LocForLineCol(sm.MainFile(), 3, 1)
	require.True(t, ok)
	text, ok = buf.MacroExpansion(plainLoc, sm)
	require.True(t, ok)
	assert.Equal(t, ".long", text, "a file location covers only its own token")

	_, ok = buf.MacroExpansion(useLoc.Offset(1), sm)
	assert.False(t, ok)
}

func TestMacroExpansion_AsmMacro(t *testing.T) {
	t.Parallel()

	src := ".macro SAVE\n  mflr 0\n  stw 0, 4(1)\n.endm\nSAVE\nblr\n"
	buf, sm := collectPreprocessed(t, src)

	useLoc, ok := sm.LocForLineCol(sm.MainFile(), 5, 1)
	require.True(t, ok)

	text, ok := buf.MacroExpansion(useLoc, sm)
	require.True(t, ok)
	assert.Equal(t, "mflr 0\n stw 0, 4(1)", text)
}

func TestNewBuffer_MismatchedLengthsPanic(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		asmtoken.NewBuffer(make([]asmtoken.ExpandedToken, 2), []int{0}, "")
	})
}

func TestExpandedToken_Range(t *testing.T) {
	t.Parallel()

	tok := asmtoken.NewExpandedToken(ident("lwz", source.Loc(10), 0), "lwz")
	begin, end := tok.Range()

	assert.Equal(t, source.Loc(10), begin)
	assert.Equal(t, source.Loc(13), end)
	assert.Equal(t, 3, tok.Len())
	assert.Equal(t, preproc.KindIdentifier, tok.Kind())
}
