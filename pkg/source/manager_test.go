package source_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/asmbridge/pkg/source"
)

func TestBuildLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    []source.LineInfo
	}{
		{
			name:    "empty",
			content: "",
			want:    []source.LineInfo{{}},
		},
		{
			name:    "lf",
			content: "a\nbc\n",
			want: []source.LineInfo{
				{StartOffset: 0, NewlineStart: 1, EndOffset: 2},
				{StartOffset: 2, NewlineStart: 4, EndOffset: 5},
				{StartOffset: 5, NewlineStart: 5, EndOffset: 5},
			},
		},
		{
			name:    "crlf without trailing newline",
			content: "a\r\nb",
			want: []source.LineInfo{
				{StartOffset: 0, NewlineStart: 1, EndOffset: 3},
				{StartOffset: 3, NewlineStart: 4, EndOffset: 4},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, source.BuildLines([]byte(tt.content)))
		})
	}
}

func TestLineAt(t *testing.T) {
	t.Parallel()

	lines := source.BuildLines([]byte("ab\ncd\n"))

	tests := []struct {
		offset   int
		wantLine int
		wantCol  int
	}{
		{offset: 0, wantLine: 1, wantCol: 1},
		{offset: 2, wantLine: 1, wantCol: 3},
		{offset: 3, wantLine: 2, wantCol: 1},
		{offset: 6, wantLine: 3, wantCol: 1},
		{offset: 7, wantLine: 0, wantCol: 0},
		{offset: -1, wantLine: 0, wantCol: 0},
	}

	for _, tt := range tests {
		line, col := source.LineAt(lines, tt.offset)
		assert.Equal(t, tt.wantLine, line, "offset %d", tt.offset)
		assert.Equal(t, tt.wantCol, col, "offset %d", tt.offset)
	}
}

func TestManager_FileLocations(t *testing.T) {
	t.Parallel()

	sm := source.NewManager()
	main := sm.AddFile("main.s", []byte("nop\nblr\n"), 0)
	inc := sm.AddFile("defs.inc", []byte("x"), sm.FileStart(main))
	sm.SetMainFile(main)

	blr := sm.FileStart(main).Offset(4)

	line, col := sm.ExpansionLineCol(blr)
	assert.Equal(t, 2, line)
	assert.Equal(t, 1, col)
	assert.True(t, sm.IsInMainFile(blr))
	assert.False(t, sm.IsInMainFile(sm.FileStart(inc)))
	assert.Equal(t, "defs.inc", sm.Filename(sm.FileStart(inc)))
	assert.Equal(t, sm.FileStart(main), sm.File(inc).IncludeLoc)

	text, err := sm.CharacterData(blr, 3)
	require.NoError(t, err)
	assert.Equal(t, "blr", text)

	_, err = sm.CharacterData(blr, 10)
	require.Error(t, err)

	got, ok := sm.LocForLineCol(main, 2, 1)
	require.True(t, ok)
	assert.Equal(t, blr, got)
}

func TestManager_Expansions(t *testing.T) {
	t.Parallel()

	sm := source.NewManager()
	main := sm.AddFile("main.s", []byte("#define R 3\nli R, 1\n"), 0)
	sm.SetMainFile(main)

	start := sm.FileStart(main)
	bodyLoc := start.Offset(10) // the 3 in the definition
	useLoc := start.Offset(15)  // R on line 2

	outer := sm.CreateExpansion(bodyLoc, useLoc, useLoc.Offset(1), 1)
	nested := sm.CreateExpansion(outer, start.Offset(12), start.Offset(14), 1)

	assert.True(t, sm.IsMacroID(outer))
	assert.False(t, sm.IsMacroID(useLoc))
	assert.Equal(t, useLoc, sm.ExpansionLoc(outer))
	assert.Equal(t, start.Offset(12), sm.ExpansionLoc(nested))
	assert.Equal(t, bodyLoc, sm.SpellingLoc(nested))

	text, err := sm.CharacterData(nested, 1)
	require.NoError(t, err)
	assert.Equal(t, "3", text)

	line, col := sm.ExpansionLineCol(outer)
	assert.Equal(t, 2, line)
	assert.Equal(t, 4, col)
	assert.True(t, sm.IsInMainFile(outer))

	begin, end := sm.ExpansionRange(outer)
	assert.Equal(t, useLoc, begin)
	assert.Equal(t, useLoc.Offset(1), end)
}

func TestLoc_Invalid(t *testing.T) {
	t.Parallel()

	sm := source.NewManager()
	var loc source.Loc

	assert.False(t, loc.IsValid())
	assert.Equal(t, loc, loc.Offset(5))
	assert.False(t, sm.IsMacroID(loc))
	assert.False(t, sm.IsInMainFile(loc))

	line, col := sm.ExpansionLineCol(loc)
	assert.Zero(t, line)
	assert.Zero(t, col)
}
