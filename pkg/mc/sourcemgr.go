package mc

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// DiagKind is the severity of a backend diagnostic.
type DiagKind int

// Diagnostic kinds.
const (
	DiagError DiagKind = iota
	DiagWarning
	DiagRemark
	DiagNote
)

// String returns the kind as printed in messages.
func (k DiagKind) String() string {
	switch k {
	case DiagError:
		return "error"
	case DiagWarning:
		return "warning"
	case DiagRemark:
		return "remark"
	case DiagNote:
		return "note"
	default:
		return "unknown"
	}
}

// BufferID identifies a buffer in a SourceMgr. Zero is no buffer.
type BufferID int

// SMLoc is a byte offset in one SourceMgr buffer.
type SMLoc struct {
	Buffer BufferID
	Offset int
}

// IsValid reports whether the location names a buffer.
func (l SMLoc) IsValid() bool { return l.Buffer > 0 }

// Advance returns the location n bytes later.
func (l SMLoc) Advance(n int) SMLoc {
	return SMLoc{Buffer: l.Buffer, Offset: l.Offset + n}
}

// Diagnostic is a message produced while parsing a buffer.
type Diagnostic struct {
	Filename     string
	Loc          SMLoc
	Line         int
	Column       int
	Kind         DiagKind
	Message      string
	LineContents string
}

// String formats the diagnostic the way assemblers print them.
func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%d:%d: %s: %s", d.Filename, d.Line, d.Column+1, d.Kind, d.Message)
	if d.LineContents != "" {
		fmt.Fprintf(&b, "\n%s\n%s^", d.LineContents, strings.Repeat(" ", d.Column))
	}
	return b.String()
}

// DiagHandler receives diagnostics instead of the default printer.
type DiagHandler func(diag Diagnostic)

type memBuffer struct {
	name string
	text string
}

// SourceMgr owns the buffers the assembly parser reads.
type SourceMgr struct {
	buffers []memBuffer
	handler DiagHandler
	out     io.Writer
}

// NewSourceMgr creates a manager that prints diagnostics to stderr until
// a handler is installed.
func NewSourceMgr() *SourceMgr {
	return &SourceMgr{out: os.Stderr}
}

// AddBuffer registers text under name and returns its id.
func (sm *SourceMgr) AddBuffer(name, text string) BufferID {
	sm.buffers = append(sm.buffers, memBuffer{name: name, text: text})
	return BufferID(len(sm.buffers))
}

// Buffer returns the text of a buffer.
func (sm *SourceMgr) Buffer(id BufferID) string {
	if id <= 0 || int(id) > len(sm.buffers) {
		return ""
	}
	return sm.buffers[id-1].text
}

// BufferName returns the identifier of a buffer.
func (sm *SourceMgr) BufferName(id BufferID) string {
	if id <= 0 || int(id) > len(sm.buffers) {
		return ""
	}
	return sm.buffers[id-1].name
}

// SetDiagHandler routes diagnostics to handler.
func (sm *SourceMgr) SetDiagHandler(handler DiagHandler) { sm.handler = handler }

// SetOutput changes where diagnostics print without a handler.
func (sm *SourceMgr) SetOutput(w io.Writer) { sm.out = w }

// LineAndColumn returns the 1-based line and 0-based column of loc within
// its buffer.
func (sm *SourceMgr) LineAndColumn(loc SMLoc) (int, int) {
	text := sm.Buffer(loc.Buffer)
	offset := min(max(loc.Offset, 0), len(text))

	line := strings.Count(text[:offset], "\n") + 1
	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1
	return line, offset - lineStart
}

func (sm *SourceMgr) lineContents(loc SMLoc) string {
	text := sm.Buffer(loc.Buffer)
	offset := min(max(loc.Offset, 0), len(text))

	start := strings.LastIndexByte(text[:offset], '\n') + 1
	end := strings.IndexByte(text[offset:], '\n')
	if end < 0 {
		return text[start:]
	}
	return text[start : offset+end]
}

// PrintMessage reports a diagnostic at loc.
func (sm *SourceMgr) PrintMessage(loc SMLoc, kind DiagKind, msg string) {
	line, col := sm.LineAndColumn(loc)
	diag := Diagnostic{
		Filename:     sm.BufferName(loc.Buffer),
		Loc:          loc,
		Line:         line,
		Column:       col,
		Kind:         kind,
		Message:      msg,
		LineContents: sm.lineContents(loc),
	}

	if sm.handler != nil {
		sm.handler(diag)
		return
	}
	if sm.out != nil {
		fmt.Fprintln(sm.out, diag.String())
	}
}
