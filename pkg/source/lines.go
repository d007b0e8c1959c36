package source

import "sort"

// LineInfo describes one line of a file buffer.
type LineInfo struct {
	// StartOffset is the byte offset of the first character of the line.
	StartOffset int

	// NewlineStart is the offset of the line terminator, or the end of the
	// buffer for the last line.
	NewlineStart int

	// EndOffset is the offset just past the line terminator.
	EndOffset int
}

// BuildLines constructs line metadata from file content.
// It handles both LF (\n) and CRLF (\r\n) line endings.
func BuildLines(content []byte) []LineInfo {
	if len(content) == 0 {
		return []LineInfo{{}}
	}

	var lines []LineInfo
	lineStart := 0

	for idx, char := range content {
		if char != '\n' {
			continue
		}

		newlineStart := idx
		if idx > 0 && content[idx-1] == '\r' {
			newlineStart = idx - 1
		}

		lines = append(lines, LineInfo{
			StartOffset:  lineStart,
			NewlineStart: newlineStart,
			EndOffset:    idx + 1,
		})
		lineStart = idx + 1
	}

	// The last line may not have a trailing newline.
	lines = append(lines, LineInfo{
		StartOffset:  lineStart,
		NewlineStart: len(content),
		EndOffset:    len(content),
	})

	return lines
}

// LineAt converts a byte offset to 1-based line and column numbers.
// Column counts bytes, not runes.
// Returns (0, 0) if the offset is out of range.
func LineAt(lines []LineInfo, offset int) (int, int) {
	if offset < 0 || len(lines) == 0 {
		return 0, 0
	}

	last := lines[len(lines)-1]
	if offset >= last.StartOffset {
		if offset > last.EndOffset {
			return 0, 0
		}
		return len(lines), offset - last.StartOffset + 1
	}

	lineIdx := sort.Search(len(lines), func(i int) bool {
		return lines[i].EndOffset > offset
	})

	lineInfo := lines[lineIdx]
	if offset < lineInfo.StartOffset {
		return 0, 0
	}

	return lineIdx + 1, offset - lineInfo.StartOffset + 1
}

// OffsetAt converts 1-based line and column numbers to a byte offset.
// Returns (offset, true) on success, or (0, false) if out of range.
func OffsetAt(lines []LineInfo, line, col int) (int, bool) {
	if line < 1 || line > len(lines) || col < 1 {
		return 0, false
	}

	lineInfo := lines[line-1]
	offset := lineInfo.StartOffset + col - 1

	// Column may point one past the last character (cursor at end of line).
	if offset > lineInfo.NewlineStart {
		return 0, false
	}

	return offset, true
}
