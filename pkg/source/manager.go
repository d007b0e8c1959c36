// Package source tracks the buffers seen by the preprocessor and the
// locations of every token, including tokens produced by macro expansion.
//
// A Loc is an offset into a single address space shared by all entries.
// File entries cover the bytes of a buffer plus one position for its end.
// Expansion entries cover one expanded token each and remember both where
// the token's characters are spelled and which macro use produced it.
package source

import (
	"fmt"
	"sort"
)

// Loc identifies a position in a file buffer or in a macro expansion.
// The zero Loc is invalid.
type Loc int

// IsValid reports whether the location refers to a known entry.
func (l Loc) IsValid() bool { return l > 0 }

// Offset returns the location delta bytes further into the same entry.
func (l Loc) Offset(delta int) Loc {
	if !l.IsValid() {
		return l
	}
	return l + Loc(delta)
}

// FileID identifies a file entry. The zero FileID is invalid.
type FileID int

// IsValid reports whether the id refers to a file entry.
func (id FileID) IsValid() bool { return id > 0 }

// File is a buffer registered with the manager.
type File struct {
	Name       string
	Content    []byte
	Lines      []LineInfo
	IncludeLoc Loc
}

// Expansion records the origin of one macro-expanded token.
type Expansion struct {
	// Spelling is where the characters of the token live.
	Spelling Loc

	// Start and End delimit the macro use that produced the token.
	Start Loc
	End   Loc
}

type entry struct {
	base int
	size int
	file *File
	exp  *Expansion
}

// Manager owns the location address space for one parse session.
type Manager struct {
	entries  []entry
	nextBase int
	fileIdx  []int
	mainFile FileID
}

// NewManager creates an empty source manager.
func NewManager() *Manager {
	return &Manager{nextBase: 1}
}

// AddFile registers a buffer and returns its id. includeLoc is the location
// of the directive that pulled the file in, or the zero Loc for the main
// file.
func (m *Manager) AddFile(name string, content []byte, includeLoc Loc) FileID {
	file := &File{
		Name:       name,
		Content:    content,
		Lines:      BuildLines(content),
		IncludeLoc: includeLoc,
	}

	m.entries = append(m.entries, entry{base: m.nextBase, size: len(content) + 1, file: file})
	m.nextBase += len(content) + 1
	m.fileIdx = append(m.fileIdx, len(m.entries)-1)

	return FileID(len(m.fileIdx))
}

// SetMainFile marks the file analyzed by the session.
func (m *Manager) SetMainFile(id FileID) { m.mainFile = id }

// MainFile returns the file marked by SetMainFile.
func (m *Manager) MainFile() FileID { return m.mainFile }

// File returns the file registered under id, or nil.
func (m *Manager) File(id FileID) *File {
	if !id.IsValid() || int(id) > len(m.fileIdx) {
		return nil
	}
	return m.entries[m.fileIdx[id-1]].file
}

// FileStart returns the location of the first byte of a file.
func (m *Manager) FileStart(id FileID) Loc {
	if !id.IsValid() || int(id) > len(m.fileIdx) {
		return 0
	}
	return Loc(m.entries[m.fileIdx[id-1]].base)
}

// CreateExpansion allocates a location for a token of the given length
// whose characters are spelled at spelling and which was produced by the
// macro use spanning start to end.
func (m *Manager) CreateExpansion(spelling, start, end Loc, length int) Loc {
	size := max(length, 1)

	m.entries = append(m.entries, entry{
		base: m.nextBase,
		size: size,
		exp:  &Expansion{Spelling: spelling, Start: start, End: end},
	})
	loc := Loc(m.nextBase)
	m.nextBase += size

	return loc
}

func (m *Manager) lookup(loc Loc) (entry, bool) {
	if !loc.IsValid() || len(m.entries) == 0 {
		return entry{}, false
	}

	// Entries are allocated with increasing bases.
	idx := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].base > int(loc)
	}) - 1
	if idx < 0 {
		return entry{}, false
	}

	ent := m.entries[idx]
	if int(loc) >= ent.base+ent.size {
		return entry{}, false
	}
	return ent, true
}

// IsMacroID reports whether loc was produced by macro expansion.
func (m *Manager) IsMacroID(loc Loc) bool {
	ent, ok := m.lookup(loc)
	return ok && ent.exp != nil
}

// ExpansionLoc collapses a macro location to the location of the outermost
// macro use. File locations are returned unchanged.
func (m *Manager) ExpansionLoc(loc Loc) Loc {
	for {
		ent, ok := m.lookup(loc)
		if !ok || ent.exp == nil {
			return loc
		}
		loc = ent.exp.Start
	}
}

// ExpansionRange returns the range of the outermost macro use for loc.
func (m *Manager) ExpansionRange(loc Loc) (Loc, Loc) {
	end := loc
	for {
		ent, ok := m.lookup(loc)
		if !ok || ent.exp == nil {
			return loc, end
		}
		loc, end = ent.exp.Start, ent.exp.End
	}
}

// SpellingLoc follows macro locations to where the token's characters
// physically live.
func (m *Manager) SpellingLoc(loc Loc) Loc {
	for {
		ent, ok := m.lookup(loc)
		if !ok || ent.exp == nil {
			return loc
		}
		loc = ent.exp.Spelling.Offset(int(loc) - ent.base)
	}
}

// Decompose splits a file location into its file and byte offset.
// Macro locations are resolved to their spelling first.
func (m *Manager) Decompose(loc Loc) (FileID, int) {
	loc = m.SpellingLoc(loc)

	ent, ok := m.lookup(loc)
	if !ok || ent.file == nil {
		return 0, 0
	}

	for i, idx := range m.fileIdx {
		if m.entries[idx].base == ent.base {
			return FileID(i + 1), int(loc) - ent.base
		}
	}
	return 0, 0
}

// FileIDOf returns the file holding the expansion location of loc.
func (m *Manager) FileIDOf(loc Loc) FileID {
	id, _ := m.Decompose(m.ExpansionLoc(loc))
	return id
}

// IsInMainFile reports whether the expansion location of loc lies in the
// main file.
func (m *Manager) IsInMainFile(loc Loc) bool {
	return m.mainFile.IsValid() && m.FileIDOf(loc) == m.mainFile
}

// ExpansionLineCol returns the 1-based line and column of the expansion
// location of loc, or (0, 0) for an unknown location.
func (m *Manager) ExpansionLineCol(loc Loc) (int, int) {
	id, offset := m.Decompose(m.ExpansionLoc(loc))

	file := m.File(id)
	if file == nil {
		return 0, 0
	}
	return LineAt(file.Lines, offset)
}

// SpellingLineCol returns the 1-based line and column where the characters
// of loc are spelled.
func (m *Manager) SpellingLineCol(loc Loc) (int, int) {
	id, offset := m.Decompose(loc)

	file := m.File(id)
	if file == nil {
		return 0, 0
	}
	return LineAt(file.Lines, offset)
}

// LocForLineCol converts a 1-based line and column in a file to a location.
func (m *Manager) LocForLineCol(id FileID, line, col int) (Loc, bool) {
	file := m.File(id)
	if file == nil {
		return 0, false
	}

	offset, ok := OffsetAt(file.Lines, line, col)
	if !ok {
		return 0, false
	}
	return m.FileStart(id).Offset(offset), true
}

// Filename returns the name of the file holding the expansion location.
func (m *Manager) Filename(loc Loc) string {
	if file := m.File(m.FileIDOf(loc)); file != nil {
		return file.Name
	}
	return ""
}

// CharacterData returns length bytes starting at the spelling of loc.
func (m *Manager) CharacterData(loc Loc, length int) (string, error) {
	id, offset := m.Decompose(loc)

	file := m.File(id)
	if file == nil {
		return "", fmt.Errorf("no buffer for location %d", loc)
	}
	if offset+length > len(file.Content) {
		return "", fmt.Errorf("location %d+%d past end of %s", loc, length, file.Name)
	}
	return string(file.Content[offset : offset+length]), nil
}

// Describe formats a location as file:line:col for logs and dumps.
func (m *Manager) Describe(loc Loc) string {
	line, col := m.SpellingLineCol(loc)
	name := ""
	if file := m.File(m.FileIDOf(m.SpellingLoc(loc))); file != nil {
		name = file.Name
	}

	if m.IsMacroID(loc) {
		eline, ecol := m.ExpansionLineCol(loc)
		return fmt.Sprintf("%s:%d:%d <expanded at %d:%d>", name, line, col, eline, ecol)
	}
	return fmt.Sprintf("%s:%d:%d", name, line, col)
}
