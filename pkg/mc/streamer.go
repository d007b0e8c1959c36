package mc

import "fmt"

// SymbolAttr is a symbol attribute set by directives such as .globl.
type SymbolAttr int

// Symbol attributes.
const (
	SymbolGlobal SymbolAttr = iota
	SymbolLocal
	SymbolWeak
	SymbolFunction
	SymbolObject
)

// Symbol is a named entity in a Context's symbol table.
type Symbol struct {
	Name     string
	Defined  bool
	Loc      SMLoc
	Value    int64
	Variable bool
	Attrs    []SymbolAttr
}

// Context owns the symbol table and target descriptions for one parse.
type Context struct {
	Triple    Triple
	AsmInfo   *AsmInfo
	RegInfo   *RegisterInfo
	Subtarget *SubtargetInfo
	SourceMgr *SourceMgr

	symbols map[string]*Symbol
	order   []string
}

// NewContext creates a context over the given target descriptions.
func NewContext(triple Triple, mai *AsmInfo, mri *RegisterInfo, sti *SubtargetInfo, sm *SourceMgr) *Context {
	return &Context{
		Triple:    triple,
		AsmInfo:   mai,
		RegInfo:   mri,
		Subtarget: sti,
		SourceMgr: sm,
		symbols:   map[string]*Symbol{},
	}
}

// Symbol returns the symbol named name, creating an undefined one.
func (c *Context) Symbol(name string) *Symbol {
	if sym, ok := c.symbols[name]; ok {
		return sym
	}
	sym := &Symbol{Name: name}
	c.symbols[name] = sym
	c.order = append(c.order, name)
	return sym
}

// LookupSymbol returns an existing symbol.
func (c *Context) LookupSymbol(name string) (*Symbol, bool) {
	sym, ok := c.symbols[name]
	return sym, ok
}

// Symbols returns every symbol in creation order.
func (c *Context) Symbols() []*Symbol {
	out := make([]*Symbol, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.symbols[name])
	}
	return out
}

// ObjectFileInfo lists the default sections of the object format.
type ObjectFileInfo struct {
	TextSection string
	DataSection string
	BSSSection  string
}

// NewObjectFileInfo returns the ELF section names used on every supported
// target.
func NewObjectFileInfo(_ *Context) *ObjectFileInfo {
	return &ObjectFileInfo{TextSection: ".text", DataSection: ".data", BSSSection: ".bss"}
}

// Streamer receives everything the parser emits.
type Streamer interface {
	EmitInstruction(inst Inst, sti *SubtargetInfo)
	EmitLabel(sym *Symbol, loc SMLoc)
	EmitAssignment(sym *Symbol, value Expr)
	EmitSymbolAttribute(sym *Symbol, attr SymbolAttr) bool
	EmitCommonSymbol(sym *Symbol, size int64, align int64)
	EmitZerofill(size int64, loc SMLoc)
	EmitBytes(data []byte)
	EmitValue(value Expr, size int, loc SMLoc)
	EmitValueToAlignment(align int64)
	SwitchSection(name string)
	Finish() error
}

// NullStreamer discards everything. Embed it to override only the events
// of interest.
type NullStreamer struct{}

// EmitInstruction implements Streamer.
func (NullStreamer) EmitInstruction(Inst, *SubtargetInfo) {}

// EmitLabel implements Streamer.
func (NullStreamer) EmitLabel(*Symbol, SMLoc) {}

// EmitAssignment implements Streamer.
func (NullStreamer) EmitAssignment(*Symbol, Expr) {}

// EmitSymbolAttribute implements Streamer.
func (NullStreamer) EmitSymbolAttribute(*Symbol, SymbolAttr) bool { return true }

// EmitCommonSymbol implements Streamer.
func (NullStreamer) EmitCommonSymbol(*Symbol, int64, int64) {}

// EmitZerofill implements Streamer.
func (NullStreamer) EmitZerofill(int64, SMLoc) {}

// EmitBytes implements Streamer.
func (NullStreamer) EmitBytes([]byte) {}

// EmitValue implements Streamer.
func (NullStreamer) EmitValue(Expr, int, SMLoc) {}

// EmitValueToAlignment implements Streamer.
func (NullStreamer) EmitValueToAlignment(int64) {}

// SwitchSection implements Streamer.
func (NullStreamer) SwitchSection(string) {}

// Finish implements Streamer.
func (NullStreamer) Finish() error { return nil }

// Expr is a parsed assembly expression.
type Expr struct {
	Text     string
	Value    int64
	Constant bool

	// Symbol and Modifier are set for symbol references like sym@ha.
	Symbol   string
	Modifier string
}

// String returns the expression text.
func (e Expr) String() string {
	if e.Text != "" {
		return e.Text
	}
	if e.Constant {
		return fmt.Sprint(e.Value)
	}
	return e.Symbol
}
