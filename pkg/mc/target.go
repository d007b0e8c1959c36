package mc

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrUnknownTarget is returned when no target handles a triple.
	ErrUnknownTarget = errors.New("no target for triple")

	// ErrNoAsmParser is returned by targets without an assembly parser.
	ErrNoAsmParser = errors.New("target does not support assembly parsing")
)

// TargetOptions carries assembler options shared by target components.
type TargetOptions struct {
	// FatalWarnings turns warnings into errors.
	FatalWarnings bool

	// NoWarn suppresses warnings entirely.
	NoWarn bool
}

// Target bundles the constructors for one architecture family. A nil
// constructor means the target lacks that component.
type Target struct {
	Name        string
	Description string
	Arches      []string
	CPUs        []string

	NewRegisterInfo  func(triple Triple) (*RegisterInfo, error)
	NewAsmInfo       func(mri *RegisterInfo, triple Triple, opts TargetOptions) (*AsmInfo, error)
	NewInstrInfo     func() (*InstrInfo, error)
	NewSubtargetInfo func(triple Triple, cpu, features string) (*SubtargetInfo, error)
	NewInstPrinter   func(triple Triple, mai *AsmInfo, mii *InstrInfo, mri *RegisterInfo) (InstPrinter, error)
	NewAsmBackend    func(sti *SubtargetInfo, mri *RegisterInfo, opts TargetOptions) (AsmBackend, error)
	NewAsmParser     func(sti *SubtargetInfo, parser *AsmParser, mii *InstrInfo, opts TargetOptions) (TargetAsmParser, error)
}

// HasAsmParser reports whether the target can parse assembly.
func (t *Target) HasAsmParser() bool { return t.NewAsmParser != nil }

var (
	registryMu sync.RWMutex
	registry   = map[string]*Target{}
)

// RegisterTarget makes a target available to LookupTarget under each of
// its architecture names.
func RegisterTarget(target *Target) {
	registryMu.Lock()
	defer registryMu.Unlock()

	for _, arch := range target.Arches {
		registry[arch] = target
	}
}

// LookupTarget finds the target for a triple string.
func LookupTarget(triple string) (*Target, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	parsed := ParseTriple(triple)
	if target, ok := registry[parsed.Arch]; ok {
		return target, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, triple)
}

// Targets returns every registered target once, sorted by name.
func Targets() []*Target {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := map[*Target]bool{}
	var targets []*Target
	for _, target := range registry {
		if !seen[target] {
			seen[target] = true
			targets = append(targets, target)
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Name < targets[j].Name })
	return targets
}

// Register is a target register number. Zero is no register.
type Register int

// RegisterClass groups registers of one kind.
type RegisterClass string

// RegisterInfo names the registers of a target.
type RegisterInfo struct {
	names   []string
	classes []RegisterClass
	byName  map[string]Register
}

// NewRegisterInfo builds register info from parallel name and class slices.
// Register numbers start at 1.
func NewRegisterInfo(names []string, classes []RegisterClass) *RegisterInfo {
	mri := &RegisterInfo{names: names, classes: classes, byName: make(map[string]Register, len(names))}
	for i, name := range names {
		mri.byName[strings.ToLower(name)] = Register(i + 1)
	}
	return mri
}

// Lookup finds a register by case-insensitive name.
func (m *RegisterInfo) Lookup(name string) (Register, bool) {
	reg, ok := m.byName[strings.ToLower(name)]
	return reg, ok
}

// Name returns the register name.
func (m *RegisterInfo) Name(reg Register) string {
	if reg <= 0 || int(reg) > len(m.names) {
		return ""
	}
	return m.names[reg-1]
}

// Class returns the register class.
func (m *RegisterInfo) Class(reg Register) RegisterClass {
	if reg <= 0 || int(reg) > len(m.classes) {
		return ""
	}
	return m.classes[reg-1]
}

// NumRegs returns the number of registers.
func (m *RegisterInfo) NumRegs() int { return len(m.names) }

// AsmInfo describes target assembly syntax.
type AsmInfo struct {
	CommentString   string
	SeparatorString string
	LabelSuffix     string
	PointerSize     int
	LittleEndian    bool
}

// InstrDesc describes one instruction opcode.
type InstrDesc struct {
	Opcode      uint
	Name        string
	NumOperands int
}

// InstrInfo is the opcode table of a target.
type InstrInfo struct {
	descs  []InstrDesc
	byName map[string]uint
}

// NewInstrInfo builds an opcode table. Opcodes are assigned in order.
func NewInstrInfo(descs []InstrDesc) *InstrInfo {
	mii := &InstrInfo{byName: make(map[string]uint, len(descs))}
	for i, desc := range descs {
		desc.Opcode = uint(i)
		mii.descs = append(mii.descs, desc)
		mii.byName[desc.Name] = desc.Opcode
	}
	return mii
}

// Lookup finds an opcode by name.
func (m *InstrInfo) Lookup(name string) (InstrDesc, bool) {
	opcode, ok := m.byName[name]
	if !ok {
		return InstrDesc{}, false
	}
	return m.descs[opcode], true
}

// Desc returns the description of an opcode.
func (m *InstrInfo) Desc(opcode uint) (InstrDesc, bool) {
	if int(opcode) >= len(m.descs) {
		return InstrDesc{}, false
	}
	return m.descs[opcode], true
}

// Name returns the opcode name.
func (m *InstrInfo) Name(opcode uint) string {
	desc, _ := m.Desc(opcode)
	return desc.Name
}

// NumOpcodes returns the table size.
func (m *InstrInfo) NumOpcodes() int { return len(m.descs) }

// SubtargetInfo records the CPU and feature set parsing runs under.
type SubtargetInfo struct {
	Triple   Triple
	CPU      string
	Features map[string]bool
}

// ParseFeatures parses a comma separated list of +feature and -feature
// entries on top of defaults.
func ParseFeatures(features string, defaults map[string]bool) (map[string]bool, error) {
	set := make(map[string]bool, len(defaults))
	for name, on := range defaults {
		set[name] = on
	}

	for _, entry := range strings.Split(features, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		switch entry[0] {
		case '+':
			set[entry[1:]] = true
		case '-':
			set[entry[1:]] = false
		default:
			return nil, fmt.Errorf("feature %q must start with '+' or '-'", entry)
		}
	}
	return set, nil
}

// HasFeature reports whether a feature is enabled.
func (s *SubtargetInfo) HasFeature(name string) bool {
	return s.Features[name]
}

// InstPrinter renders instructions as assembly text.
type InstPrinter interface {
	PrintInst(w io.Writer, inst *Inst) error
}

// AsmBackend carries target object emission properties.
type AsmBackend interface {
	Name() string
	LittleEndian() bool
}

// TargetAsmParser parses and matches target instructions.
type TargetAsmParser interface {
	// ParseInstruction reads the operands of the instruction named name.
	// The returned operands start with the mnemonic token.
	ParseInstruction(name string, nameLoc SMLoc) ([]ParsedOperand, error)

	// MatchAndEmitInstruction matches operands to an opcode and emits it.
	MatchAndEmitInstruction(loc SMLoc, operands []ParsedOperand, out Streamer) error

	// ParseDirective handles target directives. It reports false for
	// directives it does not know.
	ParseDirective(name string, loc SMLoc) (bool, error)
}
