package asmast

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/asmbridge/internal/logging"
	"github.com/yaklabco/asmbridge/pkg/asmtoken"
	"github.com/yaklabco/asmbridge/pkg/mc"
	"github.com/yaklabco/asmbridge/pkg/preproc"
	"github.com/yaklabco/asmbridge/pkg/source"
)

// ErrAlreadyParsed is returned by a second call to Parse.
var ErrAlreadyParsed = errors.New("already parsed")

const cancelCheckInterval = 1024

// Parse preprocesses the source, rebuilds the assembly buffer and runs the
// target assembly parser over it. Includes are read from fsys.
//
// Assembly diagnostics never fail the parse; they are recorded in Diags.
// A fatal preprocessing error returns ErrPreprocess and a target that
// cannot be set up returns ErrTarget. Neither leaves instructions behind.
func (a *AST) Parse(ctx context.Context, fsys fs.FS) error {
	if a.parsed {
		return ErrAlreadyParsed
	}
	a.parsed = true

	logger := logging.FromContext(ctx).With(logging.FieldFile, a.Filename)

	a.inv.ShowCPP = true
	a.inv.ShowComments = false
	a.inv.ShowMacroComments = false

	buf, err := a.preprocess(ctx, logger, fsys)
	if err != nil {
		return err
	}
	a.Tokens = buf

	logger.Debug("preprocessed",
		logging.FieldTokens, buf.Len(),
		logging.FieldMacros, len(a.MacroDefs),
		logging.FieldIncludes, len(a.Includes))

	session, err := a.setupTarget(logger)
	if err != nil {
		return err
	}

	return a.assemble(logger, session)
}

func (a *AST) preprocess(ctx context.Context, logger *log.Logger, fsys fs.FS) (*asmtoken.Buffer, error) {
	sm := source.NewManager()
	sm.SetMainFile(sm.AddFile(a.Filename, a.source, 0))
	a.SourceManager = sm

	pp := preproc.New(sm, preproc.Options{
		FS:          fsys,
		IncludeDirs: a.inv.IncludeDirs,
		Defines:     a.inv.Defines,
	})

	delivered := 0
	if a.inv.ShowCPP {
		pp.SetTokenWatcher(func(preproc.Token) { delivered++ })
	}
	collector := asmtoken.NewCollector(pp, pp.TakeTokenWatcher())
	pp.AddCallbacks(&metadataCollector{sm: sm, ast: a})

	if err := pp.EnterMainFile(); err != nil {
		logger.Error("cannot enter main file", logging.FieldError, err)
		return nil, fmt.Errorf("%w: %w", ErrPreprocess, err)
	}

	for n := 0; ; n++ {
		if n%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("preprocess %s: %w", a.Filename, err)
			}
		}
		if tok := pp.Lex(); tok.Is(preproc.KindEOF) {
			break
		}
	}

	a.translatePreprocessorDiags(pp.Diagnostics())

	if err := pp.Err(); err != nil {
		logger.Error("preprocessing failed", logging.FieldError, err)
		return nil, fmt.Errorf("%w: %w", ErrPreprocess, err)
	}

	buf, err := collector.Consume()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPreprocess, err)
	}
	logger.Debug("front-end delivered tokens", logging.FieldTokens, delivered)
	return buf, nil
}

// targetSession is every target component one assembly run needs.
type targetSession struct {
	target  *mc.Target
	triple  mc.Triple
	mri     *mc.RegisterInfo
	mai     *mc.AsmInfo
	mii     *mc.InstrInfo
	sti     *mc.SubtargetInfo
	printer mc.InstPrinter
	backend mc.AsmBackend
}

func (a *AST) setupTarget(logger *log.Logger) (*targetSession, error) {
	logger = logger.With(logging.FieldTriple, a.inv.Triple)

	fail := func(stage string, err error) (*targetSession, error) {
		logger.Error("target setup failed", logging.FieldStage, stage, logging.FieldError, err)
		return nil, fmt.Errorf("%w: %s: %w", ErrTarget, stage, err)
	}

	target, err := mc.LookupTarget(a.inv.Triple)
	if err != nil {
		return fail("lookup", err)
	}
	a.Target = target

	sess := &targetSession{target: target, triple: mc.ParseTriple(a.inv.Triple)}
	opts := a.inv.TargetOptions

	if target.NewRegisterInfo == nil {
		return fail("register info", errors.New("target has no register info"))
	}
	if sess.mri, err = target.NewRegisterInfo(sess.triple); err != nil {
		return fail("register info", err)
	}

	if target.NewAsmInfo == nil {
		return fail("asm info", errors.New("target has no asm info"))
	}
	if sess.mai, err = target.NewAsmInfo(sess.mri, sess.triple, opts); err != nil {
		return fail("asm info", err)
	}

	if target.NewInstrInfo == nil {
		return fail("instr info", errors.New("target has no instruction info"))
	}
	if sess.mii, err = target.NewInstrInfo(); err != nil {
		return fail("instr info", err)
	}

	if target.NewSubtargetInfo == nil {
		return fail("subtarget info", errors.New("target has no subtarget info"))
	}
	if sess.sti, err = target.NewSubtargetInfo(sess.triple, a.inv.CPU, a.inv.Features); err != nil {
		return fail("subtarget info", err)
	}

	if target.NewInstPrinter != nil {
		if sess.printer, err = target.NewInstPrinter(sess.triple, sess.mai, sess.mii, sess.mri); err != nil {
			return fail("inst printer", err)
		}
	}

	if target.NewAsmBackend == nil {
		return fail("asm backend", errors.New("target has no asm backend"))
	}
	if sess.backend, err = target.NewAsmBackend(sess.sti, sess.mri, opts); err != nil {
		return fail("asm backend", err)
	}

	if !target.HasAsmParser() {
		return fail("asm parser", mc.ErrNoAsmParser)
	}

	logger.Debug("target ready",
		logging.FieldTarget, target.Name,
		logging.FieldCPU, sess.sti.CPU,
		"backend", sess.backend.Name())
	return sess, nil
}

func (a *AST) assemble(logger *log.Logger, sess *targetSession) error {
	msm := mc.NewSourceMgr()
	var captured []mc.Diagnostic
	msm.SetDiagHandler(func(d mc.Diagnostic) { captured = append(captured, d) })
	bufID := msm.AddBuffer(a.Filename, a.Tokens.Text())

	mctx := mc.NewContext(sess.triple, sess.mai, sess.mri, sess.sti, msm)
	mofi := mc.NewObjectFileInfo(mctx)
	out := &observingStreamer{ast: a, printer: sess.printer, section: mofi.TextSection}

	parser := mc.NewAsmParser(msm, mctx, out, sess.mai, bufID)
	parser.SetTargetOptions(a.inv.TargetOptions)

	tap, err := sess.target.NewAsmParser(sess.sti, parser, sess.mii, a.inv.TargetOptions)
	if err != nil {
		logger.Error("target setup failed", logging.FieldStage, "asm parser", logging.FieldError, err)
		a.Instructions = nil
		return fmt.Errorf("%w: asm parser: %w", ErrTarget, err)
	}
	parser.SetTargetParser(tap)
	parser.SetShowParsedOperands(false)
	parser.SetOperandsHook(out.DeclareOperands)

	runErr := parser.Run()
	a.Symbols = mctx.Symbols()
	a.translateAsmDiags(captured)

	logger.Debug("assembled",
		logging.FieldInstructions, len(a.Instructions),
		logging.FieldDiagnosticsTotal, len(a.Diags))

	if runErr != nil && !errors.Is(runErr, mc.ErrAsmErrors) {
		return fmt.Errorf("assemble %s: %w", a.Filename, runErr)
	}
	return nil
}

// observingStreamer records every emitted instruction and, through the
// operand hook, the Argc and IsDot of the one just emitted.
type observingStreamer struct {
	mc.NullStreamer

	ast     *AST
	printer mc.InstPrinter
	section string
}

func (s *observingStreamer) EmitInstruction(inst mc.Inst, _ *mc.SubtargetInfo) {
	annotated := AnnotatedInstruction{
		Inst:    inst,
		Offset:  inst.Loc.Offset,
		Section: s.section,
	}
	if s.printer != nil {
		var b strings.Builder
		if err := s.printer.PrintInst(&b, &inst); err == nil {
			annotated.Text = b.String()
		}
	}
	s.ast.Instructions = append(s.ast.Instructions, annotated)
}

// DeclareOperands derives Argc and IsDot for the instruction just emitted.
// The parser calls it once per statement, after emission.
func (s *observingStreamer) DeclareOperands(operands []mc.ParsedOperand) {
	insts := s.ast.Instructions
	if len(insts) == 0 || len(operands) == 0 {
		return
	}
	inst := &insts[len(insts)-1]

	if operands[0].IsToken() {
		inst.Mnemonic = strings.Trim(mc.PrintOperand(operands[0]), "'")
	}

	if len(operands) > 1 && operands[1].IsToken() && mc.PrintOperand(operands[1]) == "'.'" {
		inst.IsDot = true
		inst.Argc = len(operands) - 2
		return
	}
	inst.Argc = len(operands) - 1
}

func (s *observingStreamer) SwitchSection(name string) { s.section = name }

// translateAsmDiags maps backend diagnostics from buffer offsets to the
// source through the offset index, in capture order.
func (a *AST) translateAsmDiags(diags []mc.Diagnostic) {
	sm := a.SourceManager

	for _, d := range diags {
		if d.Filename != a.Filename {
			continue
		}

		severity, ok := asmSeverity(d.Kind)
		if !ok {
			continue
		}

		tok, ok := a.Tokens.TokenAt(d.Loc.Offset)
		if !ok {
			continue
		}
		loc := tok.Location()
		if !sm.IsInMainFile(loc) {
			continue
		}

		a.Diags = append(a.Diags, Diagnostic{
			Severity:       severity,
			Message:        d.Message,
			File:           a.absFilename(),
			InsideMainFile: true,
			Range:          a.tokenRange(loc, tok.Len()),
			Source:         "assembler",
		})
	}
}

// tokenRange is the source range of a token of length bytes at loc. A
// token produced by a macro spans the macro use, since its own length is
// that of the expanded spelling.
func (a *AST) tokenRange(loc source.Loc, length int) Range {
	sm := a.SourceManager

	line, col := sm.ExpansionLineCol(loc)
	start := Position{Line: line - 1, Character: col - 1}
	if !sm.IsMacroID(loc) {
		return Range{Start: start, End: Position{Line: start.Line, Character: start.Character + length}}
	}

	_, useEnd := sm.ExpansionRange(loc)
	endLine, endCol := sm.ExpansionLineCol(useEnd)
	if endLine == 0 {
		return Range{Start: start, End: start}
	}
	return Range{Start: start, End: Position{Line: endLine - 1, Character: endCol - 1}}
}

func asmSeverity(kind mc.DiagKind) (Severity, bool) {
	switch kind {
	case mc.DiagError:
		return SeverityError, true
	case mc.DiagWarning:
		return SeverityWarning, true
	default:
		return 0, false
	}
}

func (a *AST) translatePreprocessorDiags(diags []preproc.Diagnostic) {
	sm := a.SourceManager

	for _, d := range diags {
		if !sm.IsInMainFile(d.Loc) {
			continue
		}
		line, col := sm.ExpansionLineCol(d.Loc)
		start := Position{Line: line - 1, Character: col - 1}

		severity := SeverityWarning
		if d.Severity == preproc.SeverityError {
			severity = SeverityError
		}
		a.Diags = append(a.Diags, Diagnostic{
			Severity:       severity,
			Message:        d.Message,
			File:           a.absFilename(),
			InsideMainFile: true,
			Range:          Range{Start: start, End: start},
			Source:         "preprocessor",
		})
	}
}

func (a *AST) absFilename() string {
	if abs, err := filepath.Abs(a.Filename); err == nil {
		return abs
	}
	return a.Filename
}

// metadataCollector records macro and include events of the main file.
type metadataCollector struct {
	preproc.NopCallbacks

	sm  *source.Manager
	ast *AST
}

func (m *metadataCollector) MacroDefined(nameTok preproc.Token, mi *preproc.MacroInfo) {
	if !m.sm.IsInMainFile(nameTok.Loc) {
		return
	}
	m.ast.MacroDefs = append(m.ast.MacroDefs, MacroDef{
		Name:   mi.Name,
		Kind:   mi.Kind,
		Params: mi.Params,
		Loc:    nameTok.Loc,
	})
}

func (m *metadataCollector) MacroExpands(nameTok preproc.Token, mi *preproc.MacroInfo) {
	// Uses inside other expansions are part of the outer use.
	if m.sm.IsMacroID(nameTok.Loc) || !m.sm.IsInMainFile(nameTok.Loc) {
		return
	}
	m.ast.MacroRefs = append(m.ast.MacroRefs, MacroRef{Name: mi.Name, Loc: nameTok.Loc})
}

func (m *metadataCollector) InclusionDirective(hashLoc source.Loc, spelled string, angled bool, path string) {
	m.ast.Includes = append(m.ast.Includes, Include{
		Spelled: spelled,
		Path:    path,
		Angled:  angled,
		Loc:     hashLoc,
	})
}
