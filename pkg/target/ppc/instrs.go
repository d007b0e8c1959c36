package ppc

import (
	"sort"
	"strings"

	"github.com/yaklabco/asmbridge/pkg/mc"
)

// Operand shape codes used in instruction forms:
//
//	r  general purpose register (or a bare register number)
//	a  general purpose register that is both target and first source,
//	   so "add rD,rB" encodes as add rD,rD,rB
//	f  floating point register
//	v  vector register
//	c  condition register field
//	i  immediate or symbolic expression
//	t  branch target
const (
	shapeGPR    = 'r'
	shapeAcc    = 'a'
	shapeFPR    = 'f'
	shapeVR     = 'v'
	shapeCR     = 'c'
	shapeImm    = 'i'
	shapeTarget = 't'
)

// Subtarget features instructions may require.
const (
	Feature64Bit   = "64bit"
	FeatureAltivec = "altivec"
)

// instrDef describes one mnemonic. Each form is a shape string; the first
// form whose shapes fit the operands is chosen.
type instrDef struct {
	name  string
	forms []string

	// rc allows the record form, spelled with a trailing dot.
	rc bool

	// mem marks a displacement memory form, printed as d(rA).
	mem bool

	// branch enables +/- prediction hints.
	branch bool

	feature string
}

func defs(names string, def instrDef) []instrDef {
	var out []instrDef
	for _, name := range strings.Fields(names) {
		d := def
		d.name = name
		out = append(out, d)
	}
	return out
}

func instrTable() []instrDef {
	var table []instrDef
	add := func(group []instrDef) { table = append(table, group...) }

	// Integer arithmetic and logic.
	add(defs("add addc adde subf subfc subfe sub subc mullw mulhw mulhwu divw divwu "+
		"and andc or orc xor nand nor eqv slw srw sraw", instrDef{forms: []string{"rrr", "ar"}, rc: true}))
	add(defs("mulld mulhd mulhdu divd divdu sld srd srad", instrDef{forms: []string{"rrr"}, rc: true, feature: Feature64Bit}))
	add(defs("neg extsb extsh cntlzw addme addze subfme subfze mr not", instrDef{forms: []string{"rr"}, rc: true}))
	add(defs("extsw cntlzd", instrDef{forms: []string{"rr"}, rc: true, feature: Feature64Bit}))
	add(defs("addi addis addic mulli subfic subi subis subic ori oris xori xoris",
		instrDef{forms: []string{"rri"}}))
	add(defs("addic. andi. andis. subic.", instrDef{forms: []string{"rri"}}))
	add(defs("srawi slwi srwi clrlwi clrrwi rotlwi rotrwi", instrDef{forms: []string{"rri"}, rc: true}))
	add(defs("sradi sldi srdi clrldi rotldi", instrDef{forms: []string{"rri"}, rc: true, feature: Feature64Bit}))
	add(defs("rlwinm rlwimi", instrDef{forms: []string{"rriii"}, rc: true}))
	add(defs("rlwnm", instrDef{forms: []string{"rrrii"}, rc: true}))
	add(defs("rldicl rldicr rldic rldimi", instrDef{forms: []string{"rrii"}, rc: true, feature: Feature64Bit}))
	add(defs("li lis", instrDef{forms: []string{"ri"}}))
	add(defs("la", instrDef{forms: []string{"rir"}, mem: true}))

	// Compares take an optional condition register field.
	add(defs("cmpw cmplw", instrDef{forms: []string{"crr", "rr"}}))
	add(defs("cmpwi cmplwi", instrDef{forms: []string{"cri", "ri"}}))
	add(defs("cmpd cmpld", instrDef{forms: []string{"crr", "rr"}, feature: Feature64Bit}))
	add(defs("cmpdi cmpldi", instrDef{forms: []string{"cri", "ri"}, feature: Feature64Bit}))
	add(defs("cmp cmpl", instrDef{forms: []string{"cirr"}}))
	add(defs("cmpi cmpli", instrDef{forms: []string{"ciri"}}))

	// Loads and stores.
	add(defs("lbz lbzu lhz lhzu lha lhau lwz lwzu stb stbu sth sthu stw stwu lmw stmw",
		instrDef{forms: []string{"rir"}, mem: true}))
	add(defs("ld ldu std stdu lwa", instrDef{forms: []string{"rir"}, mem: true, feature: Feature64Bit}))
	add(defs("lbzx lhzx lhax lwzx stbx sthx stwx lwarx lwbrx stwbrx dcbf dcbst dcbz dcbt icbi",
		instrDef{forms: []string{"rrr", "rr"}}))
	add(defs("stwcx.", instrDef{forms: []string{"rrr"}}))
	add(defs("ldx stdx ldarx", instrDef{forms: []string{"rrr"}, feature: Feature64Bit}))
	add(defs("stdcx.", instrDef{forms: []string{"rrr"}, feature: Feature64Bit}))
	add(defs("lfs lfsu lfd lfdu stfs stfsu stfd stfdu", instrDef{forms: []string{"fir"}, mem: true}))
	add(defs("lfsx lfdx stfsx stfdx", instrDef{forms: []string{"frr"}}))
	add(defs("lvx stvx lvsl lvsr", instrDef{forms: []string{"vrr"}, feature: FeatureAltivec}))

	// Floating point.
	add(defs("fadd fsub fmul fdiv fadds fsubs fmuls fdivs", instrDef{forms: []string{"fff"}, rc: true}))
	add(defs("fmadd fmsub fnmadd fnmsub fmadds fmsubs fsel", instrDef{forms: []string{"ffff"}, rc: true}))
	add(defs("fmr fneg fabs fnabs frsp fctiw fctiwz fsqrt", instrDef{forms: []string{"ff"}, rc: true}))
	add(defs("fcmpu fcmpo", instrDef{forms: []string{"cff"}}))

	// Vector.
	add(defs("vaddubm vadduhm vadduwm vsububm vsubuhm vsubuwm vand vandc vor vxor vnor "+
		"vmaxsw vminsw vcmpequw vslw vsrw", instrDef{forms: []string{"vvv"}, feature: FeatureAltivec}))
	add(defs("vperm vsel vmaddfp", instrDef{forms: []string{"vvvv"}, feature: FeatureAltivec}))
	add(defs("vspltw vspltb vsplth", instrDef{forms: []string{"vvi"}, feature: FeatureAltivec}))
	add(defs("vspltisw vspltisb vspltish", instrDef{forms: []string{"vi"}, feature: FeatureAltivec}))
	add(defs("mfvscr mtvscr", instrDef{forms: []string{"v"}, feature: FeatureAltivec}))

	// Branches.
	add(defs("b ba bl bla bdnz bdz bdnzl", instrDef{forms: []string{"t"}, branch: true}))
	add(defs("blr blrl bctr bctrl bdnzlr", instrDef{forms: []string{""}, branch: true}))
	add(defs("beq bne blt bgt ble bge bso bns beql bnel bltl bgtl",
		instrDef{forms: []string{"t", "ct"}, branch: true}))
	add(defs("beqlr bnelr bltlr bgtlr blelr bgelr beqctr bnectr",
		instrDef{forms: []string{"", "c"}, branch: true}))
	add(defs("bc bcl", instrDef{forms: []string{"iit"}, branch: true}))
	add(defs("bclr bcctr bclrl bcctrl", instrDef{forms: []string{"ii", "iii"}, branch: true}))

	// Condition register logic.
	add(defs("crand cror crxor crnand crnor creqv crandc crorc", instrDef{forms: []string{"iii"}}))
	add(defs("crset crclr crnot crmove", instrDef{forms: []string{"i", "ii"}}))
	add(defs("mcrf", instrDef{forms: []string{"cc"}}))

	// Special purpose registers and system.
	add(defs("mflr mtlr mfctr mtctr mfxer mtxer mfcr mtcr", instrDef{forms: []string{"r"}}))
	add(defs("mfspr", instrDef{forms: []string{"ri"}}))
	add(defs("mtspr mtcrf", instrDef{forms: []string{"ir"}}))
	add(defs("nop sync lwsync isync eieio trap sc rfi", instrDef{forms: []string{""}}))
	add(defs("tw", instrDef{forms: []string{"irr"}}))
	add(defs("twi", instrDef{forms: []string{"iri"}}))
	add(defs("td", instrDef{forms: []string{"irr"}, feature: Feature64Bit}))
	add(defs("tdi", instrDef{forms: []string{"iri"}, feature: Feature64Bit}))

	return table
}

// matchTable maps every spelled mnemonic, including record forms, to its
// definition.
type matchTable map[string]*instrDef

func newMatchTable() matchTable {
	table := matchTable{}
	for _, def := range instrTable() {
		d := def
		table[d.name] = &d
		if d.rc {
			table[d.name+"."] = &d
		}
	}
	return table
}

// instrDescs lists one descriptor per spelled mnemonic, sorted, so opcode
// numbers are stable.
func (t matchTable) instrDescs() []mc.InstrDesc {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)

	descs := make([]mc.InstrDesc, 0, len(names))
	for _, name := range names {
		descs = append(descs, mc.InstrDesc{Name: name, NumOperands: len(t[name].forms[0])})
	}
	return descs
}
