// Package ppc registers the PowerPC target. Import it for its side effect:
//
//	import _ "github.com/yaklabco/asmbridge/pkg/target/ppc"
package ppc

import (
	"fmt"
	"slices"

	"github.com/yaklabco/asmbridge/pkg/mc"
)

// Arches are the triple architecture names handled by this target.
var Arches = []string{
	"powerpc", "powerpcle", "powerpc64", "powerpc64le",
	"ppc", "ppc32", "ppcle", "ppc64", "ppc64le",
}

// CPUs are the processor names accepted by NewSubtargetInfo.
var CPUs = []string{
	"generic", "440", "601", "603", "604", "750", "7400", "7450", "970",
	"g3", "g4", "g4+", "g5", "ppc", "ppc64", "ppc64le",
	"pwr4", "pwr5", "pwr6", "pwr7", "pwr8", "pwr9", "pwr10",
}

func init() {
	mc.RegisterTarget(&mc.Target{
		Name:             "ppc",
		Description:      "PowerPC 32 and 64",
		Arches:           Arches,
		CPUs:             CPUs,
		NewRegisterInfo:  newRegisterInfo,
		NewAsmInfo:       newAsmInfo,
		NewInstrInfo:     newInstrInfo,
		NewSubtargetInfo: newSubtargetInfo,
		NewInstPrinter:   newInstPrinter,
		NewAsmBackend:    newAsmBackend,
		NewAsmParser:     newAsmParser,
	})
}

func newAsmInfo(_ *mc.RegisterInfo, triple mc.Triple, _ mc.TargetOptions) (*mc.AsmInfo, error) {
	mai := &mc.AsmInfo{
		CommentString:   "#",
		SeparatorString: ";",
		LabelSuffix:     ":",
		PointerSize:     4,
		LittleEndian:    triple.IsLittleEndian(),
	}
	if triple.Is64Bit() {
		mai.PointerSize = 8
	}
	return mai, nil
}

func newInstrInfo() (*mc.InstrInfo, error) {
	return mc.NewInstrInfo(newMatchTable().instrDescs()), nil
}

// cpuFeatures lists the features a processor enables by default.
var cpuFeatures = map[string][]string{
	"7400":    {FeatureAltivec},
	"7450":    {FeatureAltivec},
	"g4":      {FeatureAltivec},
	"g4+":     {FeatureAltivec},
	"970":     {FeatureAltivec, Feature64Bit},
	"g5":      {FeatureAltivec, Feature64Bit},
	"ppc64":   {Feature64Bit},
	"ppc64le": {FeatureAltivec, Feature64Bit},
	"pwr4":    {Feature64Bit},
	"pwr5":    {Feature64Bit},
	"pwr6":    {FeatureAltivec, Feature64Bit},
	"pwr7":    {FeatureAltivec, Feature64Bit},
	"pwr8":    {FeatureAltivec, Feature64Bit},
	"pwr9":    {FeatureAltivec, Feature64Bit},
	"pwr10":   {FeatureAltivec, Feature64Bit},
}

func newSubtargetInfo(triple mc.Triple, cpu, features string) (*mc.SubtargetInfo, error) {
	if cpu == "" {
		cpu = "generic"
	}
	if !slices.Contains(CPUs, cpu) {
		return nil, fmt.Errorf("'%s' is not a recognized processor for this target", cpu)
	}

	defaults := map[string]bool{}
	if triple.Is64Bit() {
		defaults[Feature64Bit] = true
	}
	for _, feature := range cpuFeatures[cpu] {
		defaults[feature] = true
	}

	set, err := mc.ParseFeatures(features, defaults)
	if err != nil {
		return nil, err
	}
	return &mc.SubtargetInfo{Triple: triple, CPU: cpu, Features: set}, nil
}

type asmBackend struct {
	name   string
	little bool
}

func newAsmBackend(sti *mc.SubtargetInfo, _ *mc.RegisterInfo, _ mc.TargetOptions) (mc.AsmBackend, error) {
	if sti == nil {
		return nil, fmt.Errorf("ppc: asm backend needs subtarget info")
	}
	name := "elf32-powerpc"
	if sti.Triple.Is64Bit() {
		name = "elf64-powerpc"
	}
	if sti.Triple.IsLittleEndian() {
		name += "le"
	}
	return asmBackend{name: name, little: sti.Triple.IsLittleEndian()}, nil
}

func (b asmBackend) Name() string { return b.name }

func (b asmBackend) LittleEndian() bool { return b.little }
