package ppc

import (
	"fmt"

	"github.com/yaklabco/asmbridge/pkg/mc"
)

// Register classes.
const (
	ClassGPR mc.RegisterClass = "gpr"
	ClassFPR mc.RegisterClass = "fpr"
	ClassVR  mc.RegisterClass = "vr"
	ClassCR  mc.RegisterClass = "crrc"
	ClassSPR mc.RegisterClass = "spr"
)

func newRegisterInfo(mc.Triple) (*mc.RegisterInfo, error) {
	var (
		names   []string
		classes []mc.RegisterClass
	)
	add := func(prefix string, n int, class mc.RegisterClass) {
		for i := range n {
			names = append(names, fmt.Sprintf("%s%d", prefix, i))
			classes = append(classes, class)
		}
	}

	add("r", 32, ClassGPR)
	add("f", 32, ClassFPR)
	add("v", 32, ClassVR)
	add("cr", 8, ClassCR)
	for _, spr := range []string{"lr", "ctr", "xer", "vrsave"} {
		names = append(names, spr)
		classes = append(classes, ClassSPR)
	}

	return mc.NewRegisterInfo(names, classes), nil
}

// numbered looks up register n of class, as r3 or cr7.
func numbered(mri *mc.RegisterInfo, class mc.RegisterClass, n int64) (mc.Register, bool) {
	prefix := map[mc.RegisterClass]string{ClassGPR: "r", ClassFPR: "f", ClassVR: "v", ClassCR: "cr"}[class]
	if prefix == "" {
		return 0, false
	}
	return mri.Lookup(fmt.Sprintf("%s%d", prefix, n))
}
